package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurathon-mate/internal/session"
)

func profileCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the local profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored profile and streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.store(g.logger())
			if err != nil {
				return err
			}
			st := store.State()
			b, err := json.MarshalIndent(st.Profile, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(g.out, "%s\nstreak: %d\n", b, st.Streak)
			return nil
		},
	})

	var (
		name        string
		triggers    string
		granularity string
		visualCues  bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.store(g.logger())
			if err != nil {
				return err
			}
			p := store.State().Profile
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = name
			}
			if flags.Changed("triggers") {
				p.Triggers = triggers
			}
			if flags.Changed("granularity") {
				p.Preferences.StepGranularity = granularity
			}
			if flags.Changed("visual-cues") {
				p.Preferences.VisualCues = visualCues
			}
			if err := store.Dispatch(session.UpdateProfile{Profile: p}); err != nil {
				return err
			}
			fmt.Fprintln(g.out, "Profile saved.")
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "Your name (masked before anything is sent)")
	set.Flags().StringVar(&triggers, "triggers", "", "Things that make tasks harder")
	set.Flags().StringVar(&granularity, "granularity", "", "Step granularity, e.g. detailed or brief")
	set.Flags().BoolVar(&visualCues, "visual-cues", true, "Prefer visual cues")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "font",
		Short: "Toggle between the sans and dyslexic fonts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.store(g.logger())
			if err != nil {
				return err
			}
			if err := store.Dispatch(session.ToggleFont{}); err != nil {
				return err
			}
			fmt.Fprintf(g.out, "Font: %s\n", store.State().Profile.Preferences.FontType)
			return nil
		},
	})
	return cmd
}
