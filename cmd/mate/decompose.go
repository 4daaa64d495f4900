package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/session"
)

func decomposeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "decompose <task...>",
		Short: "Print the Micro-Win plan for a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := g.logger()
			defer log.Sync()

			api, err := g.client()
			if err != nil {
				return err
			}
			store, err := g.store(log)
			if err != nil {
				return err
			}
			ctrl := session.NewController(log, store, api)
			if err := ctrl.Submit(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			st := store.State()
			printPlan(g.out, st.Plan)
			if st.Outcome != "" && st.Outcome != "ok" {
				fmt.Fprintf(g.out, "\n(using the backup plan: %s)\n", st.Outcome)
			}
			return nil
		},
	}
}

func printPlan(w io.Writer, plan domain.Plan) {
	fmt.Fprintf(w, "%s\n", plan.Roadmap)
	fmt.Fprintf(w, "Total: %s, %d Micro-Wins\n\n", plan.TotalTime, len(plan.Steps))
	for i, s := range plan.Steps {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, s.Time, s.Action)
		if s.Tip != "" {
			fmt.Fprintf(w, "   tip: %s\n", s.Tip)
		}
	}
}
