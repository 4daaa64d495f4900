package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/inference/engine/gemini"
	"github.com/yungbote/neurathon-mate/internal/platform/envutil"
)

func modelsCmd(g *globals) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that support generateContent",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := gemini.New(cmd.Context(), config.LLMConfig{
				Engine:  config.EngineGemini,
				APIKey:  envutil.String("GEMINI_API_KEY", ""),
				BaseURL: baseURL,
			})
			if err != nil {
				return err
			}
			models, err := eng.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				if m.DisplayName != "" {
					fmt.Fprintf(g.out, "%s\t%s\n", m.Name, m.DisplayName)
				} else {
					fmt.Fprintln(g.out, m.Name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "gemini-base-url", "", "Override the Gemini API endpoint")
	return cmd
}
