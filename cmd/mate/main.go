// Command mate is a terminal client for the Neurathon Mate API: it decomposes
// tasks, runs a step-by-step focus session and manages the local profile.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurathon-mate/internal/client"
	"github.com/yungbote/neurathon-mate/internal/platform/envutil"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
	"github.com/yungbote/neurathon-mate/internal/platform/shutdown"
	"github.com/yungbote/neurathon-mate/internal/session"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	err := rootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globals struct {
	apiURL      string
	storagePath string
	timeout     time.Duration
	verbose     bool

	in  io.Reader
	out io.Writer
}

func rootCmd(in io.Reader, out io.Writer) *cobra.Command {
	g := &globals{in: in, out: out}

	cmd := &cobra.Command{
		Use:           "mate",
		Short:         "Break overwhelming tasks into Micro-Wins",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&g.apiURL, "api", envutil.String("MATE_API_URL", "http://localhost:5001"), "Mate API base URL")
	cmd.PersistentFlags().StringVar(&g.storagePath, "storage", envutil.String("MATE_STORAGE_PATH", ""), "Local storage file (default: user config dir)")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", envutil.Duration("MATE_CLIENT_TIMEOUT", 90*time.Second), "Request timeout")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	cmd.AddCommand(
		decomposeCmd(g),
		focusCmd(g),
		profileCmd(g),
		transcribeCmd(g),
		modelsCmd(g),
	)
	return cmd
}

func (g *globals) logger() *logger.Logger {
	if !g.verbose {
		return logger.NewNop()
	}
	log, err := logger.New("development")
	if err != nil {
		return logger.NewNop()
	}
	return log
}

func (g *globals) client() (*client.Client, error) {
	return client.New(client.Options{BaseURL: g.apiURL, Timeout: g.timeout})
}

func (g *globals) store(log *logger.Logger) (*session.Store, error) {
	path := g.storagePath
	if path == "" {
		p, err := session.DefaultStoragePath()
		if err != nil {
			return nil, fmt.Errorf("resolve storage path: %w", err)
		}
		path = p
	}
	return session.NewStore(log, session.NewFileStorage(path)), nil
}
