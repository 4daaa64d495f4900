package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurathon-mate/internal/session"
)

func focusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "focus <task...>",
		Short: "Walk through a task one Micro-Win at a time",
		Long: `Decompose a task and step through it.

Enter advances, "b" goes back, "r" resets and "q" quits.
Finishing the last step adds one to your streak.`,
		Args: cobra.MinimumNArgs(1),
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

			fmt.Fprintln(g.out, "Thinking...")
			if err := ctrl.Submit(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			return runFocus(store, g.in, g.out)
		},
	}
}

func runFocus(store *session.Store, in io.Reader, out io.Writer) error {
	render(out, store.State())
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		var action session.Action
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "":
			action = session.Advance{}
		case "b":
			action = session.Back{}
		case "r":
			_ = store.Dispatch(session.Reset{})
			fmt.Fprintln(out, "Reset. Come back when you're ready.")
			return nil
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "Enter = next, b = back, r = reset, q = quit")
			continue
		}
		if err := store.Dispatch(action); err != nil {
			fmt.Fprintf(out, "(%v)\n", err)
			if !errors.Is(err, session.ErrNotPersisted) {
				continue
			}
		}
		st := store.State()
		if st.Phase == session.PhaseComplete {
			fmt.Fprintf(out, "All done! Streak: %d\n", st.Streak)
			return store.Dispatch(session.Reset{})
		}
		render(out, st)
	}
	return sc.Err()
}

func render(out io.Writer, st session.State) {
	if st.OnOverview() {
		fmt.Fprintf(out, "\n%s\n%s total, %d Micro-Wins. Press Enter to start.\n", st.Plan.Roadmap, st.Plan.TotalTime, len(st.Plan.Steps))
		return
	}
	step, ok := st.CurrentStep()
	if !ok {
		return
	}
	fmt.Fprintf(out, "\nStep %d of %d (%.0f%%) [%s]\n%s\n", st.Position+1, len(st.Plan.Steps), st.Progress()*100, step.Time, step.Action)
	if step.Tip != "" {
		fmt.Fprintf(out, "tip: %s\n", step.Tip)
	}
}
