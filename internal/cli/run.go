package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/petrijr/waypoint"
	"github.com/petrijr/waypoint/internal/tui"
)

// NewRunCmd runs a flow file interactively.
func NewRunCmd(opts *Options) *cobra.Command {
	var (
		answers map[string]string
		async   int
	)

	cmd := &cobra.Command{
		Use:   "run <flow.yaml>",
		Short: "Run a flow in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			spec, b, err := loadFlow(args[0])
			if err != nil {
				return err
			}

			store, closeJournal, err := OpenJournal(ctx, opts.Journal)
			if err != nil {
				return err
			}
			defer func() { _ = closeJournal() }()

			runner, err := waypoint.NewRunner(b, waypoint.Config{
				Logger:       logger,
				Journal:      store,
				AsyncJournal: async,
				JournalRetry: waypoint.Retry(3).WithExponentialBackoff(50*time.Millisecond, 2, time.Second).Policy(),
			})
			if err != nil {
				return err
			}
			runner.Start(ctx)

			m := tui.New(runner)
			m.Start(initialArgs(answers))
			if !m.Done() {
				p := tea.NewProgram(m,
					tea.WithContext(ctx),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.OutOrStdout()),
				)
				if _, err := p.Run(); err != nil {
					return fmt.Errorf("run %s: %w", spec.Name, err)
				}
			}

			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := runner.Close(closeCtx); err != nil {
				return fmt.Errorf("flush journal: %w", err)
			}

			return report(opts.output(cmd.OutOrStdout(), cmd.ErrOrStderr()), spec.Name, runner.Flow.RunID(), m)
		},
	}

	cmd.Flags().StringToStringVar(&answers, "answer", nil, "Known answer as key=value; repeatable")
	cmd.Flags().IntVar(&async, "async-journal", 0, "Queue up to this many journal writes in the background")
	return cmd
}

// runResult is what run prints once the flow ends.
type runResult struct {
	Flow      string         `json:"flow"`
	RunID     string         `json:"run_id,omitempty"`
	Abandoned bool           `json:"abandoned"`
	Answers   map[string]any `json:"answers,omitempty"`
}

func report(out *Output, flow, runID string, m *tui.Model) error {
	args, abandoned := m.Result()
	res := runResult{Flow: flow, RunID: runID, Abandoned: abandoned}
	if abandoned {
		out.Success("Abandoned.")
		return nil
	}
	res.Answers = waypoint.Answers(args)
	return out.JSON(res)
}

func initialArgs(answers map[string]string) waypoint.PassedArgs {
	if len(answers) == 0 {
		return waypoint.NoArgs()
	}
	m := make(map[string]any, len(answers))
	for k, v := range answers {
		m[k] = v
	}
	return waypoint.Args(m)
}
