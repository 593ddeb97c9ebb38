package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCmd lists journaled runs, or the events of one run.
func NewHistoryCmd(opts *Options) *cobra.Command {
	var flow string

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show journaled runs or the transitions of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Journal == "" {
				return errors.New("history needs --journal")
			}
			ctx := cmd.Context()

			store, closeJournal, err := OpenJournal(ctx, opts.Journal)
			if err != nil {
				return err
			}
			defer func() { _ = closeJournal() }()

			out := opts.output(cmd.OutOrStdout(), cmd.ErrOrStderr())

			if len(args) == 1 {
				events, err := store.ListEvents(ctx, args[0])
				if err != nil {
					return err
				}
				if len(events) == 0 {
					return fmt.Errorf("run %s: no events", args[0])
				}
				headers := []string{"AT", "TYPE", "STEP", "FROM", "DETAIL"}
				rows := make([][]string, len(events))
				for i, ev := range events {
					rows[i] = []string{ev.At.Format(time.RFC3339), string(ev.Type), dash(ev.Step), dash(ev.From), dash(ev.Detail)}
				}
				return out.Print(headers, rows, events)
			}

			runs, err := store.ListRuns(ctx, flow)
			if err != nil {
				return err
			}
			headers := []string{"RUN", "FLOW", "STARTED", "UPDATED", "LAST", "EVENTS"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.RunID,
					r.Workflow,
					r.StartedAt.Format(time.RFC3339),
					r.UpdatedAt.Format(time.RFC3339),
					string(r.LastEvent),
					strconv.Itoa(r.Events),
				}
			}
			return out.Print(headers, rows, runs)
		},
	}

	cmd.Flags().StringVar(&flow, "flow", "", "Only list runs of this flow")
	return cmd
}
