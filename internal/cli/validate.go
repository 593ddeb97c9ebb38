package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/petrijr/waypoint"
	"github.com/petrijr/waypoint/internal/wizard"
)

// NewValidateCmd checks a flow file and lists its steps.
func NewValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <flow.yaml>",
		Short: "Check a flow file and list its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, b, err := loadFlow(args[0])
			if err != nil {
				return err
			}
			if _, err := b.Build(); err != nil {
				return err
			}

			out := opts.output(cmd.OutOrStdout(), cmd.ErrOrStderr())
			headers := []string{"POS", "NAME", "KIND", "PERSISTENCE", "SKIP WHEN", "STYLE"}
			rows := make([][]string, len(spec.Steps))
			for i, st := range spec.Steps {
				rows[i] = []string{strconv.Itoa(i), st.Name, st.Kind, persistenceLabel(st), dash(st.SkipWhen), styleLabel(st)}
			}
			if err := out.Print(headers, rows, spec); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Flow %s is valid: %d steps", spec.Name, len(spec.Steps)))
			return nil
		},
	}
}

// loadFlow reads a flow file and builds it with the wizard kinds.
func loadFlow(path string) (*waypoint.FlowSpec, *waypoint.FlowBuilder, error) {
	spec, err := waypoint.LoadFlowSpecFile(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := wizard.NewRegistry().Builder(spec)
	if err != nil {
		return nil, nil, err
	}
	return spec, b, nil
}

func persistenceLabel(st waypoint.StepSpec) string {
	if st.PersistWhen != "" {
		return "persistWhenSkipped if " + st.PersistWhen
	}
	p, err := waypoint.ParsePersistence(st.Persistence)
	if err != nil {
		return st.Persistence
	}
	return p.String()
}

func styleLabel(st waypoint.StepSpec) string {
	if st.LaunchStyle == "" {
		return string(waypoint.LaunchStyleDefault)
	}
	return st.LaunchStyle
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
