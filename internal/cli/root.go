package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the waypoint command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:           "waypoint",
		Short:         "Run step-by-step flows described in YAML",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.LogFormat, "log-format", "json", "Log format: json or text")
	flags.StringVar(&opts.Journal, "journal", "", "Transition journal: a SQLite file, memory, or a postgres://, redis:// or mongodb:// URL")
	flags.BoolVar(&opts.JSON, "json", false, "Output in JSON format")

	root.AddCommand(
		NewRunCmd(opts),
		NewValidateCmd(opts),
		NewHistoryCmd(opts),
	)
	return root
}
