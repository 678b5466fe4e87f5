package commands

import (
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderOutput(cmd.OutOrStdout(), map[string]interface{}{
				"version": version,
				"commit":  commit,
				"built":   date,
			})
		},
	}
}
