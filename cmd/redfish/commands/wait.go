package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/spf13/cobra"
)

// NewWaitCommand creates the wait command.
func NewWaitCommand() *cobra.Command {
	var (
		field     string
		value     string
		blacklist []string
		interval  time.Duration
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait PATH",
		Short: "Wait until a field of a resource takes a value",
		Long: `Poll the resource at PATH until the dotted FIELD equals VALUE. Values are compared
as JSON, so --value 5 matches a number and --value On matches the string "On".`,
		Example: `  redfish wait /redfish/v1/Systems/1 --field PowerState --value Off --timeout 2m
  redfish wait /redfish/v1/TaskService/Tasks/7 --field TaskState --value Completed --blacklist Exception`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := splitField(field)
			if len(path) == 0 {
				return ErrFieldRequired
			}

			ctx := cmd.Context()

			root, cleanup, err := connect(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			resource, err := root.Find(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to find %s: %w", args[0], err)
			}

			banned := make([]interface{}, len(blacklist))
			for i, item := range blacklist {
				banned[i] = parseValue(item)
			}

			err = resource.WaitFor(ctx, path, parseValue(value),
				redfish.WithPollInterval(interval),
				redfish.WithTimeout(timeout),
				redfish.WithBlacklist(banned...))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", strings.Join(path, "."), value)

			return nil
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "", "dotted path of the field to watch")
	cmd.Flags().StringVar(&value, "value", "", "expected value")
	cmd.Flags().StringSliceVar(&blacklist, "blacklist", nil, "values that abort the wait")
	cmd.Flags().DurationVar(&interval, "interval", constants.DefaultPollInterval, "poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", constants.DefaultWaitTimeout, "maximum time to wait")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}
