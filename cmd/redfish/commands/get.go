package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "get PATH [KEY...]",
		Short: "Show a resource or one of its fields",
		Long: `Fetch the resource at PATH and print it. Additional keys descend into the
document, following links as needed; array elements are addressed by index.`,
		Example: `  redfish get /redfish/v1/Systems/1
  redfish get /redfish/v1 Systems Members 0 PowerState
  redfish get /redfish/v1/Systems/1 --query 'Status.Health'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if query != "" {
				result, err := resource.Query(ctx, query)
				if err != nil {
					return err
				}

				return renderOutput(cmd.OutOrStdout(), result)
			}

			if len(args) == 1 {
				content, err := resource.Raw(ctx)
				if err != nil {
					return fmt.Errorf("failed to get %s: %w", args[0], err)
				}

				return renderOutput(cmd.OutOrStdout(), content)
			}

			value, ok, err := walk(cmd, resource, args[1:])
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", args[0], err)
			}

			if !ok {
				return fmt.Errorf("%w: %s", redfish.ErrKeyNotFound, strings.Join(args[1:], " "))
			}

			content, err := resolve(cmd, value)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), content)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "JMESPath expression applied to the resource")

	return cmd
}

// walk follows keys from resource like Dig, additionally indexing into arrays with
// decimal keys.
func walk(cmd *cobra.Command, resource *redfish.Resource, keys []string) (redfish.Value, bool, error) {
	var (
		value redfish.Value
		ok    bool
		err   error
	)

	for i, key := range keys {
		if i > 0 && value.Kind() == redfish.KindArray {
			index, convErr := strconv.Atoi(key)
			if convErr != nil || index < 0 || index >= len(value.Array()) {
				return redfish.Value{}, false, nil
			}

			value = value.Array()[index]

			continue
		}

		if i > 0 {
			resource = value.Resource()
			if resource == nil {
				return redfish.Value{}, false, nil
			}
		}

		value, ok, err = resource.Dig(cmd.Context(), key)
		if err != nil || !ok {
			return redfish.Value{}, false, err
		}
	}

	return value, true, nil
}

// resolve returns the plain JSON of value, fetching it first when it is a link.
func resolve(cmd *cobra.Command, value redfish.Value) (interface{}, error) {
	if value.Kind() != redfish.KindLink {
		return value.JSON(), nil
	}

	content, err := value.Resource().Raw(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to follow %s: %w", value.Resource().Address(), err)
	}

	return content, nil
}
