package commands

import (
	"fmt"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/spf13/cobra"
)

// NewPatchCommand creates the patch command.
func NewPatchCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:     "patch PATH",
		Short:   "Update a resource",
		Example: `  redfish patch /redfish/v1/Systems/1 --data '{"AssetTag": "rack-12"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseData(data)
			if err != nil {
				return err
			}

			return mutate(cmd, args[0], func(resource *redfish.Resource) (*redfish.Response, error) {
				return resource.Patch(cmd.Context(), payload)
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, args[0], func(resource *redfish.Resource) (*redfish.Response, error) {
				return resource.Delete(cmd.Context())
			})
		},
	}
}

// NewActionCommand creates the action command.
func NewActionCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "action PATH NAME",
		Short: "Invoke an action on a resource",
		Long: `Invoke the action NAME advertised by the resource at PATH. Actions are looked up
under "Actions", including vendor actions nested under "Oem".`,
		Example: `  redfish action /redfish/v1/Systems/1 '#ComputerSystem.Reset' --data '{"ResetType": "ForceOff"}'`,
		Args:    cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseData(data)
			if err != nil {
				return err
			}

			return mutate(cmd, args[0], func(resource *redfish.Resource) (*redfish.Response, error) {
				return resource.ExecuteAction(cmd.Context(), args[1], payload)
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON action parameters")

	return cmd
}

func mutate(cmd *cobra.Command, path string, call func(*redfish.Resource) (*redfish.Response, error)) error {
	ctx := cmd.Context()

	root, cleanup, err := connect(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resource, err := root.Find(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", path, err)
	}

	resp, err := call(resource)
	if err != nil {
		return err
	}

	summary, failure := summarize(resp)

	err = renderOutput(cmd.OutOrStdout(), toMap(summary))
	if err != nil {
		return err
	}

	return failure
}
