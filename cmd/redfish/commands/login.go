package commands

import (
	"fmt"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/fivetwenty-io/redfish-client/pkg/rfclient"
	"github.com/spf13/cobra"
)

type sessionInfo struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Mode      string `json:"mode" yaml:"mode"`
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to a Redfish service",
		Long: `Authenticate with a Redfish service. A session is created when the service root
links a sessions collection and stored in the config file for later commands; otherwise
Basic credentials are verified and used on every request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := buildConfig()
			if err != nil {
				return err
			}

			if config.Password == "" {
				config.Password, err = promptPassword()
				if err != nil {
					return err
				}
			}

			root, err := rfclient.Connect(cmd.Context(), config)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			data := root.SessionAuthData()

			err = saveSession(data)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), toMap(sessionInfo{
				Endpoint:  config.Endpoint,
				Mode:      data.Mode.String(),
				SessionID: data.SessionID,
			}))
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			stored := storedSession()
			if stored.Token == "" {
				return ErrNoActiveSession
			}

			config, err := buildConfig()
			if err != nil {
				return err
			}

			root, err := rfclient.New(cmd.Context(), config)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			root.Connector().SetSessionAuthData(stored.SessionPath, stored.SessionID, stored.Token)

			err = root.Logout(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}

			err = saveSession(redfish.SessionAuthData{})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}
