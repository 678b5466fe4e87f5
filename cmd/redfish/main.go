package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/redfish-client/cmd/redfish/commands"
	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "redfish",
	Short: "Redfish hardware management CLI",
	Long: `A command-line interface for Redfish services.

Browse the resource tree of a baseboard management controller, update resources,
invoke actions and wait for state changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.redfish/config.yml)")
	rootCmd.PersistentFlags().StringP("endpoint", "e", "", "Redfish service URL")
	rootCmd.PersistentFlags().StringP("username", "u", "", "user name")
	rootCmd.PersistentFlags().StringP("password", "p", "", "password (prompted when omitted)")
	rootCmd.PersistentFlags().BoolP("insecure", "k", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable the response cache")
	rootCmd.PersistentFlags().String("nats-url", "", "share the response cache through this NATS server")
	rootCmd.PersistentFlags().String("nats-bucket", "", "NATS key-value bucket for the response cache")
	rootCmd.PersistentFlags().Bool("eager", false, "fetch resources as soon as they are referenced")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	for _, name := range []string{"config", "endpoint", "username", "password", "insecure", "no-cache", "nats-url", "nats-bucket", "eager", "output", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewPatchCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewActionCommand())
	rootCmd.AddCommand(commands.NewWaitCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.redfish/config.yml
		viper.AddConfigPath(filepath.Join(home, commands.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// REDFISH_ENDPOINT, REDFISH_USERNAME, ...
	viper.SetEnvPrefix("REDFISH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
