package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigDirName is the directory under $HOME holding config.yml.
const ConfigDirName = ".redfish"

// configFilePath returns the config file in use, or the default location when none was read.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, "config.yml"), nil
}

// saveSession stores the session in the config file so later invocations can reuse it.
// A zero token removes the stored session.
func saveSession(data redfish.SessionAuthData) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	settings := make(map[string]interface{})

	// configFile comes from the --config flag or the user's home directory.
	// #nosec G304
	current, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		err = yaml.Unmarshal(current, &settings)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if settings == nil {
		settings = make(map[string]interface{})
	}

	if data.Token == "" {
		delete(settings, "session")
	} else {
		settings["session"] = map[string]string{
			"path":  data.SessionPath,
			"id":    data.SessionID,
			"token": data.Token,
		}
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	err = os.WriteFile(configFile, out, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set(keySessionPath, data.SessionPath)
	viper.Set(keySessionID, data.SessionID)
	viper.Set(keySessionToken, data.Token)

	return nil
}
