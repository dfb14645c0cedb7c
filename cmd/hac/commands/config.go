package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/fivetwenty-io/hac/pkg/managed"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Static errors for err113 compliance.
var (
	ErrInvalidKeyValue    = errors.New("expected key=value")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrUnsupportedMethod  = errors.New("unsupported method")
	ErrUnexpectedResponse = errors.New("unexpected result")
)

// Config represents the CLI configuration.
type Config struct {
	BaseURL string               `json:"base_url"          mapstructure:"base_url" yaml:"base_url"`
	Token   string               `json:"token,omitempty"   mapstructure:"token"    yaml:"token,omitempty"`
	Output  string               `json:"output"            mapstructure:"output"   yaml:"output"`
	NoColor bool                 `json:"no_color"          mapstructure:"no_color" yaml:"no_color"`
	Verbose bool                 `json:"verbose"           mapstructure:"verbose"  yaml:"verbose"`
	Timeout time.Duration        `json:"timeout,omitempty" mapstructure:"timeout"  yaml:"timeout,omitempty"`
	Headers map[string]string    `json:"headers,omitempty" mapstructure:"headers"  yaml:"headers,omitempty"`
	Cache   *managed.CacheConfig `json:"cache,omitempty"   mapstructure:"cache"    yaml:"cache,omitempty"`
}

// settableKeys are the keys accepted by "config set".
var settableKeys = map[string]bool{
	"base_url": true,
	"token":    true,
	"output":   true,
	"no_color": true,
	"timeout":  true,
}

func loadConfig() (*Config, error) {
	config := &Config{}

	err := viper.Unmarshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	return config, nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and update the hac CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			shown := *config
			shown.Token = maskToken(config.Token)

			return writeOutput(cmd.OutOrStdout(), shown, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append("Base URL", shown.BaseURL)
				_ = table.Append("Token", shown.Token)
				_ = table.Append("Output", shown.Output)
				_ = table.Append("Timeout", shown.Timeout.String())

				for key, value := range shown.Headers {
					_ = table.Append("Header "+key, value)
				}

				if shown.Cache != nil {
					_ = table.Append("Cache", string(shown.Cache.Type))
				}

				return nil
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !settableKeys[key] {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			viper.Set(key, value)

			path, err := saveConfig()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)

			return nil
		},
	}
}

func saveConfig() (string, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to find home directory: %w", err)
		}

		path = filepath.Join(home, ".hac", "config.yml")
	}

	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	return path, nil
}

func maskToken(token string) string {
	const visible = 4

	if len(token) <= visible {
		return token
	}

	return token[:visible] + "..."
}
