package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the hac CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			return writeOutput(cmd.OutOrStdout(), versionInfo, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				err := table.Append("Version", version)
				if err != nil {
					return fmt.Errorf("failed to append row: %w", err)
				}

				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)

				return nil
			})
		},
	}
}
