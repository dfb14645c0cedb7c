package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// writeOutput renders data in the configured output format. fill builds the
// table form.
func writeOutput(out io.Writer, data any, fill func(table *tablewriter.Table) error) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		return encoder.Encode(data)
	default:
		table := tablewriter.NewWriter(out)

		err := fill(table)
		if err != nil {
			return err
		}

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}
