package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewURLCommand creates the url command.
func NewURLCommand() *cobra.Command {
	var flags argFlags

	cmd := &cobra.Command{
		Use:     "url <segment>...",
		Short:   "Print the URL of a route chain without sending it",
		Example: `  hac url users :id --param id=1 --query page=2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, segments []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			args, err := flags.build()
			if err != nil {
				return err
			}

			root, err := newRoot(cmd.Context(), config, false)
			if err != nil {
				return err
			}

			built, err := root.At(segments...).URL(args)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), built.String())

			return nil
		},
	}

	addArgFlags(cmd, &flags)

	return cmd
}
