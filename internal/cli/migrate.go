package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(run backendRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return fmt.Errorf("applying schema: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return nil
			})
		},
	}
}
