package cli

import (
	"context"

	"contract-engine/internal/domain/contract"

	"github.com/spf13/cobra"
)

// Backend is what the admin commands need from the running system.
type Backend interface {
	Migrate(ctx context.Context) error
	Summarize(ctx context.Context, filter contract.Filter) (*contract.Summary, error)
	Close()
}

// BackendFactory opens a Backend on demand so that --help never touches the database.
type BackendFactory func(ctx context.Context, configPath string) (Backend, error)

// NewRootCommand creates the admin CLI with all subcommands registered.
func NewRootCommand(open BackendFactory) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks for the contract engine",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yml")

	withBackend := func(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		b, err := open(ctx, configPath)
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(ctx, b)
	}

	rootCmd.AddCommand(newMigrateCommand(withBackend))
	rootCmd.AddCommand(newSummaryCommand(withBackend))

	return rootCmd
}

type backendRunner func(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error
