package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"interview-voice-grader/internal/storage"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *storage.Store) error {
				if err := store.Migrate(cmd.Context()); err != nil {
					return err
				}
				cfg, _ := ctx.ensureConfig()
				fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.Store.Driver)
				return nil
			})
		},
	}
}
