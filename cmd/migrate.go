package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/merchant-fee-intake/internal/storage"
	"github.com/ginjaninja78/merchant-fee-intake/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for batch storage",
	Long: `Applies the embedded schema migrations to the database named by
database.url (or INTAKE_DATABASE_URL). Already-applied migrations are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applied, err := storage.Migrate(appConfig.Database.URL, logger.Get())
		if err != nil {
			return err
		}
		if applied {
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
