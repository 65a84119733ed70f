package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/log"
	"expenses/internal/storage"
)

func newMigrateCommand(a *app) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply every pending schema migration for the configured database driver
and print the resulting schema version. With --status nothing is applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, dsn := a.cfg.DBDriver, a.cfg.DSN()
			if !statusOnly {
				if err := storage.RunMigrations(driver, dsn); err != nil {
					return err
				}
				a.logger.WithComponent(log.ComponentStorage).Info("Migrations applied",
					log.FieldOperation, log.OpMigrate,
					"driver", driver)
			}

			version, dirty, err := storage.MigrationVersion(driver, dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (driver %s", version, driver)
			if dirty {
				fmt.Fprint(cmd.OutOrStdout(), ", dirty")
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only print the current schema version")
	return cmd
}
