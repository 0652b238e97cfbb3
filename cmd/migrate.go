package cmd

import (
	"github.com/spf13/cobra"
)

// migrateCmd creates or updates the database schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the classroom tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.migrate(cmd.Context()); err != nil {
			return err
		}
		rt.logger.Info("Database schema is up to date")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
