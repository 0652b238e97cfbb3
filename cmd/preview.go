package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// previewCmd prints what an import would change.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview a snapshot import without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		snap, err := loadSnapshot(ctx, rt)
		if err != nil {
			return err
		}

		preview, err := rt.classroom(nil).Service().Preview(ctx, snap)
		if err != nil {
			return err
		}

		return printJSON(preview)
	},
}

func init() {
	addSourceFlags(previewCmd)
	RootCmd.AddCommand(previewCmd)
}
