package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"classroom-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on storage and the database",
	Long:  `Checks the snapshot bucket structure, the database schema and the submission version chains.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIntegrity(func(ctx context.Context, svc *integrity.Service, l *zap.Logger) error {
			report := svc.RunAll(ctx)
			if err := printJSON(report); err != nil {
				return err
			}
			if !report.Healthy {
				return fmt.Errorf("integrity checks found problems")
			}
			l.Info("All integrity checks passed")
			return nil
		})
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix snapshot folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIntegrity(func(ctx context.Context, svc *integrity.Service, l *zap.Logger) error {
			l.Info("Checking folder structure...")
			missing, err := svc.CheckStructure(ctx)
			if err != nil {
				return fmt.Errorf("structure check failed: %w", err)
			}
			if len(missing) == 0 {
				l.Info("Structure is intact.")
				return nil
			}

			l.Warn("Missing folders detected", zap.Strings("missing", missing))
			if !fixFlag {
				return nil
			}
			l.Info("Fixing missing folders...")
			if err := svc.FixStructure(ctx, missing); err != nil {
				return fmt.Errorf("failed to fix structure: %w", err)
			}
			l.Info("Structure fixed successfully.")
			return nil
		})
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the database schema against the classroom models",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIntegrity(func(ctx context.Context, svc *integrity.Service, l *zap.Logger) error {
			report, err := svc.CheckSchema()
			if err != nil {
				return err
			}
			if err := printJSON(report); err != nil {
				return err
			}
			if !report.Matched {
				return fmt.Errorf("schema does not match the models")
			}
			return nil
		})
	},
}

// chainsCmd represents the integrity chains command
var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "Audit submission version chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIntegrity(func(ctx context.Context, svc *integrity.Service, l *zap.Logger) error {
			report, err := svc.CheckChains(ctx)
			if err != nil {
				return err
			}
			l.Info("Version chain audit completed",
				zap.Int("chains", report.Chains),
				zap.Int("latest_issues", len(report.LatestIssues)),
				zap.Int("version_gaps", len(report.VersionGaps)),
				zap.Int("orphan_grades", len(report.OrphanGrades)),
			)
			if !report.Healthy {
				if err := printJSON(report); err != nil {
					return err
				}
				return fmt.Errorf("broken version chains detected")
			}
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd, schemaCmd, chainsCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Fix missing folders")
}

func withIntegrity(run func(ctx context.Context, svc *integrity.Service, l *zap.Logger) error) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	return run(context.Background(), rt.integrity().Service(), rt.logger)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
