package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"classroom-sync/feature/classroom/diff"
	"classroom-sync/feature/classroom/importer"
	"classroom-sync/feature/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Snapshot source flags shared by import and preview
	snapshotFile   string
	snapshotObject string
	snapshotLatest string

	dryRunImport bool
	yesConfirm   bool
	jsonOutput   bool
)

// importCmd imports one snapshot.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a classroom snapshot",
	Long: `Import a teacher's classroom snapshot into the database.

A preview is always computed first. Archiving students or versioning graded
submissions asks for confirmation unless --yes is given.

Examples:
  # Import a local file
  import --file snapshot.json

  # Preview only
  import --file snapshot.json --dry-run

  # Re-import the newest archived snapshot of a teacher, non-interactive
  import --latest teacher@school.edu --yes`,
	RunE: runImport,
}

func init() {
	addSourceFlags(importCmd)
	importCmd.Flags().BoolVar(&dryRunImport, "dry-run", false, "Only print the preview; write nothing")
	importCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm archiving and versioning (non-interactive)")
	importCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")

	RootCmd.AddCommand(importCmd)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&snapshotFile, "file", "", "Snapshot JSON file")
	cmd.Flags().StringVar(&snapshotObject, "object", "", "Snapshot object key in the storage bucket")
	cmd.Flags().StringVar(&snapshotLatest, "latest", "", "Teacher email whose newest archived snapshot is used")
	cmd.MarkFlagsMutuallyExclusive("file", "object", "latest")
	cmd.MarkFlagsOneRequired("file", "object", "latest")
}

// loadSnapshot reads the snapshot selected by the source flags.
func loadSnapshot(ctx context.Context, rt *runtime) (*snapshot.Snapshot, error) {
	if snapshotFile != "" {
		return snapshot.LoadFile(snapshotFile)
	}
	if rt.client == nil {
		return nil, errors.New("snapshot storage is not configured")
	}
	if snapshotObject != "" {
		return snapshot.LoadObject(ctx, rt.client, rt.cfg.Storage.Bucket, snapshotObject)
	}
	snap, key, err := snapshot.LoadLatest(ctx, rt.client, rt.cfg.Storage.Bucket, rt.cfg.Import.SnapshotPrefix, snapshotLatest)
	if err == nil {
		rt.logger.Info("Using archived snapshot", zap.String("key", key))
	}
	return snap, err
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	l := rt.logger

	if err := rt.migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	snap, err := loadSnapshot(ctx, rt)
	if err != nil {
		return err
	}

	feature := rt.classroom(nil)
	svc := feature.Service()

	// Step 1: Preview (always runs)
	l.Info("Planning import...", zap.String("teacher", snap.Teacher.Email))
	preview, err := svc.Preview(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to preview import: %w", err)
	}
	printPreview(l, preview)

	if dryRunImport {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	// Step 2: Confirm archiving and versioning
	if c := preview.Changes; c != nil && (c.StudentsWhoWouldBeArchived > 0 || c.SubmissionsThatWouldVersion > 0) {
		if !confirmImport() {
			l.Warn("Import cancelled by user. No changes were made.")
			return nil
		}
	}

	// Step 3: Import. Snapshots read from storage are already archived.
	var result *importer.Result
	if snapshotFile != "" {
		result, err = svc.Import(ctx, snap)
	} else {
		result, err = rt.importer(nil).Import(ctx, snap)
	}
	if result != nil {
		printResult(l, result)
	}
	if err != nil {
		return fmt.Errorf("import aborted: %w", err)
	}
	return nil
}

// printPreview prints a formatted preview using logger.
func printPreview(l *zap.Logger, p *diff.Result) {
	l.Info("Import preview",
		zap.Bool("first_import", p.IsFirstImport),
		zap.Int("classrooms", p.New.ClassroomCount),
		zap.Int("assignments", p.New.TotalAssignments),
		zap.Int("submissions", p.New.TotalSubmissions),
	)

	if c := p.Changes; c != nil {
		l.Info("Planned changes",
			zap.Int("new_classrooms", c.NewClassrooms),
			zap.Int("changed_classrooms", c.ChangedClassrooms),
			zap.Int("new_students", c.NewStudents),
			zap.Int("archived_students", c.StudentsWhoWouldBeArchived),
			zap.Int("new_assignments", c.NewAssignments),
			zap.Int("changed_assignments", c.ChangedAssignments),
			zap.Int("new_submissions", c.NewSubmissions),
			zap.Int("updated_submissions", c.SubmissionsThatWouldUpdate),
			zap.Int("versioned_submissions", c.SubmissionsThatWouldVersion),
			zap.Int("patched_submissions", c.SubmissionsThatWouldPatch),
			zap.Int("grades", c.GradesToRecord),
			zap.Int("conflicts", c.Conflicts),
		)
	}

	// Show sample of mismatches (max 5 for logger)
	maxShow := min(5, len(p.Mismatches))
	for _, m := range p.Mismatches[:maxShow] {
		l.Info("Sample change",
			zap.String("entity", m.Entity),
			zap.String("classroom", m.Classroom),
			zap.String("key", m.Key),
			zap.Strings("fields", m.Fields),
		)
	}
	if len(p.Mismatches) > maxShow {
		l.Info("Additional changes not shown", zap.Int("count", len(p.Mismatches)-maxShow))
	}
}

func printResult(l *zap.Logger, r *importer.Result) {
	if jsonOutput {
		data, err := json.MarshalIndent(r, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
	}

	fields := []zap.Field{
		zap.String("import_id", r.ImportID),
		zap.String("outcome", string(r.Outcome)),
		zap.Int64("processing_time_ms", r.ProcessingTimeMs),
		zap.Int("errors", len(r.Errors)),
	}
	if r.Outcome == importer.OutcomeSucceeded {
		l.Info(r.Summary, fields...)
	} else {
		l.Warn(r.Summary, fields...)
	}
	for _, e := range r.Errors {
		l.Warn("Import error", zap.String("group", e.Group), zap.String("key", e.Key), zap.String("message", e.Message))
	}
}

// confirmImport prompts the user for confirmation or uses --yes flag.
func confirmImport() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Students will be archived or graded submissions versioned. Type 'yes' to continue: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
