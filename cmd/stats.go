package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// statsCmd prints teacher statistics.
var statsCmd = &cobra.Command{
	Use:   "stats [email]",
	Short: "Print statistics for one teacher, or every teacher",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		emails := args
		if len(emails) == 0 {
			if emails, err = rt.store.ListTeacherEmails(ctx); err != nil {
				return err
			}
		}

		svc := rt.classroom(nil).Service()
		for _, email := range emails {
			s, err := svc.Stats(ctx, email)
			if err != nil {
				return fmt.Errorf("stats for %s: %w", email, err)
			}

			average := "n/a"
			if s.AverageGrade != nil {
				average = fmt.Sprintf("%.1f%%", *s.AverageGrade)
			}
			fmt.Printf("\n=== %s ===\n", email)
			fmt.Printf("Classrooms: %d\n", s.TotalClassrooms)
			fmt.Printf("Students: %d\n", s.TotalStudents)
			fmt.Printf("Assignments: %d\n", s.TotalAssignments)
			fmt.Printf("Submissions: %d\n", s.TotalSubmissions)
			fmt.Printf("Ungraded: %d\n", s.UngradedSubmissions)
			fmt.Printf("Average Grade: %s\n", average)
		}

		rt.logger.Debug("Stats printed", zap.Int("teachers", len(emails)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)
}
