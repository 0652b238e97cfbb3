package checks

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ChainIssue describes one submission version chain that breaks an invariant.
type ChainIssue struct {
	AssignmentID string `json:"assignment_id"`
	ExternalID   string `json:"external_id"`
	Versions     int    `json:"versions"`
	Latest       int    `json:"latest"`
	MaxVersion   int    `json:"max_version"`
}

// ChainReport is the result of a version chain audit.
type ChainReport struct {
	Chains       int          `json:"chains"`
	Healthy      bool         `json:"healthy"`
	LatestIssues []ChainIssue `json:"latest_issues"`
	VersionGaps  []ChainIssue `json:"version_gaps"`
	OrphanGrades []string     `json:"orphan_grades"`
}

// CheckChains audits submission version chains: each must have exactly one
// latest version, versions must be numbered 1..n, and every grade must
// belong to an existing version.
func CheckChains(ctx context.Context, db *gorm.DB) (*ChainReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	db = db.WithContext(ctx)

	var chains []ChainIssue
	err := db.Table("submissions").
		Select("assignment_id, external_id, COUNT(*) AS versions, " +
			"SUM(CASE WHEN is_latest THEN 1 ELSE 0 END) AS latest, MAX(version) AS max_version").
		Group("assignment_id, external_id").
		Order("assignment_id, external_id").
		Scan(&chains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan version chains: %w", err)
	}

	report := &ChainReport{
		Chains:       len(chains),
		LatestIssues: []ChainIssue{},
		VersionGaps:  []ChainIssue{},
		OrphanGrades: []string{},
	}
	for _, c := range chains {
		if c.Latest != 1 {
			report.LatestIssues = append(report.LatestIssues, c)
		}
		if c.MaxVersion != c.Versions {
			report.VersionGaps = append(report.VersionGaps, c)
		}
	}

	err = db.Table("grades").
		Select("grades.id").
		Joins("LEFT JOIN submissions ON submissions.id = grades.submission_id").
		Where("submissions.id IS NULL").
		Order("grades.id").
		Pluck("grades.id", &report.OrphanGrades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan orphan grades: %w", err)
	}

	report.Healthy = len(report.LatestIssues) == 0 && len(report.VersionGaps) == 0 && len(report.OrphanGrades) == 0
	return report, nil
}
