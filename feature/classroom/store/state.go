package store

import (
	"sort"

	"classroom-sync/feature/classroom/models"
)

// TeacherState is everything persisted for one teacher, loaded in one pass
// before an import or a preview.
type TeacherState struct {
	// Teacher is nil before the first import.
	Teacher *models.Teacher
	// Classrooms owned by the teacher, ordered by external ID.
	Classrooms []*ClassroomState
	// Foreign holds classrooms named in the snapshot that belong to another teacher.
	Foreign map[string]*models.Classroom
}

// Classroom returns the owned classroom state for an external ID.
func (s *TeacherState) Classroom(externalID string) *ClassroomState {
	if s == nil {
		return nil
	}
	for _, c := range s.Classrooms {
		if c.Classroom.ExternalID == externalID {
			return c
		}
	}
	return nil
}

// ClassroomRows returns the owned classroom rows.
func (s *TeacherState) ClassroomRows() []*models.Classroom {
	if s == nil {
		return nil
	}
	rows := make([]*models.Classroom, 0, len(s.Classrooms))
	for _, c := range s.Classrooms {
		rows = append(rows, c.Classroom)
	}
	return rows
}

// ClassroomState holds one classroom with its enrollments, assignments and
// every submission version with its grade history.
type ClassroomState struct {
	Classroom   *models.Classroom
	Enrollments []*models.Enrollment
	Assignments []*models.Assignment
	// Submissions holds all versions, not only the latest.
	Submissions []*models.Submission
	// Grades is keyed by submission version ID, oldest first.
	Grades map[string][]*models.Grade
}

// LatestSubmissions returns the latest version of every submission.
func (c *ClassroomState) LatestSubmissions() []*models.Submission {
	var latest []*models.Submission
	for _, s := range c.Submissions {
		if s.IsLatest {
			latest = append(latest, s)
		}
	}
	return latest
}

// Versions returns every version of one submission, oldest first.
func (c *ClassroomState) Versions(assignmentID, externalID string) []*models.Submission {
	var versions []*models.Submission
	for _, s := range c.Submissions {
		if s.AssignmentID == assignmentID && s.ExternalID == externalID {
			versions = append(versions, s)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions
}

// HasGrade reports whether a submission version carries at least one grade.
func (c *ClassroomState) HasGrade(submissionID string) bool {
	return len(c.Grades[submissionID]) > 0
}

// LatestGrade returns the most recent grade of a version, or nil.
func (c *ClassroomState) LatestGrade(submissionID string) *models.Grade {
	grades := c.Grades[submissionID]
	if len(grades) == 0 {
		return nil
	}
	return grades[len(grades)-1]
}

// ChainHasGrade reports whether any version of a submission was ever graded.
func (c *ClassroomState) ChainHasGrade(assignmentID, externalID string) bool {
	for _, v := range c.Versions(assignmentID, externalID) {
		if c.HasGrade(v.ID) {
			return true
		}
	}
	return false
}

// AssignmentByExternalID returns the assignment row for an external ID, or nil.
func (c *ClassroomState) AssignmentByExternalID(externalID string) *models.Assignment {
	for _, a := range c.Assignments {
		if a.ExternalID == externalID {
			return a
		}
	}
	return nil
}

// EnrollmentByStudentID returns the enrollment for a student, or nil.
func (c *ClassroomState) EnrollmentByStudentID(studentID string) *models.Enrollment {
	for _, e := range c.Enrollments {
		if e.StudentID == studentID {
			return e
		}
	}
	return nil
}
