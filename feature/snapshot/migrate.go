package snapshot

import (
	"fmt"
	"strings"

	"classroom-sync/core/utils"
)

// CurrentSchemaVersion is the document version Decode produces.
const CurrentSchemaVersion = 2

// migration upgrades a raw document from version n to n+1 in place.
type migration func(doc map[string]any) error

// migrations is indexed by the source version.
var migrations = map[int]migration{
	1: migrateV1,
}

// Migrate upgrades a raw snapshot document to CurrentSchemaVersion in place.
// Documents without a schema version are treated as version 1. A document
// without snapshotMetadata is left untouched so schema validation rejects it.
// It is applied once at ingestion; nothing downstream fills defaults or renames fields.
func Migrate(doc map[string]any) error {
	meta, _ := doc["snapshotMetadata"].(map[string]any)
	if meta == nil {
		return nil
	}

	version := 1
	if raw, ok := meta["schemaVersion"]; ok && raw != nil {
		version = utils.ToInt(raw)
	}
	if version < 1 {
		version = 1
	}
	if version > CurrentSchemaVersion {
		return &ValidationError{Problems: []string{
			fmt.Sprintf("snapshotMetadata.schemaVersion: unsupported version %d (max %d)", version, CurrentSchemaVersion),
		}}
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return fmt.Errorf("no migration from schema version %d", v)
		}
		if err := step(doc); err != nil {
			return fmt.Errorf("migrate schema v%d: %w", v, err)
		}
	}

	meta["schemaVersion"] = CurrentSchemaVersion
	return nil
}

// migrateV1 covers exports written before field names and defaults were fixed.
func migrateV1(doc map[string]any) error {
	if teacher, ok := doc["teacher"].(map[string]any); ok {
		if _, has := teacher["displayName"]; !has {
			if name, ok := teacher["name"]; ok {
				teacher["displayName"] = utils.ToString(name)
			}
		}
		delete(teacher, "name")
	}

	classrooms, _ := doc["classrooms"].([]any)
	for _, rawClassroom := range classrooms {
		classroom, ok := rawClassroom.(map[string]any)
		if !ok {
			continue
		}
		stringify(classroom, "id")

		for _, rawStudent := range asSlice(classroom["students"]) {
			if student, ok := rawStudent.(map[string]any); ok {
				stringify(student, "id")
			}
		}

		maxPoints := make(map[string]float64)
		for _, rawAssignment := range asSlice(classroom["assignments"]) {
			assignment, ok := rawAssignment.(map[string]any)
			if !ok {
				continue
			}
			migrateAssignmentV1(assignment)
			maxPoints[utils.ToString(assignment["id"])] = utils.ToFloat(assignment["maxPoints"])
		}

		for _, rawSubmission := range asSlice(classroom["submissions"]) {
			if submission, ok := rawSubmission.(map[string]any); ok {
				migrateSubmissionV1(submission, maxPoints)
			}
		}
	}
	return nil
}

func migrateAssignmentV1(a map[string]any) {
	stringify(a, "id")
	dropEmpty(a, "dueDate")
	if v, ok := a["maxPoints"]; ok && v != nil {
		a["maxPoints"] = utils.ToFloat(v)
	} else {
		a["maxPoints"] = float64(0)
	}

	quiz, hasQuiz := a["quizData"].(map[string]any)

	kind := strings.ToLower(utils.ToString(a["type"]))
	switch kind {
	case AssignmentQuiz, AssignmentCoding, AssignmentWritten, AssignmentForm:
	default:
		if hasQuiz {
			kind = AssignmentQuiz
		} else {
			kind = AssignmentWritten
		}
	}
	a["type"] = kind

	if !hasQuiz {
		return
	}

	questions := asSlice(quiz["questions"])
	defaults := map[string]any{
		"isQuiz":                true,
		"collectEmailAddresses": true,
		"allowResponseEditing":  false,
		"totalQuestions":        len(questions),
		"totalPoints":           float64(100),
		"autoGradableQuestions": 0,
		"manualGradingRequired": true,
		"requireSignIn":         true,
	}
	for key, value := range defaults {
		if v, ok := quiz[key]; !ok || v == nil {
			quiz[key] = value
		}
	}
	if _, ok := quiz["title"]; !ok {
		quiz["title"] = utils.ToString(a["title"])
	}

	for _, key := range []string{"isQuiz", "collectEmailAddresses", "allowResponseEditing", "manualGradingRequired", "requireSignIn"} {
		quiz[key] = utils.ToBool(quiz[key])
	}
	for _, key := range []string{"totalQuestions", "autoGradableQuestions"} {
		quiz[key] = utils.ToInt(quiz[key])
	}
	quiz["totalPoints"] = utils.ToFloat(quiz["totalPoints"])
}

func migrateSubmissionV1(s map[string]any, maxPoints map[string]float64) {
	stringify(s, "id")
	stringify(s, "assignmentId")
	stringify(s, "studentId")
	dropEmpty(s, "submittedAt", "updatedAt")

	if v, ok := s["updatedAt"]; !ok || v == nil {
		if submitted, ok := s["submittedAt"]; ok {
			s["updatedAt"] = submitted
		}
	}
	if v, ok := s["attachments"]; !ok || v == nil {
		s["attachments"] = []any{}
	}
	if v, ok := s["late"]; ok {
		s["late"] = utils.ToBool(v)
	}

	grade, hasGrade := s["grade"].(map[string]any)
	if hasGrade {
		dropEmpty(grade, "gradedAt")
		if by := strings.ToLower(utils.ToString(grade["gradedBy"])); by == "manual" || by == "" {
			grade["gradedBy"] = GradedByTeacher
		} else {
			grade["gradedBy"] = by
		}
		grade["score"] = utils.ToFloat(grade["score"])
		if v, ok := grade["maxScore"]; ok && v != nil {
			grade["maxScore"] = utils.ToFloat(v)
		} else {
			grade["maxScore"] = maxPoints[utils.ToString(s["assignmentId"])]
		}
	}

	s["status"] = migrateStatus(utils.ToString(s["status"]), hasGrade, s["submittedAt"] != nil)
}

// migrateStatus maps upstream workflow states onto pending|submitted|graded.
func migrateStatus(raw string, graded, submitted bool) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "CREATED", "NEW", "RECLAIMED_BY_STUDENT":
		return StatusPending
	case "SUBMITTED", "TURNED_IN":
		return StatusSubmitted
	case "GRADED", "RETURNED":
		return StatusGraded
	}
	switch {
	case graded:
		return StatusGraded
	case submitted:
		return StatusSubmitted
	default:
		return StatusPending
	}
}

func stringify(m map[string]any, key string) {
	if v, ok := m[key]; ok && v != nil {
		m[key] = utils.ToString(v)
	}
}

// dropEmpty removes keys holding empty strings, which older exports used for unset timestamps.
func dropEmpty(m map[string]any, keys ...string) {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && strings.TrimSpace(v) == "" {
			delete(m, key)
		}
	}
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
