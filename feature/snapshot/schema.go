package snapshot

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "classroom-sync://snapshot.schema.json"

// documentSchema is the structural contract of a migrated snapshot.
// Field-level rules (email format, enums) are enforced again on the typed value.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["teacher", "classrooms", "snapshotMetadata"],
  "properties": {
    "teacher": {
      "type": "object",
      "required": ["email"],
      "properties": {
        "email": {"type": "string", "minLength": 1},
        "displayName": {"type": "string"}
      }
    },
    "snapshotMetadata": {
      "type": "object",
      "required": ["schemaVersion"],
      "properties": {
        "schemaVersion": {"type": "integer", "minimum": 1},
        "source": {"type": "string"}
      }
    },
    "classrooms": {
      "type": "array",
      "items": {"$ref": "#/definitions/classroom"}
    }
  },
  "definitions": {
    "classroom": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "students": {"type": ["array", "null"], "items": {"$ref": "#/definitions/student"}},
        "assignments": {"type": ["array", "null"], "items": {"$ref": "#/definitions/assignment"}},
        "submissions": {"type": ["array", "null"], "items": {"$ref": "#/definitions/submission"}}
      }
    },
    "student": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "email": {"type": "string"}
      }
    },
    "assignment": {
      "type": "object",
      "required": ["id", "title", "type"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string"},
        "maxPoints": {"type": "number", "minimum": 0},
        "type": {"enum": ["quiz", "coding", "written", "form"]},
        "quizData": {"type": ["object", "null"]}
      }
    },
    "submission": {
      "type": "object",
      "required": ["id", "assignmentId", "studentId", "status"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "assignmentId": {"type": "string", "minLength": 1},
        "studentId": {"type": "string", "minLength": 1},
        "attachments": {"type": ["array", "null"]},
        "status": {"enum": ["pending", "submitted", "graded"]},
        "grade": {
          "type": ["object", "null"],
          "required": ["score", "gradedBy"],
          "properties": {
            "score": {"type": "number"},
            "maxScore": {"type": "number"},
            "gradedBy": {"enum": ["ai", "teacher"]}
          }
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = jsonschema.CompileString(schemaURL, documentSchema)
	})
	return compiled, compileErr
}
