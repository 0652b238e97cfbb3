// Package classroom exposes snapshot imports over HTTP.
//
// A teacher's classroom snapshot is decoded, optionally archived to object
// storage, and reconciled into the database by the importer. Imports and
// manual grading for the same teacher are serialized by the teacher lock.
//
// # Components
//
//   - Service: import, preview, statistics, version history and grading.
//   - Handler: HTTP endpoints.
//   - Loader: registers the feature with the application.
//
// # HTTP Endpoints
//
//   - POST /classroom/import : import the snapshot in the body.
//   - POST /classroom/import/:email/latest : re-import the newest archived snapshot.
//   - POST /classroom/preview : report what an import would change.
//   - GET /classroom/teachers/:email/stats : teacher aggregates.
//   - GET /classroom/submissions/:id/history : every version of a submission.
//   - POST /classroom/submissions/:id/grades : grade the latest version.
package classroom
