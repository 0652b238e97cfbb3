// Package integrity provides system health checks for classroom-sync.
//
// # Checks Provided
//
//   - Structure: Checks that the snapshot archive folders exist in the storage bucket.
//   - Schema: Validates that the connected database schema matches the classroom models (columns, type families).
//   - Chains: Audits submission version chains. Every chain has exactly one latest
//     version, versions are numbered without gaps, and no grade points at a missing version.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/schema : Runs schema check.
//   - GET /integrity/chains : Runs version chain audit.
package integrity
