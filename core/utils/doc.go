// Package utils provides common utility functions for the classroom-sync application.
// It includes loose type conversion helpers used when migrating raw snapshot documents
// whose numeric and boolean fields arrive inconsistently typed from upstream exports.
package utils
