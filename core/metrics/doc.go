// Package metrics exposes Prometheus collectors for snapshot imports.
package metrics
