// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port, the API key guarding every route
// and the maximum request body size accepted by the snapshot endpoints.
package server
