package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps the request body size, snapshots included.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"32"`
}

// Address returns the listen address for the configured port.
func (c Config) Address() string {
	if c.Port == "" {
		return ":8080"
	}
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
