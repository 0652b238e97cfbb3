package server_test

import (
	"testing"

	"classroom-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"Plain port", "8080", ":8080"},
		{"Host and port", "127.0.0.1:9000", "127.0.0.1:9000"},
		{"Empty", "", ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.Address())
		})
	}
}

func TestConfig_BodyLimit(t *testing.T) {
	assert.Equal(t, 32*1024*1024, server.Config{BodyLimitMB: 32}.BodyLimit())
	assert.Equal(t, 4*1024*1024, server.Config{}.BodyLimit())
}
