package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         DriverMySQL,
			Host:           "localhost",
			Port:           9999,
			User:           "root",
			Password:       "wrongpassword",
			Name:           "classroom",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Unsupported Driver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
		assert.Nil(t, db)
	})

	t.Run("SQLite In Memory", func(t *testing.T) {
		db, err := Connect(Config{Driver: DriverSQLite, Name: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
		assert.NoError(t, err)
		assert.Equal(t, "sqlite", db.Dialector.Name())
	})
}

func TestConfig_IsValidDriver(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		want   bool
	}{
		{"MySQL", DriverMySQL, true},
		{"Postgres", DriverPostgres, true},
		{"SQLite", DriverSQLite, true},
		{"Invalid", "mssql", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Config{Driver: tt.driver}.IsValidDriver())
		})
	}
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "mysql", Dialector(Config{Driver: DriverMySQL, User: "u", Password: "p@ss"}, 5).Name())
	assert.Equal(t, "postgres", Dialector(Config{Driver: DriverPostgres}, 5).Name())
	assert.Equal(t, "sqlite", Dialector(Config{Driver: DriverSQLite}, 5).Name())
}
