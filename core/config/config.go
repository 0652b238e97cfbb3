package config

import (
	"reflect"
	"strings"
	"time"

	"classroom-sync/core/database"
	"classroom-sync/core/events"
	"classroom-sync/core/lock"
	"classroom-sync/core/logger"
	"classroom-sync/core/server"
	"classroom-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the snapshot archive (S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Import holds the reconciliation tunables.
	Import ImportConfig `mapstructure:"import"`
	// Redis holds configuration for the distributed import lock.
	Redis lock.Config `mapstructure:"redis"`
	// Events holds configuration for import event publishing.
	Events events.Config `mapstructure:"events"`
}

// ImportConfig holds tunables for snapshot imports.
type ImportConfig struct {
	// Concurrency is the number of classrooms reconciled in parallel.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// TimeoutSeconds bounds a whole import run.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
	// PatchCosmeticChanges lets graded submissions whose gradable payload is unchanged be patched in place.
	PatchCosmeticChanges bool `mapstructure:"patch_cosmetic_changes" default:"false"`
	// Preview computes a diff before writing and attaches it to the result.
	Preview bool `mapstructure:"preview" default:"true"`
	// SnapshotPrefix is the storage prefix snapshots are archived under.
	SnapshotPrefix string `mapstructure:"snapshot_prefix" default:"snapshots"`
	// StatsCacheSeconds is how long teacher stats are served from memory.
	StatsCacheSeconds int `mapstructure:"stats_cache_seconds" default:"30"`
}

// Timeout returns the import deadline as a duration.
func (c ImportConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine (e.g. production).
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. IMPORT_CONCURRENCY -> import.concurrency)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
