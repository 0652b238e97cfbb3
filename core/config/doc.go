// Package config provides configuration management for classroom-sync.
//
// It uses Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags on each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and body limit
//   - Database: MySQL, PostgreSQL or SQLite connection details
//   - Storage: S3/MinIO credentials and the snapshot bucket
//   - Log: logging level and format
//   - Import: concurrency, timeout and versioning policy for imports
//   - Redis: optional distributed import lock
//   - Events: optional NATS publishing of import events
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Import.Concurrency)
package config
