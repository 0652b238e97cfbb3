package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and verifies it with a ping.
func Connect(cfg Config) (*gorm.DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverMySQL
	}
	if !cfg.IsValidDriver() {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	dialector := Dialector(cfg, timeout)

	// Suppress GORM logging; failures surface through returned errors.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// A single connection keeps in-memory databases alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Dialector builds the gorm dialector for the configured driver.
func Dialector(cfg Config, timeout int) gorm.Dialector {
	switch cfg.Driver {
	case DriverSQLite:
		name := cfg.Name
		if name == "" || name == ":memory:" {
			name = "file::memory:?cache=shared"
		}
		return sqlite.Open(name)
	case DriverPostgres:
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode, timeout)
		return postgres.Open(dsn)
	default:
		// Special characters in the password must be URL encoded for the mysql DSN.
		userInfo := url.UserPassword(cfg.User, cfg.Password).String()
		dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
			userInfo, cfg.Host, cfg.Port, cfg.Name, timeout, timeout, timeout)
		return mysql.Open(dsn)
	}
}
