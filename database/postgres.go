package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase opens the Postgres connection used by the parse audit log
func InitDatabase(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("database url is required")
	}

	var err error
	DB, err = sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxIdleTime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		DB.Close()
		DB = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Successfully connected to database")
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS parse_events (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			host VARCHAR(255) NOT NULL,
			strategy VARCHAR(20) NOT NULL CHECK (strategy IN ('cache', 'browser', 'static', 'static+browser', 'none')),
			success BOOLEAN NOT NULL DEFAULT FALSE,
			has_title BOOLEAN NOT NULL DEFAULT FALSE,
			has_price BOOLEAN NOT NULL DEFAULT FALSE,
			has_image BOOLEAN NOT NULL DEFAULT FALSE,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_events_created ON parse_events (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_events_host ON parse_events (host, created_at)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
