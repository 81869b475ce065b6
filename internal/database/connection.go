package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist or belongs to another user
var ErrNotFound = errors.New("not found")

// Connect opens the database and makes sure the schema exists.
// For sqlite3 an empty dsn means <dataDir>/lexbot.db.
func Connect(driver, dsn, dataDir string) (*sqlx.DB, error) {
	if driver == "sqlite3" && dsn == "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "lexbot.db")
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers; a single connection
		// also keeps in-memory databases alive between queries.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id {{pk}},
				telegram_id BIGINT UNIQUE NOT NULL,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				is_admin BOOLEAN NOT NULL DEFAULT FALSE,
				notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"study_topics", `
			CREATE TABLE IF NOT EXISTS study_topics (
				id {{pk}},
				user_id BIGINT NOT NULL REFERENCES users(id),
				subject TEXT NOT NULL,
				topic TEXT NOT NULL,
				study_date TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"study_topics index", `CREATE INDEX IF NOT EXISTS idx_study_topics_user ON study_topics(user_id)`},
		{"topic_reviews", `
			CREATE TABLE IF NOT EXISTS topic_reviews (
				topic_id BIGINT NOT NULL REFERENCES study_topics(id) ON DELETE CASCADE,
				interval_days INTEGER NOT NULL,
				completed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (topic_id, interval_days)
			)`},
		{"study_plans", `
			CREATE TABLE IF NOT EXISTS study_plans (
				id {{pk}},
				user_id BIGINT NOT NULL REFERENCES users(id),
				title TEXT NOT NULL,
				exam_date TEXT NOT NULL,
				daily_hours INTEGER NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"plan_subjects", `
			CREATE TABLE IF NOT EXISTS plan_subjects (
				id {{pk}},
				plan_id BIGINT NOT NULL REFERENCES study_plans(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				name TEXT NOT NULL,
				weight INTEGER NOT NULL,
				color TEXT NOT NULL DEFAULT ''
			)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(strings.ReplaceAll(st.query, "{{pk}}", pk)); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}

	return nil
}
