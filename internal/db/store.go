// Package db provides the local SQLite store for client-side state that must
// survive restarts: UI preferences and the backend session cookies.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Preference keys.
const (
	KeyDarkMode = "dark"
)

const schema = `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updatedAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cookies (
		origin TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		updatedAt REAL NOT NULL,
		PRIMARY KEY (origin, name)
	);
`

// Store provides access to the pdfchat SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdfchat", "pdfchat.sqlite")
}

// Open opens (creating if needed) the database with WAL and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Preference returns the stored value for key and whether it was set.
func (s *Store) Preference(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query preference %s: %w", key, err)
	}
	return value, true, nil
}

// SetPreference upserts key.
func (s *Store) SetPreference(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value, updatedAt) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
	`, key, value, unixNow())
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// DarkMode reports the persisted dark-mode preference. Unset means light.
func (s *Store) DarkMode() (bool, error) {
	v, ok, err := s.Preference(KeyDarkMode)
	if err != nil || !ok {
		return false, err
	}
	return v == "1", nil
}

// SetDarkMode persists the dark-mode preference as "1" or "0".
func (s *Store) SetDarkMode(dark bool) error {
	v := "0"
	if dark {
		v = "1"
	}
	return s.SetPreference(KeyDarkMode, v)
}

// Cookies returns the cookies saved for origin, oldest first.
func (s *Store) Cookies(origin string) ([]*http.Cookie, error) {
	rows, err := s.db.Query(`
		SELECT name, value
		FROM cookies
		WHERE origin = ?
		ORDER BY updatedAt ASC, name ASC
	`, origin)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		var c http.Cookie
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		cookies = append(cookies, &c)
	}
	return cookies, rows.Err()
}

// SaveCookies replaces every cookie stored for origin with cookies.
func (s *Store) SaveCookies(origin string, cookies []*http.Cookie) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cookies WHERE origin = ?`, origin); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	now := unixNow()
	for _, c := range cookies {
		if _, err := tx.Exec(`INSERT INTO cookies (origin, name, value, updatedAt) VALUES (?, ?, ?, ?)`,
			origin, c.Name, c.Value, now); err != nil {
			return fmt.Errorf("insert cookie %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cookies: %w", err)
	}
	return nil
}

func unixNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
