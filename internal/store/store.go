// Package store provides a SQLite-backed cache for fetched weather reports.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the cache database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the cache database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "parasol.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Single connection for writes, WAL allows concurrent reads
	db.SetMaxOpenConns(2)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS weather_reports (
		city       TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// PutReport upserts the serialized report for a city.
func (s *Store) PutReport(city string, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO weather_reports (city, payload, fetched_at) VALUES (?, ?, ?)`,
		city, string(payload), now,
	)
	return err
}

// GetReport returns the cached payload for a city if it is younger than
// maxAge. A zero maxAge disables the staleness check. The second return
// value reports whether a fresh entry was found.
func (s *Store) GetReport(city string, maxAge time.Duration) ([]byte, bool, error) {
	row := s.db.QueryRow(`SELECT payload, fetched_at FROM weather_reports WHERE city = ?`, city)

	var payload, fetchedAt string
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parse fetched_at: %w", err)
	}
	if maxAge > 0 && time.Since(t) > maxAge {
		return nil, false, nil
	}

	return []byte(payload), true, nil
}

// ClearReports drops all cached reports and returns how many were removed.
func (s *Store) ClearReports() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM weather_reports`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountReports returns the number of cached reports.
func (s *Store) CountReports() (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM weather_reports`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
