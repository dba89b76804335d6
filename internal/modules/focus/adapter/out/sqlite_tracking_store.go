package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tabfocus/internal/modules/focus/domain"

	_ "modernc.org/sqlite"
)

// SQLiteTrackingStore keeps the tracking record map in a single sqlite table.
type SQLiteTrackingStore struct {
	db *sql.DB
}

func NewSQLiteTrackingStore(dbPath string) (*SQLiteTrackingStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteTrackingStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteTrackingStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tracking_records (
  key TEXT PRIMARY KEY,
  total_seconds INTEGER NOT NULL,
  title TEXT NOT NULL,
  last_visit TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tracking_records table: %w", err)
	}
	return nil
}

func (s *SQLiteTrackingStore) Load(ctx context.Context) (map[string]domain.TrackingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, total_seconds, title, last_visit FROM tracking_records`)
	if err != nil {
		return nil, fmt.Errorf("query tracking records: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.TrackingRecord{}
	for rows.Next() {
		var (
			record    domain.TrackingRecord
			lastVisit string
		)
		if err := rows.Scan(&record.Key, &record.TotalSeconds, &record.Title, &lastVisit); err != nil {
			return nil, fmt.Errorf("scan tracking record: %w", err)
		}
		record.LastVisit, err = time.Parse(time.RFC3339Nano, lastVisit)
		if err != nil {
			return nil, fmt.Errorf("decode last visit of %s: %w", record.Key, err)
		}
		out[record.Key] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking records: %w", err)
	}
	return out, nil
}

// Save replaces the stored map with records in one transaction.
func (s *SQLiteTrackingStore) Save(ctx context.Context, records map[string]domain.TrackingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tracking tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracking_records`); err != nil {
		return fmt.Errorf("clear tracking records: %w", err)
	}
	const stmt = `INSERT INTO tracking_records (key, total_seconds, title, last_visit) VALUES (?, ?, ?, ?)`
	for key, record := range records {
		if _, err := tx.ExecContext(ctx, stmt, key, record.TotalSeconds, record.Title,
			record.LastVisit.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert tracking record %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tracking tx: %w", err)
	}
	return nil
}

func (s *SQLiteTrackingStore) Close() error {
	return s.db.Close()
}
