package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeecarter/heart-readings-server/reading"

	_ "modernc.org/sqlite"
)

type SQLiteConfig struct {
	Path string `json:"path" yaml:"path"`
}

// SQLiteReadingStore keeps readings in a single-file SQLite database.
type SQLiteReadingStore struct {
	db *sql.DB
}

// NewSQLiteReadingStore opens the database, creating directories and schema as needed.
func NewSQLiteReadingStore(ctx context.Context, config SQLiteConfig) (*SQLiteReadingStore, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", config.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	store := &SQLiteReadingStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// date keeps the RFC 3339 text with the reading's own offset; date_unix orders rows.
func (s *SQLiteReadingStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			date_unix INTEGER NOT NULL DEFAULT 0,
			heart_rate INTEGER NOT NULL,
			ecg_type TEXT NOT NULL,
			systolic INTEGER NOT NULL DEFAULT 0,
			diastolic INTEGER NOT NULL DEFAULT 0,
			notes TEXT,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	if err := s.migrateDateUnix(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_readings_date_unix ON readings(date_unix);`); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// migrateDateUnix adds date_unix to databases created before it existed and backfills it
// at second precision.
func (s *SQLiteReadingStore) migrateDateUnix(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('readings')`)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("inspect schema: %w", err)
		}
		if name == "date_unix" {
			found = true
		}
	}
	rows.Close()
	if found {
		return nil
	}

	stmts := []string{
		`ALTER TABLE readings ADD COLUMN date_unix INTEGER NOT NULL DEFAULT 0`,
		`UPDATE readings SET date_unix = CAST(strftime('%s', date) AS INTEGER) * 1000000000`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate date_unix: %w", err)
		}
	}
	return nil
}

func (s *SQLiteReadingStore) Name() string {
	return "sqlite"
}

func (s *SQLiteReadingStore) Store(ctx context.Context, readings []*reading.Reading) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (id, date, date_unix, heart_rate, ecg_type, systolic, diastolic, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			date_unix = excluded.date_unix,
			heart_rate = excluded.heart_rate,
			ecg_type = excluded.ecg_type,
			systolic = excluded.systolic,
			diastolic = excluded.diastolic,
			notes = excluded.notes,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.ExecContext(ctx,
			r.ID,
			r.Date.Format(time.RFC3339Nano),
			r.Date.UnixNano(),
			r.HeartRate,
			string(r.ECGType),
			r.Systolic,
			r.Diastolic,
			r.Notes,
		); err != nil {
			return fmt.Errorf("upsert reading %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectReadings = `SELECT id, date, heart_rate, ecg_type, systolic, diastolic, notes FROM readings`

func (s *SQLiteReadingStore) List(ctx context.Context) ([]*reading.Reading, error) {
	rows, err := s.db.QueryContext(ctx, selectReadings+` ORDER BY date_unix, id`)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []*reading.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}

func (s *SQLiteReadingStore) Get(ctx context.Context, id string) (*reading.Reading, error) {
	r, err := scanReading(s.db.QueryRowContext(ctx, selectReadings+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reading.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner) (*reading.Reading, error) {
	var (
		r       reading.Reading
		date    string
		ecgType string
		notes   sql.NullString
	)
	if err := row.Scan(&r.ID, &date, &r.HeartRate, &ecgType, &r.Systolic, &r.Diastolic, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan reading: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("parse date of reading %s: %w", r.ID, err)
	}
	r.Date = t
	r.ECGType = reading.ECGType(ecgType)
	if notes.Valid {
		r.Notes = &notes.String
	}
	return &r, nil
}

// Close releases the underlying database handle.
func (s *SQLiteReadingStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
