package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/joeecarter/heart-readings-server/reading"
)

type PostgresConfig struct {
	DSN          string `json:"dsn" yaml:"dsn"`
	Table        string `json:"table" yaml:"table"`
	CreateTables bool   `json:"create_tables" yaml:"create_tables"`
	MaxConns     int    `json:"max_conns" yaml:"max_conns"`
}

type PostgresReadingStore struct {
	db    *sql.DB
	table string
}

func NewPostgresReadingStore(ctx context.Context, config PostgresConfig) (*PostgresReadingStore, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if config.MaxConns > 0 {
		db.SetMaxOpenConns(config.MaxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := newPostgresReadingStore(db, config.Table)
	if config.CreateTables {
		if err := store.createTableIfNotExists(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

func newPostgresReadingStore(db *sql.DB, table string) *PostgresReadingStore {
	if table == "" {
		table = "readings"
	}
	return &PostgresReadingStore{db: db, table: table}
}

func (store *PostgresReadingStore) Name() string {
	return "postgres"
}

// TIMESTAMPTZ keeps only the instant, so the reading's UTC offset is stored in
// date_offset (seconds east of UTC) and reapplied on read.
func (store *PostgresReadingStore) createTableIfNotExists(ctx context.Context) error {
	_, err := store.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			date TIMESTAMPTZ NOT NULL,
			date_offset INTEGER NOT NULL DEFAULT 0,
			heart_rate INTEGER NOT NULL,
			ecg_type TEXT NOT NULL,
			systolic INTEGER NOT NULL DEFAULT 0,
			diastolic INTEGER NOT NULL DEFAULT 0,
			notes TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, store.table))
	if err != nil {
		return fmt.Errorf("failed to create readings table: %w", err)
	}

	_, err = store.db.ExecContext(ctx, fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN IF NOT EXISTS date_offset INTEGER NOT NULL DEFAULT 0`, store.table))
	if err != nil {
		return fmt.Errorf("failed to add date_offset column: %w", err)
	}
	return nil
}

func (store *PostgresReadingStore) Store(ctx context.Context, readings []*reading.Reading) error {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, date, date_offset, heart_rate, ecg_type, systolic, diastolic, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			date_offset = EXCLUDED.date_offset,
			heart_rate = EXCLUDED.heart_rate,
			ecg_type = EXCLUDED.ecg_type,
			systolic = EXCLUDED.systolic,
			diastolic = EXCLUDED.diastolic,
			notes = EXCLUDED.notes,
			updated_at = now()
	`, store.table))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		_, offset := r.Date.Zone()
		if _, err := stmt.ExecContext(ctx, r.ID, r.Date, offset, r.HeartRate, string(r.ECGType), r.Systolic, r.Diastolic, r.Notes); err != nil {
			return fmt.Errorf("failed to upsert reading %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (store *PostgresReadingStore) selectQuery(where string) string {
	return fmt.Sprintf(`SELECT id, date, date_offset, heart_rate, ecg_type, systolic, diastolic, notes FROM %s %s`, store.table, where)
}

func (store *PostgresReadingStore) List(ctx context.Context) ([]*reading.Reading, error) {
	rows, err := store.db.QueryContext(ctx, store.selectQuery("ORDER BY date, id"))
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
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
		return nil, fmt.Errorf("failed to read readings: %w", err)
	}
	return readings, nil
}

func (store *PostgresReadingStore) Get(ctx context.Context, id string) (*reading.Reading, error) {
	r, err := scanReading(store.db.QueryRowContext(ctx, store.selectQuery("WHERE id = $1"), id))
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
		offset  int
		ecgType string
		notes   sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Date, &offset, &r.HeartRate, &ecgType, &r.Systolic, &r.Diastolic, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan reading: %w", err)
	}
	r.Date = r.Date.In(time.FixedZone("", offset))
	r.ECGType = reading.ECGType(ecgType)
	if notes.Valid {
		r.Notes = &notes.String
	}
	return &r, nil
}

func (store *PostgresReadingStore) Close() error {
	return store.db.Close()
}
