package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joeecarter/heart-readings-server/reading"
)

type ClickHouseConfig struct {
	DSN           string `json:"dsn" yaml:"dsn"`
	Database      string `json:"database" yaml:"database"`
	ReadingsTable string `json:"readings_table" yaml:"readings_table"`
	CreateTables  bool   `json:"create_tables" yaml:"create_tables"`
}

type ClickHouseReadingStore struct {
	db            *sql.DB
	database      string
	readingsTable string
}

func NewClickHouseReadingStore(config ClickHouseConfig) (*ClickHouseReadingStore, error) {
	db, err := sql.Open("clickhouse", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	store := newClickHouseReadingStore(db, config.Database, config.ReadingsTable)

	if config.CreateTables {
		if err := store.createTablesIfNotExist(); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return store, nil
}

func newClickHouseReadingStore(db *sql.DB, database, readingsTable string) *ClickHouseReadingStore {
	return &ClickHouseReadingStore{
		db:            db,
		database:      database,
		readingsTable: readingsTable,
	}
}

func (store *ClickHouseReadingStore) Name() string {
	return "clickhouse"
}

func (store *ClickHouseReadingStore) table() string {
	return store.database + "." + store.readingsTable
}

func (store *ClickHouseReadingStore) Store(ctx context.Context, readings []*reading.Reading) error {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(id, date, date_offset, heart_rate, ecg_type, systolic, diastolic, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, store.table()))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// updated_at is the ReplacingMergeTree version: the newest row for an id wins.
	updatedAt := time.Now()
	for _, r := range readings {
		_, offset := r.Date.Zone()
		_, err = stmt.ExecContext(ctx,
			r.ID,
			r.Date,
			int32(offset),
			r.HeartRate,
			string(r.ECGType),
			r.Systolic,
			r.Diastolic,
			r.Notes,
			updatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const selectColumns = `id, date, date_offset, heart_rate, ecg_type, systolic, diastolic, notes`

func (store *ClickHouseReadingStore) List(ctx context.Context) ([]*reading.Reading, error) {
	rows, err := store.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s FINAL ORDER BY date, id`, selectColumns, store.table()))
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

func (store *ClickHouseReadingStore) Get(ctx context.Context, id string) (*reading.Reading, error) {
	row := store.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s FINAL WHERE id = ?`, selectColumns, store.table()), id)
	r, err := scanReading(row)
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
		offset  int32
		ecgType string
		notes   sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Date, &offset, &r.HeartRate, &ecgType, &r.Systolic, &r.Diastolic, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan reading: %w", err)
	}
	r.Date = r.Date.In(time.FixedZone("", int(offset)))
	r.ECGType = reading.ECGType(ecgType)
	if notes.Valid {
		r.Notes = &notes.String
	}
	return &r, nil
}

// OptimizeTables forces the merge that collapses rows re-inserted for the same id.
func (store *ClickHouseReadingStore) OptimizeTables(ctx context.Context) error {
	if _, err := store.db.ExecContext(ctx, fmt.Sprintf(`OPTIMIZE TABLE %s FINAL`, store.table())); err != nil {
		return fmt.Errorf("failed to optimize readings table: %w", err)
	}
	return nil
}

func (store *ClickHouseReadingStore) createTablesIfNotExist() error {
	// Create database if not exists
	_, err := store.db.Exec(fmt.Sprintf(`
		CREATE DATABASE IF NOT EXISTS %s
	`, store.database))
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	_, err = store.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id String,
			date DateTime64(3),
			date_offset Int32 DEFAULT 0,
			heart_rate Int32,
			ecg_type LowCardinality(String),
			systolic Int32 DEFAULT 0,
			diastolic Int32 DEFAULT 0,
			notes Nullable(String),
			updated_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY id
	`, store.table()))
	if err != nil {
		return fmt.Errorf("failed to create readings table: %w", err)
	}

	return nil
}

func (store *ClickHouseReadingStore) Close() error {
	return store.db.Close()
}
