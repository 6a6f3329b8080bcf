package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeecarter/heart-readings-server/seed"
	"github.com/joeecarter/heart-readings-server/storage/clickhouse"
	"github.com/joeecarter/heart-readings-server/storage/memory"
	"github.com/joeecarter/heart-readings-server/storage/postgres"
	"github.com/joeecarter/heart-readings-server/storage/redis"
	"github.com/joeecarter/heart-readings-server/storage/sqlite"
)

const CLICKHOUSE_DSN = "CLICKHOUSE_DSN"
const CLICKHOUSE_DATABASE = "CLICKHOUSE_DATABASE"
const CLICKHOUSE_READINGS_TABLE = "CLICKHOUSE_READINGS_TABLE"
const CLICKHOUSE_CREATE_TABLES = "CLICKHOUSE_CREATE_TABLES"
const SQLITE_PATH = "SQLITE_PATH"
const POSTGRES_DSN = "POSTGRES_DSN"
const POSTGRES_TABLE = "POSTGRES_TABLE"
const POSTGRES_CREATE_TABLES = "POSTGRES_CREATE_TABLES"
const REDIS_ADDR = "REDIS_ADDR"
const REDIS_PASSWORD = "REDIS_PASSWORD"
const REDIS_DB = "REDIS_DB"
const REDIS_KEY_PREFIX = "REDIS_KEY_PREFIX"

type readingStoreLoader func(context.Context, *yaml.Node) (ReadingStore, error)

var readingStoreLoaders = map[string]readingStoreLoader{
	"memory":     loadMemoryReadingStoreFromConfig,
	"sqlite":     loadSQLiteReadingStoreFromConfig,
	"clickhouse": loadClickHouseReadingStoreFromConfig,
	"postgres":   loadPostgresReadingStoreFromConfig,
	"redis":      loadRedisReadingStoreFromConfig,
}

type configType struct {
	Type string `yaml:"type"`
}

// LoadReadingStores opens the stores listed in the config file followed by the stores
// described by environment variables. The first store returned is the primary.
func LoadReadingStores(ctx context.Context, filename string, logger *zap.Logger) ([]ReadingStore, error) {
	fromConfig, err := LoadReadingStoresFromConfig(ctx, filename, logger)
	if err != nil {
		return nil, err
	}

	fromEnvironment, err := LoadReadingStoresFromEnvironment(ctx)
	if err != nil {
		closeAll(fromConfig)
		return nil, err
	}

	return append(fromConfig, fromEnvironment...), nil
}

// LoadReadingStoresFromConfig reads a YAML (or JSON) list of typed store entries:
//
//   - type: sqlite
//     path: data/readings.db
//   - type: clickhouse
//     dsn: clickhouse://localhost:9000
//     database: health
//     readings_table: readings
func LoadReadingStoresFromConfig(ctx context.Context, filename string, logger *zap.Logger) ([]ReadingStore, error) {
	if filename == "" {
		return nil, nil
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var configs []yaml.Node
	if err := yaml.Unmarshal(b, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	readingStores := make([]ReadingStore, 0, len(configs))
	for i := range configs {
		config := &configs[i]
		loaderType, err := getConfigType(config)
		if err != nil {
			closeAll(readingStores)
			return nil, err
		}

		loader, ok := readingStoreLoaders[loaderType]
		if !ok {
			logUnknownLoaderType(logger, loaderType, config)
			continue
		}

		readingStore, err := loader(ctx, config)
		if err != nil {
			closeAll(readingStores)
			return nil, fmt.Errorf("failed to load %s store: %w", loaderType, err)
		}

		readingStores = append(readingStores, readingStore)
	}

	return readingStores, nil
}

func LoadReadingStoresFromEnvironment(ctx context.Context) ([]ReadingStore, error) {
	envLoaders := []func(context.Context) (ReadingStore, error){
		loadSQLiteReadingStoreFromEnvironment,
		loadPostgresReadingStoreFromEnvironment,
		loadClickHouseReadingStoreFromEnvironment,
		loadRedisReadingStoreFromEnvironment,
	}

	var readingStores []ReadingStore
	for _, load := range envLoaders {
		store, err := load(ctx)
		if err != nil {
			closeAll(readingStores)
			return nil, err
		}
		if store != nil {
			readingStores = append(readingStores, store)
		}
	}

	return readingStores, nil
}

func loadMemoryReadingStoreFromConfig(ctx context.Context, node *yaml.Node) (ReadingStore, error) {
	var config memory.MemoryConfig
	if err := node.Decode(&config); err != nil {
		return nil, err
	}
	if config.Seed {
		return memory.NewMemoryReadingStore(seed.SampleReadings()...), nil
	}
	return memory.NewMemoryReadingStore(), nil
}

func loadSQLiteReadingStoreFromConfig(ctx context.Context, node *yaml.Node) (ReadingStore, error) {
	var config sqlite.SQLiteConfig
	if err := node.Decode(&config); err != nil {
		return nil, err
	}
	return sqlite.NewSQLiteReadingStore(ctx, config)
}

func loadClickHouseReadingStoreFromConfig(ctx context.Context, node *yaml.Node) (ReadingStore, error) {
	var config clickhouse.ClickHouseConfig
	if err := node.Decode(&config); err != nil {
		return nil, err
	}
	return clickhouse.NewClickHouseReadingStore(config)
}

func loadPostgresReadingStoreFromConfig(ctx context.Context, node *yaml.Node) (ReadingStore, error) {
	var config postgres.PostgresConfig
	if err := node.Decode(&config); err != nil {
		return nil, err
	}
	return postgres.NewPostgresReadingStore(ctx, config)
}

func loadRedisReadingStoreFromConfig(ctx context.Context, node *yaml.Node) (ReadingStore, error) {
	var config redis.RedisConfig
	if err := node.Decode(&config); err != nil {
		return nil, err
	}
	return redis.NewRedisReadingStore(ctx, config)
}

func getConfigType(node *yaml.Node) (string, error) {
	var config configType
	if err := node.Decode(&config); err != nil {
		return "", fmt.Errorf("store config at line %d: %w", node.Line, err)
	}
	return config.Type, nil
}

func loadClickHouseReadingStoreFromEnvironment(ctx context.Context) (ReadingStore, error) {
	dsn, dsnSet := os.LookupEnv(CLICKHOUSE_DSN)
	database, databaseSet := os.LookupEnv(CLICKHOUSE_DATABASE)
	readingsTable, readingsTableSet := os.LookupEnv(CLICKHOUSE_READINGS_TABLE)
	createTablesStr, _ := os.LookupEnv(CLICKHOUSE_CREATE_TABLES)

	if !dsnSet && !databaseSet && !readingsTableSet {
		return nil, nil
	}

	missingVariables := make([]string, 0)
	if !dsnSet {
		missingVariables = append(missingVariables, CLICKHOUSE_DSN)
	}
	if !databaseSet {
		missingVariables = append(missingVariables, CLICKHOUSE_DATABASE)
	}
	if !readingsTableSet {
		missingVariables = append(missingVariables, CLICKHOUSE_READINGS_TABLE)
	}

	if len(missingVariables) > 0 {
		return nil, missingEnvironmentError{missingVariables}
	}

	config := clickhouse.ClickHouseConfig{
		DSN:           dsn,
		Database:      database,
		ReadingsTable: readingsTable,
		CreateTables:  isTruthy(createTablesStr),
	}

	return clickhouse.NewClickHouseReadingStore(config)
}

func loadSQLiteReadingStoreFromEnvironment(ctx context.Context) (ReadingStore, error) {
	path, ok := os.LookupEnv(SQLITE_PATH)
	if !ok {
		return nil, nil
	}
	return sqlite.NewSQLiteReadingStore(ctx, sqlite.SQLiteConfig{Path: path})
}

func loadPostgresReadingStoreFromEnvironment(ctx context.Context) (ReadingStore, error) {
	dsn, dsnSet := os.LookupEnv(POSTGRES_DSN)
	table, tableSet := os.LookupEnv(POSTGRES_TABLE)
	if !dsnSet && !tableSet {
		return nil, nil
	}
	if !dsnSet {
		return nil, missingEnvironmentError{[]string{POSTGRES_DSN}}
	}
	return postgres.NewPostgresReadingStore(ctx, postgres.PostgresConfig{
		DSN:          dsn,
		Table:        table,
		CreateTables: isTruthy(os.Getenv(POSTGRES_CREATE_TABLES)),
	})
}

func loadRedisReadingStoreFromEnvironment(ctx context.Context) (ReadingStore, error) {
	addr, ok := os.LookupEnv(REDIS_ADDR)
	if !ok {
		return nil, nil
	}
	config := redis.RedisConfig{
		Addr:      addr,
		Password:  os.Getenv(REDIS_PASSWORD),
		KeyPrefix: os.Getenv(REDIS_KEY_PREFIX),
	}
	if v := os.Getenv(REDIS_DB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", REDIS_DB, err)
		}
		config.DB = db
	}
	return redis.NewRedisReadingStore(ctx, config)
}

func isTruthy(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

func closeAll(stores []ReadingStore) {
	for _, store := range stores {
		store.Close()
	}
}

func logUnknownLoaderType(logger *zap.Logger, loaderType string, node *yaml.Node) {
	if strings.TrimSpace(loaderType) == "" {
		logger.Warn("Encountered an empty loader type. This config will be skipped", zap.Int("line", node.Line))
	} else {
		logger.Warn("Encountered an unknown loader type. This config will be skipped",
			zap.String("type", loaderType), zap.Int("line", node.Line))
	}
}

type missingEnvironmentError struct {
	missingVariables []string
}

func (err missingEnvironmentError) Error() string {
	return fmt.Sprintf("Missing the following environment variables: [ %s ]", strings.Join(err.missingVariables, ", "))
}
