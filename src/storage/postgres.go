package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"market-collector/src/logger"
	"market-collector/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresStore keeps documents as JSONB inside a dedicated schema.
type PostgresStore struct {
	sqlDocStore
	DSN    string
	Schema string
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	schema := cfg.Storage.Schema
	if schema == "" {
		// Default to the executable name
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable name: %w", err)
		}
		name := filepath.Base(exe)
		schema = strings.TrimSuffix(name, filepath.Ext(name))
	}
	schema = strings.ReplaceAll(schema, `"`, "")

	return &PostgresStore{
		sqlDocStore: sqlDocStore{Logger: log, dialect: postgresDialect{schema: schema}},
		DSN:         cfg.Storage.DBConnectionString,
		Schema:      schema,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", d.DSN)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

type postgresDialect struct {
	schema string
}

func (p postgresDialect) qualify(collection string) string {
	return fmt.Sprintf(`"%s"."%s"`, p.schema, collection)
}

func (p postgresDialect) createTable(collection string) []string {
	table := p.qualify(collection)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		doc JSONB NOT NULL
	)`, table),
		// Serves every doc @> filter, whatever the key set
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_doc_gin" ON %s USING GIN (doc jsonb_path_ops)`, collection, table),
	}
}

func (postgresDialect) keyIndex(string, []string) string { return "" }

// keyLock serializes upserts of one key until the transaction ends.
func (postgresDialect) keyLock() string { return "SELECT pg_advisory_xact_lock(hashtext(?))" }

func (postgresDialect) filter(f models.MRecord) (string, []any, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return "", nil, fmt.Errorf("encode filter: %w", err)
	}
	return "doc @> ?::jsonb", []any{string(raw)}, nil
}

func (postgresDialect) field() string { return "doc -> ?::text" }

func (postgresDialect) fieldArg(name string) any { return name }

func (postgresDialect) docPlaceholder() string { return "?::jsonb" }

func (postgresDialect) rebind(query string) string { return rebindDollar(query) }
