package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"market-collector/src/logger"
	"market-collector/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteStore keeps documents as JSON text, one table per collection.
type SQLiteStore struct {
	sqlDocStore
	Path string
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		sqlDocStore: sqlDocStore{Logger: log, dialect: sqliteDialect{}},
		Path:        cfg.Storage.DBPath,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("sqlite", d.Path)
	if err != nil {
		return err
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	// PRAGMA optimizations
	if d.Path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			d.Logger.Warning("Failed to set WAL mode: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}

	d.Logger.Info("SQLite store initialized (%s)", d.Path)
	return nil
}

// -----------------------------------------------------------------------------

type sqliteDialect struct{}

func (sqliteDialect) qualify(collection string) string {
	return `"` + collection + `"`
}

func (d sqliteDialect) createTable(collection string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc TEXT NOT NULL
	)`, d.qualify(collection))}
}

// keyIndex builds an expression index matching the predicates of filter.
func (d sqliteDialect) keyIndex(collection string, keys []string) string {
	exprs := make([]string, 0, len(keys))
	for _, k := range keys {
		exprs = append(exprs, extract(k))
	}
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_k%08x" ON %s (%s)`,
		collection, keySetHash(keys), d.qualify(collection), strings.Join(exprs, ", "))
}

// SQLite runs on one connection, so writers are already serialized.
func (sqliteDialect) keyLock() string { return "" }

func (sqliteDialect) field() string { return "json_extract(doc, ?)" }

func (sqliteDialect) fieldArg(name string) any { return jsonPath(name) }

func (sqliteDialect) docPlaceholder() string { return "?" }

func (sqliteDialect) rebind(query string) string { return query }

// -----------------------------------------------------------------------------

// filter inlines the JSON paths so that the key indexes apply.
func (sqliteDialect) filter(f models.MRecord) (string, []any, error) {
	var (
		preds []string
		args  []any
	)
	for _, k := range sortedKeys(f) {
		field := extract(k)
		switch v := f[k].(type) {
		case nil:
			preds = append(preds, field+" IS NULL")
		case bool:
			// json_extract yields 1/0 for JSON booleans
			b := 0
			if v {
				b = 1
			}
			preds = append(preds, fmt.Sprintf("json_type(doc, %s) IN ('true','false') AND %s = ?", literal(jsonPath(k)), field))
			args = append(args, b)
		case json.Number:
			preds = append(preds, field+" = ?")
			if i, err := v.Int64(); err == nil {
				args = append(args, i)
			} else {
				fl, _ := v.Float64()
				args = append(args, fl)
			}
		case string, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			preds = append(preds, field+" = ?")
			args = append(args, v)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return "", nil, fmt.Errorf("encode filter %s: %w", k, err)
			}
			preds = append(preds, field+" = json(?)")
			args = append(args, string(raw))
		}
	}
	return strings.Join(preds, " AND "), args, nil
}

func extract(field string) string {
	return "json_extract(doc, " + literal(jsonPath(field)) + ")"
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// jsonPath quotes a top-level key for json_extract.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, ``) + `"`
}
