package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"market-collector/src/logger"
	"market-collector/src/models"
)

// dialect captures what differs between the SQL document stores.
type dialect interface {
	qualify(collection string) string
	createTable(collection string) []string
	// keyIndex renders an index serving filters over keys, "" when createTable covers it.
	keyIndex(collection string, keys []string) string
	// keyLock renders a statement holding a per-key lock until commit, taking one arg.
	keyLock() string
	// filter renders a WHERE predicate with ? placeholders.
	filter(f models.MRecord) (string, []any, error)
	// field renders an expression selecting one document field, taking one arg.
	field() string
	fieldArg(name string) any
	docPlaceholder() string
	rebind(query string) string
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// -----------------------------------------------------------------------------

// sqlDocStore stores each collection as a table of JSON documents.
type sqlDocStore struct {
	DB      *sql.DB
	Logger  *logger.Logger
	dialect dialect

	mu      sync.Mutex
	tables  map[string]bool
	indexes map[string]bool
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) ensureTable(ctx context.Context, collection string) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	if s.DB == nil {
		return "", fmt.Errorf("store not initialized")
	}
	table := s.dialect.qualify(collection)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables == nil {
		s.tables = make(map[string]bool)
	}
	if s.tables[table] {
		return table, nil
	}
	for _, stmt := range s.dialect.createTable(collection) {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", table, err)
		}
	}
	s.tables[table] = true
	return table, nil
}

// -----------------------------------------------------------------------------

// ensureKeyIndexes indexes every key set used by filters. It runs on s.DB, so
// it must be called outside a transaction.
func (s *sqlDocStore) ensureKeyIndexes(ctx context.Context, collection string, filters []models.MRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexes == nil {
		s.indexes = make(map[string]bool)
	}
	for _, f := range filters {
		if len(f) == 0 {
			continue
		}
		keys := sortedKeys(f)
		id := collection + "\x00" + strings.Join(keys, "\x00")
		if s.indexes[id] {
			continue
		}
		if stmt := s.dialect.keyIndex(collection, keys); stmt != "" {
			if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to index %s: %w", collection, err)
			}
		}
		s.indexes[id] = true
	}
	return nil
}

// -----------------------------------------------------------------------------

// lockKeys takes the dialect's per-key lock for every filter, in sorted order
// so that concurrent writers cannot deadlock.
func (s *sqlDocStore) lockKeys(ctx context.Context, q querier, table string, filters []models.MRecord) error {
	stmt := s.dialect.keyLock()
	if stmt == "" {
		return nil
	}
	seen := make(map[string]bool)
	var keys []string
	for _, f := range filters {
		if len(f) == 0 {
			continue
		}
		k, err := lockKey(table, f)
		if err != nil {
			return err
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	query := s.dialect.rebind(stmt)
	for _, k := range keys {
		if _, err := q.ExecContext(ctx, query, k); err != nil {
			return fmt.Errorf("failed to lock key: %w", err)
		}
	}
	return nil
}

// lockKey identifies one upsert key. json.Marshal sorts map keys, so equal
// filters give equal keys.
func lockKey(table string, filter models.MRecord) (string, error) {
	nf, err := normalize(filter)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(nf)
	if err != nil {
		return "", err
	}
	return table + string(raw), nil
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) where(filter models.MRecord) (string, []any, error) {
	if len(filter) == 0 {
		return "1=1", nil, nil
	}
	return s.dialect.filter(filter)
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) FindOne(ctx context.Context, collection string, filter models.MRecord) (models.MRecord, error) {
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.findFirst(ctx, s.DB, table, filter)
	return doc, err
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) findFirst(ctx context.Context, q querier, table string, filter models.MRecord) (int64, models.MRecord, error) {
	pred, args, err := s.where(filter)
	if err != nil {
		return 0, nil, err
	}
	query := s.dialect.rebind(fmt.Sprintf("SELECT id, doc FROM %s WHERE %s ORDER BY id LIMIT 1", table, pred))

	var (
		id  int64
		raw []byte
	)
	err = q.QueryRowContext(ctx, query, args...).Scan(&id, &raw)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	doc, err := decode(raw)
	return id, doc, err
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) Find(ctx context.Context, collection string, opts models.MFindOptions) ([]models.MRecord, error) {
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return nil, err
	}
	pred, args, err := s.where(opts.Filter)
	if err != nil {
		return nil, err
	}

	var order []string
	for _, sf := range opts.Sort {
		dir := "ASC"
		if sf.Descending {
			dir = "DESC"
		}
		order = append(order, s.dialect.field()+" "+dir)
		args = append(args, s.dialect.fieldArg(sf.Field))
	}
	if opts.Newest {
		order = append(order, "id DESC")
	} else {
		order = append(order, "id ASC")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = math.MaxInt64
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	args = append(args, limit, skip)

	query := s.dialect.rebind(fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		table, pred, strings.Join(order, ", ")))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) CountDocuments(ctx context.Context, collection string, filter models.MRecord) (int64, error) {
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return 0, err
	}
	pred, args, err := s.where(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	query := s.dialect.rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, pred))
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) UpdateOne(ctx context.Context, collection string, filter, set models.MRecord, upsert bool) (models.MUpdateOutcome, error) {
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}
	filters := []models.MRecord{filter}
	if err := s.ensureKeyIndexes(ctx, collection, filters); err != nil {
		return models.MUpdateOutcome{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}
	defer tx.Rollback()

	if err := s.lockKeys(ctx, tx, table, filters); err != nil {
		return models.MUpdateOutcome{}, err
	}
	out, err := s.updateOne(ctx, tx, table, filter, set, upsert)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}
	return out, tx.Commit()
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) updateOne(ctx context.Context, q querier, table string, filter, set models.MRecord, upsert bool) (models.MUpdateOutcome, error) {
	set, err := normalize(set)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}

	id, existing, err := s.findFirst(ctx, q, table, filter)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}

	if existing == nil {
		if !upsert {
			return models.MUpdateOutcome{}, nil
		}
		nf, err := normalize(filter)
		if err != nil {
			return models.MUpdateOutcome{}, err
		}
		if err := s.insert(ctx, q, table, merge(nf, set)); err != nil {
			return models.MUpdateOutcome{}, err
		}
		return models.MUpdateOutcome{Upserted: true}, nil
	}

	merged := merge(existing, set)
	if sameDocument(existing, merged) {
		return models.MUpdateOutcome{Matched: 1}, nil
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}
	query := s.dialect.rebind(fmt.Sprintf("UPDATE %s SET doc = %s WHERE id = ?", table, s.dialect.docPlaceholder()))
	if _, err := q.ExecContext(ctx, query, string(raw), id); err != nil {
		return models.MUpdateOutcome{}, err
	}
	return models.MUpdateOutcome{Matched: 1, Modified: 1}, nil
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) insert(ctx context.Context, q querier, table string, doc models.MRecord) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := s.dialect.rebind(fmt.Sprintf("INSERT INTO %s (doc) VALUES (%s)", table, s.dialect.docPlaceholder()))
	_, err = q.ExecContext(ctx, query, string(raw))
	return err
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) InsertOne(ctx context.Context, collection string, doc models.MRecord) error {
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return err
	}
	return s.insert(ctx, s.DB, table, doc)
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) DeleteMany(ctx context.Context, collection string, filter models.MRecord) (int64, error) {
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return 0, err
	}
	pred, args, err := s.where(filter)
	if err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, s.dialect.rebind(fmt.Sprintf("DELETE FROM %s WHERE %s", table, pred)), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) BulkWrite(ctx context.Context, collection string, ops []models.MWriteOp) (models.MBulkOutcome, error) {
	var total models.MBulkOutcome
	if len(ops) == 0 {
		return total, nil
	}
	// Table creation must happen outside the transaction: SQLite runs on a single connection.
	table, err := s.ensureTable(ctx, collection)
	if err != nil {
		return total, err
	}
	filters := make([]models.MRecord, 0, len(ops))
	for _, op := range ops {
		filters = append(filters, op.Filter)
	}
	if err := s.ensureKeyIndexes(ctx, collection, filters); err != nil {
		return total, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return total, err
	}
	defer tx.Rollback()

	if err := s.lockKeys(ctx, tx, table, filters); err != nil {
		return models.MBulkOutcome{}, err
	}

	for _, op := range ops {
		if len(op.Filter) == 0 {
			if err := s.insert(ctx, tx, table, op.Doc); err != nil {
				return models.MBulkOutcome{}, err
			}
			total.Inserted++
			continue
		}
		out, err := s.updateOne(ctx, tx, table, op.Filter, op.Doc, true)
		if err != nil {
			return models.MBulkOutcome{}, err
		}
		if out.Upserted {
			total.Inserted++
		}
		total.Matched += out.Matched
		total.Modified += out.Modified
	}

	if err := tx.Commit(); err != nil {
		return models.MBulkOutcome{}, err
	}
	return total, nil
}

// -----------------------------------------------------------------------------

func (s *sqlDocStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// rebindDollar rewrites ? placeholders into $1..$n.
func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
