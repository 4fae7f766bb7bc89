package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteMemory(t *testing.T) interfaces.IStore {
	t.Helper()
	s := NewSQLiteStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite", DBPath: ":memory:"}}, logger.NewNopLogger())
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

// stores runs the same contract against every embedded implementation.
func stores(t *testing.T) map[string]func(t *testing.T) interfaces.IStore {
	return map[string]func(t *testing.T) interfaces.IStore{
		"sqlite": newSQLiteMemory,
		"memory": func(t *testing.T) interfaces.IStore { return NewMemoryStore() },
	}
}

func TestStoreUpdateOneClassifiesOutcome(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			filter := models.MRecord{"symbol": "510050"}

			out, err := s.UpdateOne(ctx, "option_lhb_em", filter, models.MRecord{"symbol": "510050", "volume": 10}, true)
			require.NoError(t, err)
			assert.True(t, out.Upserted)

			out, err = s.UpdateOne(ctx, "option_lhb_em", filter, models.MRecord{"volume": 10}, true)
			require.NoError(t, err)
			assert.Equal(t, models.MUpdateOutcome{Matched: 1}, out)

			out, err = s.UpdateOne(ctx, "option_lhb_em", filter, models.MRecord{"volume": 12.5}, true)
			require.NoError(t, err)
			assert.Equal(t, models.MUpdateOutcome{Matched: 1, Modified: 1}, out)

			doc, err := s.FindOne(ctx, "option_lhb_em", filter)
			require.NoError(t, err)
			assert.Equal(t, 12.5, doc["volume"])

			out, err = s.UpdateOne(ctx, "option_lhb_em", models.MRecord{"symbol": "nope"}, models.MRecord{"volume": 1}, false)
			require.NoError(t, err)
			assert.Equal(t, models.MUpdateOutcome{}, out)

			n, err := s.CountDocuments(ctx, "option_lhb_em", nil)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}

func TestStoreFindSortSkipLimit(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			for i, code := range []string{"c", "a", "d", "b"} {
				require.NoError(t, s.InsertOne(ctx, "quotes", models.MRecord{"code": code, "rank": i, "kind": "call"}))
			}
			require.NoError(t, s.InsertOne(ctx, "quotes", models.MRecord{"code": "e", "rank": 9, "kind": "put"}))

			docs, err := s.Find(ctx, "quotes", models.MFindOptions{
				Filter: models.MRecord{"kind": "call"},
				Sort:   []models.MSortField{{Field: "code"}},
				Skip:   1,
				Limit:  2,
			})
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "b", docs[0]["code"])
			assert.Equal(t, "c", docs[1]["code"])

			docs, err = s.Find(ctx, "quotes", models.MFindOptions{Sort: []models.MSortField{{Field: "rank", Descending: true}}, Limit: 1})
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, "e", docs[0]["code"])

			n, err := s.CountDocuments(ctx, "quotes", models.MRecord{"rank": 2})
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}

func TestStoreBulkWriteAndDelete(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			ops := []models.MWriteOp{
				{Filter: models.MRecord{"id": "A"}, Doc: models.MRecord{"id": "A", "v": 1}},
				{Filter: models.MRecord{"id": "B"}, Doc: models.MRecord{"id": "B", "v": 1}},
				{Doc: models.MRecord{"note": "keyless"}},
			}
			out, err := s.BulkWrite(ctx, "bulk", ops)
			require.NoError(t, err)
			assert.Equal(t, models.MBulkOutcome{Inserted: 3}, out)

			ops[0].Doc = models.MRecord{"id": "A", "v": 2}
			out, err = s.BulkWrite(ctx, "bulk", ops[:2])
			require.NoError(t, err)
			assert.Equal(t, models.MBulkOutcome{Matched: 2, Modified: 1}, out)

			deleted, err := s.DeleteMany(ctx, "bulk", models.MRecord{"id": "B"})
			require.NoError(t, err)
			assert.EqualValues(t, 1, deleted)

			deleted, err = s.DeleteMany(ctx, "bulk", nil)
			require.NoError(t, err)
			assert.EqualValues(t, 2, deleted)
		})
	}
}

func TestStoreRejectsBadCollectionName(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			_, err := s.CountDocuments(context.Background(), `x"; DROP TABLE y; --`, nil)
			assert.Error(t, err)
		})
	}
}

func TestStoreConcurrentWrites(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := s.UpdateOne(ctx, "conc", models.MRecord{"k": i % 2}, models.MRecord{"n": i}, true)
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()
			n, err := s.CountDocuments(ctx, "conc", nil)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)
		})
	}
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t, "SELECT doc FROM t WHERE doc @> $1::jsonb LIMIT $2 OFFSET $3",
		rebindDollar("SELECT doc FROM t WHERE doc @> ?::jsonb LIMIT ? OFFSET ?"))
}

func TestPostgresDialectFilter(t *testing.T) {
	d := postgresDialect{schema: "collector"}
	pred, args, err := d.filter(models.MRecord{"symbol": "510050", "date": "20240102"})
	require.NoError(t, err)
	assert.Equal(t, "doc @> ?::jsonb", pred)
	assert.Equal(t, []any{`{"date":"20240102","symbol":"510050"}`}, args)
	assert.Equal(t, `"collector"."option_lhb_em"`, d.qualify("option_lhb_em"))
}

func TestNewStoreSelectsBackend(t *testing.T) {
	s, err := NewStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "memory"}}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(&models.MConfig{Storage: models.MStorageConfig{DBType: "mongo"}}, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestStoreKeepsLargeIntegers(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			id := json.Number("9007199254740993")
			ops := []models.MWriteOp{{Filter: models.MRecord{"id": id}, Doc: models.MRecord{"id": id, "v": 1}}}

			out, err := s.BulkWrite(ctx, "big", ops)
			require.NoError(t, err)
			assert.Equal(t, models.MBulkOutcome{Inserted: 1}, out)

			out, err = s.BulkWrite(ctx, "big", ops)
			require.NoError(t, err)
			assert.Equal(t, models.MBulkOutcome{Matched: 1}, out)

			doc, err := s.FindOne(ctx, "big", models.MRecord{"id": id})
			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, id, doc["id"])

			doc, err = s.FindOne(ctx, "big", models.MRecord{"id": json.Number("9007199254740992")})
			require.NoError(t, err)
			assert.Nil(t, doc)
		})
	}
}

// -----------------------------------------------------------------------------

func TestSQLiteIndexesUpsertKeys(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteMemory(t).(*SQLiteStore)

	_, err := s.BulkWrite(ctx, "keyed", []models.MWriteOp{
		{Filter: models.MRecord{"代码": "10002530", "日期": "20241115"}, Doc: models.MRecord{"代码": "10002530", "日期": "20241115"}},
	})
	require.NoError(t, err)

	var index string
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'keyed'`).Scan(&index))
	assert.True(t, strings.HasPrefix(index, "keyed_k"), index)

	pred, args, err := s.dialect.filter(models.MRecord{"代码": "10002530", "日期": "20241115"})
	require.NoError(t, err)
	rows, err := s.DB.QueryContext(ctx, `EXPLAIN QUERY PLAN SELECT id FROM "keyed" WHERE `+pred, args...)
	require.NoError(t, err)
	defer rows.Close()

	var plan []string
	for rows.Next() {
		var id, parent, unused int
		var detail string
		require.NoError(t, rows.Scan(&id, &parent, &unused, &detail))
		plan = append(plan, detail)
	}
	require.NoError(t, rows.Err())
	assert.Contains(t, strings.Join(plan, "\n"), "USING INDEX "+index)
}

func TestPostgresCreateTableAddsGinIndex(t *testing.T) {
	stmts := postgresDialect{schema: "collector"}.createTable("option_lhb_em")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], `ON "collector"."option_lhb_em" USING GIN (doc jsonb_path_ops)`)
}

// -----------------------------------------------------------------------------

type recordingQuerier struct {
	queries []string
	args    []any
}

func (r *recordingQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args...)
	return nil, nil
}

func (r *recordingQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, sql.ErrNoRows
}

func (r *recordingQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func TestPostgresLocksEachKeyOnceInOrder(t *testing.T) {
	s := &sqlDocStore{dialect: postgresDialect{schema: "s"}}
	q := &recordingQuerier{}

	err := s.lockKeys(context.Background(), q, `"s"."t"`, []models.MRecord{
		{"b": 1},
		{"a": "x"},
		{"b": 1.0},
		{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"SELECT pg_advisory_xact_lock(hashtext($1))",
		"SELECT pg_advisory_xact_lock(hashtext($1))",
	}, q.queries)
	assert.Equal(t, []any{`"s"."t"{"a":"x"}`, `"s"."t"{"b":1}`}, q.args)
}

func TestSQLiteTakesNoKeyLocks(t *testing.T) {
	s := &sqlDocStore{dialect: sqliteDialect{}}
	q := &recordingQuerier{}
	require.NoError(t, s.lockKeys(context.Background(), q, `"t"`, []models.MRecord{{"a": "x"}}))
	assert.Empty(t, q.queries)
}
