// Package persistence implements the idempotent write contract shared by every
// update handler: timestamped upserts keyed by a handler's unique fields.
package persistence

import (
	"context"
	"fmt"
	"time"

	"market-collector/src/helpers"
	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/models"
)

const (
	// BatchSize bounds the ops sent in one bulk write.
	BatchSize = 1000

	TimestampLayout = "2006-01-02 15:04:05"
)

// -----------------------------------------------------------------------------

type Persistence struct {
	store          interfaces.IStore
	timestampField string
	batchSize      int
	now            func() time.Time
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// Option customizes a Persistence.
type Option func(*Persistence)

func WithClock(now func() time.Time) Option {
	return func(p *Persistence) { p.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Persistence) { p.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Persistence) { p.logger = l }
}

func WithBatchSize(n int) Option {
	return func(p *Persistence) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// -----------------------------------------------------------------------------

// New wraps a store. timestampField names the write-time field stamped on
// every record; it defaults to "updated_at".
func New(store interfaces.IStore, timestampField string, opts ...Option) *Persistence {
	if timestampField == "" {
		timestampField = "updated_at"
	}
	p := &Persistence{
		store:          store,
		timestampField: timestampField,
		batchSize:      BatchSize,
		now:            time.Now,
		logger:         logger.NewNopLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// -----------------------------------------------------------------------------

func (p *Persistence) TimestampField() string { return p.timestampField }

func (p *Persistence) Store() interfaces.IStore { return p.store }

// -----------------------------------------------------------------------------

// Upsert writes records idempotently. Each record is stamped with the write
// time; records carrying at least one unique key value are upserted on those
// values, the rest are inserted.
func (p *Persistence) Upsert(ctx context.Context, collection string, records []models.MRecord, uniqueKeys []string) (models.MUpsertSummary, error) {
	var summary models.MUpsertSummary
	if len(records) == 0 {
		return summary, nil
	}

	stamp := p.now().Format(TimestampLayout)
	ops := make([]models.MWriteOp, 0, len(records))
	for _, rec := range records {
		doc := rec.Clone()
		doc[p.timestampField] = stamp
		ops = append(ops, models.MWriteOp{Filter: keyFilter(doc, uniqueKeys), Doc: doc})
	}

	for start := 0; start < len(ops); start += p.batchSize {
		end := min(start+p.batchSize, len(ops))
		out, err := p.store.BulkWrite(ctx, collection, ops[start:end])
		if err != nil {
			return summary, helpers.NewPersistenceError(fmt.Sprintf("bulk write to %s failed", collection), err)
		}
		summary.Add(models.MUpsertSummary{
			Inserted:  int(out.Inserted),
			Updated:   int(out.Modified),
			Unchanged: int(out.Matched - out.Modified),
		})
	}

	p.metrics.ObserveWrites(collection, summary.Inserted, summary.Updated, summary.Unchanged)
	p.logger.Debug("%s: %d inserted, %d updated, %d unchanged", collection, summary.Inserted, summary.Updated, summary.Unchanged)
	return summary, nil
}

// -----------------------------------------------------------------------------

// keyFilter keeps the unique key fields that carry a value. Zero numbers and
// false are values; nil and empty strings are not.
func keyFilter(doc models.MRecord, uniqueKeys []string) models.MRecord {
	filter := models.MRecord{}
	for _, k := range uniqueKeys {
		v, ok := doc[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		filter[k] = v
	}
	return filter
}

// -----------------------------------------------------------------------------

// Clear deletes every document of the collection.
func (p *Persistence) Clear(ctx context.Context, collection string) (int64, error) {
	n, err := p.store.DeleteMany(ctx, collection, nil)
	if err != nil {
		return 0, helpers.NewPersistenceError(fmt.Sprintf("clear %s failed", collection), err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (p *Persistence) Count(ctx context.Context, collection string) (int64, error) {
	n, err := p.store.CountDocuments(ctx, collection, nil)
	if err != nil {
		return 0, helpers.NewPersistenceError(fmt.Sprintf("count %s failed", collection), err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (p *Persistence) PaginatedFind(ctx context.Context, collection string, opts models.MFindOptions) ([]models.MRecord, error) {
	docs, err := p.store.Find(ctx, collection, opts)
	if err != nil {
		return nil, helpers.NewPersistenceError(fmt.Sprintf("find in %s failed", collection), err)
	}
	return docs, nil
}

// -----------------------------------------------------------------------------

// Overview returns the document count and the most recent write time, empty
// when nothing carries a timestamp.
func (p *Persistence) Overview(ctx context.Context, collection string) (int64, string, error) {
	count, err := p.Count(ctx, collection)
	if err != nil {
		return 0, "", err
	}
	if count == 0 {
		return 0, "", nil
	}
	docs, err := p.PaginatedFind(ctx, collection, models.MFindOptions{
		Sort:  []models.MSortField{{Field: p.timestampField, Descending: true}},
		Limit: 1,
	})
	if err != nil {
		return count, "", err
	}
	var last string
	if len(docs) > 0 {
		if s, ok := docs[0][p.timestampField].(string); ok {
			last = s
		}
	}
	return count, last, nil
}

// -----------------------------------------------------------------------------

// Page reads one page, newest first unless sortField is set.
func (p *Persistence) Page(ctx context.Context, collection string, page, pageSize int, sortField string, descending bool) (models.MPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	total, err := p.Count(ctx, collection)
	if err != nil {
		return models.MPage{}, err
	}

	opts := models.MFindOptions{
		Skip:   int64((page - 1) * pageSize),
		Limit:  int64(pageSize),
		Newest: true,
	}
	if sortField != "" {
		opts.Sort = []models.MSortField{{Field: sortField, Descending: descending}}
	}
	docs, err := p.PaginatedFind(ctx, collection, opts)
	if err != nil {
		return models.MPage{}, err
	}
	if docs == nil {
		docs = []models.MRecord{}
	}

	return models.MPage{
		Success:    true,
		Data:       docs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
	}, nil
}
