package storage

import (
	"context"
	"sort"
	"sync"

	"market-collector/src/models"
)

// -----------------------------------------------------------------------------

// MemoryStore is a process-local document store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]models.MRecord
}

// -----------------------------------------------------------------------------

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]models.MRecord)}
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) Initialize(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// -----------------------------------------------------------------------------

func (m *MemoryStore) FindOne(ctx context.Context, collection string, filter models.MRecord) (models.MRecord, error) {
	docs, err := m.Find(ctx, collection, models.MFindOptions{Filter: filter, Limit: 1})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) Find(ctx context.Context, collection string, opts models.MFindOptions) ([]models.MRecord, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	filter, err := normalize(opts.Filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []models.MRecord
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			out = append(out, doc.Clone())
		}
	}
	m.mu.RUnlock()

	if opts.Newest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if len(opts.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, sf := range opts.Sort {
				c := compareValues(out[i][sf.Field], out[j][sf.Field])
				if c == 0 {
					continue
				}
				if sf.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(out)) {
			return nil, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(out)) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) CountDocuments(ctx context.Context, collection string, filter models.MRecord) (int64, error) {
	docs, err := m.Find(ctx, collection, models.MFindOptions{Filter: filter})
	return int64(len(docs)), err
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) UpdateOne(ctx context.Context, collection string, filter, set models.MRecord, upsert bool) (models.MUpdateOutcome, error) {
	if err := ValidateCollection(collection); err != nil {
		return models.MUpdateOutcome{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(collection, filter, set, upsert)
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) updateLocked(collection string, filter, set models.MRecord, upsert bool) (models.MUpdateOutcome, error) {
	nf, err := normalize(filter)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}
	ns, err := normalize(set)
	if err != nil {
		return models.MUpdateOutcome{}, err
	}

	docs := m.collections[collection]
	for i, doc := range docs {
		if !matches(doc, nf) {
			continue
		}
		merged := merge(doc, ns)
		if sameDocument(doc, merged) {
			return models.MUpdateOutcome{Matched: 1}, nil
		}
		docs[i] = merged
		return models.MUpdateOutcome{Matched: 1, Modified: 1}, nil
	}

	if !upsert {
		return models.MUpdateOutcome{}, nil
	}
	m.collections[collection] = append(docs, merge(nf, ns))
	return models.MUpdateOutcome{Upserted: true}, nil
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) InsertOne(ctx context.Context, collection string, doc models.MRecord) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	nd, err := normalize(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.collections[collection] = append(m.collections[collection], nd)
	m.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

func (m *MemoryStore) DeleteMany(ctx context.Context, collection string, filter models.MRecord) (int64, error) {
	if err := ValidateCollection(collection); err != nil {
		return 0, err
	}
	nf, err := normalize(filter)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		kept    []models.MRecord
		deleted int64
	)
	for _, doc := range m.collections[collection] {
		if matches(doc, nf) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	m.collections[collection] = kept
	return deleted, nil
}

// -----------------------------------------------------------------------------

// BulkWrite applies all ops under one lock; a failing op leaves the collection untouched.
func (m *MemoryStore) BulkWrite(ctx context.Context, collection string, ops []models.MWriteOp) (models.MBulkOutcome, error) {
	var total models.MBulkOutcome
	if err := ValidateCollection(collection); err != nil {
		return total, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := append([]models.MRecord(nil), m.collections[collection]...)
	for _, op := range ops {
		if len(op.Filter) == 0 {
			nd, err := normalize(op.Doc)
			if err != nil {
				m.collections[collection] = snapshot
				return models.MBulkOutcome{}, err
			}
			m.collections[collection] = append(m.collections[collection], nd)
			total.Inserted++
			continue
		}
		out, err := m.updateLocked(collection, op.Filter, op.Doc, true)
		if err != nil {
			m.collections[collection] = snapshot
			return models.MBulkOutcome{}, err
		}
		if out.Upserted {
			total.Inserted++
		}
		total.Matched += out.Matched
		total.Modified += out.Modified
	}
	return total, nil
}
