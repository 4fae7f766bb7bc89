package interfaces

import (
	"context"

	"market-collector/src/models"
)

// -----------------------------------------------------------------------------
// IStore is the document store contract. Collections are created on first write.
// -----------------------------------------------------------------------------

type IStore interface {

	// -----------------------------------------------------------------------------

	// Initialize prepares the underlying database (schema, pragmas).
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// FindOne returns the first document matching filter, or nil when none does.
	FindOne(ctx context.Context, collection string, filter models.MRecord) (models.MRecord, error)

	// -----------------------------------------------------------------------------

	// Find returns documents matching opts.Filter with sort, skip and limit applied.
	Find(ctx context.Context, collection string, opts models.MFindOptions) ([]models.MRecord, error)

	// -----------------------------------------------------------------------------

	CountDocuments(ctx context.Context, collection string, filter models.MRecord) (int64, error)

	// -----------------------------------------------------------------------------

	// UpdateOne merges set into the first document matching filter. With upsert,
	// a missing document is created from filter and set.
	UpdateOne(ctx context.Context, collection string, filter, set models.MRecord, upsert bool) (models.MUpdateOutcome, error)

	// -----------------------------------------------------------------------------

	InsertOne(ctx context.Context, collection string, doc models.MRecord) error

	// -----------------------------------------------------------------------------

	// DeleteMany removes matching documents; an empty filter removes all of them.
	DeleteMany(ctx context.Context, collection string, filter models.MRecord) (int64, error)

	// -----------------------------------------------------------------------------

	// BulkWrite applies ops in one transaction.
	BulkWrite(ctx context.Context, collection string, ops []models.MWriteOp) (models.MBulkOutcome, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
