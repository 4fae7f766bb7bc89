package interfaces

import (
	"context"

	"market-collector/src/models"
)

// -----------------------------------------------------------------------------
// IUpdateHandler refreshes one named collection.
// -----------------------------------------------------------------------------

type IUpdateHandler interface {

	// Name returns the collection this handler owns
	Name() string

	// -----------------------------------------------------------------------------

	// UpdateSingle runs one parameterized update. Domain failures are reported in
	// the result; only unexpected errors (store, panics upstream) are returned.
	UpdateSingle(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error)

	// -----------------------------------------------------------------------------

	// UpdateBatch enumerates sub-requests and runs them through a bounded pool.
	UpdateBatch(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error)

	// -----------------------------------------------------------------------------

	// Clear removes every stored document of the collection.
	Clear(ctx context.Context) (int64, error)

	// -----------------------------------------------------------------------------

	// Overview returns the stored count and last write time.
	Overview(ctx context.Context) (int64, string, error)
}

// -----------------------------------------------------------------------------
// ITaskTracker receives task progress updates.
// -----------------------------------------------------------------------------

type ITaskTracker interface {
	UpdateTask(taskID string, update models.MTaskUpdate) error
}

// -----------------------------------------------------------------------------
// ILegacyService exposes fetch-and-save methods for collections without a handler.
// -----------------------------------------------------------------------------

type ILegacyService interface {

	// Lookup returns the named method, or false when the service has none.
	Lookup(method string) (func(ctx context.Context, params models.MParams) (any, error), bool)
}
