package handlers

import (
	"context"
	"fmt"

	"market-collector/src/models"
)

// SnapshotHandler refreshes a collection whose provider returns the whole
// dataset in one call.
type SnapshotHandler struct {
	*base
}

func NewSnapshotHandler(def Definition, deps Deps) (*SnapshotHandler, error) {
	b, err := newBase(def, deps, rowsOnly)
	if err != nil {
		return nil, err
	}
	return &SnapshotHandler{base: b}, nil
}

// -----------------------------------------------------------------------------

func (h *SnapshotHandler) UpdateSingle(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error) {
	if res, ok := h.unsupported(models.ModeSingle); ok {
		return res, nil
	}
	return h.fetchAndSave(ctx, params, nil)
}

// -----------------------------------------------------------------------------

func (h *SnapshotHandler) UpdateBatch(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error) {
	if res, ok := h.unsupported(models.ModeBatch); ok {
		return res, nil
	}
	h.progress(taskID, 10, fmt.Sprintf("Fetching %s...", h.descriptor.DisplayName))
	return h.fetchAndSave(ctx, params, func(n int) {
		h.progress(taskID, 50, fmt.Sprintf("Saving %d records...", n))
	})
}
