package handlers

import (
	"context"

	"market-collector/src/models"
)

// ParamHandler fetches a row-set per set of request params. Batch mode runs
// the single update over the definition's enumerated params.
type ParamHandler struct {
	*base
}

func NewParamHandler(def Definition, deps Deps) (*ParamHandler, error) {
	b, err := newBase(def, deps, rowsOnly)
	if err != nil {
		return nil, err
	}
	return &ParamHandler{base: b}, nil
}

// -----------------------------------------------------------------------------

func (h *ParamHandler) UpdateSingle(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error) {
	if res, ok := h.unsupported(models.ModeSingle); ok {
		return res, nil
	}
	return h.fetchAndSave(ctx, params, nil)
}

// -----------------------------------------------------------------------------

func (h *ParamHandler) UpdateBatch(ctx context.Context, params models.MParams, taskID string) (models.MUpdateResult, error) {
	if res, ok := h.unsupported(models.ModeBatch); ok {
		return res, nil
	}
	return h.runBatch(ctx, params, taskID)
}
