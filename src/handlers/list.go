package handlers

import (
	"market-collector/src/models"
)

// ListHandler is a ParamHandler whose provider returns plain scalar values
// (contract codes, expiry months) rather than rows. Rows, when present, are
// saved as they come.
type ListHandler struct {
	*ParamHandler
}

func NewListHandler(def Definition, deps Deps) (*ListHandler, error) {
	build := def.Build
	if build == nil {
		build = EachValue("value")
	}
	b, err := newBase(def, deps, func(params models.MParams, res models.MProviderResult) ([]models.MRecord, error) {
		records := cloneRows(res.Rows)
		if len(res.Values) > 0 {
			records = append(records, build(params, res.Values)...)
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return &ListHandler{ParamHandler: &ParamHandler{base: b}}, nil
}
