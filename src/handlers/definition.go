package handlers

import (
	"strconv"

	"market-collector/src/models"
)

// Family selects the handler implementation of a definition.
type Family int

const (
	FamilySnapshot Family = iota // One call fetches everything, no params
	FamilyParam                  // Row-sets fetched per request params
	FamilyList                   // Scalar value lists turned into records
)

// DefaultFunc computes a param value when the request leaves it empty.
type DefaultFunc func(d Deps) string

// RecordBuilder turns a provider's scalar values into records.
type RecordBuilder func(params models.MParams, values []any) []models.MRecord

// Definition is the complete static description of one handler.
type Definition struct {
	Family   Family
	Config   models.MHandlerConfig
	Defaults map[string]DefaultFunc
	Batch    Enumerator    // nil: batch needs explicit params, use single update
	Build    RecordBuilder // FamilyList only
}

// -----------------------------------------------------------------------------
// Defaults
// -----------------------------------------------------------------------------

// LatestTradingDay defaults to the most recent trading day, YYYYMMDD.
func LatestTradingDay() DefaultFunc {
	return func(d Deps) string { return d.Calendar.LatestTradingDay(d.Now()) }
}

// CurrentYear defaults to the current calendar year.
func CurrentYear() DefaultFunc {
	return func(d Deps) string { return strconv.Itoa(d.Now().Year()) }
}

// -----------------------------------------------------------------------------
// Record builders
// -----------------------------------------------------------------------------

// EachValue makes one record per value, stored under field.
func EachValue(field string) RecordBuilder {
	return func(_ models.MParams, values []any) []models.MRecord {
		out := make([]models.MRecord, 0, len(values))
		for _, v := range values {
			out = append(out, models.MRecord{field: v})
		}
		return out
	}
}

// Tuple makes a single record from positional values. Missing positions are
// left out; extra values are dropped.
func Tuple(fields ...string) RecordBuilder {
	return func(_ models.MParams, values []any) []models.MRecord {
		rec := models.MRecord{}
		for i, f := range fields {
			if i < len(values) {
				rec[f] = values[i]
			}
		}
		return []models.MRecord{rec}
	}
}
