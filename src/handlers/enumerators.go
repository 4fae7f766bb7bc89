package handlers

import (
	"context"
	"fmt"

	"market-collector/src/models"
)

// Enumerator expands batch params into the params of every sub-request.
type Enumerator func(ctx context.Context, d Deps, params models.MParams) ([]models.MParams, error)

// Dimension yields the values of one param given the params chosen so far.
type Dimension struct {
	Name   string
	Values func(ctx context.Context, d Deps, prefix models.MParams) ([]string, error)
}

// -----------------------------------------------------------------------------

// Grid is the cross product of its dimensions, evaluated left to right so a
// dimension may depend on the values picked by earlier ones. Batch params are
// carried into every sub-request.
func Grid(dims ...Dimension) Enumerator {
	return func(ctx context.Context, d Deps, params models.MParams) ([]models.MParams, error) {
		combos := []models.MParams{params.With(nil)}
		for _, dim := range dims {
			var next []models.MParams
			for _, prefix := range combos {
				values, err := dim.Values(ctx, d, prefix)
				if err != nil {
					return nil, fmt.Errorf("enumerate %s: %w", dim.Name, err)
				}
				for _, v := range values {
					next = append(next, prefix.With(map[string]string{dim.Name: v}))
				}
			}
			combos = next
		}
		return combos, nil
	}
}

// -----------------------------------------------------------------------------
// Dimensions
// -----------------------------------------------------------------------------

// Static enumerates fixed values.
func Static(name string, values ...string) Dimension {
	return Dimension{Name: name, Values: func(context.Context, Deps, models.MParams) ([]string, error) {
		return values, nil
	}}
}

// ParamOr uses the batch param when given, otherwise the fallback.
func ParamOr(name string, fallback Dimension) Dimension {
	return Dimension{Name: name, Values: func(ctx context.Context, d Deps, prefix models.MParams) ([]string, error) {
		if v := prefix.Get(name); v != "" {
			return []string{v}, nil
		}
		return fallback.Values(ctx, d, prefix)
	}}
}

// Default evaluates a DefaultFunc as a single value.
func Default(name string, f DefaultFunc) Dimension {
	return Dimension{Name: name, Values: func(_ context.Context, d Deps, _ models.MParams) ([]string, error) {
		return []string{f(d)}, nil
	}}
}

// RecentTradingDays enumerates the last n trading days, newest first, YYYYMMDD.
func RecentTradingDays(name string, n int) Dimension {
	return Dimension{Name: name, Values: func(_ context.Context, d Deps, _ models.MParams) ([]string, error) {
		days := d.Calendar.RecentTradingDays(d.Now(), n)
		out := make([]string, 0, len(days))
		for _, day := range days {
			out = append(out, day.Format("20060102"))
		}
		return out, nil
	}}
}

// NextMonths enumerates n months starting with the current one, YYMM.
func NextMonths(name string, n int) Dimension {
	return Dimension{Name: name, Values: func(_ context.Context, d Deps, _ models.MParams) ([]string, error) {
		now := d.Now()
		first := now.AddDate(0, 0, 1-now.Day())
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, first.AddDate(0, i, 0).Format("0601"))
		}
		return out, nil
	}}
}

// FromProvider enumerates values returned by another provider function: the
// scalar values when field is empty, otherwise that field of every row.
// kwargs maps provider kwarg -> already chosen param; limit <= 0 keeps all.
func FromProvider(name, function string, kwargs, fixed map[string]string, field string, limit int) Dimension {
	return Dimension{Name: name, Values: func(ctx context.Context, d Deps, prefix models.MParams) ([]string, error) {
		args := make(map[string]string, len(kwargs)+len(fixed))
		for kw, param := range kwargs {
			args[kw] = prefix.Get(param)
		}
		for kw, v := range fixed {
			args[kw] = v
		}

		res, err := d.Provider.Fetch(ctx, function, args)
		if err != nil {
			return nil, err
		}

		var out []string
		if field == "" {
			out = res.Strings()
		} else {
			for _, row := range res.Rows {
				if v := models.ScalarString(row[field]); v != "" {
					out = append(out, v)
				}
			}
		}
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}}
}
