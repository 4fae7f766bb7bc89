package handlers

import (
	"context"
	"fmt"

	"market-collector/src/helpers"
	"market-collector/src/logger"
	"market-collector/src/models"
	"market-collector/src/tasks"
)

// normalizer turns a non-empty provider result into records.
type normalizer func(params models.MParams, res models.MProviderResult) ([]models.MRecord, error)

// base holds the behaviour shared by every handler family.
type base struct {
	def        Definition
	deps       Deps
	descriptor models.MCollectionDescriptor
	logger     *logger.Logger
	normalize  normalizer
}

func newBase(def Definition, deps Deps, norm normalizer) (*base, error) {
	deps = deps.withDefaults()
	name := def.Config.Collection
	desc, ok := deps.Registry.Get(name)
	if !ok {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("collection %s is not registered", name), nil)
	}
	if deps.Persistence == nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("handler %s has no persistence", name), nil)
	}
	if deps.Provider == nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("handler %s has no data provider", name), nil)
	}
	return &base{
		def:        def,
		deps:       deps,
		descriptor: desc,
		logger:     deps.Logger.Named(name),
		normalize:  norm,
	}, nil
}

// -----------------------------------------------------------------------------

func (b *base) Name() string { return b.def.Config.Collection }

func (b *base) Clear(ctx context.Context) (int64, error) {
	return b.deps.Persistence.Clear(ctx, b.Name())
}

func (b *base) Overview(ctx context.Context) (int64, string, error) {
	return b.deps.Persistence.Overview(ctx, b.Name())
}

// -----------------------------------------------------------------------------

// unsupported returns the failed result of a disabled mode, or false.
func (b *base) unsupported(mode models.UpdateMode) (models.MUpdateResult, bool) {
	if b.descriptor.Mode(mode).Enabled {
		return models.MUpdateResult{}, false
	}
	err := helpers.NewUnsupportedModeError(b.Name(), string(mode))
	return models.Failure(err.Error()), true
}

func (b *base) progress(taskID string, p int, msg string) {
	tasks.Notify(b.deps.Tracker, b.logger, taskID, models.ProgressUpdate(p, msg))
}

// -----------------------------------------------------------------------------

func (b *base) required() []string {
	if b.def.Config.Params != nil {
		return b.def.Config.Params
	}
	return b.descriptor.SingleUpdate.Params.RequiredParams()
}

func (b *base) withDefaults(params models.MParams) models.MParams {
	out := params.With(nil)
	for name, f := range b.def.Defaults {
		if out.Get(name) == "" {
			out[name] = f(b.deps)
		}
	}
	return out
}

// kwargs builds the provider call arguments of a request.
func (b *base) kwargs(params models.MParams) map[string]string {
	cfg := b.def.Config
	out := make(map[string]string, len(cfg.Fixed)+len(cfg.Kwargs))
	if cfg.Kwargs == nil {
		for _, name := range b.required() {
			out[name] = params.Get(name)
		}
	} else {
		for kw, param := range cfg.Kwargs {
			out[kw] = params.Get(param)
		}
	}
	for kw, table := range cfg.Translate {
		if v, ok := table[out[kw]]; ok {
			out[kw] = v
		}
	}
	for kw, v := range cfg.Fixed {
		out[kw] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// fetchAndSave runs one request end to end. Validation and provider failures
// come back as a failed result; only persistence errors are returned.
// onSave, when set, is called with the record count before writing.
func (b *base) fetchAndSave(ctx context.Context, params models.MParams, onSave func(n int)) (models.MUpdateResult, error) {
	params = b.withDefaults(params)
	if missing := params.Missing(b.required()...); len(missing) > 0 {
		return models.Failure(helpers.MissingParams(missing).Error()), nil
	}

	function := b.def.Config.ProviderFunction()
	kwargs := b.kwargs(params)
	res, err := b.deps.Provider.Fetch(ctx, function, kwargs)
	if err != nil {
		perr := helpers.NewProviderError(fmt.Sprintf("%s failed", function), err)
		b.logger.Warning("%v", perr)
		return models.Failure(perr.Error()), nil
	}
	if res.Empty() {
		return models.Success("no data", 0), nil
	}

	records, err := b.normalize(params, res)
	if err != nil {
		perr := helpers.NewProviderError(fmt.Sprintf("%s returned malformed data", function), err)
		b.logger.Warning("%v", perr)
		return models.Failure(perr.Error()), nil
	}
	b.attach(records, params, kwargs)

	if onSave != nil {
		onSave(len(records))
	}
	summary, err := b.deps.Persistence.Upsert(ctx, b.Name(), records, b.def.Config.UniqueKeys)
	if err != nil {
		return models.MUpdateResult{}, err
	}

	msg := fmt.Sprintf("update finished: %d inserted, %d updated", summary.Inserted, summary.Updated)
	return models.Success(msg, len(records)).WithWrites(summary), nil
}

func (b *base) attach(records []models.MRecord, params models.MParams, kwargs map[string]string) {
	set := func(field, v string) {
		if v == "" {
			return
		}
		for _, r := range records {
			r[field] = v
		}
	}
	for field, param := range b.def.Config.Attach {
		set(field, params.Get(param))
	}
	for field, kw := range b.def.Config.AttachKwargs {
		set(field, kwargs[kw])
	}
}

// -----------------------------------------------------------------------------
// Normalizers
// -----------------------------------------------------------------------------

func rowsOnly(_ models.MParams, res models.MProviderResult) ([]models.MRecord, error) {
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("expected rows, got %d scalar values", len(res.Values))
	}
	return cloneRows(res.Rows), nil
}

func cloneRows(rows []models.MRecord) []models.MRecord {
	out := make([]models.MRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Clone())
	}
	return out
}
