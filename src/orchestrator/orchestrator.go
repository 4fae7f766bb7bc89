// Package orchestrator is the single entry point for refreshing collections.
// It validates the collection, resolves its handler (falling back to the
// legacy service), relays progress to the task tracker and turns every error
// or panic into a failed MUpdateResult.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"market-collector/src/collections"
	"market-collector/src/helpers"
	"market-collector/src/interfaces"
	"market-collector/src/legacy"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/models"
	"market-collector/src/persistence"
	"market-collector/src/resolver"
	"market-collector/src/tasks"
)

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	registry    *collections.Registry
	resolver    *resolver.Resolver
	legacy      interfaces.ILegacyService
	tracker     interfaces.ITaskTracker
	persistence *persistence.Persistence
	metrics     *metrics.Metrics
	logger      *logger.Logger

	wg sync.WaitGroup
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

func WithLegacy(l interfaces.ILegacyService) Option {
	return func(o *Orchestrator) { o.legacy = l }
}

func WithTracker(t interfaces.ITaskTracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// -----------------------------------------------------------------------------

func New(registry *collections.Registry, res *resolver.Resolver, p *persistence.Persistence, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:    registry,
		resolver:    res,
		persistence: p,
		logger:      logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// -----------------------------------------------------------------------------

// ParseMode validates an inbound mode string.
func ParseMode(s string) (models.UpdateMode, error) {
	switch models.UpdateMode(strings.ToLower(strings.TrimSpace(s))) {
	case models.ModeSingle:
		return models.ModeSingle, nil
	case models.ModeBatch:
		return models.ModeBatch, nil
	}
	return "", helpers.NewValidationError(fmt.Sprintf("unknown update mode %q, expected single or batch", s))
}

// -----------------------------------------------------------------------------

// RefreshCollection runs one update. It never panics and never returns an
// error: failures are reported in the result and, when taskID is set, on the
// task. Unknown collections fail without touching the task.
func (o *Orchestrator) RefreshCollection(ctx context.Context, name string, mode models.UpdateMode, params models.MParams, taskID string) models.MUpdateResult {
	desc, ok := o.registry.Get(name)
	if !ok {
		return models.Failure(helpers.NewConfigurationError("unknown collection: "+name, nil).Error())
	}

	start := time.Now()
	var res models.MUpdateResult
	if h, ok := o.resolver.Resolve(name); ok {
		res = o.runHandler(ctx, h, desc, mode, params, taskID)
	} else {
		res = o.runLegacy(ctx, desc, params, taskID)
	}
	o.metrics.ObserveRefresh(name, string(mode), res.Success, time.Since(start))
	return res
}

func (o *Orchestrator) runHandler(ctx context.Context, h interfaces.IUpdateHandler, desc models.MCollectionDescriptor, mode models.UpdateMode, params models.MParams, taskID string) models.MUpdateResult {
	o.notify(taskID, models.RunningUpdate(fmt.Sprintf("Updating %s...", desc.DisplayName)))

	res, err := o.invoke(ctx, h, mode, params, taskID)
	if err != nil {
		o.logger.Error("%s %s update failed: %v", desc.Name, mode, err)
		fail := models.Failure(err.Error())
		o.notify(taskID, models.FailedUpdate("Update failed: "+err.Error(), &fail))
		return fail
	}

	// A normal return completes the task; an unsuccessful result rides along in Result.
	res = res.Normalize()
	message := fmt.Sprintf("%s update finished", desc.DisplayName)
	if res.Success {
		o.logger.Info("%s %s update: %s", desc.Name, mode, res.Message)
	} else {
		o.logger.Warning("%s %s update rejected: %s", desc.Name, mode, res.Message)
		message = res.Message
	}
	o.notify(taskID, models.CompletedUpdate(message, &res))
	return res
}

// invoke calls the handler, converting panics into errors.
func (o *Orchestrator) invoke(ctx context.Context, h interfaces.IUpdateHandler, mode models.UpdateMode, params models.MParams, taskID string) (res models.MUpdateResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("Handler %s panicked: %v\n%s", h.Name(), rec, debug.Stack())
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	if mode == models.ModeSingle {
		return h.UpdateSingle(ctx, params, taskID)
	}
	return h.UpdateBatch(ctx, params, taskID)
}

// -----------------------------------------------------------------------------

func (o *Orchestrator) runLegacy(ctx context.Context, desc models.MCollectionDescriptor, params models.MParams, taskID string) models.MUpdateResult {
	method := legacy.MethodName(desc.Name)
	var fn func(context.Context, models.MParams) (any, error)
	if o.legacy != nil {
		fn, _ = o.legacy.Lookup(method)
	}
	if fn == nil {
		err := helpers.NewResolutionError(fmt.Sprintf("no handler for collection %s", desc.Name), fmt.Errorf("method %s not found", method))
		fail := models.Failure(err.Error())
		o.notify(taskID, models.FailedUpdate(fail.Message, &fail))
		return fail
	}

	o.logger.Info("No handler for %s, using %s", desc.Name, method)
	o.notify(taskID, models.RunningUpdate(fmt.Sprintf("Updating %s...", desc.DisplayName)))

	out, err := callLegacy(ctx, fn, params)
	if err != nil {
		o.logger.Error("%s failed: %v", method, err)
		fail := models.Failure(err.Error())
		o.notify(taskID, models.FailedUpdate("Update failed: "+err.Error(), &fail))
		return fail
	}

	res := models.MUpdateResult{Success: true, Message: fmt.Sprintf("%s update finished", desc.DisplayName), Data: out}
	if n, ok := out.(int); ok {
		res.Count = n
	}
	o.notify(taskID, models.CompletedUpdate(res.Message, &res))
	return res
}

func callLegacy(ctx context.Context, fn func(context.Context, models.MParams) (any, error), params models.MParams) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("legacy method panicked: %v", rec)
		}
	}()
	return fn(ctx, params)
}

func (o *Orchestrator) notify(taskID string, update models.MTaskUpdate) {
	tasks.Notify(o.tracker, o.logger, taskID, update)
}
