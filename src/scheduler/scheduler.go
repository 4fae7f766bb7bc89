// Package scheduler triggers batch refreshes of collections at fixed intervals,
// optionally only while a tracked market is open.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-collector/src/helpers"
	"market-collector/src/logger"
	"market-collector/src/models"
	"market-collector/src/orchestrator"
)

// Submitter starts a background refresh; *orchestrator.Orchestrator implements it.
type Submitter interface {
	RefreshAsync(ctx context.Context, creator orchestrator.TaskCreator, name string, mode models.UpdateMode, params models.MParams) (models.MTaskProgress, error)
}

// TaskStore creates and looks up tasks; *tasks.Manager implements it.
type TaskStore interface {
	orchestrator.TaskCreator
	Get(taskID string) (models.MTaskProgress, bool)
}

// MarketGate reports whether a market is open; *utils.MarketScheduler implements it.
type MarketGate interface {
	AnyMarketOpen(t time.Time) bool
}

// -----------------------------------------------------------------------------

type Job struct {
	Collection      string
	Interval        time.Duration
	Params          models.MParams
	MarketHoursOnly bool
}

// JobsFromConfig parses the schedules section.
func JobsFromConfig(cfgs []models.MScheduleConfig) ([]Job, error) {
	jobs := make([]Job, 0, len(cfgs))
	for _, c := range cfgs {
		d, err := time.ParseDuration(c.Interval)
		if err != nil || d <= 0 {
			return nil, helpers.NewConfigurationError(fmt.Sprintf("schedule %s has invalid interval %q", c.Collection, c.Interval), err)
		}
		jobs = append(jobs, Job{
			Collection:      c.Collection,
			Interval:        d,
			Params:          models.MParams(c.Params),
			MarketHoursOnly: c.MarketHoursOnly,
		})
	}
	return jobs, nil
}

// -----------------------------------------------------------------------------

type Scheduler struct {
	jobs   []Job
	submit Submitter
	tasks  TaskStore
	gate   MarketGate
	logger *logger.Logger
	errors *helpers.ErrorHandler
	now    func() time.Time

	mu   sync.Mutex
	last map[string]string // collection -> id of the last task started
}

// New builds a scheduler. gate may be nil when no job is gated on market hours.
func New(jobs []Job, submit Submitter, store TaskStore, gate MarketGate, l *logger.Logger) *Scheduler {
	if l == nil {
		l = logger.NewLogger(nil, "Scheduler")
	}
	return &Scheduler{
		jobs:   jobs,
		submit: submit,
		tasks:  store,
		gate:   gate,
		logger: l,
		errors: helpers.NewErrorHandler(l),
		now:    time.Now,
		last:   make(map[string]string),
	}
}

// SetClock overrides the time source used for market-hours gating.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// -----------------------------------------------------------------------------

// Run ticks every job until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.jobs) == 0 {
		return
	}
	s.logger.Info("Scheduling %d jobs", len(s.jobs))

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			ticker := time.NewTicker(job.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.RunOnce(ctx, job)
				}
			}
		}(job)
	}
	wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// -----------------------------------------------------------------------------

// RunOnce starts a batch refresh for job unless the market is closed or the
// previous run is still active. It reports whether a refresh was started.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) bool {
	if job.MarketHoursOnly && s.gate != nil && !s.gate.AnyMarketOpen(s.now()) {
		s.logger.Debug("Skipping %s: market closed", job.Collection)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.last[job.Collection]; ok {
		if prev, found := s.tasks.Get(id); found && !prev.Status.Terminal() {
			s.logger.Info("Skipping %s: task %s still %s", job.Collection, id, prev.Status)
			return false
		}
	}

	task, err := s.submit.RefreshAsync(ctx, s.tasks, job.Collection, models.ModeBatch, job.Params)
	if s.errors.Handle(err, "schedule "+job.Collection) {
		s.logger.Critical("Scheduler hit %d consecutive failures", s.errors.ErrorCount())
		s.errors.ResetErrorCount()
	}
	if err != nil {
		return false
	}
	s.last[job.Collection] = task.ID
	s.logger.Info("Scheduled refresh of %s started as task %s", job.Collection, task.ID)
	return true
}
