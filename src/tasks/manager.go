// Package tasks tracks the progress of refresh invocations.
package tasks

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/models"

	"github.com/google/uuid"
)

// Manager is an in-memory task table. Status transitions only move forward and
// terminal tasks are immutable.
type Manager struct {
	mu        sync.RWMutex
	tasks     map[string]*models.MTaskProgress
	subs      map[int]chan models.MTaskProgress
	nextSub   int
	retention time.Duration
	now       func() time.Time
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// Option customizes a Manager.
type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// -----------------------------------------------------------------------------

func NewManager(retention time.Duration, l *logger.Logger, opts ...Option) *Manager {
	if l == nil {
		l = logger.NewNopLogger()
	}
	m := &Manager{
		tasks:     make(map[string]*models.MTaskProgress),
		subs:      make(map[int]chan models.MTaskProgress),
		retention: retention,
		now:       time.Now,
		logger:    l,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// -----------------------------------------------------------------------------

// Create registers a pending task and returns a snapshot of it.
func (m *Manager) Create(taskType, description string) models.MTaskProgress {
	t := &models.MTaskProgress{
		ID:          uuid.NewString(),
		Type:        taskType,
		Description: description,
		Status:      models.TaskPending,
		CreatedAt:   m.now(),
	}

	m.mu.Lock()
	m.tasks[t.ID] = t
	snap := *t
	m.publishLocked(snap)
	m.mu.Unlock()

	m.logger.Debug("Task %s created: %s", t.ID, description)
	return snap
}

// -----------------------------------------------------------------------------

// UpdateTask applies a partial update. Backward transitions and updates to a
// terminal task are rejected; progress never decreases.
func (m *Manager) UpdateTask(taskID string, update models.MTaskUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	if t.Status.Terminal() {
		return fmt.Errorf("task %s is already %s", taskID, t.Status)
	}

	now := m.now()
	if update.Status != nil && *update.Status != t.Status {
		next := *update.Status
		if next.Rank() < t.Status.Rank() {
			return fmt.Errorf("task %s cannot move from %s to %s", taskID, t.Status, next)
		}
		t.Status = next
		if next == models.TaskRunning && t.StartedAt == nil {
			t.StartedAt = &now
		}
		if next.Terminal() {
			t.CompletedAt = &now
		}
	}
	if update.Progress != nil {
		p := min(max(*update.Progress, 0), 100)
		if p > t.Progress {
			t.Progress = p
		}
	}
	if update.Message != nil {
		t.Message = *update.Message
	}
	if update.Result != nil {
		r := *update.Result
		t.Result = &r
	}

	m.publishLocked(*t)
	return nil
}

// -----------------------------------------------------------------------------

func (m *Manager) Get(taskID string) (models.MTaskProgress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return models.MTaskProgress{}, false
	}
	return *t, true
}

// -----------------------------------------------------------------------------

// List returns every task, newest first.
func (m *Manager) List() []models.MTaskProgress {
	m.mu.RLock()
	out := make([]models.MTaskProgress, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// -----------------------------------------------------------------------------

func (m *Manager) Delete(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[taskID]; !ok {
		return false
	}
	delete(m.tasks, taskID)
	m.updateGaugeLocked()
	return true
}

// -----------------------------------------------------------------------------

// Cleanup drops finished tasks older than the retention and returns how many
// were removed.
func (m *Manager) Cleanup() int {
	if m.retention <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, t := range m.tasks {
		if t.Status.Terminal() && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(m.tasks, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("Removed %d expired tasks", removed)
	}
	return removed
}

// -----------------------------------------------------------------------------

// Subscribe returns a channel receiving a snapshot after every change. Slow
// subscribers miss updates rather than blocking writers.
func (m *Manager) Subscribe(buffer int) (<-chan models.MTaskProgress, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan models.MTaskProgress, buffer)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publishLocked(t models.MTaskProgress) {
	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
		}
	}
	m.updateGaugeLocked()
}

func (m *Manager) updateGaugeLocked() {
	if m.metrics == nil {
		return
	}
	active := 0
	for _, t := range m.tasks {
		if !t.Status.Terminal() {
			active++
		}
	}
	m.metrics.SetActiveTasks(active)
}

// -----------------------------------------------------------------------------

// Notify sends an update without letting tracker failures reach the caller.
func Notify(tracker interfaces.ITaskTracker, l *logger.Logger, taskID string, update models.MTaskUpdate) {
	if tracker == nil || taskID == "" {
		return
	}
	defer func() {
		if rec := recover(); rec != nil && l != nil {
			l.Warning("Task tracker panicked on %s: %v", taskID, rec)
		}
	}()
	if err := tracker.UpdateTask(taskID, update); err != nil && l != nil {
		l.Debug("Task update for %s ignored: %v", taskID, err)
	}
}
