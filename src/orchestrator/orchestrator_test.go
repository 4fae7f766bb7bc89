package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"market-collector/src/collections"
	"market-collector/src/handlers"
	"market-collector/src/interfaces"
	"market-collector/src/metrics"
	"market-collector/src/models"
	"market-collector/src/persistence"
	"market-collector/src/resolver"
	"market-collector/src/storage"
	"market-collector/src/tasks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type stubHandler struct {
	name   string
	single func() (models.MUpdateResult, error)
	batch  func() (models.MUpdateResult, error)
}

func (s *stubHandler) Name() string { return s.name }
func (s *stubHandler) UpdateSingle(context.Context, models.MParams, string) (models.MUpdateResult, error) {
	return s.single()
}
func (s *stubHandler) UpdateBatch(context.Context, models.MParams, string) (models.MUpdateResult, error) {
	return s.batch()
}
func (s *stubHandler) Clear(context.Context) (int64, error)            { return 4, nil }
func (s *stubHandler) Overview(context.Context) (int64, string, error) { return 9, "2024-11-15 10:00:00", nil }

type countingTracker struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTracker) UpdateTask(string, models.MTaskUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

type legacyStub map[string]func(context.Context, models.MParams) (any, error)

func (l legacyStub) Lookup(method string) (func(context.Context, models.MParams) (any, error), bool) {
	fn, ok := l[method]
	return fn, ok
}

type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) Name() string { return "counting" }
func (p *countingProvider) Fetch(context.Context, string, map[string]string) (models.MProviderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return models.MProviderResult{}, nil
}

// -----------------------------------------------------------------------------

func descriptor(name string, single, batch bool) models.MCollectionDescriptor {
	return models.MCollectionDescriptor{
		Name:         name,
		DisplayName:  name + " data",
		SingleUpdate: models.MUpdateModeConfig{Enabled: single},
		BatchUpdate:  models.MUpdateModeConfig{Enabled: batch},
	}
}

func stub(name string, res models.MUpdateResult, err error) resolver.Declaration {
	f := func() (models.MUpdateResult, error) { return res, err }
	return resolver.Declaration{Name: name, Factory: func() (interfaces.IUpdateHandler, error) {
		return &stubHandler{name: name, single: f, batch: f}, nil
	}}
}

func newOrchestrator(decls []resolver.Declaration, opts ...Option) (*Orchestrator, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	registry := collections.New([]models.MCollectionDescriptor{
		descriptor("X", false, true),
		descriptor("Y", true, true),
		descriptor("Z", true, true),
	})
	return New(registry, resolver.New(decls, nil), persistence.New(store, "updated_at"), opts...), store
}

// -----------------------------------------------------------------------------

func TestScenarioHandlerCompletesTask(t *testing.T) {
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator([]resolver.Declaration{stub("X", models.Success("ok", 7), nil)}, WithTracker(tm))

	task := tm.Create("refresh", "X batch")
	updates, cancel := tm.Subscribe(8)
	defer cancel()

	res := o.RefreshCollection(context.Background(), "X", models.ModeBatch, models.MParams{}, task.ID)
	assert.True(t, res.Success)
	assert.Equal(t, 7, res.Count)

	running := <-updates
	completed := <-updates
	assert.Equal(t, models.TaskRunning, running.Status)
	assert.Equal(t, "Updating X data...", running.Message)
	assert.Equal(t, models.TaskCompleted, completed.Status)
	assert.Equal(t, 100, completed.Progress)
	require.NotNil(t, completed.Result)
	assert.Equal(t, 7, completed.Result.Count)
}

func TestScenarioNoHandlerNoLegacy(t *testing.T) {
	o, _ := newOrchestrator(nil, WithLegacy(legacyStub{}))
	res := o.RefreshCollection(context.Background(), "Y", models.ModeSingle, models.MParams{}, "")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no handler for collection Y")
}

func TestUnknownCollectionNeverTouchesTracker(t *testing.T) {
	tracker := &countingTracker{}
	o, _ := newOrchestrator(nil, WithTracker(tracker))

	for _, mode := range []models.UpdateMode{models.ModeSingle, models.ModeBatch} {
		res := o.RefreshCollection(context.Background(), "nope", mode, nil, "t1")
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "unknown collection")
	}
	assert.Zero(t, tracker.calls)
}

func TestHandlerErrorFailsTask(t *testing.T) {
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator([]resolver.Declaration{stub("X", models.MUpdateResult{}, errors.New("store unavailable"))}, WithTracker(tm))
	task := tm.Create("refresh", "")

	res := o.RefreshCollection(context.Background(), "X", models.ModeBatch, nil, task.ID)
	assert.False(t, res.Success)
	assert.Equal(t, "store unavailable", res.Message)

	got, _ := tm.Get(task.ID)
	assert.Equal(t, models.TaskFailed, got.Status)
	assert.Equal(t, "Update failed: store unavailable", got.Message)
}

func TestHandlerPanicIsContained(t *testing.T) {
	decl := resolver.Declaration{Name: "X", Factory: func() (interfaces.IUpdateHandler, error) {
		return &stubHandler{name: "X", batch: func() (models.MUpdateResult, error) { panic("nil map") }}, nil
	}}
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator([]resolver.Declaration{decl}, WithTracker(tm))
	task := tm.Create("refresh", "")

	var res models.MUpdateResult
	assert.NotPanics(t, func() {
		res = o.RefreshCollection(context.Background(), "X", models.ModeBatch, nil, task.ID)
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "nil map")
	got, _ := tm.Get(task.ID)
	assert.Equal(t, models.TaskFailed, got.Status)
}

func TestUnsuccessfulResultCompletesTaskWithMessage(t *testing.T) {
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator([]resolver.Declaration{stub("X", models.MUpdateResult{}, nil)}, WithTracker(tm))
	task := tm.Create("refresh", "")

	res := o.RefreshCollection(context.Background(), "X", models.ModeBatch, nil, task.ID)
	assert.False(t, res.Success)
	assert.Equal(t, "update failed", res.Message)
	got, _ := tm.Get(task.ID)
	assert.Equal(t, models.TaskCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "update failed", got.Message)
	require.NotNil(t, got.Result)
	assert.False(t, got.Result.Success)
}

func TestDisabledModeCompletesTask(t *testing.T) {
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator([]resolver.Declaration{stub("X", models.Failure("single update disabled"), nil)}, WithTracker(tm))
	task := tm.Create("refresh", "")

	res := o.RefreshCollection(context.Background(), "X", models.ModeSingle, nil, task.ID)
	assert.False(t, res.Success)
	got, _ := tm.Get(task.ID)
	assert.Equal(t, models.TaskCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "single update disabled", got.Message)
}

func TestLegacyFallback(t *testing.T) {
	var got models.MParams
	legacySvc := legacyStub{"fetch_and_save_Z": func(_ context.Context, p models.MParams) (any, error) {
		got = p
		return 12, nil
	}}
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator(nil, WithLegacy(legacySvc), WithTracker(tm))
	task := tm.Create("refresh", "")

	res := o.RefreshCollection(context.Background(), "Z", models.ModeSingle, models.MParams{"date": "20241115"}, task.ID)
	assert.True(t, res.Success)
	assert.Equal(t, 12, res.Count)
	assert.Equal(t, 12, res.Data)
	assert.Equal(t, "20241115", got.Get("date"))

	snap, _ := tm.Get(task.ID)
	assert.Equal(t, models.TaskCompleted, snap.Status)
}

func TestLegacyErrorIsFailure(t *testing.T) {
	legacySvc := legacyStub{"fetch_and_save_Z": func(context.Context, models.MParams) (any, error) {
		return nil, errors.New("provider down")
	}}
	o, _ := newOrchestrator(nil, WithLegacy(legacySvc))
	res := o.RefreshCollection(context.Background(), "Z", models.ModeBatch, nil, "")
	assert.False(t, res.Success)
	assert.Equal(t, "provider down", res.Message)
}

func TestRefreshMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	o, _ := newOrchestrator([]resolver.Declaration{stub("X", models.Success("ok", 1), nil)}, WithMetrics(m))
	o.RefreshCollection(context.Background(), "X", models.ModeBatch, nil, "")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("X", "batch", "success")))
}

func TestDisabledSingleNeverContactsProvider(t *testing.T) {
	provider := &countingProvider{}
	registry := collections.Default()
	p := persistence.New(storage.NewMemoryStore(), "updated_at")
	deps := handlers.Deps{Registry: registry, Persistence: p, Provider: provider}
	o := New(registry, resolver.New(handlers.Catalog(deps), nil), p)

	for _, name := range registry.ListNames() {
		d, _ := registry.Get(name)
		if d.SingleUpdate.Enabled {
			continue
		}
		res := o.RefreshCollection(context.Background(), name, models.ModeSingle, models.MParams{}, "")
		assert.False(t, res.Success, name)
		assert.NotEmpty(t, res.Message, name)
	}
	assert.Zero(t, provider.calls)
}

// -----------------------------------------------------------------------------

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Batch ")
	require.NoError(t, err)
	assert.Equal(t, models.ModeBatch, m)
	_, err = ParseMode("all")
	assert.Error(t, err)
}

func TestClearAndStats(t *testing.T) {
	o, store := newOrchestrator([]resolver.Declaration{stub("X", models.Success("ok", 0), nil)})
	ctx := context.Background()

	cleared := o.ClearCollection(ctx, "X")
	assert.True(t, cleared.Success)
	assert.EqualValues(t, 4, cleared.DeletedCount)

	require.NoError(t, store.InsertOne(ctx, "Y", models.MRecord{"a": 1, "updated_at": "2024-11-15 09:00:00"}))
	stats := o.GetCollectionStats(ctx, "Y")
	assert.True(t, stats.Success)
	assert.EqualValues(t, 1, stats.TotalCount)
	assert.Equal(t, "2024-11-15 09:00:00", stats.LastUpdate)

	stats = o.GetCollectionStats(ctx, "X")
	assert.EqualValues(t, 9, stats.TotalCount)

	cleared = o.ClearCollection(ctx, "Y")
	assert.EqualValues(t, 1, cleared.DeletedCount)

	assert.False(t, o.ClearCollection(ctx, "nope").Success)
	assert.False(t, o.GetCollectionStats(ctx, "nope").Success)
}

func TestListConfigAndData(t *testing.T) {
	o, store := newOrchestrator(nil)
	ctx := context.Background()

	list := o.ListSupportedCollections()
	require.Len(t, list, 3)
	assert.Equal(t, "X", list[0].Name)

	d, ok := o.GetCollectionConfig("Y")
	require.True(t, ok)
	assert.True(t, d.SingleUpdate.Enabled)
	_, ok = o.GetCollectionConfig("nope")
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertOne(ctx, "Z", models.MRecord{"i": i}))
	}
	page := o.GetCollectionData(ctx, "Z", 2, 2, "", false)
	assert.True(t, page.Success)
	assert.EqualValues(t, 5, page.Total)
	assert.EqualValues(t, 3, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, float64(2), page.Data[0]["i"])

	assert.False(t, o.GetCollectionData(ctx, "nope", 1, 10, "", false).Success)
}

// -----------------------------------------------------------------------------

func TestRefreshAsyncRunsInBackground(t *testing.T) {
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator([]resolver.Declaration{stub("X", models.Success("ok", 3), nil)}, WithTracker(tm))

	ctx, cancel := context.WithCancel(context.Background())
	task, err := o.RefreshAsync(ctx, tm, "X", models.ModeBatch, nil)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, RefreshTaskType, task.Type)
	assert.Equal(t, "X data update (batch)", task.Description)

	o.Wait()
	got, ok := tm.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, models.TaskCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 3, got.Result.Count)
}

func TestRefreshAsyncUnknownCollectionCreatesNoTask(t *testing.T) {
	tm := tasks.NewManager(time.Hour, nil)
	o, _ := newOrchestrator(nil, WithTracker(tm))

	_, err := o.RefreshAsync(context.Background(), tm, "nope", models.ModeBatch, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection: nope")
	assert.Empty(t, tm.List())
}
