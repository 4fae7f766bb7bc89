package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"market-collector/src/interfaces"
	"market-collector/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{ name string }

func (s *stubHandler) Name() string { return s.name }
func (s *stubHandler) UpdateSingle(context.Context, models.MParams, string) (models.MUpdateResult, error) {
	return models.Success("ok", 1), nil
}
func (s *stubHandler) UpdateBatch(context.Context, models.MParams, string) (models.MUpdateResult, error) {
	return models.Success("ok", 1), nil
}
func (s *stubHandler) Clear(context.Context) (int64, error)            { return 0, nil }
func (s *stubHandler) Overview(context.Context) (int64, string, error) { return 0, "", nil }

func counting(name string, calls *int32, delay time.Duration) Declaration {
	return Declaration{Name: name, Factory: func() (interfaces.IUpdateHandler, error) {
		atomic.AddInt32(calls, 1)
		time.Sleep(delay)
		return &stubHandler{name: name}, nil
	}}
}

func TestResolveCachesInstance(t *testing.T) {
	var calls int32
	r := New([]Declaration{counting("a", &calls, 0)}, nil)

	h1, ok := r.Resolve("a")
	require.True(t, ok)
	h2, ok := r.Resolve("a")
	require.True(t, ok)

	assert.Same(t, h1, h2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolveUnknownIsAbsent(t *testing.T) {
	r := New(nil, nil)
	h, ok := r.Resolve("missing")
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.False(t, r.Declared("missing"))
}

func TestResolveFailuresAreNotCached(t *testing.T) {
	var calls int32
	r := New([]Declaration{{Name: "flaky", Factory: func() (interfaces.IUpdateHandler, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("not ready")
		}
		return &stubHandler{name: "flaky"}, nil
	}}}, nil)

	_, ok := r.Resolve("flaky")
	assert.False(t, ok)
	h, ok := r.Resolve("flaky")
	require.True(t, ok)
	assert.Equal(t, "flaky", h.Name())
}

func TestResolveRecoversFactoryPanic(t *testing.T) {
	r := New([]Declaration{
		{Name: "boom", Factory: func() (interfaces.IUpdateHandler, error) { panic("boom") }},
		{Name: "nilfactory"},
		{Name: "nilhandler", Factory: func() (interfaces.IUpdateHandler, error) { return nil, nil }},
	}, nil)

	for _, name := range []string{"boom", "nilfactory", "nilhandler"} {
		_, ok := r.Resolve(name)
		assert.False(t, ok, name)
	}
}

func TestConcurrentFirstResolution(t *testing.T) {
	var a, b int32
	r := New([]Declaration{
		counting("a", &a, 20*time.Millisecond),
		counting("b", &b, 20*time.Millisecond),
	}, nil)

	var wg sync.WaitGroup
	results := make([]interfaces.IUpdateHandler, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "a"
			if i%2 == 1 {
				name = "b"
			}
			h, ok := r.Resolve(name)
			assert.True(t, ok)
			results[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&a))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b))
	for i := 2; i < len(results); i++ {
		assert.Same(t, results[i%2], results[i])
	}
}
