package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"market-collector/src/helpers"
	"market-collector/src/logger"
	"market-collector/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(cfg models.MNetworkConfig) *AsyncNetworkManager {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5
	}
	return NewAsyncNetworkManager(cfg, logger.NewNopLogger())
}

func TestGetSendsQueryAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50ETF", r.URL.Query().Get("symbol"))
		assert.Equal(t, "collector-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	nm := newManager(models.MNetworkConfig{UserAgent: "collector-test"})
	body, err := nm.Get(context.Background(), srv.URL+"/api/public/option_sse_list_sina", map[string]string{"symbol": "50ETF"})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	nm := newManager(models.MNetworkConfig{MaxRetries: 2})
	body, err := nm.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown function", http.StatusNotFound)
	}))
	defer srv.Close()

	nm := newManager(models.MNetworkConfig{MaxRetries: 3})
	_, err := nm.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var ne *helpers.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Contains(t, err.Error(), "bad status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	nm := newManager(models.MNetworkConfig{MaxRetries: 10})
	start := time.Now()
	_, err := nm.Get(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestMinDelaySpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	nm := newManager(models.MNetworkConfig{MinDelayMs: 50})
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := nm.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
