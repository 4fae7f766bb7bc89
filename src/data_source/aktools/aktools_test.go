package aktools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"market-collector/src/helpers"
	"market-collector/src/logger"
	"market-collector/src/metrics"
	"market-collector/src/models"
	"market-collector/src/network"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, handler http.HandlerFunc, m *metrics.Metrics) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	nm := network.NewAsyncNetworkManager(models.MNetworkConfig{RequestTimeout: 5}, logger.NewNopLogger())
	return NewSource(models.MSourceConfig{Name: "aktools", Type: "aktools", BaseURL: srv.URL + "/"}, nm, m)
}

func TestFetchRows(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/option_lhb_em", r.URL.Path)
		assert.Equal(t, "510050", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`[{"证券代码":"510050","机构":"A"},{"证券代码":"510050","机构":"B"}]`))
	}, nil)

	res, err := src.Fetch(context.Background(), "option_lhb_em", map[string]string{"symbol": "510050"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "B", res.Rows[1]["机构"])
	assert.Empty(t, res.Values)
}

func TestFetchValues(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["2412","2501","2503"]`))
	}, nil)

	res, err := src.Fetch(context.Background(), "option_sse_list_sina", map[string]string{"symbol": "50ETF"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2412", "2501", "2503"}, res.Strings())
}

func TestFetchErrorIsProviderError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such function", http.StatusNotFound)
	}, m)

	_, err := src.Fetch(context.Background(), "option_missing", nil)
	require.Error(t, err)
	var pe *helpers.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("aktools", "error")))
}

func TestFetchRejectsEmptyFunction(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called")
	}, nil)

	_, err := src.Fetch(context.Background(), "", nil)
	var ve *helpers.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		rows   int
		values []any
	}{
		{name: "empty body", body: "  "},
		{name: "null", body: "null"},
		{name: "empty array", body: "[]"},
		{name: "tuple", body: `["2024-12-25", 40]`, values: []any{"2024-12-25", 40.0}},
		{name: "scalar", body: `3.05`, values: []any{3.05}},
		{name: "object", body: `{"字段":"最新价","值":2.71}`, rows: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Decode([]byte(tc.body))
			require.NoError(t, err)
			assert.Len(t, res.Rows, tc.rows)
			assert.Equal(t, tc.values, res.Values)
		})
	}
}

func TestDecodeKeepsLargeIntegers(t *testing.T) {
	res, err := Decode([]byte(`[{"合约代码": 12345678901234567890, "行权价": 2.75, "持仓量": 1200}]`))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, json.Number("12345678901234567890"), res.Rows[0]["合约代码"])
	assert.Equal(t, 2.75, res.Rows[0]["行权价"])
	assert.Equal(t, 1200.0, res.Rows[0]["持仓量"])
}

func TestDecodeRejectsMixedArrays(t *testing.T) {
	_, err := Decode([]byte(`[{"a":1}, 2]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`["a", {"b":2}]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
}
