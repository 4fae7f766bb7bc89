package legacy

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"market-collector/src/models"
	"market-collector/src/persistence"
	"market-collector/src/storage"
	"market-collector/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls   []map[string]string
	respond func(function string, params map[string]string) (models.MProviderResult, error)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Fetch(_ context.Context, function string, params map[string]string) (models.MProviderResult, error) {
	p.calls = append(p.calls, params)
	return p.respond(function, params)
}

func newService(p *scriptedProvider) (*OptionDataService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	cal := &utils.TradingCalendar{MIC: "test", Fallback: true, Timezone: time.UTC}
	s := NewOptionDataService(persistence.New(store, "updated_at"), p, cal, nil)
	s.SetClock(func() time.Time { return time.Date(2024, 11, 18, 16, 0, 0, 0, time.UTC) })
	return s, store
}

func TestLookupByConventionalName(t *testing.T) {
	s, _ := newService(&scriptedProvider{})

	names := s.Methods()
	sort.Strings(names)
	assert.Equal(t, []string{
		"fetch_and_save_option_contract_info_ctp",
		"fetch_and_save_option_current_day_sse",
		"fetch_and_save_option_current_day_szse",
		"fetch_and_save_option_daily_stats_sse",
		"fetch_and_save_option_finance_minute_sina",
		"fetch_and_save_option_risk_indicator_sse",
	}, names)

	_, ok := s.Lookup(MethodName("option_current_day_sse"))
	assert.True(t, ok)
	_, ok = s.Lookup(MethodName("option_lhb_em"))
	assert.False(t, ok)
}

func TestSnapshotRenamesColumns(t *testing.T) {
	p := &scriptedProvider{respond: func(string, map[string]string) (models.MProviderResult, error) {
		return models.MProviderResult{Rows: []models.MRecord{
			{"合约编码": "10007313", "行权价": 2.5},
			{"合约编码": "10007314", "行权价": 2.6},
		}}, nil
	}}
	s, store := newService(p)
	ctx := context.Background()

	m, _ := s.Lookup(MethodName("option_current_day_sse"))
	out, err := m(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	doc, err := store.FindOne(ctx, "option_current_day_sse", models.MRecord{"contract_code": "10007314"})
	require.NoError(t, err)
	assert.Equal(t, 2.6, doc["strike_price"])
	assert.NotEmpty(t, doc["updated_at"])
}

func TestRiskIndicatorSkipsFailedDates(t *testing.T) {
	p := &scriptedProvider{respond: func(_ string, params map[string]string) (models.MProviderResult, error) {
		if params["date"] == "20241115" {
			return models.MProviderResult{}, errors.New("not published")
		}
		return models.MProviderResult{Rows: []models.MRecord{
			{"TRADE_DATE": params["date"], "CONTRACT_ID": "10007313", "DELTA_VALUE": 0.5},
		}}, nil
	}}
	s, _ := newService(p)

	out, err := s.FetchAndSaveRiskIndicatorSSE(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, out)
	require.Len(t, p.calls, 5)
	assert.Equal(t, "20241118", p.calls[0]["date"])
	assert.Equal(t, "20241112", p.calls[4]["date"])
}

func TestDailyStatsStampsRequestDate(t *testing.T) {
	p := &scriptedProvider{respond: func(string, map[string]string) (models.MProviderResult, error) {
		return models.MProviderResult{Rows: []models.MRecord{{"合约标的代码": "510050", "总成交量": 1000.0}}}, nil
	}}
	s, store := newService(p)
	ctx := context.Background()

	out, err := s.FetchAndSaveDailyStatsSSE(ctx, models.MParams{"date": "20241101"})
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	doc, err := store.FindOne(ctx, "option_daily_stats_sse", models.MRecord{"underlying_code": "510050"})
	require.NoError(t, err)
	assert.Equal(t, "20241101", doc["trade_date"])
}

func TestFinanceMinuteDefaultsSymbol(t *testing.T) {
	p := &scriptedProvider{respond: func(string, map[string]string) (models.MProviderResult, error) {
		return models.MProviderResult{Rows: []models.MRecord{{"date": "2024-11-18", "time": "09:31:00", "price": 0.1}}}, nil
	}}
	s, _ := newService(p)

	out, err := s.FetchAndSaveFinanceMinuteSina(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Equal(t, "10002530", p.calls[0]["symbol"])
}

func TestSnapshotProviderErrorIsReturned(t *testing.T) {
	p := &scriptedProvider{respond: func(string, map[string]string) (models.MProviderResult, error) {
		return models.MProviderResult{}, errors.New("bridge down")
	}}
	s, _ := newService(p)
	m, _ := s.Lookup(MethodName("option_contract_info_ctp"))
	_, err := m(context.Background(), nil)
	assert.ErrorContains(t, err, "bridge down")
}
