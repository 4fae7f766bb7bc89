package handlers

import (
	"context"
	"testing"
	"time"

	"market-collector/src/models"
	"market-collector/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enumDeps(now time.Time, p *fakeProvider) Deps {
	return Deps{
		Provider: p,
		Calendar: &utils.TradingCalendar{MIC: "test", Fallback: true, Timezone: time.UTC},
		Now:      func() time.Time { return now },
	}
}

func TestGridCrossProduct(t *testing.T) {
	e := Grid(Static("a", "1", "2"), Static("b", "x", "y", "z"))
	out, err := e(context.Background(), enumDeps(testNow, nil), models.MParams{"keep": "k"})
	require.NoError(t, err)
	require.Len(t, out, 6)
	assert.Equal(t, models.MParams{"keep": "k", "a": "1", "b": "x"}, out[0])
	assert.Equal(t, models.MParams{"keep": "k", "a": "2", "b": "z"}, out[5])
}

func TestParamOrPrefersBatchParam(t *testing.T) {
	e := Grid(ParamOr("trade_date", Default("trade_date", LatestTradingDay())))
	d := enumDeps(time.Date(2024, 11, 16, 12, 0, 0, 0, time.UTC), nil) // Saturday

	out, err := e(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, "20241115", out[0]["trade_date"])

	out, err = e(context.Background(), d, models.MParams{"trade_date": "20240102"})
	require.NoError(t, err)
	assert.Equal(t, "20240102", out[0]["trade_date"])
}

func TestNextMonthsCrossesYear(t *testing.T) {
	out, err := NextMonths("m", 4).Values(context.Background(), enumDeps(time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), nil), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2411", "2412", "2501", "2502"}, out)
}

func TestRecentTradingDaysSkipWeekend(t *testing.T) {
	out, err := RecentTradingDays("d", 3).Values(context.Background(), enumDeps(time.Date(2024, 11, 18, 9, 0, 0, 0, time.UTC), nil), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"20241118", "20241115", "20241114"}, out)
}

func TestFromProviderField(t *testing.T) {
	p := &fakeProvider{respond: func(_ string, params map[string]string) (models.MProviderResult, error) {
		return rows(5, func(i int) models.MRecord { return models.MRecord{"合约": params["symbol"] + string(rune('a'+i))} }), nil
	}}
	dim := FromProvider("contract", "option_commodity_contract_sina", map[string]string{"symbol": "symbol"}, nil, "合约", 3)
	out, err := dim.Values(context.Background(), enumDeps(testNow, p), models.MParams{"symbol": "m"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ma", "mb", "mc"}, out)
}
