package utils

import (
	"testing"
	"time"

	"market-collector/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fallbackCalendar() *TradingCalendar {
	return &TradingCalendar{MIC: "test", Fallback: true, Timezone: time.FixedZone("CST", 8*3600)}
}

func TestFallbackTradingDays(t *testing.T) {
	t.Parallel()

	tc := fallbackCalendar()
	cst := tc.Timezone

	// Sunday 2024-03-10
	sunday := time.Date(2024, 3, 10, 10, 0, 0, 0, cst)
	assert.False(t, tc.IsTradingDay(sunday))
	assert.Equal(t, "20240308", tc.LatestTradingDay(sunday))

	days := tc.RecentTradingDays(sunday, 3)
	require.Len(t, days, 3)
	assert.Equal(t, "20240308", days[0].Format("20060102"))
	assert.Equal(t, "20240307", days[1].Format("20060102"))
	assert.Equal(t, "20240306", days[2].Format("20060102"))
}

func TestFallbackOpenHours(t *testing.T) {
	t.Parallel()

	tc := fallbackCalendar()
	cst := tc.Timezone

	assert.True(t, tc.IsOpenOnMinute(time.Date(2024, 3, 8, 10, 0, 0, 0, cst)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 3, 8, 9, 0, 0, 0, cst)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 3, 8, 15, 30, 0, 0, cst)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 3, 9, 10, 0, 0, 0, cst)))
}

func TestMICForExchange(t *testing.T) {
	assert.Equal(t, "xshe", MICForExchange("SZSE"))
	assert.Equal(t, "xshg", MICForExchange("sse"))
	assert.Equal(t, "xshg", MICForExchange(""))
}

func TestMarketSchedulerAnyOpen(t *testing.T) {
	ms := &MarketScheduler{Logger: logger.NewNopLogger()}
	ms.Calendars = map[string]*TradingCalendar{"test": fallbackCalendar()}

	cst := time.FixedZone("CST", 8*3600)
	assert.True(t, ms.AnyMarketOpen(time.Date(2024, 3, 8, 10, 0, 0, 0, cst)))
	assert.False(t, ms.AnyMarketOpen(time.Date(2024, 3, 10, 10, 0, 0, 0, cst)))

	empty := &MarketScheduler{Logger: logger.NewNopLogger()}
	assert.False(t, empty.AnyMarketOpen(time.Now()))
}
