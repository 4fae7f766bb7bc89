package utils

import (
	"sync"
	"time"

	"market-collector/src/logger"
)

// MarketScheduler answers whether any tracked exchange is open.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(mics []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.SetMarkets(mics)
	return ms
}

// -----------------------------------------------------------------------------

// SetMarkets replaces the tracked exchanges.
func (ms *MarketScheduler) SetMarkets(mics []string) {
	cals := make(map[string]*TradingCalendar, len(mics))
	for _, mic := range mics {
		if _, ok := cals[mic]; ok {
			continue
		}
		cals[mic] = GetCalendar(mic)
	}

	ms.mu.Lock()
	ms.Calendars = cals
	ms.mu.Unlock()

	ms.Logger.Info("MarketScheduler: tracking %d calendars.", len(cals))
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY tracked markets are open at t
func (ms *MarketScheduler) AnyMarketOpen(t time.Time) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenOnMinute(t) {
			return true
		}
	}
	return false
}
