package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultMIC is the Shanghai Stock Exchange, which lists the ETF options.
const DefaultMIC = "xshg"

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// MICForExchange maps exchange names used by the collections to ISO 10383 MICs.
func MICForExchange(exchange string) string {
	switch strings.ToLower(exchange) {
	case "szse", "xshe":
		return "xshe"
	case "hkex", "xhkg":
		return "xhkg"
	}
	return DefaultMIC
}

// -----------------------------------------------------------------------------

func GetCalendar(mic string) *TradingCalendar {
	mic = strings.ToLower(mic)
	if mic == "" {
		mic = DefaultMIC
	}

	// scmhub/calendar.GetCalendar returns a calendar by MIC
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s'. Using simple fallback (Mon-Fri 09:30-15:00 Asia/Shanghai).", mic)
		loc, _ := time.LoadLocation("Asia/Shanghai")
		if loc == nil {
			loc = time.FixedZone("CST", 8*3600)
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: loc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		// 9:30 - 15:00 exchange time, lunch break ignored
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 15
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------

// RecentTradingDays returns the last n trading days up to and including now,
// newest first. The search stops after a year of non-trading days.
func (tc *TradingCalendar) RecentTradingDays(now time.Time, n int) []time.Time {
	if tc.Timezone != nil {
		now = now.In(tc.Timezone)
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())

	var days []time.Time
	for i := 0; len(days) < n && i < 366; i++ {
		d := day.AddDate(0, 0, -i)
		if tc.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// -----------------------------------------------------------------------------

// LatestTradingDay formats the most recent trading day as YYYYMMDD.
func (tc *TradingCalendar) LatestTradingDay(now time.Time) string {
	days := tc.RecentTradingDays(now, 1)
	if len(days) == 0 {
		return now.Format("20060102")
	}
	return days[0].Format("20060102")
}
