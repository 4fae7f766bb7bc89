// Package legacy serves collections that have no migrated update handler.
// Each method fetches, renames provider columns and upserts in one step, and
// is looked up by its conventional name "fetch_and_save_<collection>".
package legacy

import (
	"context"
	"fmt"
	"time"

	"market-collector/src/interfaces"
	"market-collector/src/logger"
	"market-collector/src/models"
	"market-collector/src/persistence"
	"market-collector/src/utils"
)

const methodPrefix = "fetch_and_save_"

// Method is one legacy fetch-and-save call. It returns the number of records
// inserted or modified.
type Method func(ctx context.Context, params models.MParams) (any, error)

// MethodName derives the legacy method name of a collection.
func MethodName(collection string) string {
	return methodPrefix + collection
}

// -----------------------------------------------------------------------------

type OptionDataService struct {
	persistence *persistence.Persistence
	provider    interfaces.IDataProvider
	calendar    *utils.TradingCalendar
	logger      *logger.Logger
	now         func() time.Time
	methods     map[string]Method
}

func NewOptionDataService(p *persistence.Persistence, provider interfaces.IDataProvider, cal *utils.TradingCalendar, l *logger.Logger) *OptionDataService {
	if cal == nil {
		cal = utils.GetCalendar(utils.DefaultMIC)
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	s := &OptionDataService{
		persistence: p,
		provider:    provider,
		calendar:    cal,
		logger:      l,
		now:         time.Now,
	}
	s.methods = map[string]Method{
		MethodName("option_contract_info_ctp"):   s.snapshot("option_contract_info_ctp", contractInfoCTPColumns, "exchange_id", "instrument_id"),
		MethodName("option_current_day_sse"):     s.snapshot("option_current_day_sse", currentDaySSEColumns, "contract_code"),
		MethodName("option_current_day_szse"):    s.snapshot("option_current_day_szse", currentDaySZSEColumns, "contract_code"),
		MethodName("option_risk_indicator_sse"):  s.FetchAndSaveRiskIndicatorSSE,
		MethodName("option_daily_stats_sse"):     s.FetchAndSaveDailyStatsSSE,
		MethodName("option_finance_minute_sina"): s.FetchAndSaveFinanceMinuteSina,
	}
	return s
}

// SetClock replaces the time source. Used by tests.
func (s *OptionDataService) SetClock(now func() time.Time) {
	s.now = now
}

// -----------------------------------------------------------------------------

// Lookup implements interfaces.ILegacyService.
func (s *OptionDataService) Lookup(method string) (func(ctx context.Context, params models.MParams) (any, error), bool) {
	m, ok := s.methods[method]
	if !ok {
		return nil, false
	}
	return m, true
}

// Methods lists the available method names.
func (s *OptionDataService) Methods() []string {
	out := make([]string, 0, len(s.methods))
	for name := range s.methods {
		out = append(out, name)
	}
	return out
}

// -----------------------------------------------------------------------------

func (s *OptionDataService) snapshot(collection string, columns map[string]string, keys ...string) Method {
	return func(ctx context.Context, _ models.MParams) (any, error) {
		s.logger.Info("Fetching %s...", collection)
		res, err := s.provider.Fetch(ctx, collection, nil)
		if err != nil {
			return 0, fmt.Errorf("fetch %s: %w", collection, err)
		}
		if len(res.Rows) == 0 {
			s.logger.Warning("%s returned no data", collection)
			return 0, nil
		}
		return s.save(ctx, collection, rename(res.Rows, columns), keys)
	}
}

// -----------------------------------------------------------------------------

// FetchAndSaveRiskIndicatorSSE saves the SSE risk indicators of the given
// date, or of the last five trading days. Failed dates are skipped.
func (s *OptionDataService) FetchAndSaveRiskIndicatorSSE(ctx context.Context, params models.MParams) (any, error) {
	const collection = "option_risk_indicator_sse"
	total := 0
	for _, date := range s.dates(params.Get("date"), 5) {
		res, err := s.provider.Fetch(ctx, collection, map[string]string{"date": date})
		if err != nil {
			s.logger.Warning("%s %s failed: %v", collection, date, err)
			continue
		}
		if len(res.Rows) == 0 {
			continue
		}
		n, err := s.save(ctx, collection, rename(res.Rows, riskIndicatorSSEColumns), []string{"trade_date", "contract_id"})
		if err != nil {
			return total, err
		}
		total += n
	}
	s.logger.Info("Saved %d %s records", total, collection)
	return total, nil
}

// -----------------------------------------------------------------------------

// FetchAndSaveDailyStatsSSE saves the SSE daily statistics, stamping the
// request date on rows that lack one.
func (s *OptionDataService) FetchAndSaveDailyStatsSSE(ctx context.Context, params models.MParams) (any, error) {
	const collection = "option_daily_stats_sse"
	total := 0
	for _, date := range s.dates(params.Get("date"), 5) {
		res, err := s.provider.Fetch(ctx, collection, map[string]string{"date": date})
		if err != nil {
			s.logger.Warning("%s %s failed: %v", collection, date, err)
			continue
		}
		if len(res.Rows) == 0 {
			continue
		}
		records := rename(res.Rows, dailyStatsSSEColumns)
		for _, r := range records {
			if _, ok := r["trade_date"]; !ok {
				r["trade_date"] = date
			}
		}
		n, err := s.save(ctx, collection, records, []string{"trade_date", "underlying_code"})
		if err != nil {
			return total, err
		}
		total += n
	}
	s.logger.Info("Saved %d %s records", total, collection)
	return total, nil
}

// -----------------------------------------------------------------------------

// FetchAndSaveFinanceMinuteSina saves the minute quotes of one contract.
func (s *OptionDataService) FetchAndSaveFinanceMinuteSina(ctx context.Context, params models.MParams) (any, error) {
	const collection = "option_finance_minute_sina"
	symbol := params.Get("symbol")
	if symbol == "" {
		symbol = "10002530"
	}

	res, err := s.provider.Fetch(ctx, collection, map[string]string{"symbol": symbol})
	if err != nil {
		return 0, fmt.Errorf("fetch %s %s: %w", collection, symbol, err)
	}
	if len(res.Rows) == 0 {
		s.logger.Warning("%s %s returned no data", collection, symbol)
		return 0, nil
	}
	records := rename(res.Rows, nil)
	for _, r := range records {
		r["symbol"] = symbol
	}
	return s.save(ctx, collection, records, []string{"symbol", "date", "time"})
}

// -----------------------------------------------------------------------------

// save upserts and reports inserted plus modified records.
func (s *OptionDataService) save(ctx context.Context, collection string, records []models.MRecord, keys []string) (int, error) {
	summary, err := s.persistence.Upsert(ctx, collection, records, keys)
	if err != nil {
		return 0, err
	}
	return summary.Inserted + summary.Updated, nil
}

func (s *OptionDataService) dates(given string, n int) []string {
	if given != "" {
		return []string{given}
	}
	days := s.calendar.RecentTradingDays(s.now(), n)
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format("20060102"))
	}
	return out
}

func rename(rows []models.MRecord, columns map[string]string) []models.MRecord {
	out := make([]models.MRecord, 0, len(rows))
	for _, row := range rows {
		rec := make(models.MRecord, len(row))
		for k, v := range row {
			if to, ok := columns[k]; ok {
				k = to
			}
			rec[k] = v
		}
		out = append(out, rec)
	}
	return out
}
