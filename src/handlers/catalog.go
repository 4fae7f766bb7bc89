package handlers

import (
	"fmt"

	"market-collector/src/interfaces"
	"market-collector/src/models"
	"market-collector/src/resolver"
)

var (
	ETFSymbols    = []string{"50ETF", "300ETF"}
	LHBSymbols    = []string{"510050", "510300", "159919"}
	LHBIndicators = []string{"期权交易情况-认沽交易量", "期权持仓情况-认沽持仓量", "期权交易情况-认购交易量", "期权持仓情况-认购持仓量"}

	FinanceSymbols = []string{
		"华夏上证50ETF期权", "华泰柏瑞沪深300ETF期权", "嘉实沪深300ETF期权",
		"沪深300股指期权", "中证1000股指期权", "上证50股指期权",
	}
	CommoditySymbols = []string{"豆粕期权", "玉米期权", "棕榈油期权", "铁矿石期权", "黄金期权", "铜期权", "白糖期权", "棉花期权"}
	CZCEHistSymbols  = []string{"SR", "CF", "TA", "MA", "RM"}

	SHFESymbols = []string{"cu", "al", "zn", "au", "ag", "rb", "ru"}
	DCESymbols  = []string{"m", "c", "i", "p", "y", "pp", "l"}
	CZCESymbols = []string{"SR", "CF", "TA", "MA", "RM", "OI"}
	GFEXSymbols = []string{"si", "lc"}
)

var (
	etfUnderlying = map[string]string{"50ETF": "510050", "300ETF": "510300"}
	etfSpotCode   = map[string]string{"50ETF": "sh510050", "300ETF": "sh510300"}
	callPut       = map[string]string{"购": "看涨期权", "沽": "看跌期权"}
)

// -----------------------------------------------------------------------------

// New builds the handler of a definition.
func New(def Definition, deps Deps) (interfaces.IUpdateHandler, error) {
	switch def.Family {
	case FamilySnapshot:
		return NewSnapshotHandler(def, deps)
	case FamilyParam:
		return NewParamHandler(def, deps)
	case FamilyList:
		return NewListHandler(def, deps)
	}
	return nil, fmt.Errorf("unknown handler family %d", def.Family)
}

// Catalog declares a lazily built handler for every migrated collection.
// Collections left out are served by the legacy service.
func Catalog(deps Deps) []resolver.Declaration {
	defs := Definitions()
	out := make([]resolver.Declaration, 0, len(defs))
	for _, def := range defs {
		out = append(out, resolver.Declaration{
			Name:    def.Config.Collection,
			Factory: func() (interfaces.IUpdateHandler, error) { return New(def, deps) },
		})
	}
	return out
}

// -----------------------------------------------------------------------------

func snapshotDef(collection string, keys ...string) Definition {
	return Definition{Family: FamilySnapshot, Config: models.MHandlerConfig{Collection: collection, UniqueKeys: keys}}
}

// symbolDef is a param handler taking only "symbol", attached under field.
func symbolDef(collection, field string, keys ...string) Definition {
	cfg := models.MHandlerConfig{Collection: collection, UniqueKeys: keys}
	if field != "" {
		cfg.Attach = map[string]string{field: "symbol"}
	}
	return Definition{Family: FamilyParam, Config: cfg}
}

func cffexSpot(index string) Definition {
	d := symbolDef(fmt.Sprintf("option_cffex_%s_spot_sina", index), "", "合约代码")
	d.Config.DelayMs = 100
	d.Batch = Grid(FromProvider("symbol", fmt.Sprintf("option_cffex_%s_list_sina", index), nil, nil, "", 20))
	return d
}

func cffexDaily(index string) Definition {
	d := symbolDef(fmt.Sprintf("option_cffex_%s_daily_sina", index), "合约代码", "合约代码", "日期")
	d.Config.DelayMs = 200
	d.Batch = Grid(FromProvider("symbol", fmt.Sprintf("option_cffex_%s_list_sina", index), nil, nil, "", 20))
	return d
}

func cffexList(index string) Definition {
	return Definition{
		Family: FamilyList,
		Config: models.MHandlerConfig{Collection: fmt.Sprintf("option_cffex_%s_list_sina", index), UniqueKeys: []string{"合约代码"}},
		Build:  EachValue("合约代码"),
	}
}

func exchangeHist(collection string, symbols []string, contractField string) Definition {
	return Definition{
		Family: FamilyParam,
		Config: models.MHandlerConfig{
			Collection: collection,
			UniqueKeys: []string{"品种", contractField, "日期"},
			Kwargs:     map[string]string{"symbol": "symbol", "trade_date": "date"},
			Attach:     map[string]string{"品种": "symbol", "日期": "date"},
			DelayMs:    200,
		},
		Batch: Grid(Static("symbol", symbols...), RecentTradingDays("date", 3)),
	}
}

// sseMonths are the listed expiry months of the ETF chosen as "symbol".
func sseMonths(name string, limit int) Dimension {
	return FromProvider(name, "option_sse_list_sina", map[string]string{"symbol": "symbol"}, map[string]string{"exchange": "null"}, "", limit)
}

// -----------------------------------------------------------------------------

// Definitions returns every handler definition in registry order.
func Definitions() []Definition {
	return []Definition{
		cffexList("sz50"),
		cffexList("hs300"),
		cffexList("zz1000"),
		snapshotDef("option_current_em", "代码"),
		{
			Family: FamilyParam,
			Config: models.MHandlerConfig{
				Collection: "option_lhb_em",
				UniqueKeys: []string{"证券代码", "交易日期", "交易类型", "机构"},
				DelayMs:    200,
			},
			Batch: Grid(
				ParamOr("trade_date", Default("trade_date", LatestTradingDay())),
				Static("symbol", LHBSymbols...),
				Static("indicator", LHBIndicators...),
			),
		},
		snapshotDef("option_value_analysis_em", "代码"),
		snapshotDef("option_risk_analysis_em", "代码"),
		snapshotDef("option_premium_analysis_em", "代码"),
		snapshotDef("option_comm_info", "品种"),
		snapshotDef("option_margin", "品种"),
		snapshotDef("option_vol_gfex", "品种", "日期"),

		{
			Family:   FamilyParam,
			Config:   models.MHandlerConfig{Collection: "option_daily_stats_szse", UniqueKeys: []string{"合约标识", "日期"}, Attach: map[string]string{"日期": "date"}, DelayMs: 200},
			Defaults: map[string]DefaultFunc{"date": LatestTradingDay()},
			Batch:    Grid(RecentTradingDays("date", 5)),
		},
		{
			Family: FamilyParam,
			Config: models.MHandlerConfig{
				Collection: "option_czce_hist",
				UniqueKeys: []string{"品种代码", "交易日期"},
				Attach:     map[string]string{"年份": "year", "品种代码": "symbol"},
				DelayMs:    500,
			},
			Defaults: map[string]DefaultFunc{"year": CurrentYear()},
			Batch:    Grid(Default("year", CurrentYear()), Static("symbol", CZCEHistSymbols...)),
		},

		{
			Family: FamilyParam,
			Config: models.MHandlerConfig{
				Collection: "option_finance_board",
				UniqueKeys: []string{"品种", "到期月份", "合约代码"},
				Attach:     map[string]string{"品种": "symbol", "到期月份": "end_month"},
				DelayMs:    200,
			},
			Batch: Grid(Static("symbol", FinanceSymbols...), NextMonths("end_month", 4)),
		},
		cffexSpot("sz50"),
		cffexSpot("hs300"),
		cffexSpot("zz1000"),
		cffexDaily("sz50"),
		cffexDaily("hs300"),
		cffexDaily("zz1000"),
		{
			Family: FamilyList,
			Config: models.MHandlerConfig{
				Collection: "option_sse_list_sina",
				UniqueKeys: []string{"品种", "到期月份"},
				Fixed:      map[string]string{"exchange": "null"},
				Attach:     map[string]string{"品种": "symbol"},
				DelayMs:    200,
			},
			Build: EachValue("到期月份"),
			Batch: Grid(Static("symbol", ETFSymbols...)),
		},
		{
			Family: FamilyList,
			Config: models.MHandlerConfig{
				Collection: "option_sse_expire_day_sina",
				UniqueKeys: []string{"品种", "到期月份"},
				Kwargs:     map[string]string{"trade_date": "expire_month", "symbol": "symbol"},
				Fixed:      map[string]string{"exchange": "null"},
				Attach:     map[string]string{"品种": "symbol", "到期月份": "expire_month"},
				DelayMs:    100,
			},
			Build: Tuple("到期日", "剩余天数"),
			Batch: Grid(Static("symbol", ETFSymbols...), sseMonths("expire_month", 4)),
		},
		{
			Family: FamilyParam,
			Config: models.MHandlerConfig{
				Collection:   "option_sse_codes_sina",
				UniqueKeys:   []string{"标的代码", "到期月份", "期权代码"},
				Kwargs:       map[string]string{"trade_date": "expire_month", "underlying": "symbol", "symbol": "call_put"},
				Translate:    map[string]map[string]string{"underlying": etfUnderlying, "symbol": callPut},
				AttachKwargs: map[string]string{"标的代码": "underlying", "到期月份": "trade_date"},
				DelayMs:      100,
			},
			Batch: Grid(Static("symbol", ETFSymbols...), sseMonths("expire_month", 2), Static("call_put", "购", "沽")),
		},
		{
			Family: FamilyParam,
			Config: models.MHandlerConfig{
				Collection:   "option_sse_underlying_spot_price_sina",
				UniqueKeys:   []string{"标的代码", "字段"},
				Translate:    map[string]map[string]string{"symbol": etfSpotCode},
				AttachKwargs: map[string]string{"标的代码": "symbol"},
				DelayMs:      200,
			},
			Batch: Grid(Static("symbol", ETFSymbols...)),
		},
		symbolDef("option_sse_greeks_sina", "合约代码", "合约代码"),
		symbolDef("option_sse_minute_sina", "合约代码", "合约代码", "时间"),
		symbolDef("option_sse_daily_sina", "合约代码", "合约代码", "日期"),
		func() Definition {
			d := symbolDef("option_minute_em", "代码", "代码", "时间")
			d.Config.Concurrency = 3
			d.Config.DelayMs = 100
			d.Batch = Grid(FromProvider("symbol", "option_current_em", nil, nil, "代码", 50))
			return d
		}(),
		func() Definition {
			d := symbolDef("option_commodity_contract_sina", "品种", "品种", "合约代码")
			d.Config.DelayMs = 200
			d.Batch = Grid(Static("symbol", CommoditySymbols...))
			return d
		}(),
		{
			Family: FamilyParam,
			Config: models.MHandlerConfig{
				Collection: "option_commodity_contract_table_sina",
				UniqueKeys: []string{"品种", "合约月份", "行权价"},
				Attach:     map[string]string{"品种": "symbol", "合约月份": "contract"},
				DelayMs:    200,
			},
			Batch: Grid(
				Static("symbol", CommoditySymbols[:4]...),
				FromProvider("contract", "option_commodity_contract_sina", map[string]string{"symbol": "symbol"}, nil, "合约", 3),
			),
		},
		symbolDef("option_commodity_hist_sina", "合约代码", "合约代码", "日期"),

		exchangeHist("option_hist_shfe", SHFESymbols[:3], "合约代码"),
		exchangeHist("option_hist_dce", DCESymbols[:3], "合约"),
		exchangeHist("option_hist_czce", CZCESymbols[:3], "合约代码"),
		exchangeHist("option_hist_gfex", GFEXSymbols, "合约名称"),
	}
}
