package collections

import "market-collector/src/models"

// -----------------------------------------------------------------------------
// Builders
// -----------------------------------------------------------------------------

func text(name, label, placeholder string) models.MParamSpec {
	return models.MParamSpec{Name: name, Label: label, Kind: models.ParamText, Required: true, Placeholder: placeholder}
}

func optionalText(name, label, placeholder string) models.MParamSpec {
	p := text(name, label, placeholder)
	p.Required = false
	return p
}

func choice(name, label string, values ...string) models.MParamSpec {
	opts := make([]models.MParamOption, 0, len(values))
	for _, v := range values {
		opts = append(opts, models.MParamOption{Label: v, Value: v})
	}
	return models.MParamSpec{Name: name, Label: label, Kind: models.ParamSelect, Required: true, Options: opts}
}

func labeledChoice(name, label string, opts ...models.MParamOption) models.MParamSpec {
	return models.MParamSpec{Name: name, Label: label, Kind: models.ParamSelect, Required: true, Options: opts}
}

func opt(label, value string) models.MParamOption {
	return models.MParamOption{Label: label, Value: value}
}

// snapshot is a collection fetched in one call, batch only.
func snapshot(name, display, description string) models.MCollectionDescriptor {
	return models.MCollectionDescriptor{
		Name:         name,
		DisplayName:  display,
		Description:  description,
		SingleUpdate: models.MUpdateModeConfig{Enabled: false, Params: models.MParamSchema{}},
		BatchUpdate:  models.MUpdateModeConfig{Enabled: true, Description: "一次性获取所有数据", Params: models.MParamSchema{}},
	}
}

// parameterized is a collection updated by params, with a batch mode.
func parameterized(name, display, description, singleDesc, batchDesc string, params ...models.MParamSpec) models.MCollectionDescriptor {
	return models.MCollectionDescriptor{
		Name:         name,
		DisplayName:  display,
		Description:  description,
		SingleUpdate: models.MUpdateModeConfig{Enabled: true, Description: singleDesc, Params: params},
		BatchUpdate:  models.MUpdateModeConfig{Enabled: true, Description: batchDesc, Params: models.MParamSchema{}},
	}
}

// -----------------------------------------------------------------------------

var (
	etfChoice  = choice("symbol", "品种", "50ETF", "300ETF")
	dateParam  = text("date", "日期", "如 20241125")
	monthParam = text("expire_month", "到期月份", "如 2412")
)

// -----------------------------------------------------------------------------

// OptionCollections returns the option collections in declaration order.
func OptionCollections() []models.MCollectionDescriptor {
	lhb := parameterized("option_lhb_em", "期权龙虎榜", "获取东方财富期权龙虎榜",
		"更新指定标的和指标", "批量更新当日所有标的和指标",
		choice("symbol", "标的代码", "510050", "510300", "159919"),
		labeledChoice("indicator", "指标",
			opt("认沽交易量", "期权交易情况-认沽交易量"),
			opt("认购交易量", "期权交易情况-认购交易量"),
			opt("认沽持仓量", "期权持仓情况-认沽持仓量"),
			opt("认购持仓量", "期权持仓情况-认购持仓量"),
		),
		text("trade_date", "交易日", "如 20220121"),
	)
	lhb.BatchUpdate.Params = models.MParamSchema{optionalText("trade_date", "交易日", "如 20220121")}

	return []models.MCollectionDescriptor{
		// No params
		snapshot("option_contract_info_ctp", "OpenCTP期权合约信息", "获取OpenCTP期权合约信息"),
		snapshot("option_current_day_sse", "上交所当日合约", "获取上交所股票期权当日合约信息"),
		snapshot("option_current_day_szse", "深交所当日合约", "获取深交所期权当日合约信息"),
		snapshot("option_cffex_sz50_list_sina", "中金所上证50期权合约", "获取中金所上证50指数期权合约"),
		snapshot("option_cffex_hs300_list_sina", "中金所沪深300期权合约", "获取中金所沪深300指数期权合约"),
		snapshot("option_cffex_zz1000_list_sina", "中金所中证1000期权合约", "获取中金所中证1000指数期权合约"),
		snapshot("option_current_em", "期权实时数据", "获取东方财富期权实时行情"),
		lhb,
		snapshot("option_value_analysis_em", "期权价值分析", "获取东方财富期权价值分析"),
		snapshot("option_risk_analysis_em", "期权风险分析", "获取东方财富期权风险分析"),
		snapshot("option_premium_analysis_em", "期权折溢价", "获取东方财富期权折溢价分析"),
		snapshot("option_comm_info", "商品期权手续费", "获取九期网商品期权手续费"),
		snapshot("option_margin", "期权保证金", "获取唯爱期货期权保证金"),
		snapshot("option_vol_gfex", "广期所隐含波动率", "获取广期所隐含波动率参考值"),

		// Date
		parameterized("option_risk_indicator_sse", "期权风险指标", "获取上交所期权风险指标",
			"更新指定日期", "批量更新最近交易日", dateParam),
		parameterized("option_daily_stats_sse", "上交所期权每日统计", "获取上交所期权每日统计",
			"更新指定日期", "批量更新最近交易日", dateParam),
		parameterized("option_daily_stats_szse", "深交所期权每日统计", "获取深交所期权每日统计",
			"更新指定日期", "批量更新最近交易日", dateParam),
		parameterized("option_czce_hist", "郑商所期权历史行情", "获取郑商所期权历史行情（按年度获取）",
			"更新指定年份和品种", "批量更新当年主要品种",
			text("year", "年份", "如 2025"),
			labeledChoice("symbol", "品种代码",
				opt("白糖(SR)", "SR"), opt("棉花(CF)", "CF"), opt("PTA(TA)", "TA"), opt("甲醇(MA)", "MA"), opt("菜籽粕(RM)", "RM"),
			),
		),

		// Symbol
		parameterized("option_finance_board", "金融期权行情数据", "获取金融期权行情数据",
			"更新指定品种和月份", "批量更新所有品种",
			choice("symbol", "品种", "华夏上证50ETF期权", "沪深300股指期权"),
			text("end_month", "到期月份", "如 2412"),
		),
		parameterized("option_cffex_sz50_spot_sina", "中金所上证50指数实时行情", "获取中金所上证50指数期权实时行情",
			"更新指定合约", "批量更新所有合约", text("symbol", "合约代码", "如 io2412")),
		parameterized("option_cffex_hs300_spot_sina", "中金所沪深300指数实时行情", "获取中金所沪深300指数期权实时行情",
			"更新指定合约", "批量更新所有合约", text("symbol", "合约代码", "如 io2412")),
		parameterized("option_cffex_zz1000_spot_sina", "中金所中证1000指数实时行情", "获取中金所中证1000指数期权实时行情",
			"更新指定合约", "批量更新所有合约", text("symbol", "合约代码", "如 mo2412")),
		parameterized("option_cffex_sz50_daily_sina", "中金所上证50指数日频行情", "获取中金所上证50指数期权日频行情",
			"更新指定合约", "批量更新所有合约", text("symbol", "合约代码", "如 io2412C4000")),
		parameterized("option_cffex_hs300_daily_sina", "中金所沪深300指数日频行情", "获取中金所沪深300指数期权日频行情",
			"更新指定合约", "批量更新所有合约", text("symbol", "合约代码", "如 io2412C4000")),
		parameterized("option_cffex_zz1000_daily_sina", "中金所中证1000指数日频行情", "获取中金所中证1000指数期权日频行情",
			"更新指定合约", "批量更新所有合约", text("symbol", "合约代码", "如 mo2412C6000")),
		parameterized("option_sse_list_sina", "上交所ETF合约到期月份", "获取上交所ETF期权合约到期月份",
			"更新指定品种", "批量更新所有品种", etfChoice),
		parameterized("option_sse_expire_day_sina", "上交所ETF剩余到期时间", "获取指定到期月份的剩余到期时间",
			"更新指定品种和月份", "批量更新所有", etfChoice, monthParam),
		parameterized("option_sse_codes_sina", "新浪期权合约代码", "获取新浪期权看涨看跌合约代码",
			"更新指定条件", "批量更新", etfChoice, monthParam,
			labeledChoice("call_put", "看涨/看跌", opt("看涨", "购"), opt("看跌", "沽")),
		),
		parameterized("option_sse_underlying_spot_price_sina", "期权标的物实时数据", "获取期权标的物实时数据",
			"更新指定品种", "批量更新", etfChoice),
		parameterized("option_sse_greeks_sina", "期权希腊字母", "获取新浪期权希腊字母",
			"更新指定合约", "批量更新", text("symbol", "合约代码", "如 10007313")),
		parameterized("option_sse_minute_sina", "期权分钟行情", "获取期权分钟行情（仅当天）",
			"更新指定合约", "批量更新", text("symbol", "合约代码", "如 10007313")),
		parameterized("option_sse_daily_sina", "期权日行情", "获取期权日行情",
			"更新指定合约", "批量更新", text("symbol", "合约代码", "如 10007313")),
		parameterized("option_finance_minute_sina", "新浪期权分时行情", "获取新浪金融期权分时行情",
			"更新指定合约", "批量更新", text("symbol", "合约代码", "如 mo2412C6000")),
		parameterized("option_minute_em", "东财期权分时行情", "获取东方财富期权分时行情",
			"更新指定合约", "批量更新", text("symbol", "合约代码", "期权合约代码")),
		parameterized("option_commodity_contract_sina", "商品期权在交易合约", "获取新浪商品期权在交易合约",
			"更新指定品种", "批量更新", text("symbol", "品种代码", "如 豆粕期权")),
		parameterized("option_commodity_contract_table_sina", "商品期权T型报价表", "获取新浪商品期权T型报价表",
			"更新指定条件", "批量更新",
			text("symbol", "品种代码", "如 豆粕期权"),
			text("contract", "合约月份", "如 m2501"),
		),
		parameterized("option_commodity_hist_sina", "商品期权历史行情", "获取新浪商品期权历史行情",
			"更新指定合约", "批量更新", text("symbol", "合约代码", "如 m2501C2700")),

		// Symbol + date
		parameterized("option_hist_shfe", "上期所商品期权", "获取上期所商品期权数据",
			"更新指定条件", "批量更新", text("symbol", "品种代码", "如 cu"), dateParam),
		parameterized("option_hist_dce", "大商所商品期权", "获取大商所商品期权数据",
			"更新指定条件", "批量更新", text("symbol", "品种代码", "如 m"), dateParam),
		parameterized("option_hist_czce", "郑商所商品期权", "获取郑商所商品期权数据",
			"更新指定条件", "批量更新", text("symbol", "品种代码", "如 SR"), dateParam),
		parameterized("option_hist_gfex", "广期所商品期权", "获取广期所商品期权数据",
			"更新指定条件", "批量更新", text("symbol", "品种代码", "如 si"), dateParam),
	}
}
