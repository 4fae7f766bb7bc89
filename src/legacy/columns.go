package legacy

// Column renames applied before saving, provider column -> stored field.

var contractInfoCTPColumns = map[string]string{
	"交易所ID":   "exchange_id",
	"合约ID":    "instrument_id",
	"合约名称":    "instrument_name",
	"商品类别":    "product_class",
	"品种ID":    "product_id",
	"合约乘数":    "volume_multiple",
	"最小变动价位":  "price_tick",
	"做多保证金率":  "long_margin_ratio",
	"做空保证金率":  "short_margin_ratio",
	"做多保证金/手": "long_margin_per_lot",
	"做空保证金/手": "short_margin_per_lot",
	"开仓手续费率":  "open_fee_ratio",
	"开仓手续费/手": "open_fee_per_lot",
	"平仓手续费率":  "close_fee_ratio",
	"平仓手续费/手": "close_fee_per_lot",
	"平今手续费率":  "close_today_fee_ratio",
	"平今手续费/手": "close_today_fee_per_lot",
	"交割年份":    "delivery_year",
	"交割月份":    "delivery_month",
	"上市日期":    "create_date",
	"最后交易日":   "expire_date",
	"交割日":     "delivery_date",
	"标的合约ID":  "underlying_instrument_id",
	"标的合约乘数":  "underlying_multiple",
	"期权类型":    "option_type",
	"行权价":     "strike_price",
	"合约状态":    "instrument_status",
}

var riskIndicatorSSEColumns = map[string]string{
	"TRADE_DATE":      "trade_date",
	"SECURITY_ID":     "security_id",
	"CONTRACT_ID":     "contract_id",
	"CONTRACT_SYMBOL": "contract_symbol",
	"DELTA_VALUE":     "delta",
	"THETA_VALUE":     "theta",
	"GAMMA_VALUE":     "gamma",
	"VEGA_VALUE":      "vega",
	"RHO_VALUE":       "rho",
	"IMPLC_VOLATLTY":  "implied_volatility",
}

var currentDaySSEColumns = map[string]string{
	"合约编码":     "contract_code",
	"合约交易代码":   "trade_code",
	"合约简称":     "contract_name",
	"标的券名称及代码": "underlying_name_code",
	"类型":       "option_type",
	"行权价":      "strike_price",
	"合约单位":     "contract_unit",
	"期权行权日":    "exercise_date",
	"行权交收日":    "delivery_date",
	"到期日":      "expire_date",
	"开始日期":     "start_date",
}

var currentDaySZSEColumns = map[string]string{
	"序号":           "serial_number",
	"合约编码":         "contract_code_id",
	"合约代码":         "contract_code",
	"合约简称":         "contract_name",
	"标的证券简称(代码)":   "underlying_name_code",
	"合约类型":         "contract_type",
	"行权价":          "strike_price",
	"合约单位":         "contract_unit",
	"最后交易日":        "last_trade_date",
	"行权日":          "exercise_date",
	"到期日":          "expire_date",
	"交收日":          "delivery_date",
	"新挂":           "is_new",
	"涨停价格":         "limit_up",
	"跌停价格":         "limit_down",
	"前结算价":         "pre_settle",
	"合约调整":         "is_adjusted",
	"停牌":           "is_suspended",
	"合约总持仓":        "open_interest",
	"挂牌原因":         "list_reason",
	"原合约代码":        "original_contract_code",
	"原合约简称":        "original_contract_name",
	"原行权价格":        "original_strike_price",
	"原合约单位":        "original_contract_unit",
	"合约到期剩余交易天数":   "days_to_expire_trading",
	"合约到期剩余自然天数":   "days_to_expire_natural",
	"下次合约调整剩余交易天数": "days_to_adjust_trading",
	"下次合约调整剩余自然天数": "days_to_adjust_natural",
	"交易日期":         "trade_date",
}

var dailyStatsSSEColumns = map[string]string{
	"合约标的代码":   "underlying_code",
	"合约标的名称":   "underlying_name",
	"合约数量":     "contract_quantity",
	"总成交额":     "total_turnover",
	"总成交量":     "total_volume",
	"认购成交量":    "call_volume",
	"认沽成交量":    "put_volume",
	"认沽/认购":    "put_call_ratio",
	"未平仓合约总数":  "open_interest_total",
	"未平仓认购合约数": "open_interest_call",
	"未平仓认沽合约数": "open_interest_put",
}
