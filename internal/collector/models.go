package collector

import (
	"time"
)

// 批次结果的数据来源标记
const (
	DataSourceFresh = "fresh" // 本次采集的新数据
	DataSourceCache = "cache" // 缓存命中返回的数据
)

// 持仓方向
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// AccountSnapshot 账户快照
type AccountSnapshot struct {
	Balance     float64 `json:"balance"`      // 余额
	Equity      float64 `json:"equity"`       // 净值
	Margin      float64 `json:"margin"`       // 已用保证金
	MarginFree  float64 `json:"margin_free"`  // 可用保证金
	MarginLevel float64 `json:"margin_level"` // 保证金比例
	Profit      float64 `json:"profit"`       // 浮动盈亏
	Currency    string  `json:"currency"`     // 账户币种
	Leverage    int     `json:"leverage"`     // 杠杆倍数
	ReturnPct   float64 `json:"return_pct"`   // 收益率 = 浮动盈亏/分配资金*100
}

// PositionInfo 持仓信息
type PositionInfo struct {
	Ticket       int64     `json:"ticket"`        // 持仓单号
	Symbol       string    `json:"symbol"`        // 交易品种
	Direction    string    `json:"direction"`     // 方向: buy/sell
	Volume       float64   `json:"volume"`        // 手数
	OpenPrice    float64   `json:"open_price"`    // 开仓价格
	CurrentPrice float64   `json:"current_price"` // 当前价格
	Profit       float64   `json:"profit"`        // 浮动盈亏
	Swap         float64   `json:"swap"`          // 库存费
	Commission   float64   `json:"commission"`    // 手续费
	StopLoss     float64   `json:"stop_loss"`     // 止损价
	TakeProfit   float64   `json:"take_profit"`   // 止盈价
	OpenTime     time.Time `json:"open_time"`     // 开仓时间
}

// HistorySummary 回溯窗口内的成交汇总
// 只统计盈亏不为零的成交，过滤掉出入金等非交易流水
type HistorySummary struct {
	WindowDays int     `json:"window_days"` // 回溯天数
	DealCount  int     `json:"deal_count"`  // 成交笔数
	NetProfit  float64 `json:"net_profit"`  // 净盈亏
}

// AccountCollectionResult 单个账户一次采集的结果
// 失败时 Success=false 且 Error 非空，各采集字段为零值
type AccountCollectionResult struct {
	Success        bool             `json:"success"`         // 是否采集成功
	Login          int64            `json:"login"`           // 登录账号
	FundCode       string           `json:"fund_code"`       // 基金分类代码
	Allocated      float64          `json:"allocated"`       // 分配资金额度
	ClientID       string           `json:"client_id"`       // 所属客户标识
	Description    string           `json:"description"`     // 账户描述
	CollectedAt    time.Time        `json:"collected_at"`    // 采集时间
	Error          string           `json:"error,omitempty"` // 失败原因
	Account        *AccountSnapshot `json:"account,omitempty"`
	Positions      []PositionInfo   `json:"positions"`
	FloatingProfit float64          `json:"floating_profit"` // 持仓浮动盈亏合计
	History        HistorySummary   `json:"history"`
}

// FundSummary 单个基金分类的汇总
type FundSummary struct {
	FundCode      string  `json:"fund_code"`      // 基金分类代码
	Allocated     float64 `json:"allocated"`      // 分配资金合计（含失败账户）
	Equity        float64 `json:"equity"`         // 净值合计（仅成功账户）
	Balance       float64 `json:"balance"`        // 余额合计（仅成功账户）
	Profit        float64 `json:"profit"`         // 盈亏合计（仅成功账户）
	PositionCount int     `json:"position_count"` // 持仓数合计（仅成功账户）
	AccountCount  int     `json:"account_count"`  // 配置的账户数
}

// PortfolioSummary 投资组合汇总，完全由成功结果推导，不允许硬编码
type PortfolioSummary struct {
	TotalAllocated   float64                 `json:"total_allocated"`    // 全部配置账户的分配资金合计
	TotalEquity      float64                 `json:"total_equity"`       // 净值合计（仅成功账户）
	TotalBalance     float64                 `json:"total_balance"`      // 余额合计（仅成功账户）
	TotalProfit      float64                 `json:"total_profit"`       // 盈亏合计（仅成功账户）
	TotalPositions   int                     `json:"total_positions"`    // 持仓数合计（仅成功账户）
	OverallReturnPct float64                 `json:"overall_return_pct"` // 整体收益率，分母为全部分配资金
	ByFund           map[string]*FundSummary `json:"by_fund"`            // 按基金分类的分解
}

// BatchCollectionResult 一个完整采集周期的输出
type BatchCollectionResult struct {
	Success           bool                       `json:"success"`            // 是否全部账户采集成功
	AccountsCollected int                        `json:"accounts_collected"` // 成功账户数
	AccountsFailed    int                        `json:"accounts_failed"`    // 失败账户数
	Results           []*AccountCollectionResult `json:"results"`            // 按配置顺序排列的账户结果
	Portfolio         *PortfolioSummary          `json:"portfolio"`          // 投资组合汇总
	StartedAt         time.Time                  `json:"started_at"`         // 周期开始时间
	FinishedAt        time.Time                  `json:"finished_at"`        // 周期结束时间
	DataSource        string                     `json:"data_source"`        // fresh 或 cache
}
