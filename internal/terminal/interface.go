package terminal

import (
	"context"
	"errors"
	"time"
)

// 持仓方向类型码，与终端协议保持一致
const (
	PositionTypeBuy  = 0
	PositionTypeSell = 1
)

// 终端故障分类
var (
	// ErrNotInitialized 终端从未初始化成功，对整个采集周期是致命错误
	ErrNotInitialized = errors.New("终端未初始化")
	// ErrLoginRejected 凭证或服务器拒绝登录，仅影响单个账户
	ErrLoginRejected = errors.New("终端拒绝登录")
	// ErrTransport 与终端通信的网络或IO故障，下一周期可重试
	ErrTransport = errors.New("终端通信失败")
)

// AccountInfo 账户快照数据
type AccountInfo struct {
	Login       int64   `json:"login"`        // 登录账号
	Balance     float64 `json:"balance"`      // 余额
	Equity      float64 `json:"equity"`       // 净值
	Margin      float64 `json:"margin"`       // 已用保证金
	MarginFree  float64 `json:"margin_free"`  // 可用保证金
	MarginLevel float64 `json:"margin_level"` // 保证金比例
	Profit      float64 `json:"profit"`       // 浮动盈亏
	Currency    string  `json:"currency"`     // 账户币种
	Leverage    int     `json:"leverage"`     // 杠杆倍数
}

// Position 持仓数据
type Position struct {
	Ticket       int64     `json:"ticket"`        // 持仓单号
	Symbol       string    `json:"symbol"`        // 交易品种
	Type         int       `json:"type"`          // 类型码: 0=买入, 1=卖出
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

// Deal 历史成交记录
type Deal struct {
	Ticket int64     `json:"ticket"` // 成交单号
	Symbol string    `json:"symbol"` // 交易品种
	Volume float64   `json:"volume"` // 手数
	Price  float64   `json:"price"`  // 成交价格
	Profit float64   `json:"profit"` // 盈亏，非交易类流水为0
	Time   time.Time `json:"time"`   // 成交时间
}

// Terminal 下游交易终端接口
// 终端同一时刻只允许一个已认证会话，调用方必须串行使用
type Terminal interface {
	// Initialize 建立终端连接
	Initialize(ctx context.Context) error

	// Login 将终端的活动会话切换到指定账号
	Login(ctx context.Context, login int64, password, server string) error

	// 当前活动账户的数据查询
	AccountInfo(ctx context.Context) (*AccountInfo, error)
	Positions(ctx context.Context) ([]*Position, error)
	HistoryDeals(ctx context.Context, from, to time.Time) ([]*Deal, error)

	// Shutdown 关闭终端连接
	Shutdown(ctx context.Context) error
}
