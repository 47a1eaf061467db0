package storage

import (
	"context"
	"time"

	"fundwatch/internal/collector"
)

// 账户文档状态标记
const (
	StatusActive = "ACTIVE" // 最近一次采集成功
)

// AccountDocument 持久化的账户文档
// 以 (login, client_id) 为键整体覆盖写入
type AccountDocument struct {
	Login       int64                      `json:"login"`        // 登录账号
	ClientID    string                     `json:"client_id"`    // 所属客户标识
	FundCode    string                     `json:"fund_code"`    // 基金分类代码
	Equity      float64                    `json:"equity"`       // 当前净值
	Balance     float64                    `json:"balance"`      // 当前余额
	Profit      float64                    `json:"profit"`       // 浮动盈亏
	ReturnPct   float64                    `json:"return_pct"`   // 收益率
	Margin      float64                    `json:"margin"`       // 已用保证金
	MarginFree  float64                    `json:"margin_free"`  // 可用保证金
	MarginLevel float64                    `json:"margin_level"` // 保证金比例
	Status      string                     `json:"status"`       // 状态标记
	AccountInfo *collector.AccountSnapshot `json:"account_info"` // 原始账户快照
	Positions   []collector.PositionInfo   `json:"positions"`    // 原始持仓列表
	History     collector.HistorySummary   `json:"history"`      // 原始历史汇总
	UpdatedAt   time.Time                  `json:"updated_at"`   // 最后更新时间
}

// Storage 定义存储层接口，可以有多种实现（Redis、PostgreSQL等）
type Storage interface {
	// 基础操作
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
	Health(ctx context.Context) error

	// 账户快照操作
	UpsertAccountSnapshot(ctx context.Context, result *collector.AccountCollectionResult) error
	GetAccountSnapshot(ctx context.Context, login int64, clientID string) (*AccountDocument, error)
	ListAccountSnapshots(ctx context.Context) ([]*AccountDocument, error)

	// 批次结果操作
	StoreBatchResult(ctx context.Context, batch *collector.BatchCollectionResult) error
	GetLatestBatchResult(ctx context.Context) (*collector.BatchCollectionResult, error)
}
