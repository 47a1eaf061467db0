package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fundwatch/internal/config"
	"fundwatch/internal/terminal"
)

// 默认历史成交回溯窗口
const DefaultHistoryWindow = 7 * 24 * time.Hour

// AccountDataCollector 单账户数据采集器
// 前置条件：会话已切换到目标账号（由编排器保证，这里不重复切换，
// 避免二次触发登录限速）
type AccountDataCollector struct {
	terminal      terminal.Terminal
	logger        *zap.Logger
	historyWindow time.Duration
}

// NewAccountDataCollector 创建账户数据采集器
func NewAccountDataCollector(term terminal.Terminal, historyWindow time.Duration, logger *zap.Logger) *AccountDataCollector {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &AccountDataCollector{
		terminal:      term,
		logger:        logger.With(zap.String("component", "account_collector")),
		historyWindow: historyWindow,
	}
}

// Collect 采集当前活动账户的快照、持仓和历史成交
// 快照获取失败对该账户是致命错误；持仓或历史失败只降级为空值，
// 不影响账户整体采集结果
func (c *AccountDataCollector) Collect(ctx context.Context, account config.AccountConfig) *AccountCollectionResult {
	result := &AccountCollectionResult{
		Login:       account.Login,
		FundCode:    account.FundCode,
		Allocated:   account.Allocated,
		ClientID:    account.ClientID,
		Description: account.Description,
		CollectedAt: time.Now(),
		Positions:   []PositionInfo{},
	}

	// 1. 账户快照
	info, err := c.terminal.AccountInfo(ctx)
	if err != nil {
		c.logger.Error("获取账户快照失败",
			zap.Int64("login", account.Login),
			zap.Error(err))
		result.Error = fmt.Sprintf("获取账户快照失败: %v", err)
		return result
	}

	snapshot := &AccountSnapshot{
		Balance:     info.Balance,
		Equity:      info.Equity,
		Margin:      info.Margin,
		MarginFree:  info.MarginFree,
		MarginLevel: info.MarginLevel,
		Profit:      info.Profit,
		Currency:    info.Currency,
		Leverage:    info.Leverage,
	}
	// 收益率 = 浮动盈亏 / 分配资金 * 100，分配资金为0时不计算
	if account.Allocated > 0 {
		pct := decimal.NewFromFloat(info.Profit).
			Div(decimal.NewFromFloat(account.Allocated)).
			Mul(decimal.NewFromInt(100))
		snapshot.ReturnPct, _ = pct.Float64()
	}
	result.Account = snapshot

	// 2. 持仓列表，失败时降级为空
	positions, err := c.terminal.Positions(ctx)
	if err != nil {
		c.logger.Warn("获取持仓列表失败，降级为空",
			zap.Int64("login", account.Login),
			zap.Error(err))
		positions = nil
	}

	floating := decimal.Zero
	for _, p := range positions {
		result.Positions = append(result.Positions, PositionInfo{
			Ticket:       p.Ticket,
			Symbol:       p.Symbol,
			Direction:    classifyDirection(p.Type),
			Volume:       p.Volume,
			OpenPrice:    p.OpenPrice,
			CurrentPrice: p.CurrentPrice,
			Profit:       p.Profit,
			Swap:         p.Swap,
			Commission:   p.Commission,
			StopLoss:     p.StopLoss,
			TakeProfit:   p.TakeProfit,
			OpenTime:     p.OpenTime,
		})
		floating = floating.Add(decimal.NewFromFloat(p.Profit))
	}
	result.FloatingProfit, _ = floating.Float64()

	// 3. 回溯窗口内的历史成交，失败时降级为零值
	now := time.Now()
	deals, err := c.terminal.HistoryDeals(ctx, now.Add(-c.historyWindow), now)
	if err != nil {
		c.logger.Warn("获取历史成交失败，降级为零值",
			zap.Int64("login", account.Login),
			zap.Error(err))
		deals = nil
	}
	result.History = summarizeDeals(deals, c.historyWindow)

	result.Success = true
	return result
}

// classifyDirection 从终端类型码推导持仓方向
func classifyDirection(typeCode int) string {
	if typeCode == terminal.PositionTypeBuy {
		return DirectionBuy
	}
	return DirectionSell
}

// summarizeDeals 汇总历史成交
// 只统计盈亏不为零的记录，出入金等非交易流水一律过滤
func summarizeDeals(deals []*terminal.Deal, window time.Duration) HistorySummary {
	summary := HistorySummary{
		WindowDays: int(window.Hours() / 24),
	}

	net := decimal.Zero
	for _, deal := range deals {
		if deal.Profit == 0 {
			continue
		}
		summary.DealCount++
		net = net.Add(decimal.NewFromFloat(deal.Profit))
	}
	summary.NetProfit, _ = net.Float64()

	return summary
}
