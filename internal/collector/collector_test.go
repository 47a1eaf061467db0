package collector_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fundwatch/internal/collector"
	"fundwatch/internal/config"
	"fundwatch/internal/mocks"
	"fundwatch/internal/terminal"
)

func collectorAccount() config.AccountConfig {
	return config.AccountConfig{
		Login:     20001,
		Password:  "secret",
		Server:    "Demo-Server",
		FundCode:  "FUND_A",
		Allocated: 10000,
		ClientID:  "client-1",
	}
}

func TestAccountDataCollector_FullCollection(t *testing.T) {
	ctx := context.Background()
	account := collectorAccount()

	mockTerminal := new(mocks.MockTerminal)
	mockTerminal.On("AccountInfo", mock.Anything).Return(&terminal.AccountInfo{
		Login:    account.Login,
		Balance:  10200,
		Equity:   10500,
		Margin:   300,
		Profit:   500,
		Currency: "USD",
		Leverage: 100,
	}, nil)
	mockTerminal.On("Positions", mock.Anything).Return([]*terminal.Position{
		{Ticket: 1, Symbol: "XAUUSD", Type: terminal.PositionTypeBuy, Volume: 0.1, Profit: 320.5},
		{Ticket: 2, Symbol: "EURUSD", Type: terminal.PositionTypeSell, Volume: 0.2, Profit: -20.5},
	}, nil)
	mockTerminal.On("HistoryDeals", mock.Anything, mock.Anything, mock.Anything).Return([]*terminal.Deal{
		{Ticket: 10, Symbol: "XAUUSD", Profit: 150},
		{Ticket: 11, Symbol: "EURUSD", Profit: -50},
		{Ticket: 12, Symbol: "", Profit: 0}, // 出入金流水，应被过滤
	}, nil)

	c := collector.NewAccountDataCollector(mockTerminal, 7*24*time.Hour, zaptest.NewLogger(t))
	result := c.Collect(ctx, account)

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, account.Login, result.Login)
	assert.Equal(t, account.FundCode, result.FundCode)

	// 账户快照与收益率
	require.NotNil(t, result.Account)
	assert.InDelta(t, 10500.0, result.Account.Equity, 0.001)
	// 500 / 10000 * 100 = 5%
	assert.InDelta(t, 5.0, result.Account.ReturnPct, 0.001)

	// 持仓方向分类与浮动盈亏合计
	require.Len(t, result.Positions, 2)
	assert.Equal(t, collector.DirectionBuy, result.Positions[0].Direction)
	assert.Equal(t, collector.DirectionSell, result.Positions[1].Direction)
	assert.InDelta(t, 300.0, result.FloatingProfit, 0.001)

	// 历史汇总只统计盈亏不为零的成交
	assert.Equal(t, 2, result.History.DealCount)
	assert.InDelta(t, 100.0, result.History.NetProfit, 0.001)
	assert.Equal(t, 7, result.History.WindowDays)
}

func TestAccountDataCollector_SnapshotFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	account := collectorAccount()

	mockTerminal := new(mocks.MockTerminal)
	mockTerminal.On("AccountInfo", mock.Anything).Return(nil, fmt.Errorf("终端无响应"))

	c := collector.NewAccountDataCollector(mockTerminal, 7*24*time.Hour, zaptest.NewLogger(t))
	result := c.Collect(ctx, account)

	// 快照失败对该账户是致命错误
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Nil(t, result.Account)

	// 快照失败后不再请求持仓和历史
	mockTerminal.AssertNotCalled(t, "Positions", mock.Anything)
	mockTerminal.AssertNotCalled(t, "HistoryDeals", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountDataCollector_PositionsFailureDegrades(t *testing.T) {
	ctx := context.Background()
	account := collectorAccount()

	mockTerminal := new(mocks.MockTerminal)
	mockTerminal.On("AccountInfo", mock.Anything).Return(&terminal.AccountInfo{Equity: 10000}, nil)
	mockTerminal.On("Positions", mock.Anything).Return(nil, fmt.Errorf("权限不足"))
	mockTerminal.On("HistoryDeals", mock.Anything, mock.Anything, mock.Anything).Return([]*terminal.Deal{
		{Ticket: 10, Profit: 80},
	}, nil)

	c := collector.NewAccountDataCollector(mockTerminal, 7*24*time.Hour, zaptest.NewLogger(t))
	result := c.Collect(ctx, account)

	// 持仓获取失败只降级为空，不影响账户整体结果
	assert.True(t, result.Success)
	assert.Empty(t, result.Positions)
	assert.Equal(t, 0.0, result.FloatingProfit)
	assert.Equal(t, 1, result.History.DealCount)
}

func TestAccountDataCollector_HistoryFailureDegrades(t *testing.T) {
	ctx := context.Background()
	account := collectorAccount()

	mockTerminal := new(mocks.MockTerminal)
	mockTerminal.On("AccountInfo", mock.Anything).Return(&terminal.AccountInfo{Equity: 10000}, nil)
	mockTerminal.On("Positions", mock.Anything).Return([]*terminal.Position{}, nil)
	mockTerminal.On("HistoryDeals", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("查询超时"))

	c := collector.NewAccountDataCollector(mockTerminal, 7*24*time.Hour, zaptest.NewLogger(t))
	result := c.Collect(ctx, account)

	// 历史获取失败只降级为零值
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.History.DealCount)
	assert.Equal(t, 0.0, result.History.NetProfit)
}

func TestAccountDataCollector_ZeroAllocatedGuard(t *testing.T) {
	ctx := context.Background()
	account := collectorAccount()
	account.Allocated = 0

	mockTerminal := new(mocks.MockTerminal)
	mockTerminal.On("AccountInfo", mock.Anything).Return(&terminal.AccountInfo{Profit: 500}, nil)
	mockTerminal.On("Positions", mock.Anything).Return([]*terminal.Position{}, nil)
	mockTerminal.On("HistoryDeals", mock.Anything, mock.Anything, mock.Anything).Return([]*terminal.Deal{}, nil)

	c := collector.NewAccountDataCollector(mockTerminal, 7*24*time.Hour, zaptest.NewLogger(t))
	result := c.Collect(ctx, account)

	// 分配资金为0时不计算收益率
	require.True(t, result.Success)
	assert.Equal(t, 0.0, result.Account.ReturnPct)
}

func TestAccountDataCollector_HistoryWindowRange(t *testing.T) {
	ctx := context.Background()
	account := collectorAccount()
	window := 7 * 24 * time.Hour

	mockTerminal := new(mocks.MockTerminal)
	mockTerminal.On("AccountInfo", mock.Anything).Return(&terminal.AccountInfo{}, nil)
	mockTerminal.On("Positions", mock.Anything).Return([]*terminal.Position{}, nil)
	mockTerminal.On("HistoryDeals", mock.Anything, mock.MatchedBy(func(from time.Time) bool {
		// 起点应约等于当前时间减去回溯窗口
		expected := time.Now().Add(-window)
		return from.Sub(expected).Abs() < time.Minute
	}), mock.MatchedBy(func(to time.Time) bool {
		return time.Since(to).Abs() < time.Minute
	})).Return([]*terminal.Deal{}, nil)

	c := collector.NewAccountDataCollector(mockTerminal, window, zaptest.NewLogger(t))
	result := c.Collect(ctx, account)

	assert.True(t, result.Success)
	mockTerminal.AssertExpectations(t)
}
