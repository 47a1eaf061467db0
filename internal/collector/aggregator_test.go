package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundwatch/internal/config"
)

func successResult(login int64, fundCode string, allocated, equity, balance, profit float64, positions int) *AccountCollectionResult {
	result := &AccountCollectionResult{
		Success:   true,
		Login:     login,
		FundCode:  fundCode,
		Allocated: allocated,
		Account: &AccountSnapshot{
			Equity:  equity,
			Balance: balance,
			Profit:  profit,
		},
	}
	for i := 0; i < positions; i++ {
		result.Positions = append(result.Positions, PositionInfo{Symbol: "XAUUSD"})
	}
	return result
}

func TestAggregate_FundTotalsEqualSumOfSuccessful(t *testing.T) {
	accounts := []config.AccountConfig{
		{Login: 1, FundCode: "FUND_A", Allocated: 10000},
		{Login: 2, FundCode: "FUND_A", Allocated: 20000},
		{Login: 3, FundCode: "FUND_B", Allocated: 5000},
	}
	results := []*AccountCollectionResult{
		successResult(1, "FUND_A", 10000, 10500, 10200, 500, 2),
		successResult(2, "FUND_A", 20000, 19800, 20000, -200, 1),
		successResult(3, "FUND_B", 5000, 5100, 5000, 100, 0),
	}

	summary := Aggregate(results, accounts)

	// 每个基金的净值必须等于该基金下成功账户净值之和
	require.Contains(t, summary.ByFund, "FUND_A")
	require.Contains(t, summary.ByFund, "FUND_B")
	assert.InDelta(t, 30300.0, summary.ByFund["FUND_A"].Equity, 0.001)
	assert.InDelta(t, 5100.0, summary.ByFund["FUND_B"].Equity, 0.001)
	assert.InDelta(t, 300.0, summary.ByFund["FUND_A"].Profit, 0.001)
	assert.Equal(t, 3, summary.ByFund["FUND_A"].PositionCount)
	assert.Equal(t, 2, summary.ByFund["FUND_A"].AccountCount)

	// 总计必须等于各基金之和
	assert.InDelta(t, summary.ByFund["FUND_A"].Equity+summary.ByFund["FUND_B"].Equity, summary.TotalEquity, 0.001)
	assert.InDelta(t, 35000.0, summary.TotalAllocated, 0.001)
	assert.InDelta(t, 400.0, summary.TotalProfit, 0.001)
	assert.Equal(t, 3, summary.TotalPositions)
}

func TestAggregate_FailedAccountCountsInDenominator(t *testing.T) {
	accounts := []config.AccountConfig{
		{Login: 1, FundCode: "FUND_A", Allocated: 10000},
		{Login: 2, FundCode: "FUND_A", Allocated: 10000},
	}
	results := []*AccountCollectionResult{
		successResult(1, "FUND_A", 10000, 11000, 10000, 1000, 0),
		{Success: false, Login: 2, FundCode: "FUND_A", Allocated: 10000, Error: "登录失败"},
	}

	summary := Aggregate(results, accounts)

	// 失败账户的分配资金仍计入分母，压低整体收益率
	// 1000 / 20000 * 100 = 5%
	assert.InDelta(t, 5.0, summary.OverallReturnPct, 0.001)

	// 失败账户的净值和盈亏不计入总计
	assert.InDelta(t, 11000.0, summary.TotalEquity, 0.001)
	assert.InDelta(t, 1000.0, summary.TotalProfit, 0.001)

	// 失败账户仍计入基金的分配资金与账户数
	assert.InDelta(t, 20000.0, summary.ByFund["FUND_A"].Allocated, 0.001)
	assert.Equal(t, 2, summary.ByFund["FUND_A"].AccountCount)
}

func TestAggregate_ZeroAllocatedNoReturnPct(t *testing.T) {
	accounts := []config.AccountConfig{
		{Login: 1, FundCode: "FUND_A", Allocated: 0},
	}
	results := []*AccountCollectionResult{
		successResult(1, "FUND_A", 0, 1000, 1000, 100, 0),
	}

	summary := Aggregate(results, accounts)

	// 分配资金为0时不计算收益率，避免除零
	assert.Equal(t, 0.0, summary.OverallReturnPct)
}

func TestAggregate_AllFailed(t *testing.T) {
	accounts := []config.AccountConfig{
		{Login: 1, FundCode: "FUND_A", Allocated: 10000},
		{Login: 2, FundCode: "FUND_B", Allocated: 20000},
	}
	results := []*AccountCollectionResult{
		{Success: false, Login: 1, FundCode: "FUND_A", Allocated: 10000, Error: "终端初始化失败"},
		{Success: false, Login: 2, FundCode: "FUND_B", Allocated: 20000, Error: "终端初始化失败"},
	}

	summary := Aggregate(results, accounts)

	assert.InDelta(t, 30000.0, summary.TotalAllocated, 0.001)
	assert.Equal(t, 0.0, summary.TotalEquity)
	assert.Equal(t, 0.0, summary.TotalProfit)
	assert.Equal(t, 0.0, summary.OverallReturnPct)
	assert.Equal(t, 0, summary.TotalPositions)
}

func TestAggregate_EmptyInput(t *testing.T) {
	summary := Aggregate(nil, nil)

	assert.Equal(t, 0.0, summary.TotalAllocated)
	assert.Empty(t, summary.ByFund)
}
