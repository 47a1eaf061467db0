package collector

import (
	"github.com/shopspring/decimal"

	"fundwatch/internal/config"
)

// Aggregate 汇总投资组合
// 纯函数：分配资金分母取全部配置账户（失败账户同样计入分母，
// 压低整体收益率而不是掩盖失败）；净值/盈亏/持仓数只累加成功结果；
// 按基金分类的分解遵循相同规则
func Aggregate(results []*AccountCollectionResult, accounts []config.AccountConfig) *PortfolioSummary {
	summary := &PortfolioSummary{
		ByFund: make(map[string]*FundSummary),
	}

	// 分配资金与账户数按配置账户统计
	totalAllocated := decimal.Zero
	for _, account := range accounts {
		fund := fundEntry(summary, account.FundCode)
		fund.Allocated = decimalAdd(fund.Allocated, account.Allocated)
		fund.AccountCount++
		totalAllocated = totalAllocated.Add(decimal.NewFromFloat(account.Allocated))
	}

	// 净值/余额/盈亏/持仓数只累加采集成功的结果
	totalEquity := decimal.Zero
	totalBalance := decimal.Zero
	totalProfit := decimal.Zero
	totalPositions := 0
	for _, result := range results {
		if !result.Success || result.Account == nil {
			continue
		}

		fund := fundEntry(summary, result.FundCode)
		fund.Equity = decimalAdd(fund.Equity, result.Account.Equity)
		fund.Balance = decimalAdd(fund.Balance, result.Account.Balance)
		fund.Profit = decimalAdd(fund.Profit, result.Account.Profit)
		fund.PositionCount += len(result.Positions)

		totalEquity = totalEquity.Add(decimal.NewFromFloat(result.Account.Equity))
		totalBalance = totalBalance.Add(decimal.NewFromFloat(result.Account.Balance))
		totalProfit = totalProfit.Add(decimal.NewFromFloat(result.Account.Profit))
		totalPositions += len(result.Positions)
	}

	summary.TotalAllocated, _ = totalAllocated.Float64()
	summary.TotalEquity, _ = totalEquity.Float64()
	summary.TotalBalance, _ = totalBalance.Float64()
	summary.TotalProfit, _ = totalProfit.Float64()
	summary.TotalPositions = totalPositions

	// 整体收益率 = 成功账户盈亏合计 / 全部分配资金 * 100
	if totalAllocated.IsPositive() {
		pct := totalProfit.Div(totalAllocated).Mul(decimal.NewFromInt(100))
		summary.OverallReturnPct, _ = pct.Float64()
	}

	return summary
}

// fundEntry 获取或创建基金分类条目
func fundEntry(summary *PortfolioSummary, fundCode string) *FundSummary {
	fund, ok := summary.ByFund[fundCode]
	if !ok {
		fund = &FundSummary{FundCode: fundCode}
		summary.ByFund[fundCode] = fund
	}
	return fund
}

// decimalAdd 以decimal精度累加两个float64金额
func decimalAdd(a, b float64) float64 {
	sum, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Float64()
	return sum
}
