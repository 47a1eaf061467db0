package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fundwatch/internal/config"
	"fundwatch/internal/terminal"
)

// SnapshotStore 采集结果的持久化接口
// 持久化失败不影响采集周期，只记录日志
type SnapshotStore interface {
	UpsertAccountSnapshot(ctx context.Context, result *AccountCollectionResult) error
	StoreBatchResult(ctx context.Context, batch *BatchCollectionResult) error
}

// Orchestrator 循环采集编排器
// 按配置顺序串行遍历账户：终端只允许一个认证会话，账户循环必须
// 串行执行，这是整个组件存在的原因，不允许并行分发
type Orchestrator struct {
	session   *terminal.SessionManager
	collector *AccountDataCollector
	cache     *ResultCache
	store     SnapshotStore // 可为nil，表示不持久化
	logger    *zap.Logger
	accounts  []config.AccountConfig
	group     singleflight.Group
}

// NewOrchestrator 创建循环采集编排器
func NewOrchestrator(
	session *terminal.SessionManager,
	collector *AccountDataCollector,
	cache *ResultCache,
	store SnapshotStore,
	accounts []config.AccountConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		session:   session,
		collector: collector,
		cache:     cache,
		store:     store,
		accounts:  accounts,
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
}

// CollectAll 执行一个完整的采集周期
// forceRefresh=false 时优先返回未过期的缓存结果；并发调用合并到
// 同一个进行中的周期，两个调用方绝不会交错触发登录。
// 所有失败都以数据形式写入结果，只有上下文取消会返回错误
func (o *Orchestrator) CollectAll(ctx context.Context, forceRefresh bool) (*BatchCollectionResult, error) {
	if !forceRefresh {
		if cached := o.cache.Get(); cached != nil {
			o.logger.Debug("缓存命中，返回上一批次结果",
				zap.Time("finished_at", cached.FinishedAt))
			annotated := *cached
			annotated.DataSource = DataSourceCache
			return &annotated, nil
		}
	}

	// 单飞保证：重叠的调用共享同一个进行中的周期
	v, err, shared := o.group.Do("collect_cycle", func() (interface{}, error) {
		return o.runCycle(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		o.logger.Debug("并发调用合并到进行中的采集周期")
	}
	return v.(*BatchCollectionResult), nil
}

// runCycle 执行一次批次采集
func (o *Orchestrator) runCycle(ctx context.Context) (*BatchCollectionResult, error) {
	startedAt := time.Now()
	o.logger.Info("开始采集周期", zap.Int("accounts", len(o.accounts)))

	// 终端初始化失败对整个周期是致命错误：全部账户记为失败，
	// 不做任何登录尝试
	if err := o.session.Initialize(ctx); err != nil {
		o.logger.Error("终端初始化失败，放弃本周期", zap.Error(err))
		return o.buildInitFailedBatch(startedAt, err), nil
	}

	results := make([]*AccountCollectionResult, 0, len(o.accounts))
	cancelled := false

	for _, account := range o.accounts {
		// 账户之间检查取消：切换成功后不中断单个账户的采集，
		// 避免会话停在一个结果被丢弃的账号上
		if ctx.Err() != nil {
			cancelled = true
			results = append(results, failedResult(account, fmt.Sprintf("采集已取消: %v", ctx.Err())))
			continue
		}

		if err := o.session.SwitchTo(ctx, account); err != nil {
			o.logger.Warn("账户登录失败，跳过该账户",
				zap.Int64("login", account.Login),
				zap.Error(err))
			results = append(results, failedResult(account, fmt.Sprintf("登录失败: %v", err)))
			continue
		}

		result := o.collector.Collect(ctx, account)
		results = append(results, result)

		// 持久化为旁路写入：失败只记日志，绝不影响采集结果
		if o.store != nil && result.Success {
			if err := o.store.UpsertAccountSnapshot(ctx, result); err != nil {
				o.logger.Warn("账户快照持久化失败",
					zap.Int64("login", account.Login),
					zap.Error(err))
			}
		}
	}

	batch := o.assembleBatch(results, startedAt)

	if cancelled {
		// 被取消的部分周期不进入缓存，避免被当作权威数据
		o.logger.Warn("采集周期被取消，结果不缓存",
			zap.Int("collected", batch.AccountsCollected),
			zap.Int("failed", batch.AccountsFailed))
		return batch, nil
	}

	o.cache.Put(batch)

	if o.store != nil {
		if err := o.store.StoreBatchResult(ctx, batch); err != nil {
			o.logger.Warn("批次结果持久化失败", zap.Error(err))
		}
	}

	o.logger.Info("采集周期完成",
		zap.Int("collected", batch.AccountsCollected),
		zap.Int("failed", batch.AccountsFailed),
		zap.Duration("elapsed", batch.FinishedAt.Sub(batch.StartedAt)),
		zap.Float64("total_equity", batch.Portfolio.TotalEquity))

	return batch, nil
}

// assembleBatch 组装批次结果并汇总投资组合
func (o *Orchestrator) assembleBatch(results []*AccountCollectionResult, startedAt time.Time) *BatchCollectionResult {
	collected, failed := 0, 0
	for _, r := range results {
		if r.Success {
			collected++
		} else {
			failed++
		}
	}

	return &BatchCollectionResult{
		Success:           failed == 0,
		AccountsCollected: collected,
		AccountsFailed:    failed,
		Results:           results,
		Portfolio:         Aggregate(results, o.accounts),
		StartedAt:         startedAt,
		FinishedAt:        time.Now(),
		DataSource:        DataSourceFresh,
	}
}

// buildInitFailedBatch 终端初始化失败时的整体失败批次
func (o *Orchestrator) buildInitFailedBatch(startedAt time.Time, initErr error) *BatchCollectionResult {
	results := make([]*AccountCollectionResult, 0, len(o.accounts))
	for _, account := range o.accounts {
		results = append(results, failedResult(account, fmt.Sprintf("终端初始化失败: %v", initErr)))
	}

	return &BatchCollectionResult{
		Success:           false,
		AccountsCollected: 0,
		AccountsFailed:    len(results),
		Results:           results,
		Portfolio:         Aggregate(results, o.accounts),
		StartedAt:         startedAt,
		FinishedAt:        time.Now(),
		DataSource:        DataSourceFresh,
	}
}

// failedResult 构造失败的账户结果
func failedResult(account config.AccountConfig, reason string) *AccountCollectionResult {
	return &AccountCollectionResult{
		Success:     false,
		Login:       account.Login,
		FundCode:    account.FundCode,
		Allocated:   account.Allocated,
		ClientID:    account.ClientID,
		Description: account.Description,
		CollectedAt: time.Now(),
		Error:       reason,
		Positions:   []PositionInfo{},
	}
}
