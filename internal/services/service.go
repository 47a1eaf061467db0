package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fundwatch/internal/collector"
	"fundwatch/internal/config"
	"fundwatch/internal/storage"
	"fundwatch/internal/terminal"
)

// FundwatchService 多账户采集服务
// 持有采集编排器并以固定间隔驱动采集周期
type FundwatchService struct {
	ctx          context.Context
	cancel       context.CancelFunc
	logger       *zap.Logger
	config       *config.Config
	store        storage.Storage
	orchestrator *collector.Orchestrator
	session      *terminal.SessionManager
	wg           sync.WaitGroup
	isRunning    bool
	mutex        sync.Mutex
}

// NewFundwatchService 创建多账户采集服务
func NewFundwatchService(
	parentCtx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (*FundwatchService, error) {
	// 创建服务上下文
	ctx, cancel := context.WithCancel(parentCtx)

	// 初始化Redis客户端
	redisClient, err := storage.NewRedisClient(cfg.Redis)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("初始化Redis客户端失败: %w", err)
	}
	store := storage.NewRedisStorage(redisClient, cfg.Redis.KeyPrefix, logger)
	if err := store.Initialize(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("初始化Redis存储失败: %w", err)
	}

	// 创建终端网桥客户端
	bridge, err := terminal.NewBridgeClient(cfg.Terminal, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("创建终端网桥客户端失败: %w", err)
	}

	// 会话管理器：全进程唯一的独占终端会话
	limiter := terminal.NewRateLimiter(cfg.Collector.MinLoginInterval())
	session := terminal.NewSessionManager(bridge, limiter, logger)

	// 账户数据采集器与编排器
	accountCollector := collector.NewAccountDataCollector(bridge, cfg.Collector.HistoryWindow(), logger)
	cache := collector.NewResultCache(cfg.Collector.CacheTTL())
	orchestrator := collector.NewOrchestrator(session, accountCollector, cache, store, cfg.Accounts, logger)

	return &FundwatchService{
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.With(zap.String("component", "service")),
		config:       cfg,
		store:        store,
		orchestrator: orchestrator,
		session:      session,
	}, nil
}

// Orchestrator 暴露编排器给外部调用方（如HTTP处理器）
func (s *FundwatchService) Orchestrator() *collector.Orchestrator {
	return s.orchestrator
}

// Store 暴露存储层给外部调用方
func (s *FundwatchService) Store() storage.Storage {
	return s.store
}

// Start 启动周期采集
func (s *FundwatchService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("采集服务已在运行")
	}

	s.logger.Info("启动采集服务",
		zap.Int("accounts", len(s.config.Accounts)),
		zap.Duration("interval", s.config.Collector.CollectInterval()))
	s.isRunning = true

	s.wg.Add(1)
	go s.runLoop()

	return nil
}

// runLoop 周期采集循环
func (s *FundwatchService) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Collector.CollectInterval())
	defer ticker.Stop()

	// 立即执行一次采集
	s.collectOnce()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("结束周期采集循环")
			return
		case <-ticker.C:
			s.collectOnce()
		}
	}
}

// collectOnce 执行一次采集周期
// 周期性触发不强制刷新，缓存命中时直接复用上一批次
func (s *FundwatchService) collectOnce() {
	batch, err := s.orchestrator.CollectAll(s.ctx, false)
	if err != nil {
		s.logger.Error("采集周期执行失败", zap.Error(err))
		return
	}

	if !batch.Success {
		s.logger.Warn("采集周期存在失败账户",
			zap.Int("collected", batch.AccountsCollected),
			zap.Int("failed", batch.AccountsFailed))
	}
}

// Stop 停止服务
func (s *FundwatchService) Stop(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return nil
	}

	s.logger.Info("停止采集服务")
	s.cancel()

	// 等待进行中的采集周期结束
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("采集服务已停止")
	case <-ctx.Done():
		s.logger.Warn("采集服务停止超时")
	}

	// 关闭终端连接
	if err := s.session.Shutdown(ctx); err != nil {
		s.logger.Error("关闭终端连接失败", zap.Error(err))
	}

	// 关闭Redis连接
	if err := s.store.Close(ctx); err != nil {
		s.logger.Error("关闭Redis存储失败", zap.Error(err))
	}

	s.isRunning = false
	return nil
}
