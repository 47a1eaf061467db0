package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fundwatch/internal/config"
)

// SessionState 终端会话状态
// 进程内唯一，仅由 SessionManager 修改
type SessionState struct {
	Initialized  bool      // 终端是否已初始化
	CurrentLogin int64     // 当前已认证账号，0 表示未登录
	LastLoginAt  time.Time // 上次登录尝试时间
}

// SessionManager 终端会话管理器
// 独占管理与终端的唯一会话：初始化一次、按需切换账号、
// 记录当前账号以跳过重复登录
type SessionManager struct {
	mu       sync.Mutex
	terminal Terminal
	limiter  *RateLimiter
	logger   *zap.Logger
	state    SessionState
}

// NewSessionManager 创建终端会话管理器
func NewSessionManager(terminal Terminal, limiter *RateLimiter, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		terminal: terminal,
		limiter:  limiter,
		logger:   logger.With(zap.String("component", "session_manager")),
	}
}

// Initialize 建立终端连接，幂等
// 已初始化时直接返回；失败后可在下一周期重试
func (s *SessionManager) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Initialized {
		return nil
	}

	if err := s.terminal.Initialize(ctx); err != nil {
		s.logger.Error("终端初始化失败", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}

	s.state.Initialized = true
	s.logger.Info("终端初始化成功")
	return nil
}

// SwitchTo 确保终端当前认证账号为 account.Login
// 若已是该账号则直接返回（跳过重复登录）；否则限速后执行登录，
// 失败时清空当前账号，强制下一周期重新登录
func (s *SessionManager) SwitchTo(ctx context.Context, account config.AccountConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Initialized {
		return ErrNotInitialized
	}

	// 跳过重复登录优化
	if s.state.CurrentLogin == account.Login {
		s.logger.Debug("会话已在目标账号，跳过登录",
			zap.Int64("login", account.Login))
		return nil
	}

	// 两次登录之间保持最小间隔
	s.limiter.Wait(ctx)

	s.state.LastLoginAt = time.Now()
	if err := s.terminal.Login(ctx, account.Login, account.Password, account.Server); err != nil {
		// 登录失败后会话归属不确定，清空当前账号
		s.state.CurrentLogin = 0

		if errors.Is(err, ErrLoginRejected) {
			s.logger.Warn("账户登录被拒绝",
				zap.Int64("login", account.Login),
				zap.String("server", account.Server),
				zap.Error(err))
			return err
		}

		s.logger.Error("账户登录通信失败",
			zap.Int64("login", account.Login),
			zap.String("server", account.Server),
			zap.Error(err))
		if errors.Is(err, ErrTransport) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	s.state.CurrentLogin = account.Login
	s.logger.Info("会话切换成功",
		zap.Int64("login", account.Login),
		zap.String("fund_code", account.FundCode))
	return nil
}

// State 当前会话状态快照
func (s *SessionManager) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Shutdown 关闭终端连接并重置会话状态
func (s *SessionManager) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Initialized {
		return nil
	}

	err := s.terminal.Shutdown(ctx)
	s.state = SessionState{}
	if err != nil {
		return fmt.Errorf("关闭终端失败: %w", err)
	}

	s.logger.Info("终端连接已关闭")
	return nil
}
