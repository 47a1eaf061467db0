package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"fundwatch/internal/terminal"
)

// MockTerminal 交易终端接口的模拟实现
type MockTerminal struct {
	mock.Mock
}

// Initialize 初始化终端的模拟实现
func (m *MockTerminal) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Login 切换会话账号的模拟实现
func (m *MockTerminal) Login(ctx context.Context, login int64, password, server string) error {
	args := m.Called(ctx, login, password, server)
	return args.Error(0)
}

// AccountInfo 获取账户快照的模拟实现
func (m *MockTerminal) AccountInfo(ctx context.Context) (*terminal.AccountInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*terminal.AccountInfo), args.Error(1)
}

// Positions 获取持仓列表的模拟实现
func (m *MockTerminal) Positions(ctx context.Context) ([]*terminal.Position, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*terminal.Position), args.Error(1)
}

// HistoryDeals 获取历史成交的模拟实现
func (m *MockTerminal) HistoryDeals(ctx context.Context, from, to time.Time) ([]*terminal.Deal, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*terminal.Deal), args.Error(1)
}

// Shutdown 关闭终端的模拟实现
func (m *MockTerminal) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
