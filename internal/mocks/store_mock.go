package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fundwatch/internal/collector"
)

// MockSnapshotStore 采集结果持久化接口的模拟实现
type MockSnapshotStore struct {
	mock.Mock
}

// UpsertAccountSnapshot 账户快照写入的模拟实现
func (m *MockSnapshotStore) UpsertAccountSnapshot(ctx context.Context, result *collector.AccountCollectionResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// StoreBatchResult 批次结果写入的模拟实现
func (m *MockSnapshotStore) StoreBatchResult(ctx context.Context, batch *collector.BatchCollectionResult) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}
