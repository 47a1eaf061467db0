package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fundwatch/internal/collector"
)

// Redis 键前缀常量
const (
	// 账户快照相关
	keyAccountSnapshotPrefix = "account:snapshot:"
	keyAccountSnapshotIDs    = "account:snapshot:ids"

	// 批次结果相关
	keyBatchLatest  = "portfolio:batch:latest"
	keyBatchHistory = "portfolio:batch:history"

	// 过期时间（秒）
	expiryAccountSnapshot = 86400 * 30 // 30天
	expiryBatchResult     = 86400 * 7  // 7天
)

// RedisStorage Redis存储实现
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisStorage 创建Redis存储
func NewRedisStorage(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisStorage {
	return &RedisStorage{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.With(zap.String("component", "redis_storage")),
	}
}

// Initialize 初始化Redis存储
func (s *RedisStorage) Initialize(ctx context.Context) error {
	// 测试连接
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Error("Redis连接失败", zap.Error(err))
		return fmt.Errorf("redis连接失败: %w", err)
	}

	s.logger.Info("Redis存储初始化成功")
	return nil
}

// Close 关闭Redis连接
func (s *RedisStorage) Close(ctx context.Context) error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("关闭Redis连接失败", zap.Error(err))
		return fmt.Errorf("关闭Redis连接失败: %w", err)
	}

	s.logger.Info("Redis连接已关闭")
	return nil
}

// Health 检查Redis健康状态
func (s *RedisStorage) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// UpsertAccountSnapshot 按 (login, client_id) 覆盖写入账户文档
func (s *RedisStorage) UpsertAccountSnapshot(ctx context.Context, result *collector.AccountCollectionResult) error {
	doc := buildAccountDocument(result)

	// 将账户文档序列化为JSON
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化账户文档失败: %w", err)
	}

	key := s.accountKey(doc.Login, doc.ClientID)
	member := fmt.Sprintf("%d:%s", doc.Login, doc.ClientID)

	// 使用Pipeline批量执行
	pipe := s.client.Pipeline()

	// 覆盖写入账户文档
	pipe.Set(ctx, key, jsonData, time.Duration(expiryAccountSnapshot)*time.Second)

	// 将账户键添加到全局集合中
	pipe.SAdd(ctx, s.keyPrefix+keyAccountSnapshotIDs, member)
	pipe.Expire(ctx, s.keyPrefix+keyAccountSnapshotIDs, time.Duration(expiryAccountSnapshot)*time.Second)

	// 执行Pipeline
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入账户文档失败: %w", err)
	}

	return nil
}

// GetAccountSnapshot 读取指定账户的最新文档
func (s *RedisStorage) GetAccountSnapshot(ctx context.Context, login int64, clientID string) (*AccountDocument, error) {
	key := s.accountKey(login, clientID)

	jsonData, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("账户文档不存在: %d:%s", login, clientID)
		}
		return nil, fmt.Errorf("读取账户文档失败: %w", err)
	}

	var doc AccountDocument
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return nil, fmt.Errorf("解析账户文档失败: %w", err)
	}

	return &doc, nil
}

// ListAccountSnapshots 读取全部账户的最新文档
func (s *RedisStorage) ListAccountSnapshots(ctx context.Context) ([]*AccountDocument, error) {
	members, err := s.client.SMembers(ctx, s.keyPrefix+keyAccountSnapshotIDs).Result()
	if err != nil {
		return nil, fmt.Errorf("读取账户键集合失败: %w", err)
	}

	docs := make([]*AccountDocument, 0, len(members))
	for _, member := range members {
		jsonData, err := s.client.Get(ctx, s.keyPrefix+keyAccountSnapshotPrefix+member).Result()
		if err != nil {
			if err != redis.Nil {
				s.logger.Warn("读取账户文档失败", zap.Error(err), zap.String("member", member))
			}
			continue
		}

		var doc AccountDocument
		if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
			s.logger.Warn("解析账户文档失败", zap.Error(err), zap.String("member", member))
			continue
		}

		docs = append(docs, &doc)
	}

	return docs, nil
}

// StoreBatchResult 存储批次结果
// 最新结果整体覆盖，同时按结束时间写入历史有序集合
func (s *RedisStorage) StoreBatchResult(ctx context.Context, batch *collector.BatchCollectionResult) error {
	jsonData, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("序列化批次结果失败: %w", err)
	}

	// 使用Pipeline批量执行
	pipe := s.client.Pipeline()

	// 最新批次结果
	pipe.Set(ctx, s.keyPrefix+keyBatchLatest, jsonData, time.Duration(expiryBatchResult)*time.Second)

	// 历史批次（使用有序集合，按结束时间排序）
	pipe.ZAdd(ctx, s.keyPrefix+keyBatchHistory, redis.Z{
		Score:  float64(batch.FinishedAt.Unix()),
		Member: jsonData,
	})
	pipe.Expire(ctx, s.keyPrefix+keyBatchHistory, time.Duration(expiryBatchResult)*time.Second)

	// 执行Pipeline
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("存储批次结果失败: %w", err)
	}

	return nil
}

// GetLatestBatchResult 读取最新批次结果
func (s *RedisStorage) GetLatestBatchResult(ctx context.Context) (*collector.BatchCollectionResult, error) {
	jsonData, err := s.client.Get(ctx, s.keyPrefix+keyBatchLatest).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("暂无批次结果")
		}
		return nil, fmt.Errorf("读取批次结果失败: %w", err)
	}

	var batch collector.BatchCollectionResult
	if err := json.Unmarshal([]byte(jsonData), &batch); err != nil {
		return nil, fmt.Errorf("解析批次结果失败: %w", err)
	}

	return &batch, nil
}

// accountKey 账户文档键
func (s *RedisStorage) accountKey(login int64, clientID string) string {
	return fmt.Sprintf("%s%s%d:%s", s.keyPrefix, keyAccountSnapshotPrefix, login, clientID)
}

// buildAccountDocument 从采集结果构造持久化文档
func buildAccountDocument(result *collector.AccountCollectionResult) *AccountDocument {
	doc := &AccountDocument{
		Login:     result.Login,
		ClientID:  result.ClientID,
		FundCode:  result.FundCode,
		Status:    StatusActive,
		Positions: result.Positions,
		History:   result.History,
		UpdatedAt: result.CollectedAt,
	}

	if result.Account != nil {
		doc.Equity = result.Account.Equity
		doc.Balance = result.Account.Balance
		doc.Profit = result.Account.Profit
		doc.ReturnPct = result.Account.ReturnPct
		doc.Margin = result.Account.Margin
		doc.MarginFree = result.Account.MarginFree
		doc.MarginLevel = result.Account.MarginLevel
		doc.AccountInfo = result.Account
	}

	return doc
}
