package collector

import (
	"sync"
	"time"
)

// 默认批次结果缓存有效期
const DefaultCacheTTL = 5 * time.Minute

// cacheEntry 缓存条目，创建后只读，整体替换
type cacheEntry struct {
	result    *BatchCollectionResult
	createdAt time.Time
}

// ResultCache 批次结果缓存
// 单槽位缓存：缓存的目的是避免重新进入独占会话的采集周期，
// 因此只缓存完整批次，不按账户缓存
type ResultCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	entry *cacheEntry
}

// NewResultCache 创建批次结果缓存
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{ttl: ttl}
}

// Get 返回未过期的缓存结果，未命中或已过期返回nil
func (c *ResultCache) Get() *BatchCollectionResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return nil
	}
	if time.Since(c.entry.createdAt) >= c.ttl {
		return nil
	}
	return c.entry.result
}

// Put 无条件替换缓存条目
func (c *ResultCache) Put(result *BatchCollectionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = &cacheEntry{
		result:    result,
		createdAt: time.Now(),
	}
}

// Clear 清空缓存
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
