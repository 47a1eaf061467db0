package terminal

import (
	"context"
	"sync"
	"time"
)

// 默认登录切换最小间隔，过于密集的登录会触发服务器的IP保护
const DefaultMinLoginInterval = 2 * time.Second

// RateLimiter 登录切换限速器
// 保证两次会话切换之间至少间隔 minInterval
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastSwitch  time.Time
}

// NewRateLimiter 创建登录切换限速器
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultMinLoginInterval
	}
	return &RateLimiter{minInterval: minInterval}
}

// Wait 如果距离上次切换不足最小间隔，等待剩余时间后返回
// 通过定时器配合上下文等待，不会用休眠阻塞调度器；任何情况下不报错
func (r *RateLimiter) Wait(ctx context.Context) {
	r.mu.Lock()
	var wait time.Duration
	if !r.lastSwitch.IsZero() {
		if elapsed := time.Since(r.lastSwitch); elapsed < r.minInterval {
			wait = r.minInterval - elapsed
		}
	}
	r.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	// 记录本次切换时间
	r.mu.Lock()
	r.lastSwitch = time.Now()
	r.mu.Unlock()
}

// LastSwitch 上次切换时间
func (r *RateLimiter) LastSwitch() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSwitch
}
