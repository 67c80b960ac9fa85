package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter 滑动窗口限流器，按 路由分组+IP 计数
// 清理协程随 ctx 结束退出
type RateLimiter struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time
	done chan struct{}
}

// NewRateLimiter 创建限流器，window 内每个 key 最多 limit 次
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		done:   make(chan struct{}),
	}
	go l.cleanup(ctx)
	return l
}

// Done 清理协程退出后关闭
func (l *RateLimiter) Done() <-chan struct{} {
	return l.done
}

func (l *RateLimiter) cleanup(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

// sweep 删除窗口外已无记录的 key
func (l *RateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, ts := range l.hits {
		if kept := l.prune(ts, now); len(kept) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = kept
		}
	}
}

func (l *RateLimiter) prune(ts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow 记录一次请求，超出限额返回 false
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.prune(l.hits[key], now)
	if len(ts) >= l.limit {
		l.hits[key] = ts
		return false
	}
	l.hits[key] = append(ts, now)
	return true
}

// Limit 返回限流中间件，不同 scope 互不占用额度
func (l *RateLimiter) Limit(scope, detail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(scope+"|"+c.ClientIP(), time.Now()) {
			abortProblem(c, http.StatusTooManyRequests, detail)
			return
		}
		c.Next()
	}
}
