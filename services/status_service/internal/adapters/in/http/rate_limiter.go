package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenBucket 令牌桶，令牌数用浮点保存，高频调用时不会丢掉不足一个的补充量
type TokenBucket struct {
	capacity   float64   // 桶容量
	tokens     float64   // 当前令牌数
	rate       float64   // 每秒产生令牌数
	lastRefill time.Time // 上次填充时间
	mu         sync.Mutex
}

// NewTokenBucket 创建令牌桶，初始为满
func NewTokenBucket(capacity, rate int64, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		rate:       float64(rate),
		lastRefill: now,
	}
}

// Allow 尝试在 now 时刻取一个令牌
func (tb *TokenBucket) Allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.lastRefill).Seconds(); elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return now.Sub(tb.lastRefill)
}

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	GlobalQPS  int64 // 全局 QPS
	IPQPSLimit int64 // 单 IP QPS
	BurstSize  int64 // 突发大小
}

// RateLimiter 两级限流器：全局 + 单 IP
type RateLimiter struct {
	config       RateLimiterConfig
	globalBucket *TokenBucket
	ipBuckets    sync.Map // IP -> *TokenBucket
	now          func() time.Time
	metrics      *Metrics
}

// NewRateLimiter 创建限流器
func NewRateLimiter(config RateLimiterConfig, metrics *Metrics) *RateLimiter {
	return newRateLimiter(config, metrics, time.Now)
}

func newRateLimiter(config RateLimiterConfig, metrics *Metrics, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		config:       config,
		globalBucket: NewTokenBucket(config.GlobalQPS+config.BurstSize, config.GlobalQPS, now()),
		now:          now,
		metrics:      metrics,
	}
}

// getIPBucket 获取或创建 IP 限流桶
func (rl *RateLimiter) getIPBucket(ip string) *TokenBucket {
	if bucket, ok := rl.ipBuckets.Load(ip); ok {
		return bucket.(*TokenBucket)
	}
	bucket := NewTokenBucket(rl.config.IPQPSLimit+rl.config.BurstSize, rl.config.IPQPSLimit, rl.now())
	actual, _ := rl.ipBuckets.LoadOrStore(ip, bucket)
	return actual.(*TokenBucket)
}

// Allow 检查是否允许请求，先查单 IP 再查全局，被单 IP 拦下的请求不消耗全局令牌
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.now()
	if !rl.getIPBucket(ip).Allow(now) {
		return false
	}
	return rl.globalBucket.Allow(now)
}

// Middleware Gin 中间件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			rl.metrics.reportRejected(reasonRateLimited)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// Cleanup 清理闲置超过 idle 的 IP 桶，返回清理数量
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	now := rl.now()
	removed := 0
	rl.ipBuckets.Range(func(key, value interface{}) bool {
		if value.(*TokenBucket).idleSince(now) > idle {
			rl.ipBuckets.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
