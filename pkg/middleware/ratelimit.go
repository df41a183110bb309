package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/pushhub/pkg/metrics"
	"golang.org/x/time/rate"
)

// defaultIdleTTL はアクセスのないトークンバケットを破棄するまでの時間。
const defaultIdleTTL = 10 * time.Minute

// limiterEntry はキーごとのトークンバケットと最終アクセス時刻。
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter は呼び出し元ごとにトークンバケットを持つレート制限。
// 認証済みの場合はユーザーID、未認証の場合はクライアントIPをキーとする。
// idleTTL以上アクセスがなくトークンが満杯に戻ったバケットは破棄されるため、
// 保持するキーの数は直近idleTTLの間に現れた呼び出し元の数に収まる。
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	r         rate.Limit
	burst     int
	idleTTL   time.Duration
	lastPrune time.Time
	now       func() time.Time
}

// NewRateLimiter は毎秒rリクエスト、バーストburstのレート制限を生成する。
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        r,
		burst:    burst,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
	}
}

// allow はキーに対応するトークンバケットから1トークン消費できるかを返す。
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) >= rl.idleTTL {
		rl.prune(now)
		rl.lastPrune = now
	}

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// prune は破棄しても制限の結果が変わらないバケットを削除する。
// 呼び出し元でmuを保持していること。
func (rl *RateLimiter) prune(now time.Time) {
	for key, e := range rl.limiters {
		if now.Sub(e.lastSeen) < rl.idleTTL {
			continue
		}
		// 満杯でないバケットを捨てると制限がリセットされてしまう
		if e.limiter.TokensAt(now) < float64(rl.burst) {
			continue
		}
		delete(rl.limiters, key)
	}
}

// size は保持しているトークンバケットの数を返す。
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware はレート制限を適用するGinミドルウェアを返す。
// JWTAuthの後に適用すること。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetUserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		if !rl.allow(key) {
			metrics.RateLimitRejectionsTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "リクエストが多すぎます。しばらくしてから再試行してください",
			})
			return
		}
		c.Next()
	}
}
