package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/hrygo/tripprefs/server/auth"
	apperrors "github.com/hrygo/tripprefs/server/internal/errors"
)

// limiterIdleTTL is how long a key may stay unused before its limiter is evicted.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides rate limiting functionality.
type RateLimiter struct {
	mu        sync.Mutex
	limits    map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time

	// extractIP resolves the client address of anonymous callers. It ignores
	// forwarding headers unless configured otherwise.
	extractIP echo.IPExtractor
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second per key.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limits:    make(map[string]*limiterEntry),
		rps:       limit,
		burst:     burst,
		idleTTL:   limiterIdleTTL,
		now:       time.Now,
		extractIP: echo.ExtractIPDirect(),
	}
}

// WithIPExtractor replaces how anonymous callers are identified, e.g. with
// echo.ExtractIPFromXFFHeader when running behind a trusted proxy.
func (rl *RateLimiter) WithIPExtractor(extractor echo.IPExtractor) *RateLimiter {
	if extractor != nil {
		rl.extractIP = extractor
	}
	return rl
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if entry, ok := rl.limits[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	rl.sweepLocked(now)
	entry := &limiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst), lastSeen: now}
	rl.limits[key] = entry
	return entry.limiter
}

// sweepLocked drops limiters idle for longer than idleTTL. It runs at most
// once per idleTTL. rl.mu must be held.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	rl.lastSweep = now
	for key, entry := range rl.limits {
		if now.Sub(entry.lastSeen) >= rl.idleTTL {
			delete(rl.limits, key)
		}
	}
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Middleware rejects requests over the limit with 429. Authenticated callers
// are limited per user, anonymous ones per client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(rl.limiterKey(c)) {
				err := apperrors.RateLimitExceeded("too many requests")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"code":    string(err.Code),
					"message": err.Message,
				})
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) limiterKey(c echo.Context) string {
	if userID := auth.GetUserID(c.Request().Context()); userID != 0 {
		return "user:" + strconv.Itoa(int(userID))
	}
	return "ip:" + rl.extractIP(c.Request())
}
