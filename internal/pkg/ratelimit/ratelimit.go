package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

// idleExpiry is how long an unused client limiter is kept before it is dropped.
const idleExpiry = 10 * time.Minute

var timeNow = time.Now

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter applies a token bucket per client IP.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

// New returns a limiter granting rps tokens per second with the given burst.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		clients:   make(map[string]*clientLimiter),
		lastSweep: timeNow(),
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	now := timeNow()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > idleExpiry {
		for k, cl := range l.clients {
			if now.Sub(cl.lastAccess) > idleExpiry {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = cl
	}
	cl.lastAccess = now

	return cl.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			response.Abort(c, apperror.New(http.StatusTooManyRequests, "too many requests, try again later"))
			return
		}
		c.Next()
	}
}
