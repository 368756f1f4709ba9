package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves the owner id for a request. Full authentication is
// out of scope for this system — it is specified only as a collaborator
// contract a real deployment plugs in.
type Authenticator interface {
	Authenticate(c *gin.Context) (ownerID string, err error)
}

// PassthroughAuthenticator is the default Authenticator: every request is
// attributed to a single fixed owner. Real deployments supply their own.
type PassthroughAuthenticator struct {
	OwnerID string
}

func (a PassthroughAuthenticator) Authenticate(c *gin.Context) (string, error) {
	if a.OwnerID == "" {
		return "default", nil
	}
	return a.OwnerID, nil
}

// RateLimiter implements sliding-window attempt bookkeeping: window and
// max-attempts are configurable, state lives only in memory and need not
// survive a restart.
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	attempts map[string][]time.Time
}

// NewRateLimiter returns a limiter with the given window and attempt budget.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{window: window, max: max, attempts: make(map[string][]time.Time)}
}

// Allow reports whether key (typically a remote IP or owner id) may proceed,
// recording this attempt if so.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	kept := r.attempts[key][:0]
	for _, t := range r.attempts[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= r.max {
		r.attempts[key] = kept
		return false
	}
	r.attempts[key] = append(kept, now)
	return true
}

// Middleware returns a Gin handler enforcing the rate limiter against the
// client's remote IP, ahead of Authenticate.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "zu viele Versuche, bitte später erneut versuchen"})
			return
		}
		c.Next()
	}
}

func authMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, err := auth.Authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "nicht angemeldet"})
			return
		}
		c.Set(ownerContextKey, ownerID)
		c.Next()
	}
}

const ownerContextKey = "accesspdf_owner_id"

func ownerFromContext(c *gin.Context) string {
	v, _ := c.Get(ownerContextKey)
	ownerID, _ := v.(string)
	return ownerID
}
