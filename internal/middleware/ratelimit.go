package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitResult is the outcome of one fixed-window check.
type RateLimitResult struct {
	Allowed           bool
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

type rlEntry struct {
	count   int
	resetAt time.Time
}

// RateLimitStore is a bounded fixed-window counter store keyed by caller
// identity. It is constructed explicitly and injected into the router; there
// is no package-level singleton. State is in-memory only: counters do not
// survive a process restart.
type RateLimitStore struct {
	mu         sync.Mutex
	entries    map[string]*rlEntry
	maxEntries int
	stop       chan struct{}
}

// NewRateLimitStore builds a store capped at maxEntries keys and starts a
// periodic sweep of expired windows.
func NewRateLimitStore(maxEntries int) *RateLimitStore {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	s := &RateLimitStore{
		entries:    make(map[string]*rlEntry),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Check counts one request against key's current window. The
// increment-and-compare runs under the store lock, so two concurrent requests
// can never both observe count == max-1 and both pass.
func (s *RateLimitStore) Check(key string, window time.Duration, max int) RateLimitResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		if !ok && len(s.entries) >= s.maxEntries {
			s.evictLocked(now)
		}
		e = &rlEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
	} else {
		e.count++
	}
	res := RateLimitResult{
		Allowed: e.count <= max,
		ResetAt: e.resetAt,
	}
	if remaining := max - e.count; remaining > 0 {
		res.Remaining = remaining
	}
	if !res.Allowed {
		retry := int(time.Until(e.resetAt).Seconds()) + 1
		if retry < 1 {
			retry = 1
		}
		res.RetryAfterSeconds = retry
	}
	return res
}

// Len reports the number of tracked keys.
func (s *RateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop terminates the background sweep.
func (s *RateLimitStore) Stop() {
	close(s.stop)
}

// evictLocked drops expired entries; if none expired, it drops the entry
// whose window ends soonest so the store never exceeds its bound.
func (s *RateLimitStore) evictLocked(now time.Time) {
	for k, e := range s.entries {
		if now.After(e.resetAt) {
			delete(s.entries, k)
		}
	}
	if len(s.entries) < s.maxEntries {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range s.entries {
		if oldestKey == "" || e.resetAt.Before(oldest) {
			oldestKey = k
			oldest = e.resetAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *RateLimitStore) sweep() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			s.mu.Lock()
			now := time.Now()
			for k, e := range s.entries {
				if now.After(e.resetAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RateLimitConfig defines one endpoint class: window, limit and the message
// returned on rejection.
type RateLimitConfig struct {
	Name    string
	Window  time.Duration
	Max     int
	Message string
}

// Per-endpoint-class limits.
var (
	LimitAuth    = RateLimitConfig{Name: "auth", Window: time.Minute, Max: 10, Message: "too many authentication attempts, slow down"}
	LimitPublic  = RateLimitConfig{Name: "public", Window: time.Minute, Max: 120, Message: "too many requests"}
	LimitAPI     = RateLimitConfig{Name: "api", Window: time.Minute, Max: 60, Message: "too many requests, try again shortly"}
	LimitAdmin   = RateLimitConfig{Name: "admin", Window: time.Minute, Max: 30, Message: "too many administrative requests"}
	LimitUpload  = RateLimitConfig{Name: "upload", Window: 10 * time.Minute, Max: 20, Message: "too many uploads, try again later"}
	LimitPayment = RateLimitConfig{Name: "payment", Window: time.Minute, Max: 5, Message: "too many payment attempts, try again in a minute"}
	LimitWebhook = RateLimitConfig{Name: "webhook", Window: time.Minute, Max: 60, Message: "too many webhook deliveries"}
)

// RateLimit limits by caller identity within one endpoint class. Rejections
// carry machine-readable retry timing.
func RateLimit(store *RateLimitStore, cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := store.Check(rateLimitKey(c, cfg.Name), cfg.Window, cfg.Max)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               cfg.Message,
				"retry_after_seconds": res.RetryAfterSeconds,
			})
			return
		}
		c.Next()
	}
}

// rateLimitKey composes the caller identity: a hash of the bearer credential
// when one is presented, else the client IP, scoped by endpoint class. The
// raw credential never becomes a map key.
func rateLimitKey(c *gin.Context, class string) string {
	if h := c.GetHeader("Authorization"); h != "" {
		sum := sha256.Sum256([]byte(h))
		return class + ":tok:" + hex.EncodeToString(sum[:8])
	}
	return class + ":ip:" + c.ClientIP()
}
