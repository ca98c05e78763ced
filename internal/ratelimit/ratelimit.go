// Package ratelimit throttles login attempts per username with a token
// bucket per key.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rosterapp/roster/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// idleTTL is how long an untouched bucket survives before eviction.
	idleTTL = 15 * time.Minute
	// sweepInterval is how often idle buckets are collected.
	sweepInterval = 5 * time.Minute
)

// entry pairs a limiter with its last use so idle buckets can be evicted.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginThrottle rate-limits authentication attempts per username.
//
// Keys are case-folded, so "Admin" and "admin" share one bucket; otherwise a
// caller could dodge the throttle by varying case. Buckets for usernames not
// seen in a while are evicted to keep the map bounded against probing with
// random names.
type LoginThrottle struct {
	mu      sync.Mutex
	buckets map[string]*entry
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a login throttle allowing rps sustained attempts per username
// with the given burst.
func New(rps float64, burst int) *LoginThrottle {
	t := &LoginThrottle{
		buckets: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}
	go t.sweep()
	return t
}

// Allow reports whether another attempt for username may proceed now.
func (t *LoginThrottle) Allow(username string) bool {
	key := domain.Fold(username)

	t.mu.Lock()
	e, ok := t.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = e
	}
	e.lastSeen = time.Now()
	t.mu.Unlock()

	return e.limiter.Allow()
}

// Stop shuts down the eviction goroutine.
func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *LoginThrottle) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case now := <-ticker.C:
			t.mu.Lock()
			for key, e := range t.buckets {
				if now.Sub(e.lastSeen) > idleTTL {
					delete(t.buckets, key)
				}
			}
			t.mu.Unlock()
		}
	}
}
