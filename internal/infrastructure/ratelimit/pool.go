package ratelimit

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Limiter is the admission contract. Admit reports whether the request
// identified by key may proceed at the given instant.
type Limiter interface {
	Admit(ctx context.Context, key string, now time.Time) (bool, error)
}

// Pool keeps one token bucket per client key. Buckets are stored with an
// idle TTL so keys that stop sending requests are eventually purged instead
// of accumulating for the process lifetime.
type Pool struct {
	mu       sync.Mutex
	capacity float64
	rate     float64
	idleTTL  time.Duration
	buckets  *cache.Cache
}

// NewPool creates a per-client limiter. perMinute is the bucket capacity;
// zero or negative disables limiting (Admit always allows). Buckets idle
// longer than idleTTL are purged by the store's janitor.
func NewPool(perMinute int, idleTTL time.Duration) *Pool {
	p := &Pool{
		capacity: float64(perMinute),
		rate:     float64(perMinute) / 60.0,
		idleTTL:  idleTTL,
	}
	if perMinute > 0 {
		p.buckets = cache.New(idleTTL, idleTTL)
	}
	return p
}

// Admit implements Limiter.
//
// A first-seen key is initialized with capacity-1 tokens and admitted
// immediately, so clients never need a priming request. Each touch re-arms
// the bucket's idle expiry.
func (p *Pool) Admit(_ context.Context, key string, now time.Time) (bool, error) {
	if p.buckets == nil {
		return true, nil
	}

	p.mu.Lock()
	var bucket *TokenBucket
	if v, ok := p.buckets.Get(key); ok {
		bucket = v.(*TokenBucket)
		p.buckets.Set(key, bucket, p.idleTTL)
		p.mu.Unlock()
		return bucket.Admit(now), nil
	}

	bucket = NewTokenBucket(p.capacity, p.capacity-1, p.rate, now)
	p.buckets.Set(key, bucket, p.idleTTL)
	p.mu.Unlock()
	return true, nil
}

// Size returns the number of live client buckets.
func (p *Pool) Size() int {
	if p.buckets == nil {
		return 0
	}
	return p.buckets.ItemCount()
}

// ClientKey derives the rate-limit identity for a request: the bearer token
// when one is presented, otherwise the client network address.
func ClientKey(authorization, remoteAddr string) string {
	if strings.HasPrefix(authorization, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
		if token != "" {
			return "tok:" + token
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err == nil && host != "" {
		return "ip:" + host
	}
	if remoteAddr != "" {
		return "ip:" + remoteAddr
	}
	return "ip:unknown"
}
