package ratelimiting

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Consume(key string) bool
}

type tokenBucketRateLimiter struct {
	limiterByKey *ttlcache.Cache[string, *rate.Limiter]
	refillEvery  time.Duration
	burstSize    int
}

func (rateLimiter *tokenBucketRateLimiter) Consume(key string) bool {
	limiter, _ := rateLimiter.limiterByKey.GetOrSet(key, rate.NewLimiter(rate.Every(rateLimiter.refillEvery), rateLimiter.burstSize))
	return limiter.Value().Allow()
}

type BurstSize int

// NewTokenBucketRateLimiter gives every key a bucket of burstSize tokens,
// refilled with one token per refillEvery. Idle buckets are evicted once they
// would have been refilled anyway.
func NewTokenBucketRateLimiter(refillEvery time.Duration, burstSize BurstSize) (RateLimiter, func()) {
	ttl := refillEvery * time.Duration(burstSize)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	limiterTTLCache := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](ttl),
	)
	go limiterTTLCache.Start()

	return &tokenBucketRateLimiter{
		limiterByKey: limiterTTLCache,
		refillEvery:  refillEvery,
		burstSize:    int(burstSize),
	}, limiterTTLCache.Stop
}

type RequestRateLimiter interface {
	Consume(r *http.Request) bool
	KeyFor(r *http.Request) string
}

type requestBasedRateLimiter struct {
	limiter RateLimiter
	keyFunc func(r *http.Request) string
}

func (rateLimiter *requestBasedRateLimiter) Consume(r *http.Request) bool {
	return rateLimiter.limiter.Consume(rateLimiter.keyFunc(r))
}

func (rateLimiter *requestBasedRateLimiter) KeyFor(r *http.Request) string {
	return rateLimiter.keyFunc(r)
}

func NewRequestBasedRateLimiter(limiter RateLimiter, keyFunc func(r *http.Request) string) RequestRateLimiter {
	return &requestBasedRateLimiter{
		limiter: limiter,
		keyFunc: keyFunc,
	}
}

func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// No port
		host = r.RemoteAddr
	}

	return fmt.Sprintf("ip: %s", host)
}
