package verificationmethod

import (
	"context"
	"errors"
	"time"

	"github.com/bluele/gcache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

// CachingResolver memoizes resolved public keys in an in-process LRU cache.
// Concurrent lookups of the same verification method share one upstream call.
// The shared call is detached from the callers' cancellation and bounded by
// its own timeout; each caller still returns as soon as its own context ends.
// Failures are never cached.
type CachingResolver struct {
	next          provider.Resolver
	cache         gcache.Cache
	group         singleflight.Group
	lookupTimeout time.Duration
	logger        *zap.Logger
}

// NewCachingResolver wraps next with a cache of at most size entries, each
// living for ttl. A size of zero or less means unbounded; a ttl of zero means
// entries never expire.
func NewCachingResolver(next provider.Resolver, size int, ttl time.Duration, logger *zap.Logger) *CachingResolver {
	var builder *gcache.CacheBuilder
	if size > 0 {
		builder = gcache.New(size).LRU()
	} else {
		builder = gcache.New(0).Simple()
	}
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachingResolver{
		next:          next,
		cache:         builder.Build(),
		lookupTimeout: DefaultRequestTimeout,
		logger:        logger,
	}
}

// ResolveVerificationMethod implements provider.Resolver.
func (c *CachingResolver) ResolveVerificationMethod(ctx context.Context, verificationMethodURL string) ([]byte, error) {
	cached, err := c.cache.Get(verificationMethodURL)
	if err == nil {
		c.logger.Debug("verification method cache hit", zap.String("verificationMethod", verificationMethodURL))
		return clone(cached.([]byte)), nil
	}
	if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, err
	}

	results := c.group.DoChan(verificationMethodURL, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()

		publicKey, err := c.next.ResolveVerificationMethod(lookupCtx, verificationMethodURL)
		if err != nil {
			return nil, err
		}

		if err := c.cache.Set(verificationMethodURL, clone(publicKey)); err != nil {
			c.logger.Warn("failed to cache verification method",
				zap.String("verificationMethod", verificationMethodURL),
				zap.Error(err))
		}

		return publicKey, nil
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]byte)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Purge removes every cached entry.
func (c *CachingResolver) Purge() {
	c.cache.Purge()
}

// Len returns the number of live cached entries.
func (c *CachingResolver) Len() int {
	return c.cache.Len(true)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
