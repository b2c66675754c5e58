package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/jivhala-motors/backoffice/internal/cache"
	"github.com/jivhala-motors/backoffice/internal/domain"
)

// CachingResolver wraps a UserResolver with a short-lived cache so that a
// burst of requests from one session costs a single database lookup. The TTL
// bounds how long a deactivated account keeps working.
type CachingResolver struct {
	inner UserResolver
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachingResolver creates a caching resolver around inner.
func NewCachingResolver(inner UserResolver, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		inner: inner,
		cache: cache.New(),
		ttl:   ttl,
	}
}

// ResolveUser implements UserResolver.
func (r *CachingResolver) ResolveUser(ctx context.Context, userID int64) (*domain.User, error) {
	key := strconv.FormatInt(userID, 10)
	if v, ok := r.cache.Get(key); ok {
		return v.(*domain.User), nil
	}

	user, err := r.inner.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, user, r.ttl)
	return user, nil
}

// Close releases the cache.
func (r *CachingResolver) Close() {
	r.cache.Close()
}
