package directory

import (
	"context"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const profileCacheKeyPrefix = "go-splist::profile::v1"

// ProfileCacheKey is go-splist::profile::v1::<email>, with the lowercased
// email URL-path escaped.
func ProfileCacheKey(email string) string {
	return profileCacheKeyPrefix + "::" + url.PathEscape(strings.ToLower(strings.TrimSpace(email)))
}

type profileCache struct {
	cache repositorycache.CacheService
}

// getOrFetch only caches found profiles; a miss is reported as
// errProfileNotFound so it is fetched again next time.
func (c profileCache) getOrFetch(ctx context.Context, email string, fetch func(context.Context) (Profile, error)) (Profile, error) {
	if c.cache == nil {
		return fetch(ctx)
	}
	profile, err := repositorycache.GetOrFetch(ctx, c.cache, ProfileCacheKey(email), fetch)
	if err != nil {
		return Profile{}, err
	}
	return profile.clone(), nil
}

func (c profileCache) invalidate(ctx context.Context, email string) error {
	if c.cache == nil || strings.TrimSpace(email) == "" {
		return nil
	}
	return c.cache.Delete(ctx, ProfileCacheKey(email))
}
