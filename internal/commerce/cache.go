package commerce

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

type CategoryGetter interface {
	GetCategory(ctx context.Context, id string, levels int) (Category, error)
}

// CategoryCache keeps navigation categories for a while. Categories do not
// depend on the shopper, so one cache serves all sessions.
type CategoryCache struct {
	cache *cache.Cache
}

func NewCategoryCache(ttl time.Duration) *CategoryCache {
	return &CategoryCache{cache: cache.New(ttl, 2*ttl)}
}

// Get returns the cached category or loads it through getter. Failed lookups
// are not cached.
func (c *CategoryCache) Get(ctx context.Context, getter CategoryGetter, id string, levels int) (Category, error) {
	key := fmt.Sprintf("%s/%d", id, levels)

	if cached, ok := c.cache.Get(key); ok {
		if category, ok := cached.(Category); ok {
			return category, nil
		}
	}

	category, err := getter.GetCategory(ctx, id, levels)
	if err != nil {
		return Category{}, err
	}
	c.cache.SetDefault(key, category)

	return category, nil
}
