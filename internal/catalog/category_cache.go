package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zycart/zycart-backend/pkg/db/models"
	"github.com/zycart/zycart-backend/pkg/logger"
)

const categoryCacheKey = "categories"

type categoryLoader interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CategoryCache holds the category list in memory. Concurrent misses share a
// single database load.
type CategoryCache struct {
	loader categoryLoader
	ttl    time.Duration
	logg   *logger.Logger
	now    func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	entries  []CategoryDTO
	loadedAt time.Time
	loaded   bool
}

// NewCategoryCache builds an empty cache. A zero ttl keeps entries until Refresh.
func NewCategoryCache(loader categoryLoader, ttl time.Duration, logg *logger.Logger) (*CategoryCache, error) {
	if loader == nil {
		return nil, fmt.Errorf("category loader required")
	}
	return &CategoryCache{
		loader: loader,
		ttl:    ttl,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Load warms the cache if it has never been populated.
func (c *CategoryCache) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err := c.fetch(ctx)
	return err
}

// Refresh reloads the categories regardless of age.
func (c *CategoryCache) Refresh(ctx context.Context) error {
	_, err := c.fetch(ctx)
	return err
}

// Get returns the cached categories, loading them when missing or stale.
func (c *CategoryCache) Get(ctx context.Context) ([]CategoryDTO, error) {
	c.mu.RLock()
	if c.loaded && !c.expiredLocked() {
		out := append([]CategoryDTO(nil), c.entries...)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()
	return c.fetch(ctx)
}

func (c *CategoryCache) expiredLocked() bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(c.loadedAt) >= c.ttl
}

func (c *CategoryCache) fetch(ctx context.Context) ([]CategoryDTO, error) {
	v, err, _ := c.group.Do(categoryCacheKey, func() (any, error) {
		rows, err := c.loader.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]CategoryDTO, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, categoryFromModel(row))
		}
		c.mu.Lock()
		c.entries = entries
		c.loadedAt = c.now()
		c.loaded = true
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, "category cache load failed", err)
		}
		return nil, fmt.Errorf("load categories: %w", err)
	}
	entries := v.([]CategoryDTO)
	return append([]CategoryDTO(nil), entries...), nil
}
