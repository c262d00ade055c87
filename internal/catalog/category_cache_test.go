package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zycart/zycart-backend/pkg/db/models"
)

type countingLoader struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
	rows  []models.Category
}

func (l *countingLoader) ListCategories(ctx context.Context) ([]models.Category, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.rows, nil
}

func TestCategoryCacheServesFromMemoryUntilExpiry(t *testing.T) {
	loader := &countingLoader{rows: []models.Category{{ID: uuid.New(), Name: "Books", Slug: "books"}}}
	cache, err := NewCategoryCache(loader, time.Minute, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	ctx := context.Background()
	if err := cache.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cache.Load(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	got, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "books" {
		t.Fatalf("unexpected categories %+v", got)
	}
	if calls := loader.calls.Load(); calls != 1 {
		t.Fatalf("expected 1 load, got %d", calls)
	}

	current = current.Add(2 * time.Minute)
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if calls := loader.calls.Load(); calls != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", calls)
	}

	if err := cache.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls := loader.calls.Load(); calls != 3 {
		t.Fatalf("expected refresh to reload, got %d loads", calls)
	}
}

func TestCategoryCacheCoalescesConcurrentMisses(t *testing.T) {
	loader := &countingLoader{
		gate: make(chan struct{}),
		rows: []models.Category{{ID: uuid.New(), Name: "Toys", Slug: "toys"}},
	}
	cache, err := NewCategoryCache(loader, 0, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	for loader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("get: %v", err)
	}
	if calls := loader.calls.Load(); calls != 1 {
		t.Fatalf("expected a single shared load, got %d", calls)
	}
}

func TestCategoryCacheSurfacesLoaderError(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	cache, err := NewCategoryCache(loader, time.Minute, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewCategoryCache(nil, time.Minute, nil); err == nil {
		t.Fatalf("expected error for nil loader")
	}
}
