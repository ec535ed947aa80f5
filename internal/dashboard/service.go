package dashboard

import (
	"context"
	"strconv"
)

// Service serves the cached dashboard reads.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs a new Service. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Overview returns the aggregate payload, served from cache when fresh.
// The cache key embeds the query knobs so differently shaped requests
// never collide.
func (s *Service) Overview(ctx context.Context, q Query) (*Overview, error) {
	q = q.Normalize()
	key, err := s.cache.BuildKey(ctx, "dashboard", "overview",
		strconv.Itoa(q.RecentLimit), strconv.Itoa(q.TopLimit), strconv.Itoa(q.LowStockThreshold))
	if err != nil {
		return nil, err
	}
	var out Overview
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.Overview(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentSales returns the latest sales, uncached.
func (s *Service) RecentSales(ctx context.Context, limit int) ([]RecentSale, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultRecentLimit
	}
	return s.repo.RecentSales(ctx, limit)
}

// TopProducts returns the revenue ranking, uncached.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultTopLimit
	}
	return s.repo.TopProducts(ctx, limit)
}

// LowStock returns products at or under the threshold, uncached.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	if threshold < 0 {
		threshold = defaultLowStockThreshold
	}
	return s.repo.LowStock(ctx, threshold)
}
