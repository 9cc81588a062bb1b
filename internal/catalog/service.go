package catalog

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/db"
)

const (
	cacheKeyProducts = "catalog:products"
	cacheKeyStores   = "catalog:stores"
)

// Store is the persistence surface the catalog needs.
type Store interface {
	ListProducts(ctx context.Context) ([]db.Product, error)
	GetProduct(ctx context.Context, id string) (db.Product, error)
	UpsertProduct(ctx context.Context, p db.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListStoreLocations(ctx context.Context) ([]db.StoreLocation, error)
	UpsertStoreLocation(ctx context.Context, loc db.StoreLocation) error
	DeleteStoreLocation(ctx context.Context, id string) error
}

// Service serves the product catalog and store locations with a Redis
// read-through cache. Admin writes invalidate the cache.
type Service struct {
	Store Store
	Cache *redis.Client
	TTL   time.Duration
	Log   zerolog.Logger
}

// ListProducts returns the catalog, from cache when warm.
func (s *Service) ListProducts(ctx context.Context) ([]db.Product, error) {
	var cached []db.Product
	if s.readCache(ctx, cacheKeyProducts, &cached) {
		return cached, nil
	}
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, cacheKeyProducts, products)
	return products, nil
}

// GetProduct returns a single product, bypassing the list cache.
func (s *Service) GetProduct(ctx context.Context, id string) (db.Product, error) {
	return s.Store.GetProduct(ctx, id)
}

// UpsertProduct writes a product and drops the cache.
func (s *Service) UpsertProduct(ctx context.Context, p db.Product) error {
	if err := s.Store.UpsertProduct(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyProducts)
	return nil
}

// DeleteProduct removes a product and drops the cache.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyProducts)
	return nil
}

// ListStores returns retail locations, from cache when warm.
func (s *Service) ListStores(ctx context.Context) ([]db.StoreLocation, error) {
	var cached []db.StoreLocation
	if s.readCache(ctx, cacheKeyStores, &cached) {
		return cached, nil
	}
	stores, err := s.Store.ListStoreLocations(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, cacheKeyStores, stores)
	return stores, nil
}

// UpsertStore writes a retail location and drops the cache.
func (s *Service) UpsertStore(ctx context.Context, loc db.StoreLocation) error {
	if err := s.Store.UpsertStoreLocation(ctx, loc); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyStores)
	return nil
}

// DeleteStore removes a retail location and drops the cache.
func (s *Service) DeleteStore(ctx context.Context, id string) error {
	if err := s.Store.DeleteStoreLocation(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyStores)
	return nil
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	if s.Cache == nil {
		return false
	}
	raw, err := s.Cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("cache decode failed, dropping entry")
		s.invalidate(ctx, key)
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := s.Cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, key).Err(); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}
