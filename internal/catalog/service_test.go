package catalog_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/catalog"
	"github.com/babajiachar/storefront-api/internal/db"
)

type stubCatalogStore struct {
	products   []db.Product
	stores     []db.StoreLocation
	listCalls  int
	storeCalls int
}

func (s *stubCatalogStore) ListProducts(context.Context) ([]db.Product, error) {
	s.listCalls++
	return append([]db.Product(nil), s.products...), nil
}

func (s *stubCatalogStore) GetProduct(_ context.Context, id string) (db.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return db.Product{}, db.ErrNotFound
}

func (s *stubCatalogStore) UpsertProduct(_ context.Context, p db.Product) error {
	for i, existing := range s.products {
		if existing.ID == p.ID {
			s.products[i] = p
			return nil
		}
	}
	s.products = append(s.products, p)
	return nil
}

func (s *stubCatalogStore) DeleteProduct(_ context.Context, id string) error {
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *stubCatalogStore) ListStoreLocations(context.Context) ([]db.StoreLocation, error) {
	s.storeCalls++
	return append([]db.StoreLocation(nil), s.stores...), nil
}

func (s *stubCatalogStore) UpsertStoreLocation(_ context.Context, loc db.StoreLocation) error {
	s.stores = append(s.stores, loc)
	return nil
}

func (s *stubCatalogStore) DeleteStoreLocation(_ context.Context, id string) error {
	for i, loc := range s.stores {
		if loc.ID == id {
			s.stores = append(s.stores[:i], s.stores[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func mangoPickle() db.Product {
	return db.Product{
		ID:        "aam-ka-achar",
		NameEN:    "Mango Pickle",
		NameHI:    "आम का अचार",
		TaglineEN: "Sun-cured raw mango in mustard oil",
		Category:  "pickle",
		Variants:  []db.Variant{{Size: "250g", MRPPaise: 19900, Stock: 12}},
	}
}

func newCachedService(t *testing.T, store *stubCatalogStore) *catalog.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &catalog.Service{Store: store, Cache: client, TTL: time.Minute, Log: zerolog.Nop()}
}

func TestListProductsReadThroughCache(t *testing.T) {
	store := &stubCatalogStore{products: []db.Product{mangoPickle()}}
	svc := newCachedService(t, store)
	ctx := context.Background()

	first, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.listCalls)

	second, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.listCalls, "second read must come from cache")
}

func TestUpsertProductInvalidatesCache(t *testing.T) {
	store := &stubCatalogStore{products: []db.Product{mangoPickle()}}
	svc := newCachedService(t, store)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	updated := mangoPickle()
	updated.Variants[0].Stock = 5
	require.NoError(t, svc.UpsertProduct(ctx, updated))

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.listCalls, "write must drop the cache")
	require.Equal(t, 5, products[0].Variants[0].Stock)
}

func TestListStoresCachedSeparately(t *testing.T) {
	store := &stubCatalogStore{stores: []db.StoreLocation{{ID: "prayagraj-civil-lines", Name: "Civil Lines Flagship"}}}
	svc := newCachedService(t, store)
	ctx := context.Background()

	_, err := svc.ListStores(ctx)
	require.NoError(t, err)
	_, err = svc.ListStores(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.storeCalls)

	require.NoError(t, svc.UpsertStore(ctx, db.StoreLocation{ID: "prayagraj-katra", Name: "Katra Market Outlet"}))
	stores, err := svc.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	require.Equal(t, 2, store.storeCalls)
}

func TestServiceWorksWithoutCache(t *testing.T) {
	store := &stubCatalogStore{products: []db.Product{mangoPickle()}}
	svc := &catalog.Service{Store: store, Log: zerolog.Nop()}
	ctx := context.Background()

	_, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.listCalls)
}
