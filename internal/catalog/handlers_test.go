package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/catalog"
	"github.com/babajiachar/storefront-api/internal/db"
)

func TestListProductsBilingualResponse(t *testing.T) {
	store := &stubCatalogStore{products: []db.Product{mangoPickle()}}
	h := &catalog.Handlers{Svc: &catalog.Service{Store: store, Log: zerolog.Nop()}, Log: zerolog.Nop()}

	rec := httptest.NewRecorder()
	h.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []struct {
			ID   string `json:"id"`
			Name struct {
				EN string `json:"en"`
				HI string `json:"hi"`
			} `json:"name"`
			Variants []struct {
				Size  string  `json:"size"`
				MRP   float64 `json:"mrp"`
				Stock int     `json:"stock"`
			} `json:"variants"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	require.Equal(t, "aam-ka-achar", resp.Products[0].ID)
	require.Equal(t, "Mango Pickle", resp.Products[0].Name.EN)
	require.Equal(t, "आम का अचार", resp.Products[0].Name.HI)
	require.Len(t, resp.Products[0].Variants, 1)
	require.Equal(t, 199.0, resp.Products[0].Variants[0].MRP)
}

func TestGetProductNotFound(t *testing.T) {
	h := &catalog.Handlers{Svc: &catalog.Service{Store: &stubCatalogStore{}, Log: zerolog.Nop()}, Log: zerolog.Nop()}

	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListStoresResponse(t *testing.T) {
	store := &stubCatalogStore{stores: []db.StoreLocation{{
		ID: "prayagraj-civil-lines", Name: "Civil Lines Flagship",
		Address: "12 MG Marg, Civil Lines, Prayagraj", Latitude: 25.452, Longitude: 81.834,
	}}}
	h := &catalog.Handlers{Svc: &catalog.Service{Store: store, Log: zerolog.Nop()}, Log: zerolog.Nop()}

	rec := httptest.NewRecorder()
	h.ListStores(rec, httptest.NewRequest(http.MethodGet, "/stores", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stores []struct {
			ID  string  `json:"id"`
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stores, 1)
	require.Equal(t, 25.452, resp.Stores[0].Lat)
	require.Equal(t, 81.834, resp.Stores[0].Lng)
}
