package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
)

// Handlers exposes the public catalog endpoints.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Bilingual pairs the Hindi and English rendering of a copy field.
type Bilingual struct {
	EN string `json:"en"`
	HI string `json:"hi"`
}

type variantResponse struct {
	Size  string  `json:"size"`
	MRP   float64 `json:"mrp"`
	Stock int     `json:"stock"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Name        Bilingual         `json:"name"`
	Tagline     Bilingual         `json:"tagline"`
	Description Bilingual         `json:"description"`
	Category    string            `json:"category,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Featured    bool              `json:"featured"`
	Variants    []variantResponse `json:"variants"`
}

func toProductResponse(p db.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        Bilingual{EN: p.NameEN, HI: p.NameHI},
		Tagline:     Bilingual{EN: p.TaglineEN, HI: p.TaglineHI},
		Description: Bilingual{EN: p.DescriptionEN, HI: p.DescriptionHI},
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
		Variants:    []variantResponse{},
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, variantResponse{
			Size:  v.Size,
			MRP:   float64(v.MRPPaise) / 100,
			Stock: v.Stock,
		})
	}
	return resp
}

type storeResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Hours     string  `json:"hours,omitempty"`
	MapsURL   string  `json:"mapsUrl,omitempty"`
}

func toStoreResponse(loc db.StoreLocation) storeResponse {
	return storeResponse{
		ID:        loc.ID,
		Name:      loc.Name,
		Address:   loc.Address,
		Phone:     loc.Phone,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Hours:     loc.Hours,
		MapsURL:   loc.MapsURL,
	}
}

// ListProducts handles GET /products.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.ListProducts(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"products": out})
}

// GetProduct handles GET /products/{id}.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.Svc.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "product not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, toProductResponse(p))
}

// ListStores handles GET /stores.
func (h *Handlers) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.Svc.ListStores(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]storeResponse, 0, len(stores))
	for _, loc := range stores {
		out = append(out, toStoreResponse(loc))
	}
	common.JSON(w, http.StatusOK, map[string]any{"stores": out})
}
