package catalog

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
)

// AdminHandlers exposes catalog management endpoints.
type AdminHandlers struct {
	Svc      *Service
	Validate *validator.Validate
	Log      zerolog.Logger
}

type variantInput struct {
	Size  string  `json:"size" validate:"required"`
	MRP   float64 `json:"mrp" validate:"gte=0"`
	Stock int     `json:"stock" validate:"gte=0"`
}

type productInput struct {
	Name        Bilingual      `json:"name"`
	Tagline     Bilingual      `json:"tagline"`
	Description Bilingual      `json:"description"`
	Category    string         `json:"category"`
	ImageURL    string         `json:"imageUrl"`
	Featured    bool           `json:"featured"`
	Variants    []variantInput `json:"variants" validate:"required,min=1,dive"`
}

// UpsertProduct handles PUT /admin/products/{id}.
func (h *AdminHandlers) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if in.Name.EN == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "english name is required", nil)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "validation failed", nil)
		return
	}
	p := db.Product{
		ID:            id,
		NameEN:        in.Name.EN,
		NameHI:        in.Name.HI,
		TaglineEN:     in.Tagline.EN,
		TaglineHI:     in.Tagline.HI,
		DescriptionEN: in.Description.EN,
		DescriptionHI: in.Description.HI,
		Category:      in.Category,
		ImageURL:      in.ImageURL,
		Featured:      in.Featured,
	}
	for _, v := range in.Variants {
		p.Variants = append(p.Variants, db.Variant{
			Size:     v.Size,
			MRPPaise: int64(math.Round(v.MRP * 100)),
			Stock:    v.Stock,
		})
	}
	if err := h.Svc.UpsertProduct(r.Context(), p); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProduct handles DELETE /admin/products/{id}.
func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "product not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type storeInput struct {
	Name      string  `json:"name" validate:"required"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Hours     string  `json:"hours"`
	MapsURL   string  `json:"mapsUrl"`
}

// UpsertStore handles PUT /admin/stores/{id}.
func (h *AdminHandlers) UpsertStore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in storeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "validation failed", nil)
		return
	}
	loc := db.StoreLocation{
		ID:        id,
		Name:      in.Name,
		Address:   in.Address,
		Phone:     in.Phone,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Hours:     in.Hours,
		MapsURL:   in.MapsURL,
	}
	if err := h.Svc.UpsertStore(r.Context(), loc); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, toStoreResponse(loc))
}

// DeleteStore handles DELETE /admin/stores/{id}.
func (h *AdminHandlers) DeleteStore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.DeleteStore(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "store not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
