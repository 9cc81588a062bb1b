package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
)

// Handlers exposes customer-facing order endpoints.
type Handlers struct {
	Svc           *Service
	Validate      *validator.Validate
	RazorpayKeyID string
	Log           zerolog.Logger
}

type itemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type orderResponse struct {
	ID                string         `json:"id"`
	CustomerName      string         `json:"customerName"`
	Phone             string         `json:"phone"`
	Email             string         `json:"email,omitempty"`
	Address           string         `json:"address"`
	TotalAmount       float64        `json:"totalAmount"`
	PaymentMethod     string         `json:"paymentMethod"`
	Status            string         `json:"status"`
	PaymentStatus     string         `json:"paymentStatus"`
	UTRNumber         string         `json:"utrNumber,omitempty"`
	RazorpayOrderID   string         `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string         `json:"razorpayPaymentId,omitempty"`
	MarketingConsent  Consent        `json:"marketingConsent"`
	Items             []itemResponse `json:"items,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func toResponse(o db.Order) orderResponse {
	resp := orderResponse{
		ID:                o.ID,
		CustomerName:      o.CustomerName,
		Phone:             o.Phone,
		Email:             o.Email,
		Address:           o.Address,
		TotalAmount:       float64(o.TotalPaise) / 100,
		PaymentMethod:     o.PaymentMethod,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		UTRNumber:         o.UTRNumber,
		RazorpayOrderID:   o.RazorpayOrderID,
		RazorpayPaymentID: o.RazorpayPaymentID,
		MarketingConsent: Consent{
			WhatsApp: o.ConsentWhatsApp,
			Email:    o.ConsentEmail,
			SMS:      o.ConsentSMS,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, itemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: float64(item.UnitPaise) / 100,
		})
	}
	return resp
}

// Create handles POST /orders.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "validation failed", validationDetails(err))
		return
	}
	result, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	body := map[string]any{"order": toResponse(result.Order)}
	if result.RazorpayOrderID != "" {
		body["razorpayOrderId"] = result.RazorpayOrderID
		body["razorpayKeyId"] = h.RazorpayKeyID
	}
	common.JSON(w, http.StatusCreated, body)
}

// Get handles GET /orders/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, toResponse(o))
}

// ListByPhone handles GET /orders?phone=.
func (h *Handlers) ListByPhone(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "phone query parameter is required", nil)
		return
	}
	orders, err := h.Svc.ListByPhone(r.Context(), phone)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResponse(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{"orders": out})
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
