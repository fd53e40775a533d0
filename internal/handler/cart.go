package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/mediplant/storefront/internal/cart"
)

type AddCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateCartLineRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartResponse carries the reconciled snapshot plus the stock warnings
// produced while reconciling, so the client can show both at once.
type CartResponse struct {
	Items    []cart.Line `json:"items"`
	Subtotal string      `json:"subtotal"`
	Warnings []string    `json:"warnings,omitempty"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service, validate: validator.New()}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	snap, warnings, err := h.service.Snapshot(r.Context(), ident.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := CartResponse{
		Items:    snap.Lines,
		Subtotal: snap.Subtotal.StringFixed(2),
	}
	for _, warning := range warnings {
		resp.Warnings = append(resp.Warnings, warning.Message())
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req AddCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			respondValidationErrors(w, errs)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal validation error")
		return
	}

	if err := h.service.Add(r.Context(), ident.UserID, req.ProductID, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.service.Clear(r.Context(), ident.UserID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	productID, err := uuidParam(r, "productID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			respondValidationErrors(w, errs)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal validation error")
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), ident.UserID, productID, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	productID, err := uuidParam(r, "productID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.service.Remove(r.Context(), ident.UserID, productID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
