package handler

import (
	"net/http"
	"strconv"

	"github.com/gofrs/uuid"

	"github.com/mediplant/storefront/internal/catalog"
	"github.com/mediplant/storefront/internal/review"
)

const relatedProductsLimit = 4

type CatalogHandler struct {
	service catalog.Service
	reviews review.Service
}

func NewCatalogHandler(service catalog.Service, reviews review.Service) *CatalogHandler {
	return &CatalogHandler{service: service, reviews: reviews}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := catalog.Filter{
		Search: r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = &id
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		filter.PerPage, _ = strconv.Atoi(raw)
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

// ProductDetailResponse is the product page payload: the product itself plus
// its reviews and a few related products from the same category.
type ProductDetailResponse struct {
	Product *catalog.Product  `json:"product"`
	Reviews []review.Review   `json:"reviews"`
	Related []catalog.Product `json:"related"`
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	reviews, err := h.reviews.ListByProduct(r.Context(), p.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	related, err := h.service.Related(r.Context(), p, relatedProductsLimit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ProductDetailResponse{
		Product: p,
		Reviews: reviews,
		Related: related,
	})
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

// Admin endpoints.

func (h *CatalogHandler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAll(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var input catalog.ProductInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	p, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input catalog.CategoryInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	c, err := h.service.CreateCategory(r.Context(), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}
