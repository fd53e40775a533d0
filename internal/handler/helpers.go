package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediplant/storefront/internal/cart"
	"github.com/mediplant/storefront/internal/catalog"
	"github.com/mediplant/storefront/internal/order"
	"github.com/mediplant/storefront/internal/review"
	"github.com/mediplant/storefront/internal/user"
	"github.com/mediplant/storefront/internal/wishlist"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// uuidParam parses the named chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.FromString(chi.URLParam(r, name))
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "validation failed",
		Details: details,
	})
}

// mapErrorToStatusCode translates domain errors into HTTP statuses. Ownership
// failures arrive as not-found errors from the services, so 404 covers both.
func mapErrorToStatusCode(err error) int {
	var stockErr *order.InsufficientStockError
	var validationErr *order.ValidationError

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, order.ErrPaymentUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, review.ErrReviewNotFound),
		errors.Is(err, wishlist.ErrProductNotFound),
		errors.Is(err, wishlist.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.As(err, &stockErr),
		errors.Is(err, user.ErrEmailExists),
		errors.Is(err, catalog.ErrCategoryExists),
		errors.Is(err, wishlist.ErrEntryExists),
		errors.Is(err, order.ErrCartEmpty),
		errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError writes the mapped status with the domain error's message,
// hiding internals behind a generic message on 500.
func respondDomainError(w http.ResponseWriter, err error) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("handler: internal error")
		respondWithError(w, code, "internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}
