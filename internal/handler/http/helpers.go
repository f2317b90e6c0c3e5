package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin-core/internal/discount"
	"github.com/vasiliy-maslov/shop-admin-core/internal/inventory"
	"github.com/vasiliy-maslov/shop-admin-core/internal/manifest"
	"github.com/vasiliy-maslov/shop-admin-core/internal/order"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fmt.Sprintf("failed on the '%s' rule", fieldErr.Tag())
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	var (
		stockErr      *inventory.InsufficientStockError
		transitionErr *order.InvalidTransitionError
	)
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrVariantNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, inventory.ErrVariantNotFound):
		return http.StatusNotFound
	case errors.As(err, &stockErr), errors.As(err, &transitionErr):
		return http.StatusConflict
	case errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrCustomerNameRequired),
		errors.Is(err, order.ErrCustomerPhoneRequired),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, discount.ErrPercentOutOfRange),
		errors.Is(err, manifest.ErrEmptySelection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// actorFromRequest returns the admin identity for the audit trail. Auth
// itself happens upstream; the header is informational only.
func actorFromRequest(r *http.Request) string {
	return r.Header.Get("X-Admin-User")
}
