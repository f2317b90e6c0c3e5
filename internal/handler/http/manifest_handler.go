package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/manifest"
)

type BuildManifestRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
}

type ManifestHandler struct {
	builder  manifest.Builder
	validate *validator.Validate
}

func NewManifestHandler(builder manifest.Builder) *ManifestHandler {
	return &ManifestHandler{
		builder:  builder,
		validate: validator.New(),
	}
}

func (h *ManifestHandler) RegisterRoutes(router chi.Router) {
	router.Post("/manifests", h.handleBuildManifest)
}

func (h *ManifestHandler) handleBuildManifest(w http.ResponseWriter, r *http.Request) {
	var requestPayload BuildManifestRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

	// An empty selection must be rejected by the builder itself; only run
	// the field rules when something was submitted.
	if len(requestPayload.OrderIDs) > 0 {
		if err := h.validate.Struct(requestPayload); err != nil {
			validationErrors, ok := err.(validator.ValidationErrors)
			if ok {
				respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
					Error:   "Validation failed",
					Details: formatValidationErrors(validationErrors),
				})
			} else {
				log.Error().Err(err).Msg("Unexpected error type during validation")
				respondWithError(w, http.StatusInternalServerError, "Internal validation error")
			}
			return
		}
	}

	orderIDs := make([]uuid.UUID, 0, len(requestPayload.OrderIDs))
	for _, raw := range requestPayload.OrderIDs {
		id, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid order id %q", raw))
			return
		}
		orderIDs = append(orderIDs, id)
	}

	doc, err := h.builder.Build(r.Context(), orderIDs)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to build manifest")
			respondWithError(w, statusCode, "Failed to build manifest")
			return
		}
		respondWithError(w, statusCode, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, doc)
}
