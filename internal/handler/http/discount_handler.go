package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/discount"
)

type ApplyDiscountRequest struct {
	CategoryID string  `json:"category_id" validate:"required,uuid"`
	Percent    float64 `json:"percent" validate:"required,gt=0,lt=100"`
}

type DiscountResponse struct {
	AffectedProducts int64 `json:"affected_products"`
}

type DiscountHandler struct {
	service  discount.Service
	validate *validator.Validate
}

func NewDiscountHandler(service discount.Service) *DiscountHandler {
	return &DiscountHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *DiscountHandler) RegisterRoutes(router chi.Router) {
	router.Post("/discounts/category", h.handleApplyCategoryDiscount)
	router.Delete("/discounts/category/{id}", h.handleClearCategoryDiscount)
	router.Delete("/discounts", h.handleClearAllDiscounts)
}

func (h *DiscountHandler) handleApplyCategoryDiscount(w http.ResponseWriter, r *http.Request) {
	var requestPayload ApplyDiscountRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

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

	categoryID, err := uuid.FromString(requestPayload.CategoryID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	affected, err := h.service.ApplyCategoryDiscount(r.Context(), categoryID, requestPayload.Percent, actorFromRequest(r))
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to apply category discount via service")
			respondWithError(w, statusCode, "Failed to apply discount")
			return
		}
		respondWithError(w, statusCode, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, DiscountResponse{AffectedProducts: affected})
}

func (h *DiscountHandler) handleClearCategoryDiscount(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	categoryID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("category_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	affected, err := h.service.ClearCategoryDiscount(r.Context(), categoryID, actorFromRequest(r))
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to clear category discount via service")
			respondWithError(w, statusCode, "Failed to clear discount")
			return
		}
		respondWithError(w, statusCode, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, DiscountResponse{AffectedProducts: affected})
}

func (h *DiscountHandler) handleClearAllDiscounts(w http.ResponseWriter, r *http.Request) {
	affected, err := h.service.ClearAllDiscounts(r.Context(), actorFromRequest(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to clear all discounts via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to clear discounts")
		return
	}

	respondWithJSON(w, http.StatusOK, DiscountResponse{AffectedProducts: affected})
}
