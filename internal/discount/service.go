package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/audit"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
)

// ErrPercentOutOfRange rejects discounts outside the open interval (0, 100).
var ErrPercentOutOfRange = errors.New("discount percent must be between 0 and 100 exclusive")

type Service interface {
	ApplyCategoryDiscount(ctx context.Context, categoryID uuid.UUID, percent float64, actor string) (int64, error)
	ClearCategoryDiscount(ctx context.Context, categoryID uuid.UUID, actor string) (int64, error)
	ClearAllDiscounts(ctx context.Context, actor string) (int64, error)
}

type service struct {
	catalog  catalog.Repository
	recorder audit.Recorder
}

func NewService(catalogRepo catalog.Repository, recorder audit.Recorder) Service {
	return &service{catalog: catalogRepo, recorder: recorder}
}

// ApplyCategoryDiscount puts every active product of the category on sale at
// the given percentage off. Pricing fields only; stock is never touched.
func (s *service) ApplyCategoryDiscount(ctx context.Context, categoryID uuid.UUID, percent float64, actor string) (int64, error) {
	if percent <= 0 || percent >= 100 {
		return 0, ErrPercentOutOfRange
	}

	exists, err := s.catalog.CategoryExists(ctx, categoryID)
	if err != nil {
		log.Error().Err(err).Stringer("category_id", categoryID).Msg("service: failed to check category")
		return 0, fmt.Errorf("service: failed to check category: %w", err)
	}
	if !exists {
		return 0, catalog.ErrCategoryNotFound
	}

	affected, err := s.catalog.ApplyCategoryDiscount(ctx, categoryID, percent)
	if err != nil {
		log.Error().Err(err).Stringer("category_id", categoryID).Float64("percent", percent).Msg("service: failed to apply category discount")
		return 0, fmt.Errorf("service: failed to apply category discount: %w", err)
	}

	log.Info().
		Stringer("category_id", categoryID).
		Float64("percent", percent).
		Int64("affected", affected).
		Msg("service: category discount applied")

	s.recorder.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      "discount.apply",
		Resource:    categoryID.String(),
		Description: fmt.Sprintf("applied %.1f%% discount to category", percent),
		Metadata:    map[string]any{"percent": percent, "affected": affected},
	})

	return affected, nil
}

func (s *service) ClearCategoryDiscount(ctx context.Context, categoryID uuid.UUID, actor string) (int64, error) {
	exists, err := s.catalog.CategoryExists(ctx, categoryID)
	if err != nil {
		log.Error().Err(err).Stringer("category_id", categoryID).Msg("service: failed to check category")
		return 0, fmt.Errorf("service: failed to check category: %w", err)
	}
	if !exists {
		return 0, catalog.ErrCategoryNotFound
	}

	affected, err := s.catalog.ClearCategoryDiscount(ctx, categoryID)
	if err != nil {
		log.Error().Err(err).Stringer("category_id", categoryID).Msg("service: failed to clear category discount")
		return 0, fmt.Errorf("service: failed to clear category discount: %w", err)
	}

	log.Info().Stringer("category_id", categoryID).Int64("affected", affected).Msg("service: category discount cleared")

	s.recorder.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      "discount.clear",
		Resource:    categoryID.String(),
		Description: "cleared category discount",
		Metadata:    map[string]any{"affected": affected},
	})

	return affected, nil
}

// ClearAllDiscounts is the store-wide kill switch.
func (s *service) ClearAllDiscounts(ctx context.Context, actor string) (int64, error) {
	affected, err := s.catalog.ClearAllDiscounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to clear all discounts")
		return 0, fmt.Errorf("service: failed to clear all discounts: %w", err)
	}

	log.Info().Int64("affected", affected).Msg("service: all discounts cleared")

	s.recorder.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      "discount.clear_all",
		Resource:    "products",
		Description: "cleared all discounts store-wide",
		Metadata:    map[string]any{"affected": affected},
	})

	return affected, nil
}
