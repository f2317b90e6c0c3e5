package discount_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin-core/internal/audit"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin-core/internal/discount"
)

type mockCatalogRepository struct {
	categoryExistsFunc        func(ctx context.Context, categoryID uuid.UUID) (bool, error)
	applyCategoryDiscountFunc func(ctx context.Context, categoryID uuid.UUID, percent float64) (int64, error)
	clearCategoryDiscountFunc func(ctx context.Context, categoryID uuid.UUID) (int64, error)
	clearAllDiscountsFunc     func(ctx context.Context) (int64, error)
}

func (m *mockCatalogRepository) GetVariantInfo(ctx context.Context, variantID uuid.UUID) (*catalog.VariantInfo, error) {
	panic("not used")
}

func (m *mockCatalogRepository) SearchVariants(ctx context.Context, query string, limit int) ([]catalog.VariantInfo, error) {
	panic("not used")
}

func (m *mockCatalogRepository) CategoryExists(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	return m.categoryExistsFunc(ctx, categoryID)
}

func (m *mockCatalogRepository) ApplyCategoryDiscount(ctx context.Context, categoryID uuid.UUID, percent float64) (int64, error) {
	return m.applyCategoryDiscountFunc(ctx, categoryID, percent)
}

func (m *mockCatalogRepository) ClearCategoryDiscount(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	return m.clearCategoryDiscountFunc(ctx, categoryID)
}

func (m *mockCatalogRepository) ClearAllDiscounts(ctx context.Context) (int64, error) {
	return m.clearAllDiscountsFunc(ctx)
}

func TestDiscountService_ApplyCategoryDiscount_PercentBounds(t *testing.T) {
	repo := &mockCatalogRepository{
		categoryExistsFunc: func(ctx context.Context, categoryID uuid.UUID) (bool, error) {
			t.Fatal("repository must not be called for an out-of-range percent")
			return false, nil
		},
	}
	svc := discount.NewService(repo, audit.Noop{})
	categoryID := uuid.Must(uuid.NewV4())

	for _, percent := range []float64{0, -5, 100, 150} {
		_, err := svc.ApplyCategoryDiscount(context.Background(), categoryID, percent, "admin")
		assert.Truef(t, errors.Is(err, discount.ErrPercentOutOfRange), "percent %v", percent)
	}
}

func TestDiscountService_ApplyCategoryDiscount_CategoryNotFound(t *testing.T) {
	repo := &mockCatalogRepository{
		categoryExistsFunc: func(ctx context.Context, categoryID uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc := discount.NewService(repo, audit.Noop{})

	_, err := svc.ApplyCategoryDiscount(context.Background(), uuid.Must(uuid.NewV4()), 20, "admin")
	assert.True(t, errors.Is(err, catalog.ErrCategoryNotFound))
}

func TestDiscountService_ApplyCategoryDiscount_Success(t *testing.T) {
	categoryID := uuid.Must(uuid.NewV4())
	var gotPercent float64

	repo := &mockCatalogRepository{
		categoryExistsFunc: func(ctx context.Context, id uuid.UUID) (bool, error) {
			return true, nil
		},
		applyCategoryDiscountFunc: func(ctx context.Context, id uuid.UUID, percent float64) (int64, error) {
			assert.Equal(t, categoryID, id)
			gotPercent = percent
			return 7, nil
		},
	}
	svc := discount.NewService(repo, audit.Noop{})

	affected, err := svc.ApplyCategoryDiscount(context.Background(), categoryID, 20, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(7), affected)
	assert.Equal(t, 20.0, gotPercent)
}

func TestDiscountService_ClearCategoryDiscount(t *testing.T) {
	categoryID := uuid.Must(uuid.NewV4())

	t.Run("category_not_found", func(t *testing.T) {
		repo := &mockCatalogRepository{
			categoryExistsFunc: func(ctx context.Context, id uuid.UUID) (bool, error) {
				return false, nil
			},
		}
		svc := discount.NewService(repo, audit.Noop{})

		_, err := svc.ClearCategoryDiscount(context.Background(), categoryID, "admin")
		assert.True(t, errors.Is(err, catalog.ErrCategoryNotFound))
	})

	t.Run("success", func(t *testing.T) {
		repo := &mockCatalogRepository{
			categoryExistsFunc: func(ctx context.Context, id uuid.UUID) (bool, error) {
				return true, nil
			},
			clearCategoryDiscountFunc: func(ctx context.Context, id uuid.UUID) (int64, error) {
				return 4, nil
			},
		}
		svc := discount.NewService(repo, audit.Noop{})

		affected, err := svc.ClearCategoryDiscount(context.Background(), categoryID, "admin")
		require.NoError(t, err)
		assert.Equal(t, int64(4), affected)
	})
}

func TestDiscountService_ClearAllDiscounts(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := &mockCatalogRepository{
			clearAllDiscountsFunc: func(ctx context.Context) (int64, error) {
				return 120, nil
			},
		}
		svc := discount.NewService(repo, audit.Noop{})

		affected, err := svc.ClearAllDiscounts(context.Background(), "admin")
		require.NoError(t, err)
		assert.Equal(t, int64(120), affected)
	})

	t.Run("store_error", func(t *testing.T) {
		repo := &mockCatalogRepository{
			clearAllDiscountsFunc: func(ctx context.Context) (int64, error) {
				return 0, errors.New("connection reset")
			},
		}
		svc := discount.NewService(repo, audit.Noop{})

		_, err := svc.ClearAllDiscounts(context.Background(), "admin")
		assert.Error(t, err)
	})
}
