package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrVariantNotFound  = errors.New("variant not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repository interface {
	GetVariantInfo(ctx context.Context, variantID uuid.UUID) (*VariantInfo, error)
	SearchVariants(ctx context.Context, query string, limit int) ([]VariantInfo, error)
	CategoryExists(ctx context.Context, categoryID uuid.UUID) (bool, error)
	ApplyCategoryDiscount(ctx context.Context, categoryID uuid.UUID, percent float64) (int64, error)
	ClearCategoryDiscount(ctx context.Context, categoryID uuid.UUID) (int64, error)
	ClearAllDiscounts(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetVariantInfo(ctx context.Context, variantID uuid.UUID) (*VariantInfo, error) {
	query := `
		SELECT v.id, p.name, v.color, v.size, v.sku, v.stock, p.price
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
	`

	var info VariantInfo
	err := r.db.QueryRow(ctx, query, variantID).Scan(
		&info.VariantID,
		&info.ProductName,
		&info.Color,
		&info.Size,
		&info.SKU,
		&info.Stock,
		&info.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("repository: failed to select variant %s: %w", variantID, err)
	}

	return &info, nil
}

func (r *postgresRepository) SearchVariants(ctx context.Context, query string, limit int) ([]VariantInfo, error) {
	sqlQuery := `
		SELECT v.id, p.name, v.color, v.size, v.sku, v.stock, p.price
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.sku ILIKE '%' || $1 || '%' OR p.name ILIKE '%' || $1 || '%'
		ORDER BY v.sku
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to search variants for %q: %w", query, err)
	}
	defer rows.Close()

	results := make([]VariantInfo, 0)
	for rows.Next() {
		var info VariantInfo
		err := rows.Scan(
			&info.VariantID,
			&info.ProductName,
			&info.Color,
			&info.Size,
			&info.SKU,
			&info.Stock,
			&info.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan variant row: %w", err)
		}
		results = append(results, info)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating variant rows: %w", err)
	}

	return results, nil
}

func (r *postgresRepository) CategoryExists(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check category %s: %w", categoryID, err)
	}
	return exists, nil
}

// ApplyCategoryDiscount sets the sale price on every active product in the
// category in a single statement, so concurrent catalog edits can never
// observe a half-applied discount.
func (r *postgresRepository) ApplyCategoryDiscount(ctx context.Context, categoryID uuid.UUID, percent float64) (int64, error) {
	query := `
		UPDATE products
		SET sale_price = ROUND(price * (1 - $2::numeric / 100), 2),
		    is_on_sale = TRUE,
		    updated_at = now()
		WHERE category_id = $1 AND is_active = TRUE
	`

	cmdTag, err := r.db.Exec(ctx, query, categoryID, percent)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to apply discount for category %s: %w", categoryID, err)
	}

	return cmdTag.RowsAffected(), nil
}

func (r *postgresRepository) ClearCategoryDiscount(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	query := `
		UPDATE products
		SET sale_price = NULL,
		    is_on_sale = FALSE,
		    updated_at = now()
		WHERE category_id = $1
	`

	cmdTag, err := r.db.Exec(ctx, query, categoryID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to clear discount for category %s: %w", categoryID, err)
	}

	return cmdTag.RowsAffected(), nil
}

// ClearAllDiscounts is the emergency stop: a whole-table update with no
// filter predicate, which SQL permits directly.
func (r *postgresRepository) ClearAllDiscounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE products
		SET sale_price = NULL,
		    is_on_sale = FALSE,
		    updated_at = now()
	`

	cmdTag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to clear all discounts: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
