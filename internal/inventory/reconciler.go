package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

var (
	ErrVariantNotFound = errors.New("variant not found")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// InsufficientStockError reports the variant that blocked a reservation so
// the operator can be told which item failed.
type InsufficientStockError struct {
	VariantID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d",
		e.VariantID, e.Requested, e.Available)
}

// Line is one variant/quantity pair to reserve or restore.
type Line struct {
	VariantID uuid.UUID
	Quantity  int
}

// Querier is the subset of pgx that the reconciler needs. Both pgx.Tx and
// *pgxpool.Pool satisfy it; callers that need all-or-nothing semantics pass
// a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Reconciler keeps variant stock consistent with the net effect of order
// reservations and restorations. It holds no state of its own; every
// mutation is a single conditioned statement against the store.
type Reconciler struct{}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reserve decrements stock for every line. Each decrement is conditioned on
// sufficient stock in the same statement, so two concurrent orders can never
// drive a variant negative. Any failure aborts with an error; the caller's
// transaction makes the batch all-or-nothing.
func (rc *Reconciler) Reserve(ctx context.Context, q Querier, lines []Line) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("reconciler: variant %s: %w", line.VariantID, ErrInvalidQuantity)
		}

		query := `
			UPDATE variants
			SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND stock >= $1
		`
		cmdTag, err := q.Exec(ctx, query, line.Quantity, line.VariantID)
		if err != nil {
			return fmt.Errorf("reconciler: failed to reserve stock for variant %s: %w", line.VariantID, err)
		}
		if cmdTag.RowsAffected() > 0 {
			continue
		}

		// No row matched: either the variant is missing or stock fell short.
		var available int
		err = q.QueryRow(ctx, `SELECT stock FROM variants WHERE id = $1`, line.VariantID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("reconciler: %w: %s", ErrVariantNotFound, line.VariantID)
			}
			return fmt.Errorf("reconciler: failed to read stock for variant %s: %w", line.VariantID, err)
		}

		log.Warn().
			Stringer("variant_id", line.VariantID).
			Int("requested", line.Quantity).
			Int("available", available).
			Msg("reconciler: reservation blocked by insufficient stock")

		return &InsufficientStockError{
			VariantID: line.VariantID,
			Requested: line.Quantity,
			Available: available,
		}
	}

	return nil
}

// Restore increments stock for every line. Restoring after a cancellation is
// always valid (the quantity was previously deducted from the same variant),
// so the increment is unconditional and atomic.
func (rc *Reconciler) Restore(ctx context.Context, q Querier, lines []Line) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("reconciler: variant %s: %w", line.VariantID, ErrInvalidQuantity)
		}

		query := `
			UPDATE variants
			SET stock = stock + $1, updated_at = now()
			WHERE id = $2
		`
		cmdTag, err := q.Exec(ctx, query, line.Quantity, line.VariantID)
		if err != nil {
			return fmt.Errorf("reconciler: failed to restore stock for variant %s: %w", line.VariantID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("reconciler: %w: %s", ErrVariantNotFound, line.VariantID)
		}
	}

	return nil
}
