package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin-core/internal/inventory"
)

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	execFunc     func(call execCall) (pgconn.CommandTag, error)
	queryRowFunc func(sql string, args []any) pgx.Row
	calls        []execCall
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	call := execCall{sql: sql, args: args}
	f.calls = append(f.calls, call)
	return f.execFunc(call)
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.queryRowFunc(sql, args)
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

func TestReconciler_Reserve_Success(t *testing.T) {
	rc := inventory.NewReconciler()
	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	lines := []inventory.Line{
		{VariantID: uuid.Must(uuid.NewV4()), Quantity: 2},
		{VariantID: uuid.Must(uuid.NewV4()), Quantity: 5},
	}

	err := rc.Reserve(context.Background(), q, lines)
	require.NoError(t, err)
	require.Len(t, q.calls, 2)

	for i, call := range q.calls {
		assert.Contains(t, call.sql, "stock = stock - $1")
		assert.Contains(t, call.sql, "stock >= $1")
		assert.Equal(t, lines[i].Quantity, call.args[0])
		assert.Equal(t, lines[i].VariantID, call.args[1])
	}
}

func TestReconciler_Reserve_InsufficientStock(t *testing.T) {
	rc := inventory.NewReconciler()
	blocked := uuid.Must(uuid.NewV4())

	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			// Conditioned decrement matches no row: stock is short.
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRowFunc: func(sql string, args []any) pgx.Row {
			return fakeRow{scanFunc: func(dest ...any) error {
				*(dest[0].(*int)) = 3
				return nil
			}}
		},
	}

	err := rc.Reserve(context.Background(), q, []inventory.Line{{VariantID: blocked, Quantity: 10}})
	require.Error(t, err)

	var stockErr *inventory.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, blocked, stockErr.VariantID)
	assert.Equal(t, 10, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
	assert.True(t, strings.Contains(stockErr.Error(), "requested 10, available 3"))
}

func TestReconciler_Reserve_VariantNotFound(t *testing.T) {
	rc := inventory.NewReconciler()
	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRowFunc: func(sql string, args []any) pgx.Row {
			return fakeRow{scanFunc: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	err := rc.Reserve(context.Background(), q, []inventory.Line{{VariantID: uuid.Must(uuid.NewV4()), Quantity: 1}})
	assert.True(t, errors.Is(err, inventory.ErrVariantNotFound))
}

func TestReconciler_Reserve_RejectsNonPositiveQuantity(t *testing.T) {
	rc := inventory.NewReconciler()
	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			t.Fatal("no statement must run for an invalid quantity")
			return pgconn.CommandTag{}, nil
		},
	}

	for _, quantity := range []int{0, -1} {
		err := rc.Reserve(context.Background(), q, []inventory.Line{{VariantID: uuid.Must(uuid.NewV4()), Quantity: quantity}})
		assert.True(t, errors.Is(err, inventory.ErrInvalidQuantity))
	}
	assert.Empty(t, q.calls)
}

func TestReconciler_Restore_Success(t *testing.T) {
	rc := inventory.NewReconciler()
	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	lines := []inventory.Line{{VariantID: uuid.Must(uuid.NewV4()), Quantity: 3}}
	err := rc.Restore(context.Background(), q, lines)
	require.NoError(t, err)
	require.Len(t, q.calls, 1)

	// Restoration is an unconditional atomic increment.
	assert.Contains(t, q.calls[0].sql, "stock = stock + $1")
	assert.NotContains(t, q.calls[0].sql, "stock >=")
	assert.Equal(t, 3, q.calls[0].args[0])
	assert.Equal(t, lines[0].VariantID, q.calls[0].args[1])
}

func TestReconciler_Restore_VariantNotFound(t *testing.T) {
	rc := inventory.NewReconciler()
	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	err := rc.Restore(context.Background(), q, []inventory.Line{{VariantID: uuid.Must(uuid.NewV4()), Quantity: 3}})
	assert.True(t, errors.Is(err, inventory.ErrVariantNotFound))
}

func TestReconciler_Restore_RejectsNonPositiveQuantity(t *testing.T) {
	rc := inventory.NewReconciler()
	q := &fakeQuerier{
		execFunc: func(call execCall) (pgconn.CommandTag, error) {
			t.Fatal("no statement must run for an invalid quantity")
			return pgconn.CommandTag{}, nil
		},
	}

	err := rc.Restore(context.Background(), q, []inventory.Line{{VariantID: uuid.Must(uuid.NewV4()), Quantity: 0}})
	assert.True(t, errors.Is(err, inventory.ErrInvalidQuantity))
}
