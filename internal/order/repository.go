package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/inventory"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus, note string) (*Order, error)
}

type postgresRepository struct {
	db         *pgxpool.Pool
	reconciler *inventory.Reconciler
}

func NewRepository(db *pgxpool.Pool, reconciler *inventory.Reconciler) Repository {
	return &postgresRepository{db: db, reconciler: reconciler}
}

// CreateOrder persists the order with its items and reserves stock for every
// line, all inside one transaction. If any variant lacks stock, nothing is
// persisted and nothing is deducted.
func (r *postgresRepository) CreateOrder(ctx context.Context, orderInput *Order) (err error) {
	if orderInput.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		orderInput.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderInput.ID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderInput.ID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderInput.ID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, customer_name, customer_phone,
			shipping_street, shipping_city, shipping_state, shipping_postal_code, shipping_country,
			payment_method, status, total_amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING order_number
	`
	err = tx.QueryRow(ctx, queryOrder,
		orderInput.ID,
		orderInput.CustomerName,
		orderInput.CustomerPhone,
		orderInput.ShippingAddress.Street,
		orderInput.ShippingAddress.City,
		orderInput.ShippingAddress.State,
		orderInput.ShippingAddress.PostalCode,
		orderInput.ShippingAddress.Country,
		orderInput.PaymentMethod,
		string(orderInput.Status),
		orderInput.TotalAmount,
		orderInput.Notes,
		now,
		now,
	).Scan(&orderInput.Number)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	orderInput.CreatedAt = now
	orderInput.UpdatedAt = now

	queryItem := `
		INSERT INTO order_items (id, order_id, variant_id, quantity, price_at_purchase, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	reserveLines := make([]inventory.Line, 0, len(orderInput.Items))
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
		}
		item.ID = itemID
		item.OrderID = orderInput.ID
		item.CreatedAt = now

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.VariantID,
			item.Quantity,
			item.PriceAtPurchase,
			item.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return fmt.Errorf("repository: %w: %s", inventory.ErrVariantNotFound, item.VariantID)
			}
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", orderInput.ID, err)
		}

		reserveLines = append(reserveLines, inventory.Line{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	err = r.reconciler.Reserve(ctx, tx, reserveLines)
	if err != nil {
		return err
	}

	return nil
}

// TransitionStatus applies a status change under the transition table. The
// current status is read with FOR UPDATE so two concurrent transitions on
// the same order serialize; a transition into cancelled restores stock for
// every line item in the same transaction as the status write, so stock is
// restored exactly once or not at all.
func (r *postgresRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus, note string) (result *Order, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
				result = nil
			}
		}
	}()

	current, err := scanOrder(tx.QueryRow(ctx, selectOrderQuery+` WHERE id = $1 FOR UPDATE`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s for update: %w", orderID, err)
	}

	if !CanTransition(current.Status, newStatus) {
		return nil, &InvalidTransitionError{From: current.Status, To: newStatus}
	}

	items, err := r.loadItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	current.Items = items

	if newStatus == StatusCancelled {
		restoreLines := make([]inventory.Line, 0, len(items))
		for _, item := range items {
			restoreLines = append(restoreLines, inventory.Line{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		if err = r.reconciler.Restore(ctx, tx, restoreLines); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if note != "" {
		current.AppendNote(note, now)
	}
	current.Status = newStatus
	current.UpdatedAt = now

	query := `
		UPDATE orders
		SET status = $1, notes = $2, updated_at = $3
		WHERE id = $4
	`
	_, err = tx.Exec(ctx, query, string(newStatus), current.Notes, now, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	return current, nil
}

const selectOrderQuery = `
	SELECT id, order_number, customer_name, customer_phone,
		shipping_street, shipping_city, shipping_state, shipping_postal_code, shipping_country,
		payment_method, status, total_amount, notes, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.Number,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&o.PaymentMethod,
		&o.Status,
		&o.TotalAmount,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepository) loadItems(ctx context.Context, q pgxQuerier, orderID uuid.UUID) ([]OrderItem, error) {
	query := `
		SELECT id, order_id, variant_id, quantity, price_at_purchase, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.VariantID,
			&item.Quantity,
			&item.PriceAtPurchase,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", orderID, err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, selectOrderQuery+` WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	items, err := r.loadItems(ctx, r.db, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// GetOrdersByIDs returns the orders for the given ids with items attached,
// in the order the ids were given. Every id must exist.
func (r *postgresRepository) GetOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error) {
	rows, err := r.db.Query(ctx, selectOrderQuery+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders by ids: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order, len(ids))
	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", scanErr)
		}
		o.Items = make([]OrderItem, 0)
		ordersMap[o.ID] = o
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	for _, id := range ids {
		if _, ok := ordersMap[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
	}

	itemsQuery := `
		SELECT id, order_id, variant_id, quantity, price_at_purchase, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at
	`
	itemRows, err := r.db.Query(ctx, itemsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items by ids: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.VariantID,
			&item.Quantity,
			&item.PriceAtPurchase,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	result := make([]Order, 0, len(ids))
	for _, id := range ids {
		result = append(result, *ordersMap[id])
	}

	return result, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.Query(ctx, selectOrderQuery+` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			string(status), limit, offset)
	} else {
		rows, err = r.db.Query(ctx, selectOrderQuery+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", scanErr)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}
