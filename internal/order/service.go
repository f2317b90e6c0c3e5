package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/audit"
)

var (
	ErrNoItems               = errors.New("order must contain at least one item")
	ErrCustomerNameRequired  = errors.New("customer name is required")
	ErrCustomerPhoneRequired = errors.New("customer phone is required")
	ErrUnknownStatus         = errors.New("unknown order status")
)

type CreateOrderItemInput struct {
	VariantID uuid.UUID
	Quantity  int
	UnitPrice float64
}

type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	ShippingAddress ShippingAddress
	PaymentMethod   string
	Note            string
	Actor           string
	Items           []CreateOrderItemInput
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus, note, actor string) (*Order, error)
}

type service struct {
	repo     Repository
	recorder audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, recorder: recorder}
}

// CreateOrder validates the input, computes the order total from the cart
// lines and persists the order together with the stock reservation. Manual
// admin orders start out confirmed.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, ErrNoItems
	}
	if input.CustomerName == "" {
		return nil, ErrCustomerNameRequired
	}
	if input.CustomerPhone == "" {
		return nil, ErrCustomerPhoneRequired
	}

	totalAmount := 0.0
	items := make([]OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.VariantID == uuid.Nil {
			return nil, errors.New("service: variant id in order item cannot be nil")
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("service: order item quantity for variant %s must be greater than zero", line.VariantID)
		}
		if line.UnitPrice < 0 {
			return nil, fmt.Errorf("service: order item unit price for variant %s cannot be negative", line.VariantID)
		}

		items = append(items, OrderItem{
			VariantID:       line.VariantID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.UnitPrice,
		})
		totalAmount += float64(line.Quantity) * line.UnitPrice
	}

	newOrder := &Order{
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		Status:          StatusConfirmed,
		TotalAmount:     totalAmount,
		Items:           items,
	}
	if input.Note != "" {
		newOrder.AppendNote(input.Note, time.Now().UTC())
	}

	if err := s.repo.CreateOrder(ctx, newOrder); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", newOrder.ID).
		Int64("order_number", newOrder.Number).
		Float64("total_amount", newOrder.TotalAmount).
		Msg("service: order created")

	s.recorder.Record(ctx, audit.Entry{
		Actor:       input.Actor,
		Action:      "order.create",
		Resource:    newOrder.ID.String(),
		Description: fmt.Sprintf("created order #%d for %s", newOrder.Number, newOrder.CustomerName),
		Metadata:    map[string]any{"total_amount": newOrder.TotalAmount, "items": len(newOrder.Items)},
	})

	return newOrder, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.repo.ListOrders(ctx, status, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

// Transition moves the order to newStatus under the transition table. The
// repository performs the status check, the stock restoration for a
// cancellation and the status write in one transaction.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus, note, actor string) (*Order, error) {
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, newStatus)
	}

	updated, err := s.repo.TransitionStatus(ctx, orderID, newStatus, note)
	if err != nil {
		var transitionErr *InvalidTransitionError
		switch {
		case errors.Is(err, ErrOrderNotFound):
			log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return nil, ErrOrderNotFound
		case errors.As(err, &transitionErr):
			log.Warn().
				Stringer("order_id", orderID).
				Stringer("current_status", transitionErr.From).
				Stringer("new_status", transitionErr.To).
				Msg("service: invalid status transition attempt")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", orderID).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")

	s.recorder.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      "order.status_change",
		Resource:    orderID.String(),
		Description: fmt.Sprintf("order #%d moved to %s", updated.Number, newStatus),
		Metadata:    map[string]any{"status": newStatus.String()},
	})

	return updated, nil
}
