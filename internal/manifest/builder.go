package manifest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin-core/internal/order"
)

var ErrEmptySelection = errors.New("manifest selection cannot be empty")

// ItemLine is one flattened fulfillment line, e.g. "2 x Hoodie (black/M)".
type ItemLine struct {
	Quantity int    `json:"quantity"`
	Label    string `json:"label"`
}

type OrderSheet struct {
	OrderNumber   int64             `json:"order_number"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	Status        order.OrderStatus `json:"status"`
	TotalAmount   float64           `json:"total_amount"`
	Notes         string            `json:"notes,omitempty"`
	Lines         []ItemLine        `json:"lines"`
}

// Document is a printable aggregation of the selected orders. Building one
// never mutates anything.
type Document struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Orders      []OrderSheet `json:"orders"`
	GrandTotal  float64      `json:"grand_total"`
}

type Builder interface {
	Build(ctx context.Context, orderIDs []uuid.UUID) (*Document, error)
}

type builder struct {
	orders  order.Repository
	catalog catalog.Repository
}

func NewBuilder(orders order.Repository, catalogRepo catalog.Repository) Builder {
	return &builder{orders: orders, catalog: catalogRepo}
}

func (b *builder) Build(ctx context.Context, orderIDs []uuid.UUID) (*Document, error) {
	if len(orderIDs) == 0 {
		return nil, ErrEmptySelection
	}

	selected, err := b.orders.GetOrdersByIDs(ctx, orderIDs)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, err
		}
		log.Error().Err(err).Msg("manifest: failed to fetch selected orders")
		return nil, fmt.Errorf("manifest: failed to fetch selected orders: %w", err)
	}

	// Variants repeat across orders; resolve each label once.
	labels := make(map[uuid.UUID]*catalog.VariantInfo)

	doc := &Document{
		GeneratedAt: time.Now().UTC(),
		Orders:      make([]OrderSheet, 0, len(selected)),
	}

	for _, o := range selected {
		sheet := OrderSheet{
			OrderNumber:   o.Number,
			CustomerName:  o.CustomerName,
			CustomerPhone: o.CustomerPhone,
			Status:        o.Status,
			TotalAmount:   o.TotalAmount,
			Notes:         o.Notes,
			Lines:         make([]ItemLine, 0, len(o.Items)),
		}

		for _, item := range o.Items {
			info, ok := labels[item.VariantID]
			if !ok {
				info, err = b.catalog.GetVariantInfo(ctx, item.VariantID)
				if err != nil {
					log.Error().Err(err).Stringer("variant_id", item.VariantID).Msg("manifest: failed to resolve variant label")
					return nil, fmt.Errorf("manifest: failed to resolve variant %s: %w", item.VariantID, err)
				}
				labels[item.VariantID] = info
			}

			sheet.Lines = append(sheet.Lines, ItemLine{
				Quantity: item.Quantity,
				Label:    fmt.Sprintf("%d x %s (%s/%s)", item.Quantity, info.ProductName, info.Color, info.Size),
			})
		}

		doc.Orders = append(doc.Orders, sheet)
		doc.GrandTotal += o.TotalAmount
	}

	return doc, nil
}
