package manifest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin-core/internal/manifest"
	"github.com/vasiliy-maslov/shop-admin-core/internal/order"
)

type mockOrderRepository struct {
	getOrdersByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]order.Order, error)
}

func (m *mockOrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	panic("not used")
}

func (m *mockOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	panic("not used")
}

func (m *mockOrderRepository) GetOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
	return m.getOrdersByIDsFunc(ctx, ids)
}

func (m *mockOrderRepository) ListOrders(ctx context.Context, status order.OrderStatus, limit, offset int) ([]order.Order, error) {
	panic("not used")
}

func (m *mockOrderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus order.OrderStatus, note string) (*order.Order, error) {
	panic("not used")
}

type mockCatalogRepository struct {
	getVariantInfoFunc func(ctx context.Context, variantID uuid.UUID) (*catalog.VariantInfo, error)
	lookups            int
}

func (m *mockCatalogRepository) GetVariantInfo(ctx context.Context, variantID uuid.UUID) (*catalog.VariantInfo, error) {
	m.lookups++
	return m.getVariantInfoFunc(ctx, variantID)
}

func (m *mockCatalogRepository) SearchVariants(ctx context.Context, query string, limit int) ([]catalog.VariantInfo, error) {
	panic("not used")
}

func (m *mockCatalogRepository) CategoryExists(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	panic("not used")
}

func (m *mockCatalogRepository) ApplyCategoryDiscount(ctx context.Context, categoryID uuid.UUID, percent float64) (int64, error) {
	panic("not used")
}

func (m *mockCatalogRepository) ClearCategoryDiscount(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	panic("not used")
}

func (m *mockCatalogRepository) ClearAllDiscounts(ctx context.Context) (int64, error) {
	panic("not used")
}

func TestBuilder_Build_EmptySelection(t *testing.T) {
	b := manifest.NewBuilder(&mockOrderRepository{}, &mockCatalogRepository{})

	_, err := b.Build(context.Background(), nil)
	assert.True(t, errors.Is(err, manifest.ErrEmptySelection))

	_, err = b.Build(context.Background(), []uuid.UUID{})
	assert.True(t, errors.Is(err, manifest.ErrEmptySelection))
}

func TestBuilder_Build_OrderNotFound(t *testing.T) {
	missing := uuid.Must(uuid.NewV4())
	orders := &mockOrderRepository{
		getOrdersByIDsFunc: func(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
			return nil, fmt.Errorf("%w: %s", order.ErrOrderNotFound, missing)
		},
	}
	b := manifest.NewBuilder(orders, &mockCatalogRepository{})

	_, err := b.Build(context.Background(), []uuid.UUID{missing})
	assert.True(t, errors.Is(err, order.ErrOrderNotFound))
}

func TestBuilder_Build_Document(t *testing.T) {
	variantA := uuid.Must(uuid.NewV4())
	variantB := uuid.Must(uuid.NewV4())
	orderID1 := uuid.Must(uuid.NewV4())
	orderID2 := uuid.Must(uuid.NewV4())

	orders := &mockOrderRepository{
		getOrdersByIDsFunc: func(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
			return []order.Order{
				{
					ID:            orderID1,
					Number:        1001,
					CustomerName:  "Anna Petrova",
					CustomerPhone: "+79161234567",
					Status:        order.StatusConfirmed,
					TotalAmount:   3499.90,
					Notes:         "[2026-05-01T10:00:00Z] call before delivery",
					Items: []order.OrderItem{
						{VariantID: variantA, Quantity: 2, PriceAtPurchase: 1500},
						{VariantID: variantB, Quantity: 1, PriceAtPurchase: 499.90},
					},
				},
				{
					ID:            orderID2,
					Number:        1002,
					CustomerName:  "Ivan Sidorov",
					CustomerPhone: "+79167654321",
					Status:        order.StatusProcessing,
					TotalAmount:   1500,
					Items: []order.OrderItem{
						{VariantID: variantA, Quantity: 1, PriceAtPurchase: 1500},
					},
				},
			}, nil
		},
	}

	infos := map[uuid.UUID]*catalog.VariantInfo{
		variantA: {VariantID: variantA, ProductName: "Hoodie", Color: "black", Size: "M"},
		variantB: {VariantID: variantB, ProductName: "Cap", Color: "red", Size: "OS"},
	}
	catalogRepo := &mockCatalogRepository{
		getVariantInfoFunc: func(ctx context.Context, variantID uuid.UUID) (*catalog.VariantInfo, error) {
			info, ok := infos[variantID]
			if !ok {
				return nil, catalog.ErrVariantNotFound
			}
			return info, nil
		},
	}

	b := manifest.NewBuilder(orders, catalogRepo)
	doc, err := b.Build(context.Background(), []uuid.UUID{orderID1, orderID2})
	require.NoError(t, err)

	assert.InDelta(t, 3499.90+1500, doc.GrandTotal, 0.001)
	require.Len(t, doc.Orders, 2)

	wantFirst := manifest.OrderSheet{
		OrderNumber:   1001,
		CustomerName:  "Anna Petrova",
		CustomerPhone: "+79161234567",
		Status:        order.StatusConfirmed,
		TotalAmount:   3499.90,
		Notes:         "[2026-05-01T10:00:00Z] call before delivery",
		Lines: []manifest.ItemLine{
			{Quantity: 2, Label: "2 x Hoodie (black/M)"},
			{Quantity: 1, Label: "1 x Cap (red/OS)"},
		},
	}
	if diff := cmp.Diff(wantFirst, doc.Orders[0]); diff != "" {
		t.Errorf("first order sheet mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []manifest.ItemLine{{Quantity: 1, Label: "1 x Hoodie (black/M)"}}, doc.Orders[1].Lines)

	// Variant A appears in both orders but is resolved once.
	assert.Equal(t, 2, catalogRepo.lookups)
}

func TestBuilder_Build_VariantLookupFails(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())
	orders := &mockOrderRepository{
		getOrdersByIDsFunc: func(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
			return []order.Order{
				{ID: orderID, Items: []order.OrderItem{{VariantID: uuid.Must(uuid.NewV4()), Quantity: 1}}},
			}, nil
		},
	}
	catalogRepo := &mockCatalogRepository{
		getVariantInfoFunc: func(ctx context.Context, variantID uuid.UUID) (*catalog.VariantInfo, error) {
			return nil, catalog.ErrVariantNotFound
		},
	}

	b := manifest.NewBuilder(orders, catalogRepo)
	_, err := b.Build(context.Background(), []uuid.UUID{orderID})
	assert.True(t, errors.Is(err, catalog.ErrVariantNotFound))
}
