package order

import (
	"context"
	"errors"
	"testing"

	"github.com/example/homelyeats/pkg/cart"
	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStore struct {
	orders       map[string]*models.Order
	items        map[string][]models.OrderItem
	itemsErr     error
	deleted      []string
	transitioned []string
}

func newMockStore() *mockStore {
	return &mockStore{
		orders: make(map[string]*models.Order),
		items:  make(map[string][]models.OrderItem),
	}
}

func (m *mockStore) CreateOrder(_ context.Context, order *models.Order) error {
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockStore) CreateOrderItems(_ context.Context, items []models.OrderItem) error {
	if m.itemsErr != nil {
		return m.itemsErr
	}
	for _, it := range items {
		m.items[it.OrderID] = append(m.items[it.OrderID], it)
	}
	return nil
}

func (m *mockStore) DeleteOrder(_ context.Context, orderID string) error {
	delete(m.orders, orderID)
	delete(m.items, orderID)
	m.deleted = append(m.deleted, orderID)
	return nil
}

func (m *mockStore) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, errs.NotFoundf("order %s", orderID)
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) GetOrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockStore) ListOrders(_ context.Context, userID string, _, _ int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range m.orders {
		if userID == "" || o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockStore) TransitionOrder(_ context.Context, orderID string, from, to models.OrderStatus, updates map[string]interface{}) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.transitioned = append(m.transitioned, orderID+":"+string(from)+"->"+string(to))
	return true, nil
}

type mockCarts struct {
	cleared  []cart.Identity
	clearErr error
}

func (m *mockCarts) Clear(_ context.Context, id cart.Identity) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = append(m.cleared, id)
	return nil
}

func sampleLines() []models.CartLine {
	return []models.CartLine{
		{DishID: "A", Name: "Butter Chicken", UnitPrice: 1250, Quantity: 2},
		{DishID: "B", Name: "Garlic Naan", UnitPrice: 700, Quantity: 1},
	}
}

func sampleInput() CheckoutInput {
	return CheckoutInput{DeliveryAddress: "12 Elm St", ContactNumber: "555-0100"}
}

func TestCheckout_CreatesOrderWithCapturedPrices(t *testing.T) {
	store := newMockStore()
	carts := &mockCarts{}
	svc := NewService(store, carts, zap.NewNop())

	identity := cart.Identity{UserID: "u1"}
	ord, err := svc.Checkout(context.Background(), identity, sampleLines(), sampleInput())

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, ord.Status)
	assert.Equal(t, int64(3200), ord.TotalAmount)
	assert.Equal(t, "u1", ord.UserID)
	assert.NotEmpty(t, ord.ID)

	items := store.items[ord.ID]
	require.Len(t, items, 2)
	assert.Equal(t, int64(1250), items[0].PriceAtTime)
	assert.Equal(t, int32(2), items[0].Quantity)
	assert.Equal(t, int64(700), items[1].PriceAtTime)

	// Cart cleared exactly once, after persistence.
	require.Len(t, carts.cleared, 1)
	assert.Equal(t, identity, carts.cleared[0])
}

func TestCheckout_Validation(t *testing.T) {
	store := newMockStore()
	carts := &mockCarts{}
	svc := NewService(store, carts, zap.NewNop())
	identity := cart.Identity{UserID: "u1"}

	_, err := svc.Checkout(context.Background(), identity, nil, sampleInput())
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Checkout(context.Background(), identity, sampleLines(),
		CheckoutInput{DeliveryAddress: "   ", ContactNumber: "555-0100"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Checkout(context.Background(), identity, sampleLines(),
		CheckoutInput{DeliveryAddress: "12 Elm St", ContactNumber: "\t"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Checkout(context.Background(), cart.Identity{SessionID: "anon"}, sampleLines(), sampleInput())
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	// Nothing persisted, nothing cleared.
	assert.Empty(t, store.orders)
	assert.Empty(t, carts.cleared)
}

func TestCheckout_RollsBackOrderWhenItemsFail(t *testing.T) {
	store := newMockStore()
	store.itemsErr = errors.New("insert exploded")
	carts := &mockCarts{}
	svc := NewService(store, carts, zap.NewNop())

	_, err := svc.Checkout(context.Background(), cart.Identity{UserID: "u1"}, sampleLines(), sampleInput())

	require.Error(t, err)
	// No orphaned zero-item order survives.
	assert.Empty(t, store.orders)
	assert.Len(t, store.deleted, 1)
	// And the cart is untouched so the customer can retry.
	assert.Empty(t, carts.cleared)
}

func TestCheckout_SucceedsEvenIfCartClearFails(t *testing.T) {
	store := newMockStore()
	carts := &mockCarts{clearErr: errors.New("redis down")}
	svc := NewService(store, carts, zap.NewNop())

	ord, err := svc.Checkout(context.Background(), cart.Identity{UserID: "u1"}, sampleLines(), sampleInput())

	require.NoError(t, err)
	assert.Contains(t, store.orders, ord.ID)
}

func TestGet_EnforcesOwnership(t *testing.T) {
	store := newMockStore()
	store.orders["o1"] = &models.Order{ID: "o1", UserID: "u1", Status: models.OrderStatusPending}
	svc := NewService(store, &mockCarts{}, zap.NewNop())

	_, err := svc.Get(context.Background(), "u2", "o1")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	ord, err := svc.Get(context.Background(), "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", ord.ID)

	_, err = svc.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAdminSetStatus(t *testing.T) {
	store := newMockStore()
	store.orders["o1"] = &models.Order{ID: "o1", UserID: "u1", Status: models.OrderStatusConfirmed}
	svc := NewService(store, &mockCarts{}, zap.NewNop())

	ord, err := svc.AdminSetStatus(context.Background(), "o1", models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, ord.Status)

	// Illegal override is rejected before any write.
	_, err = svc.AdminSetStatus(context.Background(), "o1", models.OrderStatusPaid)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Len(t, store.transitioned, 1)
}
