package order

import (
	"context"
	"strings"
	"time"

	"github.com/example/homelyeats/pkg/cart"
	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is what the order service needs from durable storage. The backing
// store guarantees single-row atomicity only, hence the compensating delete
// in Checkout.
type Store interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	ListOrders(ctx context.Context, userID string, page, pageSize int) ([]models.Order, int64, error)
	TransitionOrder(ctx context.Context, orderID string, from, to models.OrderStatus, updates map[string]interface{}) (bool, error)
}

// CartClearer clears the cart that produced an order, strictly after the
// order is durable.
type CartClearer interface {
	Clear(ctx context.Context, id cart.Identity) error
}

type Service struct {
	store  Store
	carts  CartClearer
	logger *zap.Logger
}

func NewService(store Store, carts CartClearer, logger *zap.Logger) *Service {
	return &Service{store: store, carts: carts, logger: logger}
}

type CheckoutInput struct {
	DeliveryAddress     string
	ContactNumber       string
	SpecialInstructions string
}

// Checkout turns a cart snapshot into a pending order plus its items.
// priceAtTime is copied from the cart lines, not re-fetched from the catalog,
// so the invoice stays accurate through later price changes. If item
// insertion fails the just-created order row is deleted again; an order with
// zero items must never survive in a non-terminal state. The cart is cleared
// only after everything is persisted.
func (s *Service) Checkout(ctx context.Context, identity cart.Identity, lines []models.CartLine, in CheckoutInput) (*models.Order, error) {
	if !identity.Authenticated() {
		return nil, errs.Unauthorizedf("sign in to place an order")
	}
	if len(lines) == 0 {
		return nil, errs.Validationf("cart is empty")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return nil, errs.Validationf("delivery address is required")
	}
	if strings.TrimSpace(in.ContactNumber) == "" {
		return nil, errs.Validationf("contact number is required")
	}

	var total int64
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, errs.Validationf("dish %s has quantity below 1", l.DishID)
		}
		total += int64(l.Quantity) * l.UnitPrice
	}

	now := time.Now()
	order := &models.Order{
		ID:                  uuid.NewString(),
		UserID:              identity.UserID,
		Status:              models.OrderStatusPending,
		TotalAmount:         total,
		DeliveryAddress:     strings.TrimSpace(in.DeliveryAddress),
		ContactNumber:       strings.TrimSpace(in.ContactNumber),
		SpecialInstructions: in.SpecialInstructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			DishID:      l.DishID,
			Quantity:    l.Quantity,
			PriceAtTime: l.UnitPrice,
			CreatedAt:   now,
		})
	}
	if err := s.store.CreateOrderItems(ctx, items); err != nil {
		s.logger.Error("Failed to create order items, rolling back order",
			zap.String("order_id", order.ID), zap.Error(err))
		if delErr := s.store.DeleteOrder(ctx, order.ID); delErr != nil {
			s.logger.Error("Compensating order delete failed",
				zap.String("order_id", order.ID), zap.Error(delErr))
		}
		return nil, err
	}

	// Clearing after persistence: a crash here leaves both the order and the
	// cart, which the customer can recover from. The reverse would lose data.
	if err := s.carts.Clear(ctx, identity); err != nil {
		s.logger.Warn("Order created but cart clear failed",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.Int("items", len(items)))

	return order, nil
}

// Get returns the order if it belongs to the requesting user.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, errs.Unauthorizedf("order %s does not belong to requester", orderID)
	}
	return order, nil
}

func (s *Service) GetWithItems(ctx context.Context, userID, orderID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

func (s *Service) List(ctx context.Context, userID string, page, pageSize int) ([]models.Order, int64, error) {
	if userID == "" {
		return nil, 0, errs.Unauthorizedf("sign in to list orders")
	}
	return s.store.ListOrders(ctx, userID, page, pageSize)
}

// AdminList returns all orders regardless of owner.
func (s *Service) AdminList(ctx context.Context, page, pageSize int) ([]models.Order, int64, error) {
	return s.store.ListOrders(ctx, "", page, pageSize)
}

// AdminSetStatus applies a back-office override through the transition table.
// Status is re-read from storage and the write is compare-and-set, so a
// racing webhook cannot be clobbered.
func (s *Service) AdminSetStatus(ctx context.Context, orderID string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, to, ActorAdmin) {
		return nil, errs.InvalidStatef("cannot move order %s from %s to %s", orderID, order.Status, to)
	}
	ok, err := s.store.TransitionOrder(ctx, orderID, order.Status, to, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.InvalidStatef("order %s changed concurrently, retry", orderID)
	}
	s.logger.Info("Admin status override",
		zap.String("order_id", orderID),
		zap.String("from", order.Status.String()),
		zap.String("to", to.String()))
	return s.store.GetOrder(ctx, orderID)
}
