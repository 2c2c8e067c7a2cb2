package cart

import (
	"context"

	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"go.uber.org/zap"
)

// Identity scopes a cart. An authenticated user carries a UserID; an
// anonymous visitor is identified only by a session id. On login the cart is
// reloaded from the user's backing store — the anonymous cart is NOT merged
// in, it is simply left behind.
type Identity struct {
	UserID    string
	SessionID string
}

func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// UserStore persists authenticated carts with replace-all writes.
type UserStore interface {
	LoadCart(ctx context.Context, userID string) ([]models.CartLine, error)
	ReplaceCart(ctx context.Context, userID string, lines []models.CartLine) error
	ClearCart(ctx context.Context, userID string) error
}

// AnonymousStore persists anonymous carts keyed by session id.
type AnonymousStore interface {
	GetAnonymousCart(ctx context.Context, sessionID string) ([]models.CartLine, error)
	SaveAnonymousCart(ctx context.Context, sessionID string, lines []models.CartLine) error
	DeleteAnonymousCart(ctx context.Context, sessionID string) error
}

type Service struct {
	users  UserStore
	anon   AnonymousStore
	logger *zap.Logger
}

func NewService(users UserStore, anon AnonymousStore, logger *zap.Logger) *Service {
	return &Service{users: users, anon: anon, logger: logger}
}

func (s *Service) Load(ctx context.Context, id Identity) ([]models.CartLine, error) {
	if id.Authenticated() {
		return s.users.LoadCart(ctx, id.UserID)
	}
	if id.SessionID == "" {
		return nil, nil
	}
	return s.anon.GetAnonymousCart(ctx, id.SessionID)
}

func (s *Service) persist(ctx context.Context, id Identity, lines []models.CartLine) error {
	if id.Authenticated() {
		return s.users.ReplaceCart(ctx, id.UserID, lines)
	}
	if id.SessionID == "" {
		return errs.Validationf("no cart scope: missing session")
	}
	return s.anon.SaveAnonymousCart(ctx, id.SessionID, lines)
}

// AddItem appends a line for the dish, or bumps the quantity when the dish is
// already in the cart.
func (s *Service) AddItem(ctx context.Context, id Identity, dish *models.Dish, qty int32) ([]models.CartLine, error) {
	if qty < 1 {
		return nil, errs.Validationf("quantity must be at least 1")
	}
	if !dish.IsAvailable {
		return nil, errs.Validationf("dish %s is not available", dish.ID)
	}

	lines, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].DishID == dish.ID {
			lines[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, models.CartLine{
			DishID:    dish.ID,
			Name:      dish.Name,
			UnitPrice: dish.Price,
			ImageURL:  dish.ImageURL,
			Quantity:  qty,
		})
	}

	if err := s.persist(ctx, id, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetQuantity replaces a line's quantity. A requested quantity below 1 is an
// explicit removal, never a zero-quantity line.
func (s *Service) SetQuantity(ctx context.Context, id Identity, dishID string, qty int32) ([]models.CartLine, error) {
	if qty < 1 {
		return s.RemoveItem(ctx, id, dishID)
	}

	lines, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].DishID == dishID {
			lines[i].Quantity = qty
			found = true
			break
		}
	}
	if !found {
		return nil, errs.NotFoundf("dish %s not in cart", dishID)
	}

	if err := s.persist(ctx, id, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// RemoveItem drops the line if present; removing an absent dish is a no-op.
func (s *Service) RemoveItem(ctx context.Context, id Identity, dishID string) ([]models.CartLine, error) {
	lines, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.DishID != dishID {
			kept = append(kept, l)
		}
	}

	if err := s.persist(ctx, id, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *Service) Clear(ctx context.Context, id Identity) error {
	if id.Authenticated() {
		return s.users.ClearCart(ctx, id.UserID)
	}
	if id.SessionID == "" {
		return nil
	}
	return s.anon.DeleteAnonymousCart(ctx, id.SessionID)
}

// Totals are always derived from the lines, never cached.

func TotalItems(lines []models.CartLine) int32 {
	var n int32
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice returns minor units (cents).
func TotalPrice(lines []models.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += int64(l.Quantity) * l.UnitPrice
	}
	return total
}
