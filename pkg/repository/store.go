package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/homelyeats/pkg/config"
	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Store is the durable MySQL-backed repository for orders, carts and the
// catalog. It assumes single-row atomicity only; multi-row flows compensate
// explicitly at the service layer.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStore(cfg *config.MySQLConfig, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Dish{},
		&models.Order{},
		&models.OrderItem{},
		&models.CartItem{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- orders ---

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *Store) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return fmt.Errorf("create order items: %w", err)
	}
	return nil
}

// DeleteOrder is the compensating action for a failed order creation. Items
// go first so a crash in between cannot leave orphaned rows.
func (s *Store) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).Delete(&models.Order{}).Error; err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("order %s", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

func (s *Store) GetOrderByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("order for payment intent %s", intentID)
		}
		return nil, fmt.Errorf("get order by payment intent: %w", err)
	}
	return &order, nil
}

func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return items, nil
}

func (s *Store) ListOrders(ctx context.Context, userID string, page, pageSize int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// TransitionOrder moves an order from one status to another with a
// compare-and-set on the current status, so a racing writer loses cleanly
// instead of clobbering. Returns false when the order was not in `from`.
func (s *Store) TransitionOrder(ctx context.Context, orderID string, from, to models.OrderStatus, updates map[string]interface{}) (bool, error) {
	set := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		set[k] = v
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(set)
	if res.Error != nil {
		return false, fmt.Errorf("transition order: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// --- carts ---

// LoadCart materializes the authenticated user's cart against the current
// catalog. Rows whose dish disappeared are skipped, mirroring how the cart
// drops entries with no matching dish.
func (s *Store) LoadCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	var rows []models.CartItem
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.DishID)
	}
	var dishes []models.Dish
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("load cart dishes: %w", err)
	}
	byID := make(map[string]models.Dish, len(dishes))
	for _, d := range dishes {
		byID[d.ID] = d
	}

	lines := make([]models.CartLine, 0, len(rows))
	for _, r := range rows {
		d, ok := byID[r.DishID]
		if !ok {
			s.logger.Warn("Cart references missing dish, dropping line",
				zap.String("user_id", userID), zap.String("dish_id", r.DishID))
			continue
		}
		qty := r.Quantity
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, models.CartLine{
			DishID:    d.ID,
			Name:      d.Name,
			UnitPrice: d.Price,
			ImageURL:  d.ImageURL,
			Quantity:  qty,
		})
	}
	return lines, nil
}

// ReplaceCart rewrites the user's full cart, delete-then-insert. Known
// limitation: two concurrent writers for the same user (e.g. two browser
// tabs) can clobber each other; last write wins.
func (s *Store) ReplaceCart(ctx context.Context, userID string, lines []models.CartLine) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.CartItem, 0, len(lines))
	now := time.Now()
	for _, l := range lines {
		rows = append(rows, models.CartItem{
			UserID:    userID,
			DishID:    l.DishID,
			Quantity:  l.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert cart items: %w", err)
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// --- catalog ---

func (s *Store) GetDish(ctx context.Context, dishID string) (*models.Dish, error) {
	var dish models.Dish
	if err := s.db.WithContext(ctx).Where("id = ?", dishID).First(&dish).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("dish %s", dishID)
		}
		return nil, fmt.Errorf("get dish: %w", err)
	}
	return &dish, nil
}

func (s *Store) ListDishes(ctx context.Context, categoryID string, availableOnly bool) ([]models.Dish, error) {
	var dishes []models.Dish
	query := s.db.WithContext(ctx).Model(&models.Dish{})
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if availableOnly {
		query = query.Where("is_available = ?", true)
	}
	if err := query.Order("name").Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	return dishes, nil
}

func (s *Store) CreateDish(ctx context.Context, dish *models.Dish) error {
	if err := s.db.WithContext(ctx).Create(dish).Error; err != nil {
		return fmt.Errorf("create dish: %w", err)
	}
	return nil
}

func (s *Store) UpdateDish(ctx context.Context, dish *models.Dish) error {
	// Column map, not the struct: struct-based Updates skips zero values
	// and would drop is_available=false.
	res := s.db.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", dish.ID).Updates(map[string]interface{}{
		"name":             dish.Name,
		"description":      dish.Description,
		"price":            dish.Price,
		"image_url":        dish.ImageURL,
		"category_id":      dish.CategoryID,
		"is_available":     dish.IsAvailable,
		"preparation_time": dish.PreparationTime,
		"updated_at":       dish.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update dish: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFoundf("dish %s", dish.ID)
	}
	return nil
}

func (s *Store) DeleteDish(ctx context.Context, dishID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", dishID).Delete(&models.Dish{})
	if res.Error != nil {
		return fmt.Errorf("delete dish: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFoundf("dish %s", dishID)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, categoryID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", categoryID).Delete(&models.Category{})
	if res.Error != nil {
		return fmt.Errorf("delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFoundf("category %s", categoryID)
	}
	return nil
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("user %s", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
