package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/metrics"
	"furnistore/internal/models"
	"furnistore/internal/pkg/utils"
	"furnistore/internal/repository"
)

// OrderService owns order creation, cancellation and admin status changes.
type OrderService struct {
	db       *gorm.DB
	orders   *repository.OrderRepository
	products *repository.ProductRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewOrderService(db *gorm.DB, notifier Notifier, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:       db,
		orders:   repository.NewOrderRepository(db),
		products: repository.NewProductRepository(db),
		notifier: orNop(notifier),
		logger:   logger,
	}
}

// Create places an order for user. Every line is checked against current
// stock and decremented in the same transaction; any failure rolls back all of it.
func (s *OrderService) Create(ctx context.Context, user *models.User, req models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items are required", ErrInvalidOrder)
	}

	order := &models.Order{
		UserID:          user.ID,
		OrderNumber:     utils.GenerateOrderNumber(),
		Status:          models.OrderPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentUnpaid,
		ShippingAddress: firstNonEmpty(utils.SanitizeText(req.ShippingAddress), user.Address),
		CustomerName:    firstNonEmpty(utils.SanitizeText(req.CustomerName), user.Name),
		CustomerPhone:   firstNonEmpty(utils.SanitizeText(req.CustomerPhone), user.Phone),
		Notes:           utils.SanitizeText(req.Notes),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			if line.Quantity < 1 {
				return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidOrder)
			}
			product, err := products.LockByID(line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, line.ProductID)
				}
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
			}
			if product.Stock < line.Quantity {
				return &StockError{ProductName: product.Name}
			}
			ok, err := products.DecrementStock(product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &StockError{ProductName: product.Name}
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Price:       product.Price,
				Quantity:    line.Quantity,
				Subtotal:    lineTotal,
			})
		}

		totals := CalculateTotals(subtotal)
		order.Subtotal = totals.Subtotal
		order.Tax = totals.Tax
		order.Shipping = totals.Shipping
		order.Total = totals.Total
		order.Items = items

		return s.orders.WithTx(tx).Create(order)
	})
	if err != nil {
		metrics.RecordOrder(string(req.PaymentMethod), orderOutcome(err), decimal.Zero)
		s.logger.Info("Order rejected",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.RecordOrder(string(order.PaymentMethod), "created", order.Total)
	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", user.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	s.notifier.OrderPlaced(ctx, order.OrderNumber, order.CustomerName, order.Total, string(order.PaymentMethod))

	return s.Get(ctx, order.ID)
}

// Get loads an order with items, payments and owner.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orders.WithTx(s.db.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

// GetForUser loads one of the user's own orders.
func (s *OrderService) GetForUser(ctx context.Context, userID, id uint) (*models.Order, error) {
	order, err := s.orders.WithTx(s.db.WithContext(ctx)).FindByUserAndID(userID, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orders.WithTx(s.db.WithContext(ctx)).FindByUser(userID)
}

// List returns the admin order listing.
func (s *OrderService) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, int64, error) {
	return s.orders.WithTx(s.db.WithContext(ctx)).FindAll(f)
}

// UpdateStatus sets any status; there is no transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.updateExisting(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}
	metrics.RecordOrderTransition(string(status))
	s.logger.Info("Order status updated", zap.Uint("order_id", id), zap.String("status", string(status)))
	return s.Get(ctx, id)
}

// UpdatePaymentStatus is the admin override for payment_status.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.updateExisting(ctx, id, map[string]interface{}{"payment_status": status}); err != nil {
		return nil, err
	}
	s.logger.Info("Order payment status updated", zap.Uint("order_id", id), zap.String("payment_status", string(status)))
	return s.Get(ctx, id)
}

// Cancel returns every line's quantity to stock and marks the order cancelled.
// Delivered orders cannot be cancelled; cancelling twice is a no-op.
func (s *OrderService) Cancel(ctx context.Context, id uint) (*models.Order, error) {
	var order *models.Order
	restored := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		order, err = orders.LockByID(id)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		switch order.Status {
		case models.OrderDelivered:
			return ErrCannotCancelDelivered
		case models.OrderCancelled:
			return nil
		}

		items, err := orders.FindItems(order.ID)
		if err != nil {
			return err
		}
		products := s.products.WithTx(tx)
		for _, item := range items {
			if err := products.IncrementStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		restored = true
		return orders.Update(order.ID, map[string]interface{}{"status": models.OrderCancelled})
	})
	if err != nil {
		return nil, err
	}

	if restored {
		metrics.RecordOrderTransition(string(models.OrderCancelled))
		s.logger.Info("Order cancelled", zap.String("order_number", order.OrderNumber))
		s.notifier.OrderCancelled(ctx, order.OrderNumber)
	}
	return s.Get(ctx, id)
}

// Delete removes an order with its items and payments. Stock is not restored.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Delete(id)
	})
	if err != nil {
		return notFound(err, ErrOrderNotFound)
	}
	s.logger.Info("Order deleted", zap.Uint("order_id", id))
	return nil
}

func (s *OrderService) updateExisting(ctx context.Context, id uint, updates map[string]interface{}) error {
	orders := s.orders.WithTx(s.db.WithContext(ctx))
	if _, err := orders.FindByID(id); err != nil {
		return notFound(err, ErrOrderNotFound)
	}
	return orders.Update(id, updates)
}

func orderOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrProductUnavailable), errors.Is(err, ErrInvalidOrder):
		return "invalid"
	default:
		return "error"
	}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
