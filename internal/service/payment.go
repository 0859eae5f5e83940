package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/metrics"
	"furnistore/internal/models"
	"furnistore/internal/payment"
	"furnistore/internal/pkg/utils"
	"furnistore/internal/repository"
)

const (
	defaultCurrency = "BDT"
	defaultPhone    = "01700000000"
	defaultCity     = "Dhaka"
	defaultCountry  = "Bangladesh"
	// Pending payments the gateway has never heard of are expired after this long.
	abandonAfter = 24 * time.Hour
)

// CallbackResult tells the callback handler where to send the browser.
type CallbackResult struct {
	OrderNumber string
	Duplicate   bool
}

// SuccessCallback is the subset of the gateway's success POST that is trusted
// only after server-side validation.
type SuccessCallback struct {
	TransactionID string
	ValidationID  string
	Amount        string
	CardType      string
}

// PaymentStatusView is returned by the status endpoint.
type PaymentStatusView struct {
	OrderNumber   string               `json:"order_number"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Total         decimal.Decimal      `json:"total"`
	Payment       *models.Payment      `json:"payment"`
}

// InitiateResult is returned to the client that starts a checkout.
type InitiateResult struct {
	PaymentURL    string `json:"payment_url"`
	TransactionID string `json:"transaction_id"`
}

// PaymentService drives the hosted checkout lifecycle for orders.
type PaymentService struct {
	db       *gorm.DB
	orders   *repository.OrderRepository
	payments *repository.PaymentRepository
	gateway  payment.Gateway
	notifier Notifier
	logger   *zap.Logger
	currency string
	now      func() time.Time
}

func NewPaymentService(db *gorm.DB, gateway payment.Gateway, notifier Notifier, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		db:       db,
		orders:   repository.NewOrderRepository(db),
		payments: repository.NewPaymentRepository(db),
		gateway:  gateway,
		notifier: orNop(notifier),
		logger:   logger,
		currency: defaultCurrency,
		now:      time.Now,
	}
}

// Initiate opens a gateway session for orderID. Amount, customer and
// product details always come from the stored order.
func (s *PaymentService) Initiate(ctx context.Context, user *models.User, orderID uint) (*InitiateResult, error) {
	order, err := s.ownedOrder(ctx, user, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.PaymentStatus == models.PaymentPaid:
		return nil, ErrAlreadyPaid
	case order.Status == models.OrderCancelled:
		return nil, ErrOrderCancelled
	}

	payments := s.payments.WithTx(s.db.WithContext(ctx))
	tranID := utils.GenerateTransactionID(order.OrderNumber, s.now())
	if _, err := payments.FindByTransactionID(tranID); err == nil {
		tranID = tranID + "_" + utils.RandomHex(3)
	}

	p := &models.Payment{
		OrderID:       order.ID,
		TransactionID: tranID,
		Amount:        order.Total,
		Currency:      s.currency,
		Status:        models.TxPending,
		PaymentMethod: s.gateway.Name(),
	}
	if err := payments.Create(p); err != nil {
		return nil, err
	}

	req := payment.InitRequest{
		TransactionID: tranID,
		Amount:        order.Total,
		Currency:      s.currency,
		ProductName:   "Order #" + order.OrderNumber,
		Customer:      customerFor(order, user),
	}

	started := time.Now()
	res, err := s.gateway.InitiatePayment(ctx, req)
	if err != nil {
		raw := ""
		if res != nil {
			raw = res.RawResponse
		}
		if uerr := payments.Update(p.ID, map[string]interface{}{
			"status":           models.TxFailed,
			"gateway_response": raw,
		}); uerr != nil {
			s.logger.Warn("Failed to mark payment failed",
				zap.String("tran_id", p.TransactionID),
				zap.Error(uerr),
			)
		}

		if errors.Is(err, payment.ErrGatewayRejected) {
			metrics.RecordGatewayCall(s.gateway.Name(), "initiate", "rejected", started)
			reason := "Unknown error"
			if res != nil && res.FailedReason != "" {
				reason = res.FailedReason
			}
			s.logger.Warn("Payment initiation rejected",
				zap.String("order_number", order.OrderNumber),
				zap.String("tran_id", tranID),
				zap.String("reason", reason),
			)
			return nil, &GatewayError{Reason: reason}
		}

		metrics.RecordGatewayCall(s.gateway.Name(), "initiate", "error", started)
		s.logger.Error("Payment initiation failed",
			zap.String("order_number", order.OrderNumber),
			zap.String("tran_id", tranID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	metrics.RecordGatewayCall(s.gateway.Name(), "initiate", "ok", started)

	if err := payments.Update(p.ID, map[string]interface{}{
		"session_key":      res.SessionKey,
		"gateway_response": res.RawResponse,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Payment session opened",
		zap.String("order_number", order.OrderNumber),
		zap.String("tran_id", tranID),
	)
	return &InitiateResult{PaymentURL: res.PaymentURL, TransactionID: tranID}, nil
}

// HandleSuccess validates a success callback with the gateway and, when the
// gateway confirms it, records the payment and marks the order paid.
// Replays of an already completed transaction succeed without side effects.
func (s *PaymentService) HandleSuccess(ctx context.Context, cb SuccessCallback) (*CallbackResult, error) {
	if cb.TransactionID == "" || cb.ValidationID == "" {
		metrics.RecordCallback("success", "invalid")
		return nil, ErrValidationFailed
	}

	p, err := s.payments.WithTx(s.db.WithContext(ctx)).FindByTransactionID(cb.TransactionID)
	if err != nil {
		metrics.RecordCallback("success", "unknown")
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if p.Status == models.TxCompleted {
		metrics.RecordCallback("success", "duplicate")
		return s.resultFor(ctx, p.OrderID, true)
	}

	started := time.Now()
	v, err := s.gateway.ValidatePayment(ctx, cb.ValidationID)
	if err != nil {
		metrics.RecordGatewayCall(s.gateway.Name(), "validate", "error", started)
		metrics.RecordCallback("success", "error")
		s.logger.Error("Payment validation request failed",
			zap.String("tran_id", cb.TransactionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	metrics.RecordGatewayCall(s.gateway.Name(), "validate", "ok", started)

	if !v.Valid() || v.TransactionID != p.TransactionID || !v.Amount.Equal(p.Amount) {
		metrics.RecordCallback("success", "invalid")
		s.logger.Warn("Payment validation mismatch",
			zap.String("tran_id", cb.TransactionID),
			zap.String("status", v.Status),
			zap.String("validated_tran_id", v.TransactionID),
			zap.String("validated_amount", v.Amount.String()),
			zap.String("expected_amount", p.Amount.String()),
		)
		return nil, ErrValidationFailed
	}

	if v.CardType == "" {
		v.CardType = cb.CardType
	}
	order, duplicate, err := s.complete(ctx, p.TransactionID, v)
	if err != nil {
		metrics.RecordCallback("success", "error")
		return nil, err
	}
	if duplicate {
		metrics.RecordCallback("success", "duplicate")
		return &CallbackResult{OrderNumber: order.OrderNumber, Duplicate: true}, nil
	}

	metrics.RecordCallback("success", "ok")
	s.logger.Info("Payment completed",
		zap.String("order_number", order.OrderNumber),
		zap.String("tran_id", p.TransactionID),
		zap.String("amount", p.Amount.StringFixed(2)),
	)
	s.notifier.PaymentReceived(ctx, order.OrderNumber, p.TransactionID, p.Amount, v.CardType)
	return &CallbackResult{OrderNumber: order.OrderNumber}, nil
}

// HandleFail records a gateway failure callback.
func (s *PaymentService) HandleFail(ctx context.Context, tranID, reason string) (*CallbackResult, error) {
	return s.close(ctx, "fail", tranID, models.TxFailed, models.PaymentFailed, reason)
}

// HandleCancel records a customer cancellation at the gateway.
func (s *PaymentService) HandleCancel(ctx context.Context, tranID string) (*CallbackResult, error) {
	return s.close(ctx, "cancel", tranID, models.TxCancelled, models.PaymentCancelled, "")
}

// Status reports the payment state of one of the user's orders.
func (s *PaymentService) Status(ctx context.Context, user *models.User, orderID uint) (*PaymentStatusView, error) {
	order, err := s.ownedOrder(ctx, user, orderID)
	if err != nil {
		return nil, err
	}
	view := &PaymentStatusView{
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
	}
	latest, err := s.payments.WithTx(s.db.WithContext(ctx)).LatestForOrder(order.ID)
	switch {
	case err == nil:
		view.Payment = latest
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return view, nil
}

// Reconcile asks the gateway about pending payments older than olderThan.
// Settled ones are completed and terminal ones failed. Anything else still
// pending a day after it was opened is expired. It returns how many
// payments changed state.
func (s *PaymentService) Reconcile(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	now := s.now()
	stale, err := s.payments.WithTx(s.db.WithContext(ctx)).FindStalePending(now.Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, p := range stale {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}

		started := time.Now()
		v, err := s.gateway.QueryTransaction(ctx, p.TransactionID)
		if err != nil {
			metrics.RecordGatewayCall(s.gateway.Name(), "query", "error", started)
			s.logger.Warn("Reconcile query failed", zap.String("tran_id", p.TransactionID), zap.Error(err))
			continue
		}
		metrics.RecordGatewayCall(s.gateway.Name(), "query", "ok", started)

		switch {
		case v.Valid() && v.Amount.Equal(p.Amount):
			order, duplicate, err := s.complete(ctx, p.TransactionID, v)
			if err != nil {
				s.logger.Error("Reconcile completion failed", zap.String("tran_id", p.TransactionID), zap.Error(err))
				continue
			}
			if !duplicate {
				changed++
				s.notifier.PaymentReceived(ctx, order.OrderNumber, p.TransactionID, p.Amount, v.CardType)
			}
		case v.Terminal():
			if _, err := s.close(ctx, "reconcile", p.TransactionID, models.TxFailed, models.PaymentFailed, v.Status); err == nil {
				changed++
			}
		case now.Sub(p.CreatedAt) > abandonAfter:
			if _, err := s.close(ctx, "reconcile", p.TransactionID, models.TxFailed, models.PaymentFailed, "expired"); err == nil {
				changed++
			}
		}
	}

	if changed > 0 {
		s.logger.Info("Payments reconciled", zap.Int("changed", changed), zap.Int("checked", len(stale)))
	}
	return changed, nil
}

// complete marks the payment completed and the order paid under row locks.
// A pending order moves to processing; any other status is left alone.
func (s *PaymentService) complete(ctx context.Context, tranID string, v *payment.Validation) (*models.Order, bool, error) {
	var order *models.Order
	duplicate := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)
		orders := s.orders.WithTx(tx)

		p, err := payments.LockByTransactionID(tranID)
		if err != nil {
			return notFound(err, ErrPaymentNotFound)
		}
		order, err = orders.LockByID(p.OrderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if p.Status == models.TxCompleted {
			duplicate = true
			return nil
		}

		if err := payments.Update(p.ID, map[string]interface{}{
			"status":           models.TxCompleted,
			"validation_id":    v.ValidationID,
			"card_type":        v.CardType,
			"gateway_response": v.RawResponse,
		}); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"payment_status": models.PaymentPaid,
			"transaction_id": p.TransactionID,
		}
		if order.Status == models.OrderPending {
			updates["status"] = models.OrderProcessing
		}
		return orders.Update(order.ID, updates)
	})
	if err != nil {
		return nil, false, err
	}
	if !duplicate && order.Status == models.OrderPending {
		metrics.RecordOrderTransition(string(models.OrderProcessing))
	}
	return order, duplicate, nil
}

// close moves a pending payment to a final unsuccessful state. The order's
// payment_status follows unless the order has already been paid.
func (s *PaymentService) close(ctx context.Context, kind, tranID string, txStatus models.TransactionStatus, orderStatus models.PaymentStatus, reason string) (*CallbackResult, error) {
	if tranID == "" {
		metrics.RecordCallback(kind, "invalid")
		return nil, ErrPaymentNotFound
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)
		orders := s.orders.WithTx(tx)

		p, err := payments.LockByTransactionID(tranID)
		if err != nil {
			return notFound(err, ErrPaymentNotFound)
		}
		order, err = orders.LockByID(p.OrderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if p.Status != models.TxPending {
			return nil
		}

		updates := map[string]interface{}{"status": txStatus}
		if reason != "" {
			updates["gateway_response"] = reason
		}
		if err := payments.Update(p.ID, updates); err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentPaid {
			return nil
		}
		return orders.Update(order.ID, map[string]interface{}{"payment_status": orderStatus})
	})
	if err != nil {
		metrics.RecordCallback(kind, "unknown")
		return nil, err
	}

	metrics.RecordCallback(kind, "ok")
	s.logger.Info("Payment closed",
		zap.String("kind", kind),
		zap.String("tran_id", tranID),
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", reason),
	)
	return &CallbackResult{OrderNumber: order.OrderNumber}, nil
}

func (s *PaymentService) ownedOrder(ctx context.Context, user *models.User, orderID uint) (*models.Order, error) {
	orders := s.orders.WithTx(s.db.WithContext(ctx))
	var (
		order *models.Order
		err   error
	)
	if user.IsAdmin() {
		order, err = orders.FindByID(orderID)
	} else {
		order, err = orders.FindByUserAndID(user.ID, orderID)
	}
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *PaymentService) resultFor(ctx context.Context, orderID uint, duplicate bool) (*CallbackResult, error) {
	order, err := s.orders.WithTx(s.db.WithContext(ctx)).FindByID(orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &CallbackResult{OrderNumber: order.OrderNumber, Duplicate: duplicate}, nil
}

func customerFor(order *models.Order, user *models.User) payment.Customer {
	if order.User != nil {
		user = order.User
	}
	address := firstNonEmpty(order.ShippingAddress, user.Address, defaultCity)
	return payment.Customer{
		Name:    firstNonEmpty(order.CustomerName, user.Name),
		Email:   user.Email,
		Phone:   firstNonEmpty(order.CustomerPhone, user.Phone, defaultPhone),
		Address: address,
		City:    defaultCity,
		Country: defaultCountry,
	}
}

// CallbackOutcome reports where a transaction stands without calling the
// gateway. Duplicate callbacks are answered from it.
func (s *PaymentService) CallbackOutcome(ctx context.Context, tranID string) (string, models.TransactionStatus, error) {
	p, err := s.payments.WithTx(s.db.WithContext(ctx)).FindByTransactionID(tranID)
	if err != nil {
		return "", "", notFound(err, ErrPaymentNotFound)
	}
	res, err := s.resultFor(ctx, p.OrderID, true)
	if err != nil {
		return "", "", err
	}
	return res.OrderNumber, p.Status, nil
}
