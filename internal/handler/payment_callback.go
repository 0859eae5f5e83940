package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/service"
)

// CallbackProcessor is the part of the payment service the gateway callbacks drive.
type CallbackProcessor interface {
	HandleSuccess(ctx context.Context, cb service.SuccessCallback) (*service.CallbackResult, error)
	HandleFail(ctx context.Context, tranID, reason string) (*service.CallbackResult, error)
	HandleCancel(ctx context.Context, tranID string) (*service.CallbackResult, error)
	CallbackOutcome(ctx context.Context, tranID string) (string, models.TransactionStatus, error)
}

// PaymentCallbackHandler handles the browser redirects SSLCommerz sends after checkout.
// Every outcome ends in a redirect to the storefront.
type PaymentCallbackHandler struct {
	payments    CallbackProcessor
	frontendURL string
	logger      *zap.Logger
}

// NewPaymentCallbackHandler creates a new payment callback handler.
func NewPaymentCallbackHandler(payments CallbackProcessor, frontendURL string, logger *zap.Logger) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		payments:    payments,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Success handles GET|POST /api/payment/success.
func (h *PaymentCallbackHandler) Success(c echo.Context) error {
	tranID := param(c, "tran_id")
	if middleware.IsDuplicateCallback(c) {
		if answered, err := h.replay(c, tranID); answered {
			return err
		}
	}

	res, err := h.payments.HandleSuccess(c.Request().Context(), service.SuccessCallback{
		TransactionID: tranID,
		ValidationID:  param(c, "val_id"),
		Amount:        param(c, "amount"),
		CardType:      param(c, "card_type"),
	})
	if err != nil {
		h.logger.Warn("Payment success callback rejected",
			zap.String("tran_id", tranID),
			zap.Error(err),
		)
		return h.redirect(c, "/payment/failed", nil)
	}
	return h.redirect(c, "/payment/success", url.Values{"order": {res.OrderNumber}})
}

// Fail handles GET|POST /api/payment/fail.
func (h *PaymentCallbackHandler) Fail(c echo.Context) error {
	tranID := param(c, "tran_id")
	if middleware.IsDuplicateCallback(c) {
		if answered, err := h.replay(c, tranID); answered {
			return err
		}
	}

	if _, err := h.payments.HandleFail(c.Request().Context(), tranID, param(c, "error")); err != nil {
		h.logger.Warn("Payment fail callback not applied",
			zap.String("tran_id", tranID),
			zap.Error(err),
		)
		return h.redirect(c, "/payment/failed", nil)
	}
	return h.redirect(c, "/payment/failed", url.Values{"reason": {"payment_failed"}})
}

// Cancel handles GET|POST /api/payment/cancel.
func (h *PaymentCallbackHandler) Cancel(c echo.Context) error {
	tranID := param(c, "tran_id")
	if middleware.IsDuplicateCallback(c) {
		if answered, err := h.replay(c, tranID); answered {
			return err
		}
	}

	if _, err := h.payments.HandleCancel(c.Request().Context(), tranID); err != nil {
		h.logger.Warn("Payment cancel callback not applied",
			zap.String("tran_id", tranID),
			zap.Error(err),
		)
	}
	return h.redirect(c, "/payment/cancelled", nil)
}

// replay answers a repeated callback from the stored transaction state.
// A transaction still pending is not answered, so the caller processes the
// callback again; the first attempt may have failed before settling it.
func (h *PaymentCallbackHandler) replay(c echo.Context, tranID string) (bool, error) {
	orderNumber, status, err := h.payments.CallbackOutcome(c.Request().Context(), tranID)
	if err != nil {
		h.logger.Warn("Duplicate callback for unknown transaction", zap.String("tran_id", tranID), zap.Error(err))
		return true, h.redirect(c, "/payment/failed", nil)
	}
	h.logger.Info("Duplicate payment callback",
		zap.String("tran_id", tranID),
		zap.String("status", string(status)),
	)
	switch status {
	case models.TxPending:
		return false, nil
	case models.TxCompleted:
		return true, h.redirect(c, "/payment/success", url.Values{"order": {orderNumber}})
	case models.TxCancelled:
		return true, h.redirect(c, "/payment/cancelled", nil)
	default:
		return true, h.redirect(c, "/payment/failed", nil)
	}
}

func (h *PaymentCallbackHandler) redirect(c echo.Context, path string, query url.Values) error {
	target := h.frontendURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.Redirect(http.StatusFound, target)
}

// param reads a callback field from the form body or the query string.
func param(c echo.Context, name string) string {
	if v := c.FormValue(name); v != "" {
		return v
	}
	return c.QueryParam(name)
}
