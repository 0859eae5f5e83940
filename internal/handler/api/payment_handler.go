package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/service"
)

// PaymentHandler opens gateway sessions and reports payment state.
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// Initiate handles POST /api/payment/initiate.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	var req models.InitiatePaymentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.payments.Initiate(c.Request().Context(), middleware.CurrentUser(c), req.OrderID)
	if err != nil {
		return serviceError(c, h.logger, err, "Payment initialization failed")
	}
	return successResponse(c, http.StatusOK, "Payment gateway initialized successfully", map[string]string{
		"payment_url":    res.PaymentURL,
		"transaction_id": res.TransactionID,
	})
}

// Status handles GET /api/payment/status/:orderId.
func (h *PaymentHandler) Status(c echo.Context) error {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	view, err := h.payments.Status(c.Request().Context(), middleware.CurrentUser(c), orderID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to fetch payment status")
	}
	return successResponse(c, http.StatusOK, "", view)
}
