package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/repository"
	"furnistore/internal/service"
)

// OrderHandler serves checkout, the customer's order history and the admin order desk.
type OrderHandler struct {
	orders *service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	var req models.CreateOrderRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	order, err := h.orders.Create(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to create order")
	}
	return successResponse(c, http.StatusCreated, "Order created successfully", order)
}

// Mine handles GET /api/user/orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	orders, err := h.orders.ListForUser(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to fetch orders")
	}
	return successResponse(c, http.StatusOK, "", orders)
}

// MineShow handles GET /api/user/orders/:id.
func (h *OrderHandler) MineShow(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	order, err := h.orders.GetForUser(c.Request().Context(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to fetch order")
	}
	return successResponse(c, http.StatusOK, "", order)
}

// List handles GET /api/admin/orders.
func (h *OrderHandler) List(c echo.Context) error {
	var q models.OrderListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return validationResponse(c, map[string]string{"query": "Invalid query parameters"})
	}
	orders, total, err := h.orders.List(c.Request().Context(), repository.OrderFilter{
		Status:    q.Status,
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to fetch orders")
	}
	page, perPage := models.Page(q.Page, q.PerPage)
	return paginatedResponse(c, orders, total, page, perPage)
}

// Show handles GET /api/admin/orders/:id.
func (h *OrderHandler) Show(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	order, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to fetch order")
	}
	return successResponse(c, http.StatusOK, "", order)
}

// UpdateStatus handles PUT /api/admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	var req models.UpdateOrderStatusRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	order, err := h.orders.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to update order status")
	}
	return successResponse(c, http.StatusOK, "Order status updated successfully", order)
}

// UpdatePaymentStatus handles PUT /api/admin/orders/:id/payment-status.
func (h *OrderHandler) UpdatePaymentStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	var req models.UpdatePaymentStatusRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	order, err := h.orders.UpdatePaymentStatus(c.Request().Context(), id, req.PaymentStatus)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to update payment status")
	}
	return successResponse(c, http.StatusOK, "Payment status updated successfully", order)
}

// Cancel handles POST /api/admin/orders/:id/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	order, err := h.orders.Cancel(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to cancel order")
	}
	return successResponse(c, http.StatusOK, "Order cancelled successfully", order)
}

// Delete handles DELETE /api/admin/orders/:id.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Order not found")
	}
	if err := h.orders.Delete(c.Request().Context(), id); err != nil {
		return serviceError(c, h.logger, err, "Failed to delete order")
	}
	return successResponse(c, http.StatusOK, "Order deleted successfully", nil)
}
