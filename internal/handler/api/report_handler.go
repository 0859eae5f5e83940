package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/repository"
)

const (
	lowStockThreshold = 10
	reportWindow      = 30 * 24 * time.Hour
)

// ReportHandler serves the admin reports and the role dashboards.
type ReportHandler struct {
	reports  *repository.ReportRepository
	orders   *repository.OrderRepository
	wishlist *repository.WishlistRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewReportHandler(reports *repository.ReportRepository, orders *repository.OrderRepository, wishlist *repository.WishlistRepository, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, orders: orders, wishlist: wishlist, logger: logger, now: time.Now}
}

// Dashboard handles GET /api/reports/dashboard.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	counts, err := h.reports.Counts()
	if err != nil {
		return h.fail(c, err)
	}
	revenue, err := h.reports.Revenue()
	if err != nil {
		return h.fail(c, err)
	}
	top, err := h.reports.TopProducts(5)
	if err != nil {
		return h.fail(c, err)
	}
	low, err := h.reports.LowStock(lowStockThreshold, 10)
	if err != nil {
		return h.fail(c, err)
	}
	trend, err := h.reports.SalesTrend(h.now().Add(-reportWindow))
	if err != nil {
		return h.fail(c, err)
	}

	lowStock := make([]map[string]interface{}, 0, len(low))
	for _, p := range low {
		lowStock = append(lowStock, map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"category": p.Category,
			"stock":    p.Stock,
			"price":    p.Price,
		})
	}

	return successResponse(c, http.StatusOK, "", map[string]interface{}{
		"kpis": map[string]interface{}{
			"totalProducts":   counts.Products,
			"totalCategories": counts.Categories,
			"totalCustomers":  counts.Customers,
			"totalOrders":     counts.Orders,
			"totalRevenue":    revenue,
		},
		"topProducts":      top,
		"lowStockProducts": lowStock,
		"salesTrend":       trend,
	})
}

// Sales handles GET /api/reports/sales: orders of the last 30 days and the daily trend.
func (h *ReportHandler) Sales(c echo.Context) error {
	from := h.now().Add(-reportWindow)
	orders, err := h.reports.OrdersSince(from)
	if err != nil {
		return h.fail(c, err)
	}
	trend, err := h.reports.SalesTrend(from)
	if err != nil {
		return h.fail(c, err)
	}
	return successResponse(c, http.StatusOK, "", map[string]interface{}{
		"orders": orders,
		"trend":  trend,
	})
}

// TopProducts handles GET /api/reports/top-products?limit=N.
func (h *ReportHandler) TopProducts(c echo.Context) error {
	limit := intQuery(c, "limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	top, err := h.reports.TopProducts(limit)
	if err != nil {
		return h.fail(c, err)
	}
	return successResponse(c, http.StatusOK, "", top)
}

// LowStock handles GET /api/reports/low-stock.
func (h *ReportHandler) LowStock(c echo.Context) error {
	products, err := h.reports.LowStock(lowStockThreshold, -1)
	if err != nil {
		return h.fail(c, err)
	}
	return successResponse(c, http.StatusOK, "", products)
}

// AdminDashboard handles GET /api/admin/dashboard.
func (h *ReportHandler) AdminDashboard(c echo.Context) error {
	counts, err := h.reports.Counts()
	if err != nil {
		return h.fail(c, err)
	}
	return successResponse(c, http.StatusOK, "Admin Dashboard Access Granted", counts)
}

// UserDashboard handles GET /api/user/dashboard.
func (h *ReportHandler) UserDashboard(c echo.Context) error {
	user := middleware.CurrentUser(c)
	orders, err := h.orders.FindByUser(user.ID)
	if err != nil {
		return h.fail(c, err)
	}
	wishlist, err := h.wishlist.FindByUser(user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	open := 0
	for _, o := range orders {
		switch o.Status {
		case models.OrderPending, models.OrderProcessing, models.OrderShipped:
			open++
		}
	}
	return successResponse(c, http.StatusOK, "User Dashboard Access Granted", map[string]interface{}{
		"total_orders":   len(orders),
		"open_orders":    open,
		"wishlist_items": len(wishlist),
	})
}

func (h *ReportHandler) fail(c echo.Context, err error) error {
	h.logger.Error("Failed to load report", zap.String("path", c.Path()), zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, "Failed to load dashboard data")
}
