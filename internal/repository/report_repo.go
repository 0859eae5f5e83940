package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"furnistore/internal/models"
)

// DashboardCounts are the headline numbers on the admin dashboard.
type DashboardCounts struct {
	Products   int64 `json:"total_products"`
	Categories int64 `json:"total_categories"`
	Customers  int64 `json:"total_customers"`
	Orders     int64 `json:"total_orders"`
}

// TopProduct aggregates sold quantity and revenue per product.
type TopProduct struct {
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// DailySales is one point of the sales trend.
type DailySales struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ReportRepository runs read-only aggregate queries for the admin reports.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Counts returns active products, categories, customers and orders.
func (r *ReportRepository) Counts() (*DashboardCounts, error) {
	var c DashboardCounts
	if err := r.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&c.Products).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Category{}).Count(&c.Categories).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.User{}).Where("role = ?", models.RoleUser).Count(&c.Customers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Order{}).Count(&c.Orders).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// TopProducts ranks active products by units sold.
func (r *ReportRepository) TopProducts(limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.Table("order_items").
		Select("order_items.product_id, order_items.product_name, SUM(order_items.quantity) AS total_quantity, SUM(order_items.subtotal) AS total_revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("products.is_active = ? AND orders.status <> ?", true, models.OrderCancelled).
		Group("order_items.product_id, order_items.product_name").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// LowStock returns active products with fewer than threshold units, scarcest first.
func (r *ReportRepository) LowStock(threshold, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ? AND stock < ?", true, threshold).
		Order("stock ASC").Order("id ASC").Limit(limit).Find(&products).Error
	return products, err
}

// SalesTrend groups non-cancelled orders since from by calendar day.
func (r *ReportRepository) SalesTrend(from time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := r.db.Model(&models.Order{}).
		Select("DATE(created_at) AS date, COUNT(*) AS orders, SUM(total) AS revenue").
		Where("created_at >= ? AND status <> ?", from, models.OrderCancelled).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&rows).Error
	for i := range rows {
		// MySQL with parseTime hands DATE back as a timestamp string
		if len(rows[i].Date) > 10 {
			rows[i].Date = rows[i].Date[:10]
		}
	}
	return rows, err
}

// OrdersSince lists orders created at or after from, newest first.
func (r *ReportRepository) OrdersSince(from time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("User").Where("created_at >= ?", from).
		Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Revenue sums the totals of paid orders.
func (r *ReportRepository) Revenue() (decimal.Decimal, error) {
	var row struct {
		Revenue decimal.NullDecimal
	}
	err := r.db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentPaid).
		Select("SUM(total) AS revenue").Scan(&row).Error
	if err != nil || !row.Revenue.Valid {
		return decimal.Zero, err
	}
	return row.Revenue.Decimal, nil
}
