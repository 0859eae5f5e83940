package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"furnistore/internal/models"
)

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

var orderSortColumns = map[string]string{
	"created_at":   "created_at",
	"total":        "total",
	"status":       "status",
	"order_number": "order_number",
}

// OrderRepository handles order and order item database operations.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts the order header and then its items.
func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// FindAll returns orders matching f with pagination.
func (r *OrderRepository) FindAll(f OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	db := r.db.Model(&models.Order{})
	if f.Status != "" && f.Status != "all" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		search := "%" + f.Search + "%"
		db = db.Where("order_number LIKE ? OR customer_name LIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage := models.Page(f.Page, f.PerPage)
	if err := db.Preload("User").Preload("Items").
		Order(orderClause(orderSortColumns, f.SortBy, "created_at", f.SortOrder)).
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindByID loads an order with its items, products, payments and owner.
func (r *OrderRepository) FindByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items.Product").Preload("Payments").Preload("User").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID reads an order header with SELECT ... FOR UPDATE.
func (r *OrderRepository) LockByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUser returns a customer's orders, newest first.
func (r *OrderRepository) FindByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items.Product").Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").Find(&orders).Error
	return orders, err
}

// FindByUserAndID loads one of the customer's own orders.
func (r *OrderRepository) FindByUserAndID(userID, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items.Product").Preload("Payments").
		Where("user_id = ?", userID).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindItems returns the line items of an order.
func (r *OrderRepository) FindItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	return items, err
}

// Update updates order fields.
func (r *OrderRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes an order together with its items and payments.
func (r *OrderRepository) Delete(id uint) error {
	if err := r.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("order_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	return deleteAffecting(r.db.Delete(&models.Order{}, id))
}

// Count returns the number of orders.
func (r *OrderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Count(&count).Error
	return count, err
}
