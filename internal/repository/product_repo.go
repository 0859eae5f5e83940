package repository

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"furnistore/internal/models"
)

// ProductFilter narrows the public catalogue listing.
type ProductFilter struct {
	Category  string
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	OrderBy   string
	Direction string
	Page      int
	PerPage   int
}

var productSortColumns = map[string]string{
	"created_at": "created_at",
	"price":      "price",
	"name":       "name",
	"stock":      "stock",
}

// ProductRepository handles product database operations.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// FindAll returns active products matching f with pagination.
func (r *ProductRepository) FindAll(f ProductFilter) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	db := r.db.Model(&models.Product{}).Where("is_active = ?", true)

	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		db = db.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.MinPrice != nil {
		db = db.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("price <= ?", *f.MaxPrice)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage := models.Page(f.Page, f.PerPage)
	if err := db.Order(orderClause(productSortColumns, f.OrderBy, "created_at", f.Direction)).
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindByID returns a product regardless of its active flag.
func (r *ProductRepository) FindByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByID returns an active product.
func (r *ProductRepository) FindActiveByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("is_active = ?", true).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockByID reads a product with SELECT ... FOR UPDATE. Must run inside a transaction.
func (r *ProductRepository) LockByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCategory returns active products in category, newest first.
func (r *ProductRepository) FindByCategory(category string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ? AND category = ?", true, category).
		Order("created_at DESC").Find(&products).Error
	return products, err
}

// Featured returns the newest active in-stock products.
func (r *ProductRepository) Featured(limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("is_active = ? AND stock > ?", true, 0).
		Order("created_at DESC").Order("id DESC").Limit(limit).Find(&products).Error
	return products, err
}

// Create inserts a new product.
func (r *ProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update updates product fields.
func (r *ProductRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
}

// DecrementStock removes qty units if at least qty are available. It reports
// false when the guard fails so the caller can abort its transaction.
func (r *ProductRepository) DecrementStock(id uint, qty int) (bool, error) {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty units to a product.
func (r *ProductRepository) IncrementStock(id uint, qty int) error {
	return r.db.Model(&models.Product{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

// orderClause builds a safe ORDER BY from a whitelist.
func orderClause(allowed map[string]string, column, fallback, direction string) string {
	col, ok := allowed[column]
	if !ok {
		col = allowed[fallback]
	}
	dir := "DESC"
	if direction == "asc" || direction == "ASC" {
		dir = "ASC"
	}
	return col + " " + dir
}
