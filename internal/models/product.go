package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product maps to the `products` table. Deleting a product only clears IsActive
// so historical order lines keep a valid reference.
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"column:name;size:255;not null" json:"name"`
	Category    string          `gorm:"column:category;size:255;index" json:"category"`
	Material    string          `gorm:"column:material;size:255" json:"material"`
	Size        string          `gorm:"column:size;size:255" json:"size"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"column:stock;not null" json:"stock"`
	IsActive    bool            `gorm:"column:is_active;not null;index" json:"is_active"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	ImageURL    string          `gorm:"column:image_url;size:2048" json:"image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Category maps to the `categories` table.
type Category struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:255;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"column:slug;size:255;uniqueIndex" json:"slug"`
	Icon      string    `gorm:"column:icon;size:255" json:"icon"`
	Image     string    `gorm:"column:image;size:2048" json:"image"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Wishlist maps to the `wishlists` table; one row per (user, product).
type Wishlist struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}
