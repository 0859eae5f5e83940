package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodOnline PaymentMethod = "online"
)

// Order maps to the `orders` table. Money columns are fixed at creation;
// Total always equals Subtotal + Tax + Shipping.
type Order struct {
	ID              uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID          uint            `gorm:"column:user_id;not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderNumber     string          `gorm:"column:order_number;size:64;uniqueIndex;not null" json:"order_number"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"column:tax;type:decimal(10,2);not null" json:"tax"`
	Shipping        decimal.Decimal `gorm:"column:shipping;type:decimal(10,2);not null" json:"shipping"`
	Total           decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null" json:"total"`
	Status          OrderStatus     `gorm:"column:status;size:20;not null;index" json:"status"`
	PaymentMethod   PaymentMethod   `gorm:"column:payment_method;size:20;not null" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"column:payment_status;size:20;not null;index" json:"payment_status"`
	ShippingAddress string          `gorm:"column:shipping_address;type:text" json:"shipping_address"`
	CustomerName    string          `gorm:"column:customer_name;size:255" json:"customer_name"`
	CustomerPhone   string          `gorm:"column:customer_phone;size:20" json:"customer_phone"`
	Notes           string          `gorm:"column:notes;type:text" json:"notes"`
	TransactionID   *string         `gorm:"column:transaction_id;size:100;uniqueIndex" json:"transaction_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments        []Payment       `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the product name and unit price at purchase time.
type OrderItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID     uint            `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID   uint            `gorm:"column:product_id;not null;index" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductName string          `gorm:"column:product_name;size:255;not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
