package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Payment is one gateway attempt for an order. TransactionID is generated
// locally and echoed back by the gateway in every callback.
type Payment struct {
	ID              uint              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID         uint              `gorm:"column:order_id;not null;index" json:"order_id"`
	Order           *Order            `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	TransactionID   string            `gorm:"column:transaction_id;size:100;uniqueIndex;not null" json:"transaction_id"`
	SessionKey      string            `gorm:"column:session_key;size:255" json:"session_key,omitempty"`
	ValidationID    string            `gorm:"column:validation_id;size:255" json:"validation_id,omitempty"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	Currency        string            `gorm:"column:currency;size:3;not null" json:"currency"`
	Status          TransactionStatus `gorm:"column:status;size:20;not null;index" json:"status"`
	PaymentMethod   string            `gorm:"column:payment_method;size:50" json:"payment_method"`
	CardType        string            `gorm:"column:card_type;size:100" json:"card_type,omitempty"`
	GatewayResponse string            `gorm:"column:gateway_response;type:text" json:"-"`
	CreatedAt       time.Time         `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
