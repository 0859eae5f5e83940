package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"furnistore/internal/models"
)

// PaymentRepository handles gateway payment database operations.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// FindByTransactionID returns the payment for a gateway transaction id.
func (r *PaymentRepository) FindByTransactionID(tranID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("transaction_id = ?", tranID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// LockByTransactionID reads a payment with SELECT ... FOR UPDATE.
func (r *PaymentRepository) LockByTransactionID(tranID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", tranID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// LatestForOrder returns the most recent payment attempt for an order.
func (r *PaymentRepository) LatestForOrder(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("order_id = ?", orderID).
		Order("created_at DESC").Order("id DESC").First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update updates payment fields.
func (r *PaymentRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error
}

// FindStalePending returns pending payments created before cutoff, oldest first.
func (r *PaymentRepository) FindStalePending(cutoff time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("status = ? AND created_at < ?", models.TxPending, cutoff).
		Order("created_at ASC").Limit(limit).Find(&payments).Error
	return payments, err
}
