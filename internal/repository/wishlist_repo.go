package repository

import (
	"gorm.io/gorm"

	"furnistore/internal/models"
)

// WishlistRepository handles wishlist database operations.
type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// FindByUser returns a customer's wishlist with products, newest first.
func (r *WishlistRepository) FindByUser(userID uint) ([]models.Wishlist, error) {
	var items []models.Wishlist
	err := r.db.Preload("Product").Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

// Exists reports whether productID is on the customer's wishlist.
func (r *WishlistRepository) Exists(userID, productID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Wishlist{}).
		Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error
	return count > 0, err
}

// Create inserts a wishlist entry.
func (r *WishlistRepository) Create(item *models.Wishlist) error {
	return r.db.Create(item).Error
}

// Delete removes one of the customer's entries by id.
func (r *WishlistRepository) Delete(userID, id uint) error {
	return deleteAffecting(r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.Wishlist{}))
}

// DeleteByProduct removes the customer's entry for productID.
func (r *WishlistRepository) DeleteByProduct(userID, productID uint) error {
	return deleteAffecting(r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Wishlist{}))
}

func deleteAffecting(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
