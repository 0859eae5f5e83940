package repository

import (
	"strings"

	"gorm.io/gorm"

	"furnistore/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindAll returns every category ordered by name.
func (r *CategoryRepository) FindAll() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// FindByID finds a category by primary key.
func (r *CategoryRepository) FindByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// NameTaken reports whether name is used by a category other than excludeID.
func (r *CategoryRepository) NameTaken(name string, excludeID uint) (bool, error) {
	var count int64
	db := r.db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

// Create inserts a new category.
func (r *CategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Save writes every column of category.
func (r *CategoryRepository) Save(category *models.Category) error {
	return r.db.Save(category).Error
}

// Delete removes a category by ID.
func (r *CategoryRepository) Delete(id uint) error {
	return deleteAffecting(r.db.Delete(&models.Category{}, id))
}

// Count returns the number of categories.
func (r *CategoryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Category{}).Count(&count).Error
	return count, err
}
