package bootstrap

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"furnistore/internal/models"
	"furnistore/internal/pkg/utils"
)

var demoCategories = []struct {
	Name string
	Icon string
}{
	{"Living Room", "sofa"},
	{"Bedroom", "bed"},
	{"Dining", "utensils"},
	{"Office", "briefcase"},
	{"Outdoor", "tree"},
}

var demoMaterials = []string{"Oak", "Walnut", "Teak", "Steel", "Rattan", "Leather", "Fabric"}
var demoSizes = []string{"Small", "Medium", "Large", "King", "Queen", "2-Seater", "3-Seater"}

// SeedDemo fills an empty catalogue with fake categories and products.
// It does nothing when any product already exists.
func SeedDemo(db *gorm.DB, seed uint64, perCategory int) (int, error) {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	f := gofakeit.New(seed)
	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range demoCategories {
			category := models.Category{Name: c.Name, Slug: utils.Slugify(c.Name), Icon: c.Icon}
			if err := tx.Where(models.Category{Name: c.Name}).FirstOrCreate(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			for i := 0; i < perCategory; i++ {
				material := f.RandomString(demoMaterials)
				product := models.Product{
					Name:        material + " " + f.ProductName(),
					Category:    c.Name,
					Material:    material,
					Size:        f.RandomString(demoSizes),
					Price:       decimal.NewFromFloat(f.Price(49, 2500)).Round(2),
					Stock:       f.Number(0, 40),
					IsActive:    true,
					Description: f.Sentence(12),
					ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/600/400", utils.RandomHex(4)),
				}
				if err := tx.Create(&product).Error; err != nil {
					return fmt.Errorf("seed product: %w", err)
				}
				created++
			}
		}
		return nil
	})
	return created, err
}
