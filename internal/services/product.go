package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/wizard"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type ProductFilter struct {
	Query           string
	Category        string
	IncludeInactive bool
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	db := s.db.WithContext(ctx).Model(&models.Product{})
	if !f.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		db = db.Where("category = ?", c)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + q + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	var out []models.Product
	if err := db.Order("category, name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByCode finds an active product.
func (s *ProductService) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("code = ? AND is_active = ?", strings.TrimSpace(code), true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LineItem builds a wizard line from a catalog product at its list price.
func LineItem(p *models.Product, quantity int) wizard.LineItem {
	return wizard.LineItem{
		ProductCode:  p.Code,
		Designation:  p.Name,
		Category:     p.Category,
		Quantity:     quantity,
		UnitPriceTTC: p.PriceTTC,
	}
}
