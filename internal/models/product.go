package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/money"
)

// Product is a catalog entry. Prices are stored TTC, as they are shown on the stand.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code     string  `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name     string  `gorm:"size:255;not null" json:"name"`
	Category string  `gorm:"size:50;index" json:"category"`
	PriceTTC float64 `gorm:"type:decimal(10,2);not null" json:"price_ttc"`
	IsActive bool    `gorm:"not null;default:true" json:"is_active"`
}

// PriceHT converts the catalog price at vatRate percent, rounded to the cent.
func (p *Product) PriceHT(vatRate float64) float64 {
	return money.Round2(money.ToExcludingTax(p.PriceTTC, vatRate))
}
