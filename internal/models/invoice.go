package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinal     InvoiceStatus = "final"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a finished (or parked) wizard run. Document holds the flat
// invoice record exactly as produced by the wizard; the other columns are
// denormalised from it for listing and search.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Number        string        `gorm:"size:50;uniqueIndex;not null" json:"number"`
	InvoiceDate   time.Time     `gorm:"index;not null" json:"invoice_date"`
	EventLocation string        `gorm:"size:255" json:"event_location"`
	Status        InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	SellerID uint    `gorm:"index" json:"seller_id"`
	ClientID *uint   `gorm:"index" json:"client_id,omitempty"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	ClientName    string  `gorm:"size:255" json:"client_name"`
	ClientEmail   string  `gorm:"size:255" json:"client_email"`
	MontantHT     float64 `gorm:"type:decimal(10,2)" json:"montant_ht"`
	MontantTVA    float64 `gorm:"type:decimal(10,2)" json:"montant_tva"`
	MontantTTC    float64 `gorm:"type:decimal(10,2)" json:"montant_ttc"`
	PaymentType   string  `gorm:"size:30" json:"payment_type"`
	PaymentMethod string  `gorm:"size:255" json:"payment_method"`

	Document datatypes.JSON `json:"document"`
	Lines    []InvoiceLine  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

func (i *Invoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

func (i *Invoice) IsFinal() bool { return i.Status == InvoiceStatusFinal }

// CanEdit reports whether the wizard may resume this invoice.
func (i *Invoice) CanEdit() bool { return i.Status == InvoiceStatusDraft }

// InvoiceLine is one product line, kept as rows for sales reporting.
type InvoiceLine struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`
	Position  int  `gorm:"default:0" json:"position"`

	ProductCode  string  `gorm:"size:50;index" json:"product_code,omitempty"`
	Designation  string  `gorm:"size:500;not null" json:"designation"`
	Category     string  `gorm:"size:50" json:"category,omitempty"`
	Quantity     int     `gorm:"not null;default:1" json:"quantity"`
	UnitPriceTTC float64 `gorm:"type:decimal(10,2)" json:"unit_price_ttc"`
	Discount     float64 `gorm:"type:decimal(10,2)" json:"discount"`
	DiscountKind string  `gorm:"size:10" json:"discount_kind"`
	TotalTTC     float64 `gorm:"type:decimal(10,2)" json:"total_ttc"`
	TotalHT      float64 `gorm:"type:decimal(10,2)" json:"total_ht"`
	PickupOnSite *bool   `json:"pickup_on_site,omitempty"`
}

// AllModels lists every table, in creation order.
func AllModels() []any {
	return []any{&Seller{}, &Client{}, &Product{}, &Invoice{}, &InvoiceLine{}}
}
