package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Client is a customer met on a stand. Email is the natural key used to
// merge repeat customers.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name  string `gorm:"size:255;not null" json:"name"`
	Email string `gorm:"size:255;index" json:"email"`
	Phone string `gorm:"size:50" json:"phone"`

	Address      string `gorm:"size:500" json:"address"`
	AddressLine2 string `gorm:"size:500" json:"address_line2,omitempty"`
	City         string `gorm:"size:100" json:"city"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	HousingType  string `gorm:"size:20" json:"housing_type"`
	DoorCode     string `gorm:"size:50" json:"door_code,omitempty"`
	NoDoorCode   bool   `json:"no_door_code"`
}

// FullAddress formats the postal address on up to three lines.
func (c *Client) FullAddress() string {
	var lines []string
	for _, l := range []string{c.Address, c.AddressLine2} {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if city := strings.TrimSpace(c.PostalCode + " " + c.City); city != "" {
		lines = append(lines, city)
	}
	return strings.Join(lines, "\n")
}
