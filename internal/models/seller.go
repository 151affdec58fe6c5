package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seller is a person who can log in on a tablet with a short PIN.
type Seller struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name      string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	PINHash   string         `gorm:"size:255;not null" json:"-"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
}

// SetPIN hashes pin with bcrypt.
func (s *Seller) SetPIN(pin string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PINHash = string(h)
	return nil
}

func (s *Seller) CheckPIN(pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.PINHash), []byte(pin)) == nil
}
