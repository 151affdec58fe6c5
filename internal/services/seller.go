package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/models"
)

type SellerService struct {
	db *gorm.DB
}

func NewSellerService(db *gorm.DB) *SellerService {
	return &SellerService{db: db}
}

// Authenticate checks name and PIN. Unknown names and wrong PINs give the same error.
func (s *SellerService) Authenticate(ctx context.Context, name, pin string) (*models.Seller, error) {
	var seller models.Seller
	err := s.db.WithContext(ctx).Where("name = ? AND active = ?", strings.TrimSpace(name), true).First(&seller).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !seller.CheckPIN(pin) {
		return nil, ErrInvalidCredentials
	}
	return &seller, nil
}

// Active reports whether id is a seller still allowed to log in.
func (s *SellerService) Active(ctx context.Context, id uint) bool {
	var count int64
	s.db.WithContext(ctx).Model(&models.Seller{}).Where("id = ? AND active = ?", id, true).Count(&count)
	return count > 0
}
