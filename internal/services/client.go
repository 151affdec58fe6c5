package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/wizard"
)

type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

// Upsert stores the wizard client. A non-empty email matching an existing
// client (case-insensitively) updates that client; otherwise a new one is created.
func (s *ClientService) Upsert(ctx context.Context, c wizard.Client) (*models.Client, error) {
	db := s.db.WithContext(ctx)
	email := strings.ToLower(strings.TrimSpace(c.Email))

	var existing models.Client
	if email != "" {
		err := db.Where("LOWER(email) = ?", email).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find client: %w", err)
		}
	}

	existing.Name = strings.TrimSpace(c.Name)
	existing.Email = email
	existing.Phone = strings.TrimSpace(c.Phone)
	existing.Address = c.Address
	existing.AddressLine2 = c.AddressLine2
	existing.City = c.City
	existing.PostalCode = c.PostalCode
	existing.HousingType = string(c.HousingType)
	existing.DoorCode = c.DoorCode
	existing.NoDoorCode = c.NoDoorCode

	if err := db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("save client: %w", err)
	}
	return &existing, nil
}

func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Search matches name, email or phone, newest first. An empty query lists everyone.
func (s *ClientService) Search(ctx context.Context, query string, limit int) ([]models.Client, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := s.db.WithContext(ctx).Model(&models.Client{})
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	var out []models.Client
	if err := db.Order("updated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ToWizard maps a stored client back onto the wizard form.
func ToWizard(c *models.Client) wizard.Client {
	return wizard.Client{
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		AddressLine2: c.AddressLine2,
		City:         c.City,
		PostalCode:   c.PostalCode,
		HousingType:  wizard.HousingType(c.HousingType),
		DoorCode:     c.DoorCode,
		NoDoorCode:   c.NoDoorCode,
	}
}
