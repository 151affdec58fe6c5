package db

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/config"
	"github.com/diewo77/literie-pos/internal/models"
)

// CatalogEntry is one product of the YAML catalog file.
type CatalogEntry struct {
	Code     string  `yaml:"code"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	PriceTTC float64 `yaml:"price_ttc"`
	Active   *bool   `yaml:"active"`
}

type catalogFile struct {
	Products []CatalogEntry `yaml:"products"`
}

// ParseCatalog reads a catalog document. Entries without code or name are errors.
func ParseCatalog(r io.Reader) ([]CatalogEntry, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := map[string]bool{}
	for i, e := range f.Products {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" || strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalog entry %d: code and name are required", i+1)
		}
		if e.PriceTTC < 0 {
			return nil, fmt.Errorf("catalog entry %s: negative price", e.Code)
		}
		if seen[e.Code] {
			return nil, fmt.Errorf("catalog entry %s: duplicate code", e.Code)
		}
		seen[e.Code] = true
		f.Products[i] = e
	}
	return f.Products, nil
}

// SeedCatalog inserts or updates products by code. Running it twice is harmless.
func SeedCatalog(db *gorm.DB, entries []CatalogEntry) (created, updated int, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			active := e.Active == nil || *e.Active
			var p models.Product
			res := tx.Where("code = ?", e.Code).First(&p)
			switch {
			case errors.Is(res.Error, gorm.ErrRecordNotFound):
				p = models.Product{Code: e.Code, Name: e.Name, Category: e.Category, PriceTTC: e.PriceTTC, IsActive: active}
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("create product %s: %w", e.Code, err)
				}
				// gorm skips false on a column with a default
				if !active {
					if err := tx.Model(&p).Update("is_active", false).Error; err != nil {
						return err
					}
				}
				created++
			case res.Error != nil:
				return res.Error
			default:
				if err := tx.Model(&p).Updates(map[string]any{
					"name": e.Name, "category": e.Category, "price_ttc": e.PriceTTC, "is_active": active,
				}).Error; err != nil {
					return fmt.Errorf("update product %s: %w", e.Code, err)
				}
				updated++
			}
		}
		return nil
	})
	return created, updated, err
}

// SeedCatalogFile loads path into the products table. A missing file is not an error.
func SeedCatalogFile(db *gorm.DB, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Catalog file %s not found, skipping", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := ParseCatalog(f)
	if err != nil {
		return err
	}
	created, updated, err := SeedCatalog(db, entries)
	if err != nil {
		return err
	}
	log.Printf("Catalog seeded from %s: %d created, %d updated", path, created, updated)
	return nil
}

// SeedSeller creates the bootstrap seller when no seller with that name exists.
func SeedSeller(db *gorm.DB, name, pin string) error {
	name = strings.TrimSpace(name)
	if name == "" || pin == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.Seller{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	s := models.Seller{Name: name, Active: true}
	if err := s.SetPIN(pin); err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	if err := db.Create(&s).Error; err != nil {
		return fmt.Errorf("create seller: %w", err)
	}
	log.Printf("Seller %q created", name)
	return nil
}

// Seed runs every seed step from the app configuration.
func Seed(db *gorm.DB, cfg config.AppConfig) error {
	if err := SeedSeller(db, cfg.SellerName, cfg.SellerPIN); err != nil {
		return err
	}
	return SeedCatalogFile(db, cfg.CatalogFile)
}
