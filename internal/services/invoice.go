package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/wizard"
)

// InvoiceNumberPrefix starts every invoice number: FAC-2026-0042.
const InvoiceNumberPrefix = "FAC"

type InvoiceService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, now: time.Now}
}

// NextNumber returns the next free number of the year of date. Soft-deleted
// invoices still hold their number.
func (s *InvoiceService) NextNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", InvoiceNumberPrefix, date.Year())
	var numbers []string
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Pluck("number", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("read invoice numbers: %w", err)
	}
	last := 0
	for _, n := range numbers {
		if seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix)); err == nil && seq > last {
			last = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, last+1), nil
}

// Prefill stamps a fresh draft with the next number, today's date and the
// default event location.
func (s *InvoiceService) Prefill(ctx context.Context, st *wizard.Store, eventLocation string) error {
	today := s.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	number, err := s.NextNumber(ctx, today)
	if err != nil {
		return err
	}
	patch := wizard.InfoPatch{InvoiceNumber: &number, InvoiceDate: &today}
	if eventLocation != "" {
		patch.EventLocation = &eventLocation
	}
	st.UpdateInfo(patch)
	return nil
}

// build maps the store onto an invoice row and its lines.
func build(st *wizard.Store) (*models.Invoice, error) {
	flat := st.SyncToFlatInvoice()
	doc, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("encode invoice document: %w", err)
	}
	d := st.Draft()
	inv := &models.Invoice{
		Number:        flat.InvoiceNumber,
		InvoiceDate:   d.InvoiceDate,
		EventLocation: flat.EventLocation,
		ClientName:    flat.ClientName,
		ClientEmail:   flat.ClientEmail,
		MontantHT:     float64(flat.MontantHT),
		MontantTVA:    float64(flat.MontantTVA),
		MontantTTC:    float64(flat.MontantTTC),
		PaymentType:   flat.PaymentType,
		PaymentMethod: flat.PaymentMethod,
		Document:      datatypes.JSON(doc),
	}
	for i, p := range flat.Products {
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			Position:     i,
			ProductCode:  p.Code,
			Designation:  p.Name,
			Category:     p.Category,
			Quantity:     int(p.Quantity),
			UnitPriceTTC: float64(p.PriceTTC),
			Discount:     float64(p.Discount),
			DiscountKind: p.DiscountType,
			TotalTTC:     float64(p.TotalTTC),
			TotalHT:      float64(p.TotalHT),
			PickupOnSite: p.IsPickupOnSite,
		})
	}
	return inv, nil
}

// SaveOptions say who saves and in which state.
type SaveOptions struct {
	SellerID  uint
	InvoiceID *uint
	Status    models.InvoiceStatus
	ClientID  *uint
}

// Save writes the draft. With InvoiceID set the existing invoice is
// overwritten and its lines replaced; final invoices cannot be overwritten.
// A draft without a number gets the next one.
func (s *InvoiceService) Save(ctx context.Context, st *wizard.Store, opts SaveOptions) (*models.Invoice, error) {
	if opts.Status == "" {
		opts.Status = models.InvoiceStatusDraft
	}
	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := &InvoiceService{db: tx, now: s.now}
		var existing *models.Invoice
		if opts.InvoiceID != nil {
			existing = &models.Invoice{}
			if err := tx.First(existing, *opts.InvoiceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvoiceNotFound
				}
				return err
			}
			if !existing.CanEdit() {
				return ErrInvoiceLocked
			}
		}
		if err := txs.claimNumber(ctx, st, existing); err != nil {
			return err
		}

		var err error
		if inv, err = build(st); err != nil {
			return err
		}
		if inv.InvoiceDate.IsZero() {
			inv.InvoiceDate = s.now().UTC()
		}
		inv.Status = opts.Status
		inv.SellerID = opts.SellerID
		inv.ClientID = opts.ClientID

		if existing != nil {
			if err := tx.Where("invoice_id = ?", existing.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
				return fmt.Errorf("clear lines: %w", err)
			}
			inv.ID = existing.ID
			inv.CreatedAt = existing.CreatedAt
		}
		if err := tx.Save(inv).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrNumberTaken, inv.Number)
			}
			return fmt.Errorf("save invoice %s: %w", inv.Number, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// claimNumber makes sure the draft's number is free before it is written.
// Numbers are handed out when a session starts, so another tablet may have
// stored the same one since: a generated number on a never saved draft moves
// to the next free one, anything else is ErrNumberTaken.
func (s *InvoiceService) claimNumber(ctx context.Context, st *wizard.Store, existing *models.Invoice) error {
	d := st.Draft()
	if d.InvoiceNumber == "" {
		return s.Prefill(ctx, st, "")
	}
	q := s.db.WithContext(ctx).Unscoped().Model(&models.Invoice{}).Where("number = ?", d.InvoiceNumber)
	if existing != nil {
		q = q.Where("id <> ?", existing.ID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check invoice number: %w", err)
	}
	if n == 0 {
		return nil
	}
	if existing != nil || !generatedNumber(d.InvoiceNumber) {
		return fmt.Errorf("%w: %s", ErrNumberTaken, d.InvoiceNumber)
	}
	date := d.InvoiceDate
	if date.IsZero() {
		date = s.now()
	}
	number, err := s.NextNumber(ctx, date)
	if err != nil {
		return err
	}
	st.UpdateInfo(wizard.InfoPatch{InvoiceNumber: &number})
	return nil
}

// generatedNumber reports whether n has the FAC-YYYY-NNNN shape NextNumber produces.
func generatedNumber(n string) bool {
	rest, ok := strings.CutPrefix(n, InvoiceNumberPrefix+"-")
	if !ok {
		return false
	}
	year, seq, ok := strings.Cut(rest, "-")
	if !ok || len(year) != 4 || len(seq) < 4 {
		return false
	}
	for _, part := range []string{year, seq} {
		if _, err := strconv.ParseUint(part, 10, 64); err != nil {
			return false
		}
	}
	return true
}

// Finish upserts the client then stores the invoice as final, in one transaction.
func (s *InvoiceService) Finish(ctx context.Context, st *wizard.Store, sellerID uint, invoiceID *uint) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := NewClientService(tx).Upsert(ctx, st.Draft().Client)
		if err != nil {
			return err
		}
		txs := &InvoiceService{db: tx, now: s.now}
		out, err = txs.Save(ctx, st, SaveOptions{
			SellerID:  sellerID,
			InvoiceID: invoiceID,
			Status:    models.InvoiceStatusFinal,
			ClientID:  &client.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Load returns the stored flat record of an invoice, for resuming it in the wizard.
func (s *InvoiceService) Load(ctx context.Context, id uint) (*models.Invoice, wizard.FlatInvoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, wizard.FlatInvoice{}, err
	}
	flat, err := wizard.DecodeFlatInvoice(inv.Document)
	if err != nil {
		return nil, wizard.FlatInvoice{}, fmt.Errorf("decode invoice %s: %w", inv.Number, err)
	}
	return inv, flat, nil
}

type InvoiceFilter struct {
	Query    string
	Status   models.InvoiceStatus
	SellerID uint
	From, To time.Time
	Limit    int
	Offset   int
}

// List returns invoices matching f, newest first, with the total count.
func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	db := s.db.WithContext(ctx).Model(&models.Invoice{})
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.SellerID != 0 {
		db = db.Where("seller_id = ?", f.SellerID)
	}
	if !f.From.IsZero() {
		db = db.Where("invoice_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		db = db.Where("invoice_date < ?", f.To)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + q + "%"
		db = db.Where("LOWER(number) LIKE ? OR LOWER(client_name) LIKE ? OR LOWER(client_email) LIKE ?", like, like, like)
	}
	db = db.Session(&gorm.Session{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Invoice
	if err := db.Omit("document").Order("invoice_date DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Cancel marks a draft as cancelled. Final invoices stay as they are.
func (s *InvoiceService) Cancel(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.First(&inv, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return err
		}
		if !inv.CanEdit() {
			return ErrInvoiceLocked
		}
		return tx.Model(&inv).Update("status", models.InvoiceStatusCancelled).Error
	})
}
