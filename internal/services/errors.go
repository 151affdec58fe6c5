package services

import "errors"

var (
	ErrSessionNotFound    = errors.New("wizard session not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceLocked      = errors.New("invoice is final")
	ErrNumberTaken        = errors.New("invoice number already used")
	ErrProductNotFound    = errors.New("product not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrInvalidCredentials = errors.New("invalid seller name or pin")
)
