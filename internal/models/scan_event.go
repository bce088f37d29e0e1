package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ScanEvent records one QR discovery page view. CustomerID stays empty until
// the scan converts into an enrollment.
type ScanEvent struct {
	bun.BaseModel `bun:"table:qr_scan_events"`

	ID            string    `bun:"id,pk" json:"id"`
	LoyaltyCardID string    `bun:"loyalty_card_id,notnull" json:"loyalty_card_id"`
	CustomerID    string    `bun:"customer_id,nullzero" json:"customer_id,omitempty"`
	VisitorID     string    `bun:"visitor_id" json:"visitor_id,omitempty"`
	IPAddress     string    `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string    `bun:"user_agent" json:"user_agent,omitempty"`
	Converted     bool      `bun:"converted" json:"converted"`
	ConvertedAt   time.Time `bun:"converted_at,nullzero" json:"converted_at,omitempty"`
	ScannedAt     time.Time `bun:"scanned_at,notnull" json:"scanned_at"`
}

// ScanStats aggregates scan events of one program.
type ScanStats struct {
	LoyaltyCardID string `json:"loyalty_card_id"`
	Scans         int    `json:"scans"`
	Conversions   int    `json:"conversions"`
}
