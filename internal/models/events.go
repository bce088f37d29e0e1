package models

import "time"

// ScanRecordedEvent is published when a discovery scan is stored.
type ScanRecordedEvent struct {
	ScanID        string    `json:"scan_id"`
	LoyaltyCardID string    `json:"loyalty_card_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// ScanConvertedEvent is published when a scan is attributed to an enrollment.
type ScanConvertedEvent struct {
	ScanID        string    `json:"scan_id"`
	LoyaltyCardID string    `json:"loyalty_card_id"`
	CustomerID    string    `json:"customer_id"`
	ConvertedAt   time.Time `json:"converted_at"`
}

// EnrollmentCreatedEvent is published after a customer card is inserted.
type EnrollmentCreatedEvent struct {
	EnrollmentID  string    `json:"enrollment_id"`
	CustomerID    string    `json:"customer_id"`
	LoyaltyCardID string    `json:"loyalty_card_id"`
	RestaurantID  string    `json:"restaurant_id"`
	CardNumber    int64     `json:"card_number"`
	CreatedAt     time.Time `json:"created_at"`
}
