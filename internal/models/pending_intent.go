package models

import "time"

// PendingIntent is an enrollment a visitor asked for before signing in. It is
// replayed once after sign-in or sign-up.
type PendingIntent struct {
	ProgramID    string    `json:"program_id"`
	RestaurantID string    `json:"restaurant_id"`
	FromQR       bool      `json:"from_qr"`
	CreatedAt    time.Time `json:"created_at"`
}
