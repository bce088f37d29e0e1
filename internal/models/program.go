package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultStampsRequired applies when a program leaves its stamp target unset.
const DefaultStampsRequired = 10

// Program is a restaurant's loyalty-card definition. It is read-only here;
// the administrative surface owns its lifecycle.
type Program struct {
	bun.BaseModel `bun:"table:loyalty_cards"`

	ID                 string    `bun:"id,pk" json:"id"`
	RestaurantID       string    `bun:"restaurant_id" json:"restaurant_id"`
	IsActive           bool      `bun:"is_active" json:"is_active"`
	DiscoveryQRCode    string    `bun:"discovery_qr_code,nullzero,unique" json:"discovery_qr_code,omitempty"`
	DisplayName        string    `bun:"display_name" json:"display_name"`
	LocationName       string    `bun:"location_name" json:"location_name,omitempty"`
	LocationAddress    string    `bun:"location_address" json:"location_address,omitempty"`
	StampsRequired     int       `bun:"stamps_required" json:"stamps_required"`
	RewardText         string    `bun:"reward_text" json:"reward_text,omitempty"`
	LogoURL            string    `bun:"logo_url" json:"logo_url,omitempty"`
	BackgroundImageURL string    `bun:"background_image_url" json:"background_image_url,omitempty"`
	CardColor          string    `bun:"card_color" json:"card_color,omitempty"`
	TextColor          string    `bun:"text_color" json:"text_color,omitempty"`
	ShowLocationOnCard bool      `bun:"show_location_on_card" json:"show_location_on_card"`
	CreatedAt          time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// StampTarget returns the stamp target with the default applied.
func (p Program) StampTarget() int {
	if p.StampsRequired <= 0 {
		return DefaultStampsRequired
	}
	return p.StampsRequired
}

// Discoverable reports whether the program belongs in the public catalog.
func (p Program) Discoverable() bool {
	return p.IsActive && p.DiscoveryQRCode != ""
}
