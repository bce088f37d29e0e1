package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CardSnapshot freezes the program display fields at enrollment time so
// later program edits do not alter an issued card.
type CardSnapshot struct {
	DisplayName        string `bun:"display_name" json:"display_name"`
	LocationName       string `bun:"location_name" json:"location_name,omitempty"`
	LocationAddress    string `bun:"location_address" json:"location_address,omitempty"`
	StampsRequired     int    `bun:"stamps_required" json:"stamps_required"`
	RewardText         string `bun:"reward_text" json:"reward_text,omitempty"`
	LogoURL            string `bun:"logo_url" json:"logo_url,omitempty"`
	BackgroundImageURL string `bun:"background_image_url" json:"background_image_url,omitempty"`
	CardColor          string `bun:"card_color" json:"card_color,omitempty"`
	TextColor          string `bun:"text_color" json:"text_color,omitempty"`
	ShowLocationOnCard bool   `bun:"show_location_on_card" json:"show_location_on_card"`
}

// SnapshotOf copies the display fields of p.
func SnapshotOf(p Program) CardSnapshot {
	return CardSnapshot{
		DisplayName:        p.DisplayName,
		LocationName:       p.LocationName,
		LocationAddress:    p.LocationAddress,
		StampsRequired:     p.StampsRequired,
		RewardText:         p.RewardText,
		LogoURL:            p.LogoURL,
		BackgroundImageURL: p.BackgroundImageURL,
		CardColor:          p.CardColor,
		TextColor:          p.TextColor,
		ShowLocationOnCard: p.ShowLocationOnCard,
	}
}

// Enrollment is a viewer's instance of a Program. At most one exists per
// (CustomerID, LoyaltyCardID); the database enforces it.
type Enrollment struct {
	bun.BaseModel `bun:"table:customer_cards"`

	ID            string `bun:"id,pk" json:"id"`
	CustomerID    string `bun:"customer_id,notnull,unique:customer_card" json:"customer_id"`
	LoyaltyCardID string `bun:"loyalty_card_id,notnull,unique:customer_card" json:"loyalty_card_id"`
	RestaurantID  string `bun:"restaurant_id" json:"restaurant_id"`
	CurrentStamps int    `bun:"current_stamps" json:"current_stamps"`
	IsCompleted   bool   `bun:"is_completed" json:"is_completed"`
	CardNumber    int64  `bun:"card_number,unique" json:"card_number"`

	CardSnapshot

	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}
