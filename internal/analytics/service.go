package analytics

import (
	"context"
	"errors"
	"time"

	"ms-fidelity/internal/models"

	"github.com/uptrace/bun"
)

var ErrInvalidRange = errors.New("days must be between 1 and 365")

const (
	DefaultDays = 30
	MaxDays     = 365
	dateLayout  = "2006-01-02"
)

// Service handles analytics operations
type Service struct {
	db  *bun.DB
	now func() time.Time
}

// NewService creates a new analytics service
func NewService(db *bun.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// ProgramAnalytics aggregates discovery and enrollment activity of one
// program over a window of days.
type ProgramAnalytics struct {
	ProgramID        string         `json:"program_id"`
	From             string         `json:"from"`
	To               string         `json:"to"`
	TotalScans       int            `json:"total_scans"`
	TotalConversions int            `json:"total_conversions"`
	TotalEnrollments int            `json:"total_enrollments"`
	CompletedCards   int            `json:"completed_cards"`
	ConversionRate   float64        `json:"conversion_rate"`
	Daily            []DailyMetrics `json:"daily"`
}

// DailyMetrics contains metrics for a single day
type DailyMetrics struct {
	Date        string `json:"date"`
	Scans       int    `json:"scans"`
	Conversions int    `json:"conversions"`
	Enrollments int    `json:"enrollments"`
}

// RestaurantSummary totals every program of one restaurant.
type RestaurantSummary struct {
	RestaurantID string           `json:"restaurant_id"`
	Programs     []ProgramSummary `json:"programs"`
	TotalScans   int              `json:"total_scans"`
	TotalCards   int              `json:"total_cards"`
}

type ProgramSummary struct {
	ProgramID   string `json:"program_id"`
	DisplayName string `json:"display_name"`
	IsActive    bool   `json:"is_active"`
	Scans       int    `json:"scans"`
	Conversions int    `json:"conversions"`
	Cards       int    `json:"cards"`
}

// GetProgramAnalytics returns the last days days of activity, one entry per
// calendar day (UTC), oldest first. Days without activity are included.
// Scans are bucketed by scan time and conversions by conversion time.
func (s *Service) GetProgramAnalytics(ctx context.Context, programID string, days int) (*ProgramAnalytics, error) {
	if days <= 0 || days > MaxDays {
		return nil, ErrInvalidRange
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))

	var scans []models.ScanEvent
	err := s.db.NewSelect().
		Model(&scans).
		Column("scanned_at", "converted", "converted_at").
		Where("loyalty_card_id = ?", programID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("scanned_at >= ?", from).WhereOr("converted_at >= ?", from)
		}).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var cards []models.Enrollment
	err = s.db.NewSelect().
		Model(&cards).
		Column("created_at", "is_completed").
		Where("loyalty_card_id = ?", programID).
		Where("created_at >= ?", from).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, days)
	daily := make([]DailyMetrics, days)
	for i := range daily {
		d := from.AddDate(0, 0, i).Format(dateLayout)
		daily[i].Date = d
		index[d] = i
	}

	result := &ProgramAnalytics{
		ProgramID: programID,
		From:      from.Format(dateLayout),
		To:        today.Format(dateLayout),
	}
	for _, scan := range scans {
		if i, ok := index[scan.ScannedAt.UTC().Format(dateLayout)]; ok {
			daily[i].Scans++
			result.TotalScans++
		}
		if !scan.Converted || scan.ConvertedAt.IsZero() {
			continue
		}
		// conversions count on the day they happened, even for older scans
		if i, ok := index[scan.ConvertedAt.UTC().Format(dateLayout)]; ok {
			daily[i].Conversions++
			result.TotalConversions++
		}
	}
	for _, card := range cards {
		if i, ok := index[card.CreatedAt.UTC().Format(dateLayout)]; ok {
			daily[i].Enrollments++
			result.TotalEnrollments++
		}
		if card.IsCompleted {
			result.CompletedCards++
		}
	}
	if result.TotalScans > 0 {
		result.ConversionRate = float64(result.TotalConversions) / float64(result.TotalScans)
	}
	result.Daily = daily
	return result, nil
}

// GetRestaurantSummary lists all-time totals for every program of a
// restaurant.
func (s *Service) GetRestaurantSummary(ctx context.Context, restaurantID string) (*RestaurantSummary, error) {
	var programs []models.Program
	err := s.db.NewSelect().
		Model(&programs).
		Where("restaurant_id = ?", restaurantID).
		OrderExpr("display_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RestaurantSummary{RestaurantID: restaurantID, Programs: make([]ProgramSummary, 0, len(programs))}
	if len(programs) == 0 {
		return summary, nil
	}

	ids := make([]string, 0, len(programs))
	for _, p := range programs {
		ids = append(ids, p.ID)
	}

	type countRow struct {
		LoyaltyCardID string `bun:"loyalty_card_id"`
		Total         int    `bun:"total"`
		Converted     int    `bun:"converted_total"`
	}

	var scanRows []countRow
	err = s.db.NewSelect().
		Model((*models.ScanEvent)(nil)).
		Column("loyalty_card_id").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("SUM(CASE WHEN converted THEN 1 ELSE 0 END) AS converted_total").
		Where("loyalty_card_id IN (?)", bun.In(ids)).
		Group("loyalty_card_id").
		Scan(ctx, &scanRows)
	if err != nil {
		return nil, err
	}

	var cardRows []countRow
	err = s.db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Column("loyalty_card_id").
		ColumnExpr("COUNT(*) AS total").
		Where("loyalty_card_id IN (?)", bun.In(ids)).
		Group("loyalty_card_id").
		Scan(ctx, &cardRows)
	if err != nil {
		return nil, err
	}

	scansBy := make(map[string]countRow, len(scanRows))
	for _, r := range scanRows {
		scansBy[r.LoyaltyCardID] = r
	}
	cardsBy := make(map[string]int, len(cardRows))
	for _, r := range cardRows {
		cardsBy[r.LoyaltyCardID] = r.Total
	}

	for _, p := range programs {
		ps := ProgramSummary{
			ProgramID:   p.ID,
			DisplayName: p.DisplayName,
			IsActive:    p.IsActive,
			Scans:       scansBy[p.ID].Total,
			Conversions: scansBy[p.ID].Converted,
			Cards:       cardsBy[p.ID],
		}
		summary.TotalScans += ps.Scans
		summary.TotalCards += ps.Cards
		summary.Programs = append(summary.Programs, ps)
	}
	return summary, nil
}
