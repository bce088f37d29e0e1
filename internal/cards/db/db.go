package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-fidelity/internal/models"
	"ms-fidelity/internal/utils"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateCardNumber = errors.New("card number already issued")
)

type DB struct {
	Bun *bun.DB
}

// EnsureSchema creates the card tables when they are missing. Production
// databases are migrated with internal/database/migrations instead.
func EnsureSchema(ctx context.Context, b *bun.DB) error {
	tables := []interface{}{
		(*models.Program)(nil),
		(*models.Enrollment)(nil),
		(*models.ScanEvent)(nil),
	}
	for _, m := range tables {
		if _, err := b.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ListDiscoverablePrograms returns every active program with a discovery
// code. The whole set is loaded at once.
func (d *DB) ListDiscoverablePrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	err := d.Bun.NewSelect().
		Model(&programs).
		Where("is_active = ?", true).
		Where("discovery_qr_code IS NOT NULL").
		Where("discovery_qr_code <> ''").
		OrderExpr("display_name ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return programs, nil
}

func (d *DB) GetProgramByID(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	err := d.Bun.NewSelect().
		Model(&program).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &program, nil
}

// GetProgramByDiscoveryCode resolves an active program from a scanned code.
func (d *DB) GetProgramByDiscoveryCode(ctx context.Context, code string) (*models.Program, error) {
	var program models.Program
	err := d.Bun.NewSelect().
		Model(&program).
		Where("discovery_qr_code = ?", code).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &program, nil
}

func (d *DB) ListEnrollmentsByCustomer(ctx context.Context, customerID string) ([]models.Enrollment, error) {
	var cards []models.Enrollment
	err := d.Bun.NewSelect().
		Model(&cards).
		Where("customer_id = ?", customerID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (d *DB) GetEnrollment(ctx context.Context, customerID, programID string) (*models.Enrollment, error) {
	var card models.Enrollment
	err := d.Bun.NewSelect().
		Model(&card).
		Where("customer_id = ?", customerID).
		Where("loyalty_card_id = ?", programID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

func (d *DB) EnrollmentExists(ctx context.Context, customerID, programID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Enrollment)(nil)).
		Where("customer_id = ?", customerID).
		Where("loyalty_card_id = ?", programID).
		Exists(ctx)
}

// InsertEnrollment writes card unless the customer already holds one for the
// same program. inserted is false when the unique pair already existed.
func (d *DB) InsertEnrollment(ctx context.Context, card *models.Enrollment) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(card).
		On("CONFLICT (customer_id, loyalty_card_id) DO NOTHING").
		Exec(ctx)
	if utils.IsUniqueViolation(err) {
		// the pair conflict is absorbed above; only card_number can collide
		return false, ErrDuplicateCardNumber
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) GetEnrollmentByCardNumber(ctx context.Context, cardNumber int64) (*models.Enrollment, error) {
	var card models.Enrollment
	err := d.Bun.NewSelect().
		Model(&card).
		Where("card_number = ?", cardNumber).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

func (d *DB) CreateScanEvent(ctx context.Context, scan *models.ScanEvent) error {
	_, err := d.Bun.NewInsert().Model(scan).Exec(ctx)
	return err
}

func (d *DB) GetScanEvent(ctx context.Context, id string) (*models.ScanEvent, error) {
	var scan models.ScanEvent
	err := d.Bun.NewSelect().
		Model(&scan).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &scan, nil
}

// ConvertLatestScan attributes the most recent viewer-less, unconverted scan
// of programID to customerID in one statement. A non-empty visitorID limits
// the candidates to that visitor's scans. Returns the converted scan id or
// ErrNotFound.
func (d *DB) ConvertLatestScan(ctx context.Context, programID, customerID, visitorID string, at time.Time) (string, error) {
	latest := d.Bun.NewSelect().
		TableExpr("qr_scan_events AS candidate").
		Column("candidate.id").
		Where("candidate.loyalty_card_id = ?", programID).
		Where("candidate.customer_id IS NULL").
		Where("candidate.converted = ?", false).
		OrderExpr("candidate.scanned_at DESC").
		Limit(1)
	if visitorID != "" {
		latest = latest.Where("candidate.visitor_id = ?", visitorID)
	}

	var id string
	err := d.Bun.NewUpdate().
		Model((*models.ScanEvent)(nil)).
		Set("customer_id = ?", customerID).
		Set("converted = ?", true).
		Set("converted_at = ?", at).
		Where("id = (?)", latest).
		Where("customer_id IS NULL").
		Returning("id").
		Scan(ctx, &id)
	if err != nil {
		return "", notFound(err)
	}
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (d *DB) ScanStats(ctx context.Context, programID string) (*models.ScanStats, error) {
	scans, err := d.Bun.NewSelect().
		Model((*models.ScanEvent)(nil)).
		Where("loyalty_card_id = ?", programID).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	conversions, err := d.Bun.NewSelect().
		Model((*models.ScanEvent)(nil)).
		Where("loyalty_card_id = ?", programID).
		Where("converted = ?", true).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ScanStats{
		LoyaltyCardID: programID,
		Scans:         scans,
		Conversions:   conversions,
	}, nil
}
