// Package discovery handles pages reached through a scanned discovery code:
// it records the scan, highlights the matching card, and later attributes
// the scan to the enrollment it led to.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/kafka"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/session"
	"ms-fidelity/internal/utils"
)

// QRParam is the query parameter carrying a discovery code.
const QRParam = "qr"

type DiscoveryDBLayer interface {
	GetProgramByDiscoveryCode(ctx context.Context, code string) (*models.Program, error)
	CreateScanEvent(ctx context.Context, scan *models.ScanEvent) error
	ConvertLatestScan(ctx context.Context, programID, customerID, visitorID string, at time.Time) (string, error)
}

type Topics struct {
	ScanRecorded  string
	ScanConverted string
}

// ScanMetrics counts scans and conversions. Optional.
type ScanMetrics interface {
	ScanRecorded()
	ScanConverted()
}

type Service struct {
	DB        DiscoveryDBLayer
	Publisher kafka.Publisher
	Topics    Topics
	Metrics   ScanMetrics
	Logger    *logger.Logger

	now func() time.Time
}

func NewService(database DiscoveryDBLayer, publisher kafka.Publisher, topics Topics, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &Service{
		DB:        database,
		Publisher: publisher,
		Topics:    topics,
		Logger:    log,
		now:       time.Now,
	}
}

// ScanMeta is the request metadata stored with a scan.
type ScanMeta struct {
	IPAddress string
	UserAgent string
}

// Overlay is the focused card shown after a scan.
type Overlay struct {
	Entry    catalog.Entry
	ScanID   string
	CloseURL string
}

// Discover resolves code against the catalog already loaded for this
// request. Unknown codes and codes of programs missing from entries yield no
// overlay and no error; lookup failures are returned.
func (s *Service) Discover(ctx context.Context, state *session.State, code string, meta ScanMeta, entries []catalog.Entry, current *url.URL) (*Overlay, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	program, err := s.DB.GetProgramByDiscoveryCode(ctx, code)
	if errors.Is(err, db.ErrNotFound) {
		s.Logger.LogScan("unknown_code", code, "no active program")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve discovery code: %w", err)
	}

	scanID := s.recordScan(ctx, state, program.ID, meta)

	if !state.Authenticated() {
		intent := models.PendingIntent{
			ProgramID:    program.ID,
			RestaurantID: program.RestaurantID,
			FromQR:       true,
		}
		if err := state.Remember(ctx, intent); err != nil {
			s.Logger.Warn("SCAN", fmt.Sprintf("could not keep pending intent for %s: %v", program.ID, err))
		}
	}

	entry, ok := catalog.Find(entries, program.ID)
	if !ok {
		s.Logger.LogScan("not_in_catalog", program.ID, "no card to highlight")
		return nil, nil
	}

	return &Overlay{
		Entry:    entry,
		ScanID:   scanID,
		CloseURL: StripQRParam(current),
	}, nil
}

// recordScan stores the scan event. Failures are logged and swallowed.
func (s *Service) recordScan(ctx context.Context, state *session.State, programID string, meta ScanMeta) string {
	scan := &models.ScanEvent{
		ID:            utils.NewID(),
		LoyaltyCardID: programID,
		CustomerID:    state.ViewerID(),
		VisitorID:     state.VisitorID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		ScannedAt:     s.now().UTC(),
	}
	if err := s.DB.CreateScanEvent(ctx, scan); err != nil {
		s.Logger.Error("SCAN", fmt.Sprintf("failed to record scan for %s: %v", programID, err))
		return ""
	}
	s.Logger.LogScan("recorded", programID, "visitor "+state.VisitorID)
	if s.Metrics != nil {
		s.Metrics.ScanRecorded()
	}

	event := models.ScanRecordedEvent{
		ScanID:        scan.ID,
		LoyaltyCardID: programID,
		CustomerID:    scan.CustomerID,
		ScannedAt:     scan.ScannedAt,
	}
	if err := s.Publisher.Publish(ctx, s.Topics.ScanRecorded, programID, event); err != nil {
		s.Logger.Warn("KAFKA", "scan recorded event not published: "+err.Error())
	}
	return scan.ID
}

// Reconcile attributes a viewer-less scan of programID to viewerID after an
// enrollment. The visitor's own latest scan is preferred; without one the
// latest viewer-less scan of the program is used. Returns the converted scan
// id, or "" when there was nothing to convert.
func (s *Service) Reconcile(ctx context.Context, programID, viewerID, visitorID string) (string, error) {
	at := s.now().UTC()

	var scanID string
	var err error
	if visitorID != "" {
		scanID, err = s.DB.ConvertLatestScan(ctx, programID, viewerID, visitorID, at)
	}
	if visitorID == "" || errors.Is(err, db.ErrNotFound) {
		scanID, err = s.DB.ConvertLatestScan(ctx, programID, viewerID, "", at)
	}
	if errors.Is(err, db.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("convert scan: %w", err)
	}

	s.Logger.LogScan("converted", programID, fmt.Sprintf("scan %s -> customer %s", scanID, viewerID))
	if s.Metrics != nil {
		s.Metrics.ScanConverted()
	}

	event := models.ScanConvertedEvent{
		ScanID:        scanID,
		LoyaltyCardID: programID,
		CustomerID:    viewerID,
		ConvertedAt:   at,
	}
	if err := s.Publisher.Publish(ctx, s.Topics.ScanConverted, programID, event); err != nil {
		s.Logger.Warn("KAFKA", "scan converted event not published: "+err.Error())
	}
	return scanID, nil
}

// StripQRParam returns u as a request URI without the qr parameter. Other
// parameters keep their order and encoding.
func StripQRParam(u *url.URL) string {
	if u == nil {
		return "/"
	}

	var kept []string
	for _, part := range strings.Split(u.RawQuery, "&") {
		if part == "" {
			continue
		}
		key := part
		if i := strings.IndexByte(part, '='); i >= 0 {
			key = part[:i]
		}
		if k, err := url.QueryUnescape(key); err == nil && k == QRParam {
			continue
		}
		kept = append(kept, part)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if len(kept) == 0 {
		return path
	}
	return path + "?" + strings.Join(kept, "&")
}
