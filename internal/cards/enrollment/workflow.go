// Package enrollment runs one "get this card" attempt from request to the
// inserted customer card.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/kafka"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/session"
	"ms-fidelity/internal/utils"
)

var (
	// ErrLocked means another attempt for the same card is in flight.
	ErrLocked             = errors.New("enrollment already in progress")
	ErrProgramNotFound    = errors.New("program not found")
	ErrProgramUnavailable = errors.New("program is not active")
	ErrMissingProgram     = errors.New("program id is required")
)

// cardNumberAttempts bounds retries when a generated card number collides.
const cardNumberAttempts = 3

type EnrollmentDBLayer interface {
	GetProgramByID(ctx context.Context, id string) (*models.Program, error)
	EnrollmentExists(ctx context.Context, customerID, programID string) (bool, error)
	InsertEnrollment(ctx context.Context, card *models.Enrollment) (bool, error)
}

type Locker interface {
	LockEnrollment(ctx context.Context, customerID, programID, token string) (bool, error)
	UnlockEnrollment(ctx context.Context, customerID, programID, token string) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, programID, viewerID, visitorID string) (string, error)
}

// Notifier is told about new cards so open pages can refresh.
type Notifier interface {
	CardAdded(viewerID string, card models.Enrollment)
}

type Outcome string

const (
	OutcomeAuthRequired    Outcome = "auth_required"
	OutcomeAlreadyEnrolled Outcome = "already_enrolled"
	OutcomeInserted        Outcome = "inserted"
)

type Request struct {
	ProgramID    string
	RestaurantID string
	// Resumed marks attempts replayed after sign-in; they stay silent.
	Resumed bool
	FromQR  bool
}

type Result struct {
	Outcome    Outcome
	Enrollment *models.Enrollment
	// ShowNotice asks for the "already have this card" notice.
	ShowNotice bool
	// ShowSuccess and ReloadAfter drive the success dialog of explicit
	// attempts.
	ShowSuccess bool
	ReloadAfter time.Duration
}

type Workflow struct {
	DB          EnrollmentDBLayer
	Lock        Locker
	Reconciler  Reconciler
	Publisher   kafka.Publisher
	Notifier    Notifier
	Topic       string
	ReloadDelay time.Duration
	Logger      *logger.Logger

	now           func() time.Time
	newCardNumber func() (int64, error)
}

func NewWorkflow(database EnrollmentDBLayer, lock Locker, reconciler Reconciler, publisher kafka.Publisher, topic string, reloadDelay time.Duration, log *logger.Logger) *Workflow {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	if reloadDelay <= 0 {
		reloadDelay = 2 * time.Second
	}
	return &Workflow{
		DB:            database,
		Lock:          lock,
		Reconciler:    reconciler,
		Publisher:     publisher,
		Topic:         topic,
		ReloadDelay:   reloadDelay,
		Logger:        log,
		now:           time.Now,
		newCardNumber: utils.GenerateCardNumber,
	}
}

// Enroll runs one attempt. Anonymous visitors get OutcomeAuthRequired and
// their request is kept on state for Resume. Any backend failure aborts the
// attempt and is returned.
func (w *Workflow) Enroll(ctx context.Context, state *session.State, req Request) (*Result, error) {
	if req.ProgramID == "" {
		return nil, ErrMissingProgram
	}

	if !state.Authenticated() {
		intent := models.PendingIntent{
			ProgramID:    req.ProgramID,
			RestaurantID: req.RestaurantID,
			FromQR:       req.FromQR,
		}
		if err := state.Remember(ctx, intent); err != nil {
			return nil, fmt.Errorf("keep pending enrollment: %w", err)
		}
		w.Logger.LogEnrollment("auth_required", req.ProgramID, "visitor "+state.VisitorID)
		return &Result{Outcome: OutcomeAuthRequired}, nil
	}

	viewerID := state.ViewerID()
	unlock, err := w.acquire(ctx, viewerID, req.ProgramID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	exists, err := w.DB.EnrollmentExists(ctx, viewerID, req.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("check existing card: %w", err)
	}
	if exists {
		w.Logger.LogEnrollment("already_enrolled", req.ProgramID, "customer "+viewerID)
		return &Result{Outcome: OutcomeAlreadyEnrolled, ShowNotice: !req.Resumed}, nil
	}

	program, err := w.DB.GetProgramByID(ctx, req.ProgramID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	if !program.IsActive {
		return nil, ErrProgramUnavailable
	}

	card, inserted, err := w.insert(ctx, viewerID, req, program)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// lost a race the lock did not cover
		w.Logger.LogEnrollment("already_enrolled", req.ProgramID, "customer "+viewerID+" (conflict)")
		return &Result{Outcome: OutcomeAlreadyEnrolled, ShowNotice: !req.Resumed}, nil
	}
	w.Logger.LogEnrollment("inserted", req.ProgramID, fmt.Sprintf("customer %s card #%d", viewerID, card.CardNumber))

	w.afterInsert(ctx, state, card)

	res := &Result{Outcome: OutcomeInserted, Enrollment: card}
	if !req.Resumed {
		res.ShowSuccess = true
		res.ReloadAfter = w.ReloadDelay
	}
	return res, nil
}

// Resume replays the pending intent of a visitor who just signed in. It
// returns nil when there was nothing to resume. Failures are logged only.
func (w *Workflow) Resume(ctx context.Context, state *session.State) *Result {
	if !state.Authenticated() {
		return nil
	}
	intent, err := state.TakePending(ctx)
	if err != nil {
		w.Logger.Error("ENROLL", "could not load pending enrollment: "+err.Error())
		return nil
	}
	if intent == nil {
		return nil
	}

	res, err := w.Enroll(ctx, state, Request{
		ProgramID:    intent.ProgramID,
		RestaurantID: intent.RestaurantID,
		FromQR:       intent.FromQR,
		Resumed:      true,
	})
	if err != nil {
		w.Logger.Error("ENROLL", fmt.Sprintf("resumed enrollment for %s failed: %v", intent.ProgramID, err))
		return nil
	}
	return res
}

func (w *Workflow) acquire(ctx context.Context, viewerID, programID string) (func(), error) {
	noop := func() {}
	if w.Lock == nil {
		return noop, nil
	}

	token := utils.NewID()
	ok, err := w.Lock.LockEnrollment(ctx, viewerID, programID, token)
	if err != nil {
		// the unique constraint still holds without the lock
		w.Logger.Warn("ENROLL", "enrollment lock unavailable: "+err.Error())
		return noop, nil
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := w.Lock.UnlockEnrollment(context.Background(), viewerID, programID, token); err != nil {
			w.Logger.Warn("ENROLL", "failed to release enrollment lock: "+err.Error())
		}
	}, nil
}

func (w *Workflow) insert(ctx context.Context, viewerID string, req Request, program *models.Program) (*models.Enrollment, bool, error) {
	restaurantID := program.RestaurantID
	if restaurantID == "" {
		restaurantID = req.RestaurantID
	}

	snapshot := models.SnapshotOf(*program)
	snapshot.StampsRequired = program.StampTarget()

	for attempt := 1; ; attempt++ {
		number, err := w.newCardNumber()
		if err != nil {
			return nil, false, fmt.Errorf("generate card number: %w", err)
		}

		card := &models.Enrollment{
			ID:            utils.NewID(),
			CustomerID:    viewerID,
			LoyaltyCardID: program.ID,
			RestaurantID:  restaurantID,
			CurrentStamps: 0,
			IsCompleted:   false,
			CardNumber:    number,
			CardSnapshot:  snapshot,
			CreatedAt:     w.now().UTC(),
		}

		inserted, err := w.DB.InsertEnrollment(ctx, card)
		if errors.Is(err, db.ErrDuplicateCardNumber) && attempt < cardNumberAttempts {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("insert card: %w", err)
		}
		return card, inserted, nil
	}
}

// afterInsert runs the best-effort steps that follow a new card.
func (w *Workflow) afterInsert(ctx context.Context, state *session.State, card *models.Enrollment) {
	if w.Reconciler != nil {
		if _, err := w.Reconciler.Reconcile(ctx, card.LoyaltyCardID, card.CustomerID, state.VisitorID); err != nil {
			w.Logger.Warn("SCAN", fmt.Sprintf("scan conversion failed for %s: %v", card.LoyaltyCardID, err))
		}
	}

	event := models.EnrollmentCreatedEvent{
		EnrollmentID:  card.ID,
		CustomerID:    card.CustomerID,
		LoyaltyCardID: card.LoyaltyCardID,
		RestaurantID:  card.RestaurantID,
		CardNumber:    card.CardNumber,
		CreatedAt:     card.CreatedAt,
	}
	if err := w.Publisher.Publish(ctx, w.Topic, card.CustomerID, event); err != nil {
		w.Logger.Warn("KAFKA", "enrollment event not published: "+err.Error())
	}

	if w.Notifier != nil {
		w.Notifier.CardAdded(card.CustomerID, *card)
	}
}
