package enrollment

import (
	"context"
	"database/sql"
	"net/url"
	"testing"
	"time"

	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/cards/discovery"
	"ms-fidelity/internal/kafka"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"
	"ms-fidelity/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupCardDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, db.EnsureSchema(context.Background(), bunDB))
	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

// A visitor scans p1's code while signed out, signs up, and the pending
// enrollment resumes: the card is created and the scan is attributed.
func TestScanThenSignUpConvertsScan(t *testing.T) {
	ctx := context.Background()
	cardDB := setupCardDB(t)
	log := logger.NewNopLogger()

	program := models.Program{ID: "p1", RestaurantID: "r1", IsActive: true, DiscoveryQRCode: "abc", StampsRequired: 5, DisplayName: "Cafe X"}
	_, err := cardDB.Bun.NewInsert().Model(&program).Exec(ctx)
	require.NoError(t, err)

	disc := discovery.NewService(cardDB, kafka.NopPublisher{}, discovery.Topics{}, log)
	workflow := NewWorkflow(cardDB, nil, disc, kafka.NopPublisher{}, "", 2*time.Second, log)
	pending := newMemoryPending()

	entries, err := catalog.NewLoader(cardDB).Load(ctx, "")
	require.NoError(t, err)

	anon := session.NewState("visitor-1", nil, pending)
	current, _ := url.Parse("/programs?qr=abc")
	overlay, err := disc.Discover(ctx, anon, "abc", discovery.ScanMeta{UserAgent: "phone"}, entries, current)
	require.NoError(t, err)
	require.NotNil(t, overlay)
	assert.Equal(t, "p1", overlay.Entry.Program.ID)

	scan, err := cardDB.GetScanEvent(ctx, overlay.ScanID)
	require.NoError(t, err)
	assert.Empty(t, scan.CustomerID)
	assert.False(t, scan.Converted)

	// sign-up happened; the next request carries the new viewer
	state := session.NewState("visitor-1", &models.Viewer{ID: "u-new"}, pending)
	res := workflow.Resume(ctx, state)
	require.NotNil(t, res)
	assert.Equal(t, OutcomeInserted, res.Outcome)

	card, err := cardDB.GetEnrollment(ctx, "u-new", "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, card.CurrentStamps)
	assert.Equal(t, "Cafe X", card.DisplayName)

	scan, err = cardDB.GetScanEvent(ctx, overlay.ScanID)
	require.NoError(t, err)
	assert.Equal(t, "u-new", scan.CustomerID)
	assert.True(t, scan.Converted)
	assert.False(t, scan.ConvertedAt.IsZero())

	// a second click on the same card changes nothing
	again, err := workflow.Enroll(ctx, state, Request{ProgramID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyEnrolled, again.Outcome)

	cards, err := cardDB.ListEnrollmentsByCustomer(ctx, "u-new")
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}
