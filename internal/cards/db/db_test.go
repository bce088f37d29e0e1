package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, db.EnsureSchema(context.Background(), bunDB))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}, bunDB
}

func seedProgram(t *testing.T, bunDB *bun.DB, p models.Program) models.Program {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := bunDB.NewInsert().Model(&p).Exec(context.Background())
	require.NoError(t, err)
	return p
}

func TestListDiscoverablePrograms(t *testing.T) {
	cardDB, bunDB := setupTestDB(t)
	ctx := context.Background()

	seedProgram(t, bunDB, models.Program{ID: "p1", IsActive: true, DiscoveryQRCode: "abc", DisplayName: "Cafe X"})
	seedProgram(t, bunDB, models.Program{ID: "p2", IsActive: false, DiscoveryQRCode: "def", DisplayName: "Closed"})
	seedProgram(t, bunDB, models.Program{ID: "p3", IsActive: true, DisplayName: "Hidden"})
	seedProgram(t, bunDB, models.Program{ID: "p4", IsActive: true, DiscoveryQRCode: "ghi", DisplayName: "Bar Y"})

	programs, err := cardDB.ListDiscoverablePrograms(ctx)
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, "p4", programs[0].ID)
	assert.Equal(t, "p1", programs[1].ID)
}

func TestGetProgramByDiscoveryCode(t *testing.T) {
	cardDB, bunDB := setupTestDB(t)
	ctx := context.Background()

	seedProgram(t, bunDB, models.Program{ID: "p1", IsActive: true, DiscoveryQRCode: "abc"})
	seedProgram(t, bunDB, models.Program{ID: "p2", IsActive: false, DiscoveryQRCode: "off"})

	p, err := cardDB.GetProgramByDiscoveryCode(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = cardDB.GetProgramByDiscoveryCode(ctx, "off")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = cardDB.GetProgramByID(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestInsertEnrollmentIsUniquePerCustomerAndProgram(t *testing.T) {
	cardDB, bunDB := setupTestDB(t)
	ctx := context.Background()
	seedProgram(t, bunDB, models.Program{ID: "p1", IsActive: true, DiscoveryQRCode: "abc"})

	first := &models.Enrollment{ID: uuid.NewString(), CustomerID: "u1", LoyaltyCardID: "p1", CardNumber: 12345678}
	inserted, err := cardDB.InsertEnrollment(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	second := &models.Enrollment{ID: uuid.NewString(), CustomerID: "u1", LoyaltyCardID: "p1", CardNumber: 87654321, CurrentStamps: 4}
	inserted, err = cardDB.InsertEnrollment(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	cards, err := cardDB.ListEnrollmentsByCustomer(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, first.ID, cards[0].ID)
	assert.Equal(t, 0, cards[0].CurrentStamps)

	exists, err := cardDB.EnrollmentExists(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = cardDB.EnrollmentExists(ctx, "u2", "p1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInsertEnrollmentDuplicateCardNumber(t *testing.T) {
	cardDB, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := cardDB.InsertEnrollment(ctx, &models.Enrollment{ID: uuid.NewString(), CustomerID: "u1", LoyaltyCardID: "p1", CardNumber: 11112222})
	require.NoError(t, err)

	inserted, err := cardDB.InsertEnrollment(ctx, &models.Enrollment{ID: uuid.NewString(), CustomerID: "u2", LoyaltyCardID: "p1", CardNumber: 11112222})
	assert.False(t, inserted)
	assert.ErrorIs(t, err, db.ErrDuplicateCardNumber)
}

func TestGetEnrollmentByCardNumber(t *testing.T) {
	cardDB, _ := setupTestDB(t)
	ctx := context.Background()

	card := &models.Enrollment{
		ID:            uuid.NewString(),
		CustomerID:    "u1",
		LoyaltyCardID: "p1",
		CardNumber:    55554444,
		CardSnapshot:  models.CardSnapshot{DisplayName: "Cafe X", StampsRequired: 5},
	}
	_, err := cardDB.InsertEnrollment(ctx, card)
	require.NoError(t, err)

	got, err := cardDB.GetEnrollmentByCardNumber(ctx, 55554444)
	require.NoError(t, err)
	assert.Equal(t, "Cafe X", got.DisplayName)
	assert.Equal(t, 5, got.StampsRequired)

	_, err = cardDB.GetEnrollmentByCardNumber(ctx, 1)
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = cardDB.GetEnrollment(ctx, "u1", "other")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestConvertLatestScan(t *testing.T) {
	cardDB, _ := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	scans := []models.ScanEvent{
		{ID: "s-old", LoyaltyCardID: "p1", VisitorID: "v1", ScannedAt: base},
		{ID: "s-new", LoyaltyCardID: "p1", VisitorID: "v2", ScannedAt: base.Add(time.Minute)},
		{ID: "s-owned", LoyaltyCardID: "p1", CustomerID: "u9", VisitorID: "v3", ScannedAt: base.Add(2 * time.Minute)},
		{ID: "s-other", LoyaltyCardID: "p2", VisitorID: "v1", ScannedAt: base.Add(3 * time.Minute)},
	}
	for i := range scans {
		require.NoError(t, cardDB.CreateScanEvent(ctx, &scans[i]))
	}

	// visitor-scoped: v1's scan wins even though it is older
	id, err := cardDB.ConvertLatestScan(ctx, "p1", "u1", "v1", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "s-old", id)

	converted, err := cardDB.GetScanEvent(ctx, "s-old")
	require.NoError(t, err)
	assert.True(t, converted.Converted)
	assert.Equal(t, "u1", converted.CustomerID)

	// unscoped: most recent viewer-less scan of the program
	id, err = cardDB.ConvertLatestScan(ctx, "p1", "u2", "", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "s-new", id)

	_, err = cardDB.ConvertLatestScan(ctx, "p1", "u3", "", base.Add(time.Hour))
	assert.ErrorIs(t, err, db.ErrNotFound)

	stats, err := cardDB.ScanStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scans)
	assert.Equal(t, 2, stats.Conversions)
}
