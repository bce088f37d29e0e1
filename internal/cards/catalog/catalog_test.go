package catalog_test

import (
	"context"
	"errors"
	"testing"

	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalogDB struct {
	mock.Mock
}

func (m *MockCatalogDB) ListDiscoverablePrograms(ctx context.Context) ([]models.Program, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Program), args.Error(1)
}

func (m *MockCatalogDB) ListEnrollmentsByCustomer(ctx context.Context, customerID string) ([]models.Enrollment, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Enrollment), args.Error(1)
}

func programs() []models.Program {
	return []models.Program{
		{ID: "p1", IsActive: true, DiscoveryQRCode: "abc", DisplayName: "Cafe X", LocationName: "Milano", StampsRequired: 5},
		{ID: "p2", IsActive: true, DiscoveryQRCode: "def", DisplayName: "Pizzeria Roma", LocationName: "Roma"},
		{ID: "p3", IsActive: false, DiscoveryQRCode: "ghi", DisplayName: "Closed"},
		{ID: "p4", IsActive: true, DisplayName: "Hidden"},
	}
}

func TestLoadAnonymous(t *testing.T) {
	mockDB := new(MockCatalogDB)
	mockDB.On("ListDiscoverablePrograms", mock.Anything).Return(programs(), nil)

	entries, err := catalog.NewLoader(mockDB).Load(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].Program.ID)
	assert.Equal(t, "p2", entries[1].Program.ID)
	for _, e := range entries {
		assert.False(t, e.Owned())
	}
	mockDB.AssertNotCalled(t, "ListEnrollmentsByCustomer", mock.Anything, mock.Anything)
}

func TestLoadMergesViewerCards(t *testing.T) {
	mockDB := new(MockCatalogDB)
	mockDB.On("ListDiscoverablePrograms", mock.Anything).Return(programs(), nil)
	mockDB.On("ListEnrollmentsByCustomer", mock.Anything, "u1").Return([]models.Enrollment{
		{ID: "e1", CustomerID: "u1", LoyaltyCardID: "p2", CurrentStamps: 4},
		{ID: "e2", CustomerID: "u1", LoyaltyCardID: "gone"},
	}, nil)

	entries, err := catalog.NewLoader(mockDB).Load(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Nil(t, entries[0].Enrollment)
	require.NotNil(t, entries[1].Enrollment)
	assert.Equal(t, "e1", entries[1].Enrollment.ID)
	assert.Equal(t, 4, entries[1].Enrollment.CurrentStamps)
	mockDB.AssertExpectations(t)
}

func TestLoadFailsWhole(t *testing.T) {
	mockDB := new(MockCatalogDB)
	mockDB.On("ListDiscoverablePrograms", mock.Anything).Return(programs(), nil)
	mockDB.On("ListEnrollmentsByCustomer", mock.Anything, "u1").Return(nil, errors.New("connection reset"))

	entries, err := catalog.NewLoader(mockDB).Load(context.Background(), "u1")
	assert.Nil(t, entries)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLoadProgramsError(t *testing.T) {
	mockDB := new(MockCatalogDB)
	mockDB.On("ListDiscoverablePrograms", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := catalog.NewLoader(mockDB).Load(context.Background(), "")
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestLoadEmpty(t *testing.T) {
	mockDB := new(MockCatalogDB)
	mockDB.On("ListDiscoverablePrograms", mock.Anything).Return([]models.Program{}, nil)

	entries, err := catalog.NewLoader(mockDB).Load(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestFilter(t *testing.T) {
	owned := &models.Enrollment{ID: "e1"}
	entries := []catalog.Entry{
		{Program: models.Program{ID: "p1", DisplayName: "Cafe X", LocationName: "Milano"}},
		{Program: models.Program{ID: "p2", DisplayName: "Pizzeria Roma", LocationName: "Roma"}, Enrollment: owned},
		{Program: models.Program{ID: "p3", DisplayName: "Gelato", LocationName: "milano"}},
	}

	ids := func(es []catalog.Entry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.Program.ID)
		}
		return out
	}

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(catalog.Filter{}.Apply(entries)))
	assert.Equal(t, []string{"p1"}, ids(catalog.Filter{Query: "CAFE"}.Apply(entries)))
	assert.Equal(t, []string{"p2"}, ids(catalog.Filter{Query: "rom"}.Apply(entries)))
	assert.Equal(t, []string{"p1", "p3"}, ids(catalog.Filter{Location: "Milano"}.Apply(entries)))
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(catalog.Filter{Location: catalog.AllLocations}.Apply(entries)))
	assert.Equal(t, []string{"p2"}, ids(catalog.Filter{MineOnly: true}.Apply(entries)))
	assert.Empty(t, catalog.Filter{MineOnly: true, Query: "gelato"}.Apply(entries))
}

func TestLocationsAndFind(t *testing.T) {
	entries := []catalog.Entry{
		{Program: models.Program{ID: "p1", LocationName: "Milano"}},
		{Program: models.Program{ID: "p2", LocationName: "Roma"}},
		{Program: models.Program{ID: "p3", LocationName: "milano"}},
		{Program: models.Program{ID: "p4"}},
	}
	assert.Equal(t, []string{"Milano", "Roma"}, catalog.Locations(entries))

	e, ok := catalog.Find(entries, "p2")
	assert.True(t, ok)
	assert.Equal(t, "Roma", e.Program.LocationName)

	_, ok = catalog.Find(entries, "missing")
	assert.False(t, ok)
}
