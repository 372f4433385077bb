package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/schedule"
)

func buildTestStore() *schedule.Store {
	trips := []*models.Trip{
		{
			ID:       1,
			Capacity: 40,
			StopTimes: []models.StopTime{
				{StopID: 10, Sequence: 0, Departure: 27000},       // 07:30
				{StopID: 20, Sequence: 1, Arrival: 27600, Departure: 27660}, // 07:40 / 07:41
				{StopID: 30, Sequence: 2, Arrival: 28200},          // 07:50
			},
		},
		{
			ID:       2,
			Capacity: 40,
			StopTimes: []models.StopTime{
				{StopID: 20, Sequence: 0, Departure: 28800}, // 08:00
				{StopID: 30, Sequence: 1, Arrival: 29400},   // 08:10
			},
		},
	}
	stops := []*models.Stop{
		{ID: 10, Transfers: map[models.StopID]int{}},
		{ID: 20, Transfers: map[models.StopID]int{10: 120}},
		{ID: 30, Transfers: map[models.StopID]int{}},
	}
	tazs := []*models.TAZ{
		{ID: 1, AccessLinks: map[models.StopID]int{10: 300}},
		{ID: 2, AccessLinks: map[models.StopID]int{30: 300}},
	}
	return schedule.New(trips, stops, tazs)
}

func TestStore_LookupsByID(t *testing.T) {
	store := buildTestStore()

	trip, err := store.Trip(1)
	require.NoError(t, err)
	assert.Equal(t, models.TripID(1), trip.ID)

	stop, err := store.Stop(20)
	require.NoError(t, err)
	assert.Equal(t, 120, stop.Transfers[10])

	taz, err := store.TAZ(2)
	require.NoError(t, err)
	assert.Equal(t, 300, taz.AccessLinks[30])
}

func TestStore_MissingLookupsReturnMissingDataError(t *testing.T) {
	store := buildTestStore()

	_, err := store.Trip(999)
	require.Error(t, err)
	var missing *models.MissingDataError
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "trip", missing.Kind)

	_, err = store.Stop(999)
	require.Error(t, err)
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "stop", missing.Kind)

	_, err = store.TAZ(999)
	require.Error(t, err)
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "taz", missing.Kind)
}

func TestStore_AllTripsReturnsEveryTrip(t *testing.T) {
	store := buildTestStore()
	all := store.AllTrips()
	assert.Len(t, all, 2)
}

func TestStore_TripsArrivingWithin(t *testing.T) {
	store := buildTestStore()

	// stop 30 has arrivals at 28200 (trip 1) and 29400 (trip 2). The window
	// is one-sided [t-window, t]: an arrival after t must never be
	// returned, even when it falls within the window's magnitude.
	hits := store.TripsArrivingWithin(30, 28200, 60)
	require.Len(t, hits, 1)
	assert.Equal(t, models.TripID(1), hits[0].TripID)

	hits = store.TripsArrivingWithin(30, 29400, 1300)
	assert.Len(t, hits, 2)

	// trip 1's arrival (28200) is within 1000s of 28100, but it is *after*
	// t and must be excluded by the one-sided bound.
	assert.Empty(t, store.TripsArrivingWithin(30, 28100, 1000))

	assert.Empty(t, store.TripsArrivingWithin(30, 0, 10))
}

func TestStore_TripsDepartingWithin(t *testing.T) {
	store := buildTestStore()

	// stop 20 has departures at 27660 (trip 1) and 28800 (trip 2). The
	// window is one-sided [t, t+window]: a departure before t must never
	// be returned.
	hits := store.TripsDepartingWithin(20, 27660, 0)
	require.Len(t, hits, 1)
	assert.Equal(t, models.TripID(1), hits[0].TripID)

	hits = store.TripsDepartingWithin(20, 27660, 1200)
	assert.Len(t, hits, 2)

	// trip 1's departure (27660) is within 1000s of 27700, but it is
	// *before* t and must be excluded by the one-sided bound.
	assert.Empty(t, store.TripsDepartingWithin(20, 27700, 1000))
}

func TestStore_WindowLookupIsSortedByTime(t *testing.T) {
	store := buildTestStore()
	hits := store.TripsArrivingWithin(30, 29400, 1300)
	require.Len(t, hits, 2)
	assert.LessOrEqual(t, hits[0].Time, hits[1].Time)
}
