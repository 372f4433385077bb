package pathfinder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/pathfinder"
	"github.com/janzill/fasttrips-go/internal/schedule"
)

func secOfDay(h, m int) int { return h*3600 + m*60 }

func baseSearchConfig() pathfinder.SearchConfig {
	return pathfinder.SearchConfig{
		PathTimeWindow:             30 * time.Minute,
		BumpBuffer:                 5 * time.Minute,
		DispersionParameter:        1.0,
		MaxHyperpathAssignAttempts: 1001,
	}
}

// scenario A of spec.md §8: one-stop walk + one trip + one-stop walk,
// preferred arrival 08:00, trip departs 07:40 stop X, arrives 07:55 stop Y,
// 5-minute walks on both ends.
func TestDetSearch_WalkTripWalk(t *testing.T) {
	const (
		originTAZ  models.TAZID = 1
		destTAZ    models.TAZID = 2
		stopX      models.StopID = 10
		stopY      models.StopID = 20
		tripID     models.TripID = 100
	)

	trip := &models.Trip{
		ID:       tripID,
		Capacity: 50,
		StopTimes: []models.StopTime{
			{StopID: stopX, Sequence: 0, Arrival: secOfDay(7, 38), Departure: secOfDay(7, 40)},
			{StopID: stopY, Sequence: 1, Arrival: secOfDay(7, 55), Departure: secOfDay(7, 57)},
		},
	}
	stops := []*models.Stop{
		{ID: stopX, Transfers: map[models.StopID]int{}},
		{ID: stopY, Transfers: map[models.StopID]int{}},
	}
	tazs := []*models.TAZ{
		{ID: originTAZ, AccessLinks: map[models.StopID]int{stopX: 300}},
		{ID: destTAZ, AccessLinks: map[models.StopID]int{stopY: 300}},
	}
	store := schedule.New([]*models.Trip{trip}, stops, tazs)

	path := &models.Path{
		OriginTAZ:      originTAZ,
		DestinationTAZ: destTAZ,
		Direction:      models.OUTBOUND,
		PreferredTime:  secOfDay(8, 0),
	}

	found, err := pathfinder.DetSearch(store, baseSearchConfig(), models.BumpWaitTable{}, path)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, path.PathFound())
	require.Len(t, path.Sampled, 3)

	originEntry := path.Sampled[0]
	assert.True(t, originEntry.IsTAZ)
	assert.Equal(t, originTAZ, originEntry.TAZID)
	originState := originEntry.State()
	assert.Equal(t, models.ModeAccess, originState.Mode)
	assert.Equal(t, 25*60.0, originState.Label, "25 minute path label")
	assert.Equal(t, secOfDay(7, 35), originState.DeparrTime, "origin departure 07:35")

	tripEntry := path.Sampled[1]
	assert.Equal(t, stopX, tripEntry.StopID)
	assert.Equal(t, models.ModeTrip, tripEntry.State().Mode)
	assert.Equal(t, tripID, tripEntry.State().TripID)

	egressEntry := path.Sampled[2]
	assert.Equal(t, stopY, egressEntry.StopID)
	egressState := egressEntry.State()
	assert.Equal(t, models.ModeEgress, egressState.Mode)
	assert.Equal(t, secOfDay(7, 55), egressState.DeparrTime)
	assert.Equal(t, secOfDay(7, 55)+egressState.LinkTime, secOfDay(8, 0), "walking the egress link lands exactly on the preferred arrival")
}

// property 3 of spec.md §8: the deterministic search is idempotent.
func TestDetSearch_Idempotent(t *testing.T) {
	const (
		originTAZ models.TAZID  = 1
		destTAZ   models.TAZID  = 2
		stopX     models.StopID = 10
		stopY     models.StopID = 20
		tripID    models.TripID = 100
	)

	trip := &models.Trip{
		ID:       tripID,
		Capacity: 50,
		StopTimes: []models.StopTime{
			{StopID: stopX, Sequence: 0, Arrival: secOfDay(7, 38), Departure: secOfDay(7, 40)},
			{StopID: stopY, Sequence: 1, Arrival: secOfDay(7, 55), Departure: secOfDay(7, 57)},
		},
	}
	stops := []*models.Stop{
		{ID: stopX, Transfers: map[models.StopID]int{}},
		{ID: stopY, Transfers: map[models.StopID]int{}},
	}
	tazs := []*models.TAZ{
		{ID: originTAZ, AccessLinks: map[models.StopID]int{stopX: 300}},
		{ID: destTAZ, AccessLinks: map[models.StopID]int{stopY: 300}},
	}
	store := schedule.New([]*models.Trip{trip}, stops, tazs)
	cfg := baseSearchConfig()

	run := func() (bool, []models.StopState) {
		path := &models.Path{
			OriginTAZ:      originTAZ,
			DestinationTAZ: destTAZ,
			Direction:      models.OUTBOUND,
			PreferredTime:  secOfDay(8, 0),
		}
		found, err := pathfinder.DetSearch(store, cfg, models.BumpWaitTable{}, path)
		require.NoError(t, err)
		return found, path.Sampled
	}

	found1, sampled1 := run()
	found2, sampled2 := run()
	require.True(t, found1)
	assert.Equal(t, found1, found2)
	assert.Equal(t, sampled1, sampled2)
}

// invariant 1 (walk/trip alternation) and invariant 2 (board time respects
// transfer time): a two-trip itinerary joined by a single transfer. A state
// recorded at a transfer stop is itself never transfer-relaxed again (the
// search only relaxes transfers from a ModeTrip state), so this also
// exercises that the transfer hop correctly sits between two trip legs
// rather than chaining further walk links.
func TestDetSearch_TransferBetweenTwoTrips(t *testing.T) {
	const (
		originTAZ models.TAZID  = 1
		destTAZ   models.TAZID  = 2
		stopA     models.StopID = 10
		stopB     models.StopID = 20
		stopC     models.StopID = 30
		stopD     models.StopID = 40
		trip1     models.TripID = 1
		trip2     models.TripID = 2
	)

	trips := []*models.Trip{
		{
			ID:       trip1,
			Capacity: 50,
			StopTimes: []models.StopTime{
				{StopID: stopA, Sequence: 0, Departure: secOfDay(7, 20)},
				{StopID: stopB, Sequence: 1, Arrival: secOfDay(7, 30)},
			},
		},
		{
			ID:       trip2,
			Capacity: 50,
			StopTimes: []models.StopTime{
				{StopID: stopC, Sequence: 0, Departure: secOfDay(7, 40)},
				{StopID: stopD, Sequence: 1, Arrival: secOfDay(7, 50)},
			},
		},
	}
	stops := []*models.Stop{
		{ID: stopA, Transfers: map[models.StopID]int{}},
		{ID: stopB, Transfers: map[models.StopID]int{}},
		{ID: stopC, Transfers: map[models.StopID]int{stopB: 300}},
		{ID: stopD, Transfers: map[models.StopID]int{}},
	}
	tazs := []*models.TAZ{
		{ID: originTAZ, AccessLinks: map[models.StopID]int{stopA: 300}},
		{ID: destTAZ, AccessLinks: map[models.StopID]int{stopD: 300}},
	}
	store := schedule.New(trips, stops, tazs)

	path := &models.Path{
		OriginTAZ:      originTAZ,
		DestinationTAZ: destTAZ,
		Direction:      models.OUTBOUND,
		PreferredTime:  secOfDay(8, 0),
	}

	found, err := pathfinder.DetSearch(store, baseSearchConfig(), models.BumpWaitTable{}, path)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, path.Sampled, 5)

	modes := make([]models.Mode, len(path.Sampled))
	for i, e := range path.Sampled {
		modes[i] = e.State().Mode
	}
	assert.Equal(t, []models.Mode{
		models.ModeAccess, models.ModeTrip, models.ModeTransfer, models.ModeTrip, models.ModeEgress,
	}, modes, "walk and trip links must alternate, invariant 1")

	assert.Equal(t, trip1, path.Sampled[1].State().TripID)
	assert.Equal(t, stopB, path.Sampled[1].State().Link)
	assert.Equal(t, stopC, path.Sampled[2].State().Link, "transfer connects the two trip legs")
	assert.Equal(t, trip2, path.Sampled[3].State().TripID)

	// invariant 2: the second trip's board time (07:40) is no earlier than
	// the first trip's alight time (07:30) plus the transfer time (300s).
	boardTrip2 := secOfDay(7, 40)
	alightTrip1 := secOfDay(7, 30)
	transferSeconds := 300
	assert.GreaterOrEqual(t, boardTrip2, alightTrip1+transferSeconds)
}

// scenario E of spec.md §8: an INBOUND request with preferred departure
// 09:00 whose only trip boards at 09:20. The delay-departure optimization
// should push the walk to start at (scheduled_board - access_time), not at
// the bare preferred time.
func TestDetSearch_InboundDelaysDepartureToScheduledBoard(t *testing.T) {
	const (
		originTAZ models.TAZID  = 1
		destTAZ   models.TAZID  = 2
		stopA     models.StopID = 10
		stopB     models.StopID = 20
		tripID    models.TripID = 1
	)

	trip := &models.Trip{
		ID:       tripID,
		Capacity: 50,
		StopTimes: []models.StopTime{
			{StopID: stopA, Sequence: 0, Departure: secOfDay(9, 20)},
			{StopID: stopB, Sequence: 1, Arrival: secOfDay(9, 30), Departure: secOfDay(9, 30)},
		},
	}
	stops := []*models.Stop{
		{ID: stopA, Transfers: map[models.StopID]int{}},
		{ID: stopB, Transfers: map[models.StopID]int{}},
	}
	tazs := []*models.TAZ{
		{ID: originTAZ, AccessLinks: map[models.StopID]int{stopA: 300}},
		{ID: destTAZ, AccessLinks: map[models.StopID]int{stopB: 300}},
	}
	store := schedule.New([]*models.Trip{trip}, stops, tazs)

	path := &models.Path{
		OriginTAZ:      originTAZ,
		DestinationTAZ: destTAZ,
		Direction:      models.INBOUND,
		PreferredTime:  secOfDay(9, 0),
	}

	found, err := pathfinder.DetSearch(store, baseSearchConfig(), models.BumpWaitTable{}, path)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, path.Sampled, 3)

	accessEntry := path.Sampled[2]
	assert.Equal(t, stopA, accessEntry.StopID)
	accessState := accessEntry.State()
	assert.Equal(t, models.ModeAccess, accessState.Mode)
	assert.Equal(t, secOfDay(9, 20), accessState.DeparrTime, "arrival at the boarding stop matches the scheduled board time")
	assert.Equal(t, secOfDay(9, 15), accessState.DeparrTime-accessState.LinkTime, "walk starts at scheduled_board - access_time, not the bare preferred time 09:00")
}
