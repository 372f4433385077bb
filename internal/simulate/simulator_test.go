package simulate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/simulate"
)

type fakeTripSource map[models.TripID]*models.Trip

func (f fakeTripSource) Trip(id models.TripID) (*models.Trip, error) {
	t, ok := f[id]
	if !ok {
		return nil, &models.MissingDataError{Kind: "trip", ID: id}
	}
	return t, nil
}

func secOfDay(h, m int) int { return h*3600 + m*60 }

// scenario C of spec.md §8: two passengers compete for one seat on the same
// trip; the earlier arrival boards, the later one is bumped, and bump-wait
// records the bumped passenger's arrival time.
func TestSimulator_CapacityBumpsLaterArrival(t *testing.T) {
	const (
		stopX  models.StopID = 10
		stopY  models.StopID = 20
		tripID models.TripID = 1
		taz    models.TAZID  = 1
	)

	trip := &models.Trip{
		ID:       tripID,
		Capacity: 1,
		StopTimes: []models.StopTime{
			{StopID: stopX, Sequence: 0, Departure: secOfDay(7, 35)},
			{StopID: stopY, Sequence: 1, Arrival: secOfDay(7, 50)},
		},
	}
	// A trailing, unrelated trip supplies a later DEPARTURE event (08:00),
	// which is what drives passenger A's post-alight egress-walk transition
	// to ARRIVED here.
	trailing := &models.Trip{
		ID: 2,
		StopTimes: []models.StopTime{
			{StopID: 30, Sequence: 0, Departure: secOfDay(8, 0)},
			{StopID: 31, Sequence: 1, Arrival: secOfDay(8, 10)},
		},
	}

	newPassenger := func(id int, originDepart int) *models.PassengerRuntime {
		p := &models.Path{
			OriginTAZ:      taz,
			DestinationTAZ: taz + 1,
			Direction:      models.OUTBOUND,
			Sampled: []models.StopState{
				{IsTAZ: true, TAZID: taz, States: []models.State{
					{Mode: models.ModeAccess, DeparrTime: originDepart, Link: stopX, LinkTime: 0},
				}},
				{StopID: stopX, States: []models.State{
					{Mode: models.ModeTrip, TripID: tripID, Link: stopY, LinkTime: 15 * 60},
				}},
				{StopID: stopY, States: []models.State{
					{Mode: models.ModeEgress, DeparrTime: secOfDay(7, 50), LinkTime: 5 * 60},
				}},
			},
		}
		p.SetFound(true)
		return &models.PassengerRuntime{ID: id, Path: p}
	}

	passengerA := newPassenger(1, secOfDay(7, 30))
	passengerB := newPassenger(2, secOfDay(7, 34))

	store := fakeTripSource{tripID: trip, 2: trailing}
	events := simulate.BuildEventStream([]*models.Trip{trip, trailing})

	bumpWait := models.BumpWaitTable{}
	sim := simulate.New(store, true)
	result, err := sim.Run([]*models.PassengerRuntime{passengerA, passengerB}, events, bumpWait)
	require.NoError(t, err)

	assert.Equal(t, models.StatusArrived, passengerA.Status)
	assert.Equal(t, secOfDay(7, 55), passengerA.Log.DestinationArrival)
	assert.Equal(t, models.StatusBumped, passengerB.Status)

	assert.Equal(t, 1, result.PassengersArrived)
	assert.Equal(t, 1, result.PassengersBumped)

	// invariant 7: the recorded bump-wait time is the bumped passenger's
	// arrival-at-stop time.
	latest, ok := bumpWait[models.BumpKey{TripID: tripID, StopID: stopX}]
	require.True(t, ok)
	assert.Equal(t, secOfDay(7, 34), latest)

	// invariant 6: paths_found >= passengers_arrived, bumped = paths_found -
	// passengers_arrived, checked here against the 2-passenger input.
	pathsFound := 2
	assert.GreaterOrEqual(t, pathsFound, result.PassengersArrived)
	assert.Equal(t, pathsFound-result.PassengersArrived, result.PassengersBumped)
}

// invariant 8 of spec.md §8: at no point does on-board count exceed
// capacity when CAPACITY_CONSTRAINT is enabled; verified indirectly via the
// load-profile boards count never exceeding capacity for the loading trip.
func TestSimulator_LoadProfileRespectsCapacity(t *testing.T) {
	const (
		stopX  models.StopID = 10
		stopY  models.StopID = 20
		tripID models.TripID = 1
		taz    models.TAZID  = 1
	)
	trip := &models.Trip{
		ID:       tripID,
		Capacity: 1,
		StopTimes: []models.StopTime{
			{StopID: stopX, Sequence: 0, Departure: secOfDay(7, 35)},
			{StopID: stopY, Sequence: 1, Arrival: secOfDay(7, 50)},
		},
	}
	newPassenger := func(id int, originDepart int) *models.PassengerRuntime {
		p := &models.Path{
			OriginTAZ:      taz,
			DestinationTAZ: taz + 1,
			Direction:      models.OUTBOUND,
			Sampled: []models.StopState{
				{IsTAZ: true, TAZID: taz, States: []models.State{
					{Mode: models.ModeAccess, DeparrTime: originDepart, Link: stopX, LinkTime: 0},
				}},
				{StopID: stopX, States: []models.State{
					{Mode: models.ModeTrip, TripID: tripID, Link: stopY, LinkTime: 15 * 60},
				}},
				{StopID: stopY, States: []models.State{
					{Mode: models.ModeEgress, DeparrTime: secOfDay(7, 50), LinkTime: 5 * 60},
				}},
			},
		}
		p.SetFound(true)
		return &models.PassengerRuntime{ID: id, Path: p}
	}

	passengers := []*models.PassengerRuntime{
		newPassenger(1, secOfDay(7, 30)),
		newPassenger(2, secOfDay(7, 31)),
		newPassenger(3, secOfDay(7, 32)),
	}
	store := fakeTripSource{tripID: trip}
	events := simulate.BuildEventStream([]*models.Trip{trip})

	sim := simulate.New(store, true)
	result, err := sim.Run(passengers, events, models.BumpWaitTable{})
	require.NoError(t, err)

	for _, stat := range result.StopStats {
		assert.LessOrEqual(t, stat.Boards, trip.Capacity)
	}
	assert.Equal(t, 2, result.PassengersBumped)
}
