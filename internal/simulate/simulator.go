package simulate

import (
	"math"

	"github.com/janzill/fasttrips-go/internal/models"
)

// TripSource is the read-only trip lookup the Simulator needs.
type TripSource interface {
	Trip(id models.TripID) (*models.Trip, error)
}

// StopStat accumulates one trip's boards/alights/dwell at one stop.
type StopStat struct {
	TripID  models.TripID
	StopID  models.StopID
	Boards  int
	Alights int
	Dwell   float64
}

// Result is the full output of one simulation pass.
type Result struct {
	PassengersArrived int
	PassengersBumped  int
	StopStats         []StopStat
}

// Simulator replays a global event stream against every passenger's chosen
// itinerary, enforcing vehicle capacity and recording bump-wait
// observations for the next assignment iteration.
type Simulator struct {
	store              TripSource
	capacityConstraint bool
}

// New builds a Simulator bound to a trip source and the capacity-constraint
// toggle from the run configuration.
func New(store TripSource, capacityConstraint bool) *Simulator {
	return &Simulator{store: store, capacityConstraint: capacityConstraint}
}

// Run advances every passenger in passengers across events, in order,
// mutating each PassengerRuntime's status, path index and timestamp log in
// place, and recording bump-wait observations into bumpWait.
func (s *Simulator) Run(passengers []*models.PassengerRuntime, events []Event, bumpWait models.BumpWaitTable) (Result, error) {
	onBoard := make(map[models.TripID][]*models.PassengerRuntime)
	stopPax := make(map[models.StopID][]*models.PassengerRuntime)
	var walking []*models.PassengerRuntime
	pendingAlights := make(map[models.TripID]int)

	var result Result

	for _, pr := range passengers {
		path := pr.Path
		if path == nil || !path.GoesSomewhere() || !path.PathFound() {
			continue
		}
		pr.Status = models.StatusWalking
		if path.Outbound() {
			pr.PathIndex = 0
		} else {
			pr.PathIndex = len(path.Sampled) - 1
		}
		walking = append(walking, pr)
	}

	for _, e := range events {
		switch e.Type {
		case EventArrival:
			var numAlights int
			numAlights, walking = s.processArrival(e, onBoard, walking)
			pendingAlights[e.TripID] = numAlights

		case EventDeparture:
			walking = s.processWalkToWait(e, walking, stopPax, &result)

			trip, err := s.store.Trip(e.TripID)
			if err != nil {
				return result, err
			}
			numBoards := s.processBoarding(e, trip, onBoard, stopPax, bumpWait, &result)

			numAlights := pendingAlights[e.TripID]
			delete(pendingAlights, e.TripID)
			dwell := trip.DwellSeconds(numBoards, numAlights)
			result.StopStats = append(result.StopStats, StopStat{
				TripID: e.TripID, StopID: e.StopID, Boards: numBoards, Alights: numAlights, Dwell: dwell,
			})
		}
	}

	// Passengers still on their egress walk once the stream is exhausted
	// have no later DEPARTURE event to complete it; they arrive at the end
	// of the walk.
	var egress []*models.PassengerRuntime
	for _, pr := range walking {
		if pr.Path.Sampled[pr.PathIndex].State().Mode == models.ModeEgress {
			egress = append(egress, pr)
		}
	}
	s.processWalkToWait(Event{Time: math.MaxInt}, egress, stopPax, &result)
	return result, nil
}

// processArrival moves every on-board passenger of e.TripID who alights at
// e.StopID into the walking pool (spec.md §4.5 ARRIVAL handling), appending
// them to walking so the next DEPARTURE event's processWalkToWait picks up
// their onward transfer or egress walk.
func (s *Simulator) processArrival(e Event, onBoard map[models.TripID][]*models.PassengerRuntime, walking []*models.PassengerRuntime) (int, []*models.PassengerRuntime) {
	pax := onBoard[e.TripID]
	if len(pax) == 0 {
		return 0, walking
	}
	remaining := pax[:0]
	numAlights := 0
	for _, pr := range pax {
		entry := pr.Path.Sampled[pr.PathIndex]
		state := entry.State()

		var alightStop models.StopID
		if pr.Path.Outbound() {
			alightStop = state.Link
		} else {
			alightStop = entry.StopID
		}
		if alightStop != e.StopID {
			remaining = append(remaining, pr)
			continue
		}

		pr.PathIndex = pr.NextIndex(pr.Path.Direction)
		pr.Log.Alights = append(pr.Log.Alights, e.Time)
		pr.Status = models.StatusWalking
		walking = append(walking, pr)
		numAlights++
	}
	onBoard[e.TripID] = remaining
	return numAlights, walking
}

// processWalkToWait implements spec.md §4.5 DEPARTURE step 1: every
// currently-walking passenger whose expected arrival at their next boarding
// stop has passed transitions to WAITING (or ARRIVED, if their next link is
// egress).
func (s *Simulator) processWalkToWait(e Event, walking []*models.PassengerRuntime, stopPax map[models.StopID][]*models.PassengerRuntime, result *Result) []*models.PassengerRuntime {
	remaining := walking[:0]
	for _, pr := range walking {
		outbound := pr.Path.Outbound()
		idx := pr.PathIndex
		entry := pr.Path.Sampled[idx]
		state := entry.State()

		var alightTime int
		switch {
		case outbound && idx == 0:
			alightTime = state.DeparrTime
		case !outbound && idx == len(pr.Path.Sampled)-1:
			alightTime = state.DeparrTime - state.LinkTime
		default:
			alightTime = pr.Log.Alights[len(pr.Log.Alights)-1]
		}

		var walkTime int
		var boardStop models.StopID
		var newIdx int
		if state.Mode.IsWalk() {
			walkTime = state.LinkTime
			if outbound {
				boardStop = state.Link
			} else {
				boardStop = entry.StopID
			}
			newIdx = pr.NextIndex(pr.Path.Direction)
		} else {
			walkTime = 0
			if outbound {
				boardStop = entry.StopID
			} else {
				boardStop = state.Link
			}
			newIdx = idx
		}

		arriveTime := alightTime + walkTime
		if e.Time < arriveTime {
			remaining = append(remaining, pr)
			continue
		}

		if state.Mode == models.ModeEgress {
			pr.Status = models.StatusArrived
			pr.Log.DestinationArrival = arriveTime
			pr.Log.HasDestinationArrival = true
			result.PassengersArrived++
		} else {
			pr.Status = models.StatusWaiting
			stopPax[boardStop] = append(stopPax[boardStop], pr)
			pr.Log.ArrivalsAtStop = append(pr.Log.ArrivalsAtStop, arriveTime)
		}
		pr.PathIndex = newIdx
	}
	return remaining
}

// processBoarding implements spec.md §4.5 DEPARTURE step 2: passengers
// waiting at e.StopID for e.TripID board if capacity allows, otherwise are
// bumped and recorded into the bump-wait table.
func (s *Simulator) processBoarding(e Event, trip *models.Trip, onBoard map[models.TripID][]*models.PassengerRuntime, stopPax map[models.StopID][]*models.PassengerRuntime, bumpWait models.BumpWaitTable, result *Result) int {
	waiting := stopPax[e.StopID]
	if len(waiting) == 0 {
		return 0
	}
	remaining := waiting[:0]
	numBoards := 0
	for _, pr := range waiting {
		entry := pr.Path.Sampled[pr.PathIndex]
		state := entry.State()
		if state.Mode != models.ModeTrip || state.TripID != e.TripID {
			remaining = append(remaining, pr)
			continue
		}

		availableCapacity := trip.Capacity - len(onBoard[e.TripID])
		if s.capacityConstraint && availableCapacity == 0 {
			pr.Status = models.StatusBumped
			arrival := pr.Log.ArrivalsAtStop[len(pr.Log.ArrivalsAtStop)-1]
			bumpWait.Observe(models.BumpKey{TripID: e.TripID, StopID: e.StopID}, arrival)
			result.PassengersBumped++
			continue
		}

		onBoard[e.TripID] = append(onBoard[e.TripID], pr)
		pr.Status = models.StatusOnBoard
		pr.Log.Boards = append(pr.Log.Boards, e.Time)
		numBoards++
	}
	stopPax[e.StopID] = remaining
	return numBoards
}
