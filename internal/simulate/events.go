// Package simulate implements the event-driven, capacity-constrained
// network loading pass of spec.md §4.5: it advances every passenger's
// chosen itinerary against a global stream of vehicle arrival/departure
// events, one event at a time, recording boards, alights, dwell and
// bumped-passenger wait times.
package simulate

import (
	"sort"

	"github.com/janzill/fasttrips-go/internal/models"
)

// EventType distinguishes the two event kinds a trip produces at each stop.
type EventType int

const (
	EventArrival EventType = iota
	EventDeparture
)

// Event is one (trip, stop, time, type) entry in the global simulation
// timeline.
type Event struct {
	TripID models.TripID
	StopID models.StopID
	Time   int
	Type   EventType
}

// BuildEventStream generates the arrival/departure events for a set of
// trips and sorts them by time then (stop, trip, type), matching spec.md
// §4.5's "pre-sorted for determinism" requirement. A trip's first stop has
// no arrival event and its last stop has no departure event, since no
// vehicle movement precedes the first or follows the last.
func BuildEventStream(trips []*models.Trip) []Event {
	var events []Event
	for _, trip := range trips {
		for i, st := range trip.StopTimes {
			if i > 0 {
				events = append(events, Event{TripID: trip.ID, StopID: st.StopID, Time: st.Arrival, Type: EventArrival})
			}
			if i < len(trip.StopTimes)-1 {
				events = append(events, Event{TripID: trip.ID, StopID: st.StopID, Time: st.Departure, Type: EventDeparture})
			}
		}
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.StopID != b.StopID {
			return a.StopID < b.StopID
		}
		if a.TripID != b.TripID {
			return a.TripID < b.TripID
		}
		return a.Type < b.Type // EventArrival (0) before EventDeparture (1)
	})
	return events
}
