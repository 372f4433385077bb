// Package schedule implements the Schedule Store: immutable, read-only
// lookup tables over trips, stops, TAZs and transfers, plus the two
// time-windowed trip queries the Path Finder depends on. Grounded on the
// typed-ID, flat-table, map-indexed shape of the RAPTOR loader it replaces.
package schedule

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/janzill/fasttrips-go/internal/models"
)

// Store is an immutable, concurrency-safe-for-reads lookup layer over a
// single day's schedule.
type Store struct {
	trips map[models.TripID]*models.Trip
	stops map[models.StopID]*models.Stop
	tazs  map[models.TAZID]*models.TAZ

	// stopArrivals[stop] / stopDepartures[stop] are sorted by clock time to
	// allow binary-search-bounded window queries.
	stopArrivals   map[models.StopID][]models.TripWindow
	stopDepartures map[models.StopID][]models.TripWindow
}

// New builds a Store from fully-populated trips, stops and TAZs. Index
// tables are derived once at construction so later lookups are read-only.
func New(trips []*models.Trip, stops []*models.Stop, tazs []*models.TAZ) *Store {
	s := &Store{
		trips:          make(map[models.TripID]*models.Trip, len(trips)),
		stops:          make(map[models.StopID]*models.Stop, len(stops)),
		tazs:           make(map[models.TAZID]*models.TAZ, len(tazs)),
		stopArrivals:   make(map[models.StopID][]models.TripWindow),
		stopDepartures: make(map[models.StopID][]models.TripWindow),
	}
	for _, t := range trips {
		s.trips[t.ID] = t
	}
	for _, st := range stops {
		s.stops[st.ID] = st
	}
	for _, z := range tazs {
		s.tazs[z.ID] = z
	}
	s.buildTimeIndex()
	return s
}

func (s *Store) buildTimeIndex() {
	for _, t := range s.trips {
		for _, st := range t.StopTimes {
			s.stopArrivals[st.StopID] = append(s.stopArrivals[st.StopID], models.TripWindow{
				TripID: t.ID, Sequence: st.Sequence, Time: st.Arrival,
			})
			s.stopDepartures[st.StopID] = append(s.stopDepartures[st.StopID], models.TripWindow{
				TripID: t.ID, Sequence: st.Sequence, Time: st.Departure,
			})
		}
	}
	for _, list := range s.stopArrivals {
		sort.Slice(list, func(i, j int) bool { return list[i].Time < list[j].Time })
	}
	for _, list := range s.stopDepartures {
		sort.Slice(list, func(i, j int) bool { return list[i].Time < list[j].Time })
	}
}

// Trip returns the trip by id, or MissingDataError.
func (s *Store) Trip(id models.TripID) (*models.Trip, error) {
	t, ok := s.trips[id]
	if !ok {
		return nil, errors.WithStack(&models.MissingDataError{Kind: "trip", ID: id})
	}
	return t, nil
}

// Stop returns the stop by id, or MissingDataError.
func (s *Store) Stop(id models.StopID) (*models.Stop, error) {
	st, ok := s.stops[id]
	if !ok {
		return nil, errors.WithStack(&models.MissingDataError{Kind: "stop", ID: id})
	}
	return st, nil
}

// TAZ returns the TAZ by id, or MissingDataError.
func (s *Store) TAZ(id models.TAZID) (*models.TAZ, error) {
	z, ok := s.tazs[id]
	if !ok {
		return nil, errors.WithStack(&models.MissingDataError{Kind: "taz", ID: id})
	}
	return z, nil
}

// AllTrips returns every trip in the store, in no particular order. Used to
// build the Simulator's global event stream.
func (s *Store) AllTrips() []*models.Trip {
	out := make([]*models.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		out = append(out, t)
	}
	return out
}

// TripsArrivingWithin returns (trip, seq, arrival) tuples whose scheduled
// arrival at stopID falls within [t-window, t], per spec.md §3's
// trips_arriving_within. The bound is one-sided on purpose: the OUTBOUND
// search walks backward from an arrival at the pivot stop, so a trip that
// arrives *after* t would mean boarding a trip that hasn't reached the stop
// yet. There is no negative-wait guard anywhere in the relaxation loop
// (fasttrips/Assignment.py:357-364), so the store must never hand back such
// a candidate in the first place.
func (s *Store) TripsArrivingWithin(stopID models.StopID, t, window int) []models.TripWindow {
	return windowLookup(s.stopArrivals[stopID], t-window, t)
}

// TripsDepartingWithin is the departure-side counterpart: [t, t+window], for
// the INBOUND search walking forward from a departure at the pivot stop.
func (s *Store) TripsDepartingWithin(stopID models.StopID, t, window int) []models.TripWindow {
	return windowLookup(s.stopDepartures[stopID], t, t+window)
}

func windowLookup(sorted []models.TripWindow, lo, hi int) []models.TripWindow {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].Time >= lo })
	var out []models.TripWindow
	for ; i < len(sorted) && sorted[i].Time <= hi; i++ {
		out = append(out, sorted[i])
	}
	return out
}
