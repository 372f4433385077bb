package models

// StopTime is one scheduled (arrival, departure) pair at a stop position in
// a trip's ordered stop sequence.
type StopTime struct {
	StopID    StopID
	Sequence  int
	Arrival   int // seconds since midnight
	Departure int // seconds since midnight
}

// DwellFunc computes dwell seconds at a (trip, stop) from the number of
// passengers boarding and alighting there. Injectable so feed-specific
// formulas can be substituted; the zero value of Trip uses DefaultDwellFunc.
type DwellFunc func(boards, alights int) float64

// DefaultDwellFunc mirrors the fixed per-event dwell formula used when no
// feed-specific formula is supplied: a base service time plus a per-boarding
// and per-alighting increment.
func DefaultDwellFunc(boards, alights int) float64 {
	return 15 + 2*float64(boards) + 1*float64(alights)
}

// Trip is a single scheduled run of a vehicle over an ordered stop sequence.
type Trip struct {
	ID        TripID
	ServiceID string
	StopTimes []StopTime // ordered by Sequence, 0..N-1
	Capacity  int        // seated + standing
	Dwell     DwellFunc
}

// NumberOfStops returns the number of scheduled stop positions on the trip.
func (t *Trip) NumberOfStops() int {
	return len(t.StopTimes)
}

// StopTimeAt returns the stop time at sequence position i.
func (t *Trip) StopTimeAt(i int) StopTime {
	return t.StopTimes[i]
}

// SequenceOf returns the stop-sequence index of stopID on this trip, or -1.
func (t *Trip) SequenceOf(stopID StopID) int {
	for i, st := range t.StopTimes {
		if st.StopID == stopID {
			return i
		}
	}
	return -1
}

// GetScheduledDeparture returns the scheduled departure time at stopID, or
// false if the trip does not serve that stop.
func (t *Trip) GetScheduledDeparture(stopID StopID) (int, bool) {
	i := t.SequenceOf(stopID)
	if i < 0 {
		return 0, false
	}
	return t.StopTimes[i].Departure, true
}

// DwellSeconds dispatches to the trip's dwell formula, falling back to the
// default when none was configured.
func (t *Trip) DwellSeconds(boards, alights int) float64 {
	if t.Dwell == nil {
		return DefaultDwellFunc(boards, alights)
	}
	return t.Dwell(boards, alights)
}

// Transfer is a walk link between two stops, symmetric in both directions.
type Transfer struct {
	ToStop      StopID
	TimeSeconds int
}

// TripWindow is one hit of a time-windowed trip query: the trip, its stop
// sequence position, and the scheduled clock time (arrival or departure
// depending on which query produced it) in seconds since midnight.
type TripWindow struct {
	TripID   TripID
	Sequence int
	Time     int
}

// Stop is a physical boarding location with transfer adjacency and a flag
// marking whether transfers may originate here (hyperpath pop filter, §4.4).
type Stop struct {
	ID         StopID
	Transfers  map[StopID]int // neighbor stop -> transfer walk seconds
	IsTransfer bool
}

// TAZ is a traffic analysis zone connected to the network by walk links.
type TAZ struct {
	ID          TAZID
	AccessLinks map[StopID]int // stop -> walk seconds
}
