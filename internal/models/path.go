package models

// State is one candidate leg of an itinerary, as seen from the stop or TAZ
// it arrives at. Field names follow the vocabulary of spec.md §3 rather than
// the positional STATE_IDX_* tuple the reference implementation used.
type State struct {
	Label      float64 // cumulative cost or time, smaller is better
	DeparrTime int     // seconds since midnight: departure time for OUTBOUND, arrival time for INBOUND
	Mode       Mode
	TripID     TripID // valid iff Mode == ModeTrip
	Link       StopID // successor stop when walking the path forward in time (OUTBOUND) or predecessor (INBOUND)
	LinkTime   int     // duration of this link, seconds
	Cost       float64 // hyperpath only: generalized cost contribution of this state
	Arrival    int     // hyperpath only: opposite-boundary clock time for trip links
}

// StopState is the ordered bag of candidate states retained at one stop.
// The deterministic search keeps exactly one; the hyperpath search appends
// as alternatives are aggregated. Order is insertion order and must never be
// re-sorted (§9).
type StopState struct {
	StopID StopID
	IsTAZ  bool  // true when this entry is the TAZ boundary rather than a stop
	TAZID  TAZID // valid iff IsTAZ
	States []State
}

// State returns the sole chosen state of a sampled-itinerary entry. Callers
// iterating a hyperpath's full candidate bag should range over States
// directly instead.
func (ss StopState) State() State {
	return ss.States[0]
}

// Path is both the travel request (origin/destination/direction/preferred
// time) and, once solved, the chosen or candidate itinerary.
type Path struct {
	OriginTAZ     TAZID
	DestinationTAZ TAZID
	Direction     Direction
	PreferredTime int // seconds since midnight

	// Stops holds the hyperpath search's full per-stop state bags, ordered
	// by stop id. The deterministic search leaves it empty and records its
	// itinerary in Sampled only.
	Stops []StopState

	// Sampled is the single itinerary drawn by the hyperpath sampler, or the
	// deterministic search's sole itinerary, keyed by stop/TAZ id per entry
	// (each entry's States holds exactly one chosen State). Ordered
	// target-boundary-first as reconstructed: origin-first for OUTBOUND,
	// destination-first for INBOUND (spec.md §3's "mirror").
	Sampled []StopState

	found bool
}

func (p *Path) Outbound() bool { return p.Direction == OUTBOUND }

// GoesSomewhere reports whether the request has distinct endpoints.
func (p *Path) GoesSomewhere() bool {
	return p.OriginTAZ != p.DestinationTAZ
}

// PathFound reports whether a usable itinerary was produced.
func (p *Path) PathFound() bool {
	return p.found && len(p.Sampled) > 0
}

// SetFound records the outcome of a search attempt.
func (p *Path) SetFound(found bool) { p.found = found }

// ResetStates clears any previously discovered state bag and sampled
// itinerary so the path can be re-planned in a later iteration.
func (p *Path) ResetStates() {
	p.Stops = p.Stops[:0]
	p.Sampled = nil
	p.found = false
}

// BumpKey identifies one (trip, stop) pair in the bump-wait table.
type BumpKey struct {
	TripID TripID
	StopID StopID
}

// BumpWaitTable maps (trip, stop) to the earliest observed bumped-passenger
// arrival-at-stop time. It is the only state carried across iterations.
type BumpWaitTable map[BumpKey]int

// Observe records a bumped passenger's arrival-at-stop time, keeping the
// minimum per invariant 4 in spec.md §3 ("a later observation overwrites
// only if strictly earlier").
func (t BumpWaitTable) Observe(key BumpKey, arrivalAtStop int) {
	if existing, ok := t[key]; !ok || arrivalAtStop < existing {
		t[key] = arrivalAtStop
	}
}

// Snapshot returns a read-only copy safe to hand to concurrent path
// searches within one iteration (§5: bump-wait is read-only during search).
func (t BumpWaitTable) Snapshot() BumpWaitTable {
	out := make(BumpWaitTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// PassengerStatus is the passenger's runtime state during simulation.
type PassengerStatus int

const (
	StatusInitial PassengerStatus = iota
	StatusWalking
	StatusWaiting
	StatusOnBoard
	StatusArrived
	StatusBumped
)

func (s PassengerStatus) String() string {
	switch s {
	case StatusInitial:
		return "INITIAL"
	case StatusWalking:
		return "WALKING"
	case StatusWaiting:
		return "WAITING"
	case StatusOnBoard:
		return "ON_BOARD"
	case StatusArrived:
		return "ARRIVED"
	case StatusBumped:
		return "BUMPED"
	default:
		return "UNKNOWN"
	}
}

// TimeLog records the per-passenger event timestamps the Simulator produces.
type TimeLog struct {
	ArrivalsAtStop []int
	Boards         []int
	Alights        []int
	DestinationArrival int
	HasDestinationArrival bool
}

// PassengerRuntime is the mutable state the Simulator advances, distinct
// from the Path it was assigned (so a path can be re-sampled across
// iterations without losing its passenger identity).
type PassengerRuntime struct {
	ID        int
	Path      *Path
	Status    PassengerStatus
	PathIndex int // index into Path.Sampled, ascending for OUTBOUND, descending for INBOUND
	Log       TimeLog
}

// NextIndex returns the path index to move to after completing the current
// link, respecting the direction of traversal.
func (pr *PassengerRuntime) NextIndex(dir Direction) int {
	if dir == OUTBOUND {
		return pr.PathIndex + 1
	}
	return pr.PathIndex - 1
}
