package pathfinder

import (
	"math"
	"math/rand"

	"github.com/janzill/fasttrips-go/internal/models"
)

// Sampler supplies the pseudo-random draws the hyperpath chooser needs. It
// is injectable (SPEC_FULL.md's "pluggable Sampler") so a run can be
// replayed bit-for-bit against a recorded draw sequence, mirroring the
// reference implementation's file-backed test_rand.
type Sampler interface {
	// Next returns a non-negative pseudo-random integer; callers reduce it
	// modulo the cumulative-probability total themselves.
	Next() int
}

// MathRandSampler draws from math/rand, suitable for production use.
type MathRandSampler struct {
	rnd *rand.Rand
}

// NewMathRandSampler builds a Sampler seeded for reproducible-per-seed runs.
func NewMathRandSampler(seed int64) *MathRandSampler {
	return &MathRandSampler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *MathRandSampler) Next() int { return s.rnd.Int() }

// ReplaySampler replays a fixed sequence of draws, wrapping around if
// exhausted. Used for deterministic test replay of recorded assignments.
type ReplaySampler struct {
	draws []int
	pos   int
}

func NewReplaySampler(draws []int) *ReplaySampler {
	return &ReplaySampler{draws: draws}
}

func (s *ReplaySampler) Next() int {
	if len(s.draws) == 0 {
		return 0
	}
	v := s.draws[s.pos%len(s.draws)]
	s.pos++
	return v
}

// cumState pairs a cumulative probability bucket with its source state.
type cumState struct {
	cumProb int
	state   models.State
}

// chooseState implements choose_state: draw modulo the final cumulative
// probability, then return the first bucket the draw falls under.
func chooseState(sampler Sampler, buckets []cumState) models.State {
	total := buckets[len(buckets)-1].cumProb
	draw := sampler.Next()
	if total > 0 {
		draw = draw % total
	}
	for _, b := range buckets {
		if draw < b.cumProb {
			return b.state
		}
	}
	return buckets[len(buckets)-1].state
}

// sampleHyperpath implements choose_path_from_hyperpath_states: draws one
// itinerary out of the aggregated state bag, walking from the target TAZ
// boundary toward the anchor, applying the no-double-walk and
// time-monotonicity feasibility filters at each step. Returns false (a
// dead end) if the walk cannot be completed, in which case the caller
// retries up to the configured attempt cap.
func sampleHyperpath(store ScheduleSource, cfg SearchConfig, bumpWait models.BumpWaitTable, sampler Sampler, path *models.Path, targetTAZ models.TAZID, tazStates []models.State, stopStates map[models.StopID][]models.State) bool {
	theta := cfg.DispersionParameter
	dir := directionOf(path.Direction)
	dirFactor := dir.factor()
	outbound := path.Outbound()

	tazLabel := tazStates[len(tazStates)-1].Label
	const costCutoff = 1

	var accessBuckets []cumState
	cum := 0
	for _, st := range tazStates {
		prob := int(1000.0 * math.Exp(-theta*st.Cost) / math.Exp(-theta*tazLabel))
		if prob < costCutoff {
			continue
		}
		cum += prob
		accessBuckets = append(accessBuckets, cumState{cumProb: cum, state: st})
	}
	if len(accessBuckets) == 0 {
		return false
	}

	startState := chooseState(sampler, accessBuckets)
	chain := []models.StopState{{IsTAZ: true, TAZID: targetTAZ, States: []models.State{startState}}}
	startIdx := 0

	currentStop := startState.Link
	arrdepTime := startState.DeparrTime + startState.LinkTime*dirFactor
	lastMode := startState.Mode

	for {
		candidates := stopStates[currentStop]
		var buckets []cumState
		sumExp := 0.0
		var filtered []models.State
		for _, st := range candidates {
			if outbound && (st.Mode == models.ModeEgress || st.Mode == models.ModeTransfer) &&
				(lastMode == models.ModeAccess || lastMode == models.ModeTransfer) {
				continue
			}
			if !outbound && (st.Mode == models.ModeAccess || st.Mode == models.ModeTransfer) &&
				(lastMode == models.ModeEgress || lastMode == models.ModeTransfer) {
				continue
			}
			if outbound && st.DeparrTime < arrdepTime {
				continue
			}
			if !outbound && st.DeparrTime > arrdepTime {
				continue
			}
			sumExp += math.Exp(-theta * st.Cost)
			filtered = append(filtered, st)
		}
		if len(filtered) == 0 {
			return false
		}

		cum = 0
		for _, st := range filtered {
			prob := int(1000.0 * math.Exp(-theta*st.Cost) / sumExp)
			cum += prob
			buckets = append(buckets, cumState{cumProb: cum, state: st})
		}

		next := chooseState(sampler, buckets)

		if outbound && startIdx == 0 {
			if trip, err := store.Trip(next.TripID); err == nil {
				if dep, ok := trip.GetScheduledDeparture(currentStop); ok {
					chain[0].States[0].DeparrTime = dep - chain[0].States[0].LinkTime
				}
			}
		}

		chain = append(chain, models.StopState{StopID: currentStop, States: []models.State{next}})
		startIdx++
		currentStop = next.Link
		lastMode = next.Mode
		if next.Mode == models.ModeTransfer {
			arrdepTime = arrdepTime + next.LinkTime*dirFactor
		} else {
			arrdepTime = next.Arrival
		}
		if (outbound && next.Mode == models.ModeEgress) || (!outbound && next.Mode == models.ModeAccess) {
			break
		}
	}

	path.Sampled = chain
	return true
}
