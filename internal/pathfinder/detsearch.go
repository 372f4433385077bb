package pathfinder

import (
	"container/heap"

	"github.com/pkg/errors"

	"github.com/janzill/fasttrips-go/internal/models"
)

const maxLabel = 999999.0 // MAX_TIME sentinel, minutes-equivalent seconds

// graceSeconds is the 0.01-minute grace spec.md §4.2 applies when comparing
// an arrival against a recorded bump-wait time (0.6s, rounded up to whole
// seconds).
const graceSeconds = 1

// detState is the single retained candidate at a stop for the deterministic
// search (one entry per stop, unlike the hyperpath's growable bag).
type detState struct {
	models.State
}

// detItem is a priority-queue entry; seq preserves first-enqueued ordering
// so ties are broken deterministically (spec.md §4.3 "Edge cases").
type detItem struct {
	label float64
	stop  models.StopID
	seq   int
}

type detQueue []detItem

func (q detQueue) Len() int { return len(q) }
func (q detQueue) Less(i, j int) bool {
	if q[i].label != q[j].label {
		return q[i].label < q[j].label
	}
	return q[i].seq < q[j].seq
}
func (q detQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *detQueue) Push(x any)   { *q = append(*q, x.(detItem)) }
func (q *detQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// DetSearch runs the deterministic trip-based shortest path search of
// spec.md §4.3 and fills path.Sampled with the reconstructed itinerary.
// Returns false (no error) if no feasible path exists.
func DetSearch(store ScheduleSource, cfg SearchConfig, bumpWait models.BumpWaitTable, path *models.Path) (bool, error) {
	dir := directionOf(path.Direction)
	anchorTAZ := path.DestinationTAZ
	targetTAZ := path.OriginTAZ
	if !path.Outbound() {
		anchorTAZ, targetTAZ = path.OriginTAZ, path.DestinationTAZ
	}

	anchor, err := store.TAZ(anchorTAZ)
	if err != nil {
		return false, err
	}

	stopStates := make(map[models.StopID]detState)
	q := &detQueue{}
	heap.Init(q)
	seq := 0

	for _, stopID := range sortedStopLinks(anchor.AccessLinks) {
		walk := anchor.AccessLinks[stopID]
		deparr := dir.advance(path.PreferredTime, walk)
		st := models.State{
			Label:      float64(walk),
			DeparrTime: deparr,
			Mode:       dir.anchorLinkMode(),
			LinkTime:   walk,
		}
		stopStates[stopID] = detState{st}
		heap.Push(q, detItem{label: st.Label, stop: stopID, seq: seq})
		seq++
	}

	stopDone := make(map[models.StopID]bool)
	tripsUsed := make(map[models.TripID]bool)
	windowSeconds := int(cfg.PathTimeWindow.Seconds())
	bumpBuffer := int(cfg.BumpBuffer.Seconds())

	for q.Len() > 0 {
		item := heap.Pop(q).(detItem)
		if stopDone[item.stop] {
			continue
		}
		stopDone[item.stop] = true
		cur := stopStates[item.stop]

		// Transfer relaxation: only from a real trip state, never from a
		// walk-class state (invariant 1 / scenario F in spec.md §8).
		if cur.Mode == models.ModeTrip {
			stop, err := store.Stop(item.stop)
			if err != nil {
				return false, err
			}
			for _, xferStop := range sortedStopLinks(stop.Transfers) {
				xferTime := stop.Transfers[xferStop]
				newLabel := cur.Label + float64(xferTime)
				deparr := dir.advance(cur.DeparrTime, xferTime)

				if path.Outbound() {
					key := models.BumpKey{TripID: cur.TripID, StopID: item.stop}
					if latest, ok := bumpWait[key]; ok {
						if deparr-windowSeconds > latest {
							continue
						}
						// TODO: the intent of this formula is ambiguous in the
						// original implementation (spec.md §9); preserved
						// bit-for-bit rather than re-derived.
						newLabel = newLabel + float64(cur.DeparrTime-latest) + float64(bumpBuffer)
						deparr = latest - xferTime - bumpBuffer
					}
				}

				old := maxLabel
				if s, ok := stopStates[xferStop]; ok {
					old = s.Label
				}
				if newLabel < old {
					stopStates[xferStop] = detState{models.State{
						Label:      newLabel,
						DeparrTime: deparr,
						Mode:       models.ModeTransfer,
						Link:       item.stop,
						LinkTime:   xferTime,
					}}
					heap.Push(q, detItem{label: newLabel, stop: xferStop, seq: seq})
					seq++
				}
			}
		}

		// Trip relaxation.
		candidates := dir.pivotQuery(store, item.stop, cur.DeparrTime, windowSeconds)
		for _, c := range candidates {
			if tripsUsed[c.TripID] {
				continue
			}
			trip, err := store.Trip(c.TripID)
			if err != nil {
				return false, err
			}
			waitTime := (cur.DeparrTime - c.Time) * dir.factor()

			var checkKey models.BumpKey
			var arriveAt int
			if path.Outbound() {
				checkKey = models.BumpKey{TripID: cur.TripID, StopID: item.stop}
				arriveAt = c.Time
			} else {
				checkKey = models.BumpKey{TripID: c.TripID, StopID: item.stop}
				arriveAt = cur.DeparrTime
			}
			if latest, ok := bumpWait[checkKey]; ok {
				if arriveAt+graceSeconds >= latest && cur.Mode != models.ModeTrip {
					continue
				}
			}

			tripsUsed[c.TripID] = true
			for _, i := range dir.seqRange(trip, c.Sequence) {
				st := trip.StopTimes[i]
				boardAlightStop := st.StopID
				otherTime := dir.otherTime(st)
				inVehicle := (c.Time - otherTime) * dir.factor()
				newLabel := cur.Label + float64(inVehicle) + float64(waitTime)

				old := maxLabel
				if s, ok := stopStates[boardAlightStop]; ok {
					old = s.Label
				}
				if newLabel < old {
					stopStates[boardAlightStop] = detState{models.State{
						Label:      newLabel,
						DeparrTime: otherTime,
						Mode:       models.ModeTrip,
						TripID:     c.TripID,
						Link:       item.stop,
						LinkTime:   inVehicle + waitTime,
					}}
					heap.Push(q, detItem{label: newLabel, stop: boardAlightStop, seq: seq})
					seq++
				}
			}
		}
	}

	// Finalize: scan target TAZ access links.
	target, err := store.TAZ(targetTAZ)
	if err != nil {
		return false, err
	}
	bestLabel := maxLabel
	var bestState models.State
	bestFound := false

	for _, stopID := range sortedStopLinks(target.AccessLinks) {
		walk := target.AccessLinks[stopID]
		s, ok := stopStates[stopID]
		if !ok {
			continue
		}
		if s.Mode == models.ModeTransfer || s.Mode == models.ModeEgress || s.Mode == models.ModeAccess {
			continue
		}

		newLabel := s.Label + float64(walk)
		deparr := dir.advance(s.DeparrTime, walk)

		if path.Outbound() {
			key := models.BumpKey{TripID: s.TripID, StopID: stopID}
			if latest, ok := bumpWait[key]; ok {
				if deparr-windowSeconds > latest {
					continue
				}
				newLabel = newLabel + float64(s.DeparrTime-latest) + float64(bumpBuffer)
				deparr = latest - walk - bumpBuffer
			}
		}

		if newLabel < bestLabel {
			bestLabel = newLabel
			bestState = models.State{
				Label:      newLabel,
				DeparrTime: deparr,
				Mode:       dir.targetLinkMode(),
				Link:       stopID,
				LinkTime:   walk,
			}
			bestFound = true
		}
	}

	path.ResetStates()
	if !bestFound {
		path.SetFound(false)
		return false, nil
	}

	// Reconstruct: walk the successor/predecessor chain until the
	// opposite-end mode is reached, per spec.md §4.3. The boundary entry is
	// keyed by the target TAZ id (python keys its dict the same way); every
	// other entry is keyed by the stop where the state was recorded.
	finalMode := dir.anchorLinkMode()
	chain := []models.StopState{{IsTAZ: true, TAZID: targetTAZ, States: []models.State{bestState}}}
	cur := bestState
	for cur.Mode != finalMode {
		stopID := cur.Link
		s, ok := stopStates[stopID]
		if !ok {
			return false, errors.WithStack(&models.MissingDataError{Kind: "stop_state", ID: stopID})
		}
		chain = append(chain, models.StopState{StopID: stopID, States: []models.State{s.State}})
		cur = s.State
	}

	// chain is built target-boundary-first, walking toward the anchor, which
	// is exactly the sequence order spec.md §3 describes: origin-first for
	// OUTBOUND (target==origin), destination-first for INBOUND (the
	// "mirror") since target==destination there.
	path.Sampled = chain
	path.SetFound(true)

	if !path.Outbound() && len(path.Sampled) >= 2 {
		if !delayInboundDeparture(store, cfg, bumpWait, path) {
			return false, nil
		}
	}

	return true, nil
}
