package pathfinder

import (
	"container/heap"
	"math"
	"sort"

	"github.com/janzill/fasttrips-go/internal/models"
)

// sortedStopLinks returns the keys of a stop -> seconds map in ascending
// stop-id order, so iteration order never depends on Go's randomized map
// iteration (spec.md §8's determinism property would otherwise depend on
// map order feeding heap push order and label aggregation order).
func sortedStopLinks(links map[models.StopID]int) []models.StopID {
	out := make([]models.StopID, 0, len(links))
	for stopID := range links {
		out = append(out, stopID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

const maxCost = 999999.0

// hyperItem is a priority-queue entry for the hyperpath's aggregated
// (log-sum) label.
type hyperItem struct {
	label float64
	stop  models.StopID
	seq   int
}

type hyperQueue []hyperItem

func (q hyperQueue) Len() int { return len(q) }
func (q hyperQueue) Less(i, j int) bool {
	if q[i].label != q[j].label {
		return q[i].label < q[j].label
	}
	return q[i].seq < q[j].seq
}
func (q hyperQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *hyperQueue) Push(x any)   { *q = append(*q, x.(hyperItem)) }
func (q *hyperQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// logSum combines an existing aggregate label with a new candidate cost via
// the logit log-sum of spec.md §4.4, floored at 0.01.
func logSum(theta, oldLabel, cost float64) float64 {
	sum := math.Exp(-theta*oldLabel) + math.Exp(-theta*cost)
	return math.Max(0.01, -1.0/theta*math.Log(sum))
}

// nonwalkLabel collapses only the non-walk candidate states at a stop via
// the log-sum, per spec.md §4.4's "non-walk label helper", avoiding
// double-penalizing walk-to-walk chains when computing transfer costs.
func nonwalkLabel(theta float64, states []models.State, notFound float64) float64 {
	sum := 0.0
	for _, s := range states {
		if !s.Mode.IsWalk() {
			sum += math.Exp(-theta * s.Cost)
		}
	}
	if sum == 0.0 {
		return notFound
	}
	return -1.0 / theta * math.Log(sum)
}

// HyperSearch runs the stochastic trip-based hyperpath search (spec.md
// §4.4): builds a per-stop bag of candidate states aggregated by logit
// log-sum, then repeatedly samples an itinerary until one succeeds or the
// attempt cap is hit.
func HyperSearch(store ScheduleSource, cfg SearchConfig, bumpWait models.BumpWaitTable, sampler Sampler, path *models.Path) (bool, error) {
	theta := cfg.DispersionParameter
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

	stopStates := make(map[models.StopID][]models.State)
	q := &hyperQueue{}
	heap.Init(q)
	seq := 0

	accessWeight := cfg.WalkAccessTimeWeight
	if path.Outbound() {
		accessWeight = cfg.WalkEgressTimeWeight
	}

	for _, stopID := range sortedStopLinks(anchor.AccessLinks) {
		walk := anchor.AccessLinks[stopID]
		deparr := dir.advance(path.PreferredTime, walk)
		// TODO: the purpose of this 1+ offset is unclear in the original
		// implementation (spec.md §9); preserved behaviorally.
		cost := 1 + accessWeight*float64(walk)/60.0
		st := models.State{
			Label:      cost,
			DeparrTime: deparr,
			Mode:       dir.anchorLinkMode(),
			LinkTime:   walk,
			Cost:       cost,
			Arrival:    maxClockSentinel,
		}
		stopStates[stopID] = append(stopStates[stopID], st)
		heap.Push(q, hyperItem{label: cost, stop: stopID, seq: seq})
		seq++
	}

	stopDone := make(map[models.StopID]bool)
	tripsUsed := make(map[models.TripID]bool) // TODO: scoped to the whole search, see spec.md §9
	windowSeconds := int(cfg.PathTimeWindow.Seconds())

	for q.Len() > 0 {
		item := heap.Pop(q).(hyperItem)
		if stopDone[item.stop] {
			continue
		}
		stop, err := store.Stop(item.stop)
		if err != nil {
			return false, err
		}
		if !stop.IsTransfer {
			continue
		}
		stopDone[item.stop] = true

		states := stopStates[item.stop]
		currentMode := states[0].Mode
		extreme := states[0].DeparrTime
		for _, s := range states[1:] {
			if path.Outbound() {
				if s.DeparrTime > extreme {
					extreme = s.DeparrTime
				}
			} else if s.DeparrTime < extreme {
				extreme = s.DeparrTime
			}
		}

		// Transfer relaxation from non-walk-boundary stops only.
		if currentMode != models.ModeEgress && currentMode != models.ModeAccess {
			nwLabel := nonwalkLabel(theta, states, maxCost)

			for _, xferStop := range sortedStopLinks(stop.Transfers) {
				xferTime := stop.Transfers[xferStop]
				deparr := dir.advance(extreme, xferTime)
				cost := nwLabel + cfg.WalkTransferTimeWeight*float64(xferTime)/60.0

				newLabel := cost
				if existing, ok := stopStates[xferStop]; ok && len(existing) > 0 {
					newLabel = logSum(theta, existing[len(existing)-1].Label, cost)
				}
				if newLabel < maxCost && newLabel > 0 {
					stopStates[xferStop] = append(stopStates[xferStop], models.State{
						Label:      newLabel,
						DeparrTime: deparr,
						Mode:       models.ModeTransfer,
						Link:       item.stop,
						LinkTime:   xferTime,
						Cost:       cost,
						Arrival:    maxClockSentinel,
					})
					heap.Push(q, hyperItem{label: newLabel, stop: xferStop, seq: seq})
					seq++
				}
			}
		}

		candidates := dir.pivotQuery(store, item.stop, extreme, windowSeconds)
		for _, c := range candidates {
			if tripsUsed[c.TripID] {
				continue
			}
			tripsUsed[c.TripID] = true
			trip, err := store.Trip(c.TripID)
			if err != nil {
				return false, err
			}
			waitTime := (extreme - c.Time) * dir.factor()

			for _, i := range dir.seqRange(trip, c.Sequence) {
				st := trip.StopTimes[i]
				boardAlightStop := st.StopID

				if existing, ok := stopStates[boardAlightStop]; ok && len(existing) > 0 {
					if existing[0].Mode == models.ModeEgress || existing[0].Mode == models.ModeAccess {
						continue
					}
				}

				otherTime := dir.otherTime(st)
				inVehicle := (c.Time - otherTime) * dir.factor()

				var cost float64
				if currentMode == models.ModeEgress || currentMode == models.ModeAccess {
					cost = item.label + float64(inVehicle)/60.0 +
						cfg.ScheduleDelayWeight*float64(waitTime)/60.0 +
						cfg.FarePerBoarding*60.0/cfg.ValueOfTime
				} else {
					cost = item.label + float64(inVehicle)/60.0 +
						cfg.WaitTimeWeight*float64(waitTime)/60.0 +
						cfg.FarePerBoarding*60.0/cfg.ValueOfTime +
						cfg.TransferPenalty
				}

				newLabel := cost
				if existing, ok := stopStates[boardAlightStop]; ok && len(existing) > 0 {
					newLabel = logSum(theta, existing[len(existing)-1].Label, cost)
				}
				if newLabel < maxCost && newLabel > 0 {
					stopStates[boardAlightStop] = append(stopStates[boardAlightStop], models.State{
						Label:      newLabel,
						DeparrTime: otherTime,
						Mode:       models.ModeTrip,
						TripID:     c.TripID,
						Link:       item.stop,
						LinkTime:   inVehicle + waitTime,
						Cost:       cost,
						Arrival:    c.Time,
					})
					heap.Push(q, hyperItem{label: newLabel, stop: boardAlightStop, seq: seq})
					seq++
				}
			}
		}
	}

	// Boundary aggregation at the target TAZ.
	target, err := store.TAZ(targetTAZ)
	if err != nil {
		return false, err
	}
	egressWeight := cfg.WalkAccessTimeWeight
	if !path.Outbound() {
		egressWeight = cfg.WalkEgressTimeWeight
	}

	var tazStates []models.State
	for _, stopID := range sortedStopLinks(target.AccessLinks) {
		walk := target.AccessLinks[stopID]
		extreme := maxClockSentinel
		nwLabel := maxCost
		if states, ok := stopStates[stopID]; ok && len(states) > 0 {
			extreme = states[0].DeparrTime
			for _, s := range states[1:] {
				if path.Outbound() {
					if s.DeparrTime < extreme {
						extreme = s.DeparrTime
					}
				} else if s.DeparrTime > extreme {
					extreme = s.DeparrTime
				}
			}
			nwLabel = nonwalkLabel(theta, states, maxCost)
		}
		deparr := extreme - walk

		newCost := nwLabel + egressWeight*float64(walk)/60.0
		newLabel := newCost
		if len(tazStates) > 0 {
			newLabel = logSum(theta, tazStates[len(tazStates)-1].Label, newCost)
		}
		if newLabel < maxCost && newLabel > 0 {
			tazStates = append(tazStates, models.State{
				Label:      newLabel,
				DeparrTime: deparr,
				Mode:       dir.targetLinkMode(),
				Link:       stopID,
				LinkTime:   walk,
				Cost:       newCost,
				Arrival:    maxClockSentinel,
			})
		}
	}

	path.Stops = buildStopStateBag(stopStates)
	if len(tazStates) == 0 {
		path.ResetStates()
		path.SetFound(false)
		return false, nil
	}

	attempts := 0
	found := false
	for !found && attempts < cfg.MaxHyperpathAssignAttempts {
		found = sampleHyperpath(store, cfg, bumpWait, sampler, path, targetTAZ, tazStates, stopStates)
		attempts++
		if !found {
			path.ResetStates()
			path.Stops = buildStopStateBag(stopStates)
		}
	}
	path.SetFound(found)
	if !found {
		return false, nil
	}
	if !path.Outbound() && len(path.Sampled) >= 2 {
		if !delayInboundDeparture(store, cfg, bumpWait, path) {
			path.SetFound(false)
			return false, nil
		}
	}
	return true, nil
}

const maxClockSentinel = 1 << 30

func buildStopStateBag(stopStates map[models.StopID][]models.State) []models.StopState {
	stopIDs := make([]models.StopID, 0, len(stopStates))
	for stopID := range stopStates {
		stopIDs = append(stopIDs, stopID)
	}
	sort.Slice(stopIDs, func(i, j int) bool { return stopIDs[i] < stopIDs[j] })

	out := make([]models.StopState, 0, len(stopStates))
	for _, stopID := range stopIDs {
		out = append(out, models.StopState{StopID: stopID, States: stopStates[stopID]})
	}
	return out
}
