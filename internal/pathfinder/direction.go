// Package pathfinder implements the deterministic and stochastic
// trip-based label-setting searches of spec.md §4. Both share the
// direction-symmetric framework in this file (§9: "prefer an abstract
// TimeDirection capability ... implement once for OUTBOUND and once for
// INBOUND instead of threading +-1 through arithmetic").
package pathfinder

import "github.com/janzill/fasttrips-go/internal/models"

// timeDirection implements the direction-specific arithmetic and schedule
// roles needed by both searches. There is exactly one value per
// models.Direction; callers obtain it via directionOf.
type timeDirection struct {
	dir models.Direction
}

func directionOf(d models.Direction) timeDirection { return timeDirection{dir: d} }

// factor is the signed dir-factor of spec.md §4.2: +1 OUTBOUND, -1 INBOUND.
func (t timeDirection) factor() int { return t.dir.DirFactor() }

// advance moves a clock time backward (OUTBOUND) or forward (INBOUND) by dt
// seconds: t - factor*dt.
func (t timeDirection) advance(clock, dt int) int {
	return clock - t.factor()*dt
}

// anchorLinkMode is the mode recorded for the seed states at the anchor TAZ:
// EGRESS for OUTBOUND (walking is traversed in reverse first), ACCESS for
// INBOUND.
func (t timeDirection) anchorLinkMode() models.Mode {
	if t.dir == models.OUTBOUND {
		return models.ModeEgress
	}
	return models.ModeAccess
}

// targetLinkMode is the mode expected at the opposite boundary once the
// search reaches the target TAZ: ACCESS for OUTBOUND, EGRESS for INBOUND.
func (t timeDirection) targetLinkMode() models.Mode {
	if t.dir == models.OUTBOUND {
		return models.ModeAccess
	}
	return models.ModeEgress
}

// pivotQuery returns the schedule-store query appropriate to this
// direction: trips arriving within the window (OUTBOUND, since the search
// walks backward from an arrival at the pivot stop) or departing within the
// window (INBOUND).
func (t timeDirection) pivotQuery(store tripWindowSource, stopID models.StopID, clock, window int) []models.TripWindow {
	if t.dir == models.OUTBOUND {
		return store.TripsArrivingWithin(stopID, clock, window)
	}
	return store.TripsDepartingWithin(stopID, clock, window)
}

// pivotTime is the scheduled time at the pivot stop used to match the
// query above: arrival for OUTBOUND, departure for INBOUND.
func (t timeDirection) pivotTime(st models.StopTime) int {
	if t.dir == models.OUTBOUND {
		return st.Arrival
	}
	return st.Departure
}

// otherTime is the scheduled time at a candidate board/alight stop: the
// departure of an earlier stop (boarding, OUTBOUND) or the arrival of a
// later stop (alighting, INBOUND).
func (t timeDirection) otherTime(st models.StopTime) int {
	if t.dir == models.OUTBOUND {
		return st.Departure
	}
	return st.Arrival
}

// seqRange returns the stop-time indices that are candidate board/alight
// positions relative to the pivot's sequence index: earlier stops
// (0..pivotSeq-1) for OUTBOUND, later stops (pivotSeq+1..N-1) for INBOUND.
func (t timeDirection) seqRange(trip *models.Trip, pivotSeq int) []int {
	n := trip.NumberOfStops()
	var out []int
	if t.dir == models.OUTBOUND {
		for i := 0; i < pivotSeq; i++ {
			out = append(out, i)
		}
	} else {
		for i := pivotSeq + 1; i < n; i++ {
			out = append(out, i)
		}
	}
	return out
}

// tripWindowSource is the subset of schedule.Store the direction helper
// needs; kept as an interface so pathfinder does not import schedule
// directly and can be unit tested against fixtures.
type tripWindowSource interface {
	TripsArrivingWithin(stopID models.StopID, t, window int) []models.TripWindow
	TripsDepartingWithin(stopID models.StopID, t, window int) []models.TripWindow
}
