package pathfinder

import "github.com/janzill/fasttrips-go/internal/models"

// delayInboundDeparture implements spec.md §4.3's "Inbound delay
// optimization": once an INBOUND path is found, the passenger need not
// leave at the bare preferred time and wait at the stop - the departure is
// pushed as late as still meets the first boarding, and adjusted against
// bump-wait if that boarding is contested. Returns false if the first
// boarding is bump-contested beyond recovery, in which case the path is no
// longer feasible and the caller must report no path found.
func delayInboundDeparture(store ScheduleSource, cfg SearchConfig, bumpWait models.BumpWaitTable, path *models.Path) bool {
	n := len(path.Sampled)
	firstTripIdx := n - 2
	accessIdx := n - 1

	firstTripEntry := &path.Sampled[firstTripIdx]
	firstTripState := &firstTripEntry.States[0]
	firstTripAlightStop := firstTripEntry.StopID
	firstTripBoardStop := firstTripState.Link

	trip, err := store.Trip(firstTripState.TripID)
	if err != nil {
		return true
	}
	alightDep, ok1 := trip.GetScheduledDeparture(firstTripAlightStop)
	boardDep, ok2 := trip.GetScheduledDeparture(firstTripBoardStop)
	if !ok1 || !ok2 {
		return true
	}
	firstTripState.LinkTime = alightDep - boardDep
	stopDepartTime := firstTripState.DeparrTime - firstTripState.LinkTime

	accessEntry := &path.Sampled[accessIdx]
	accessState := &accessEntry.States[0]
	accessState.DeparrTime = stopDepartTime

	key := models.BumpKey{TripID: firstTripState.TripID, StopID: firstTripBoardStop}
	latest, bumped := bumpWait[key]
	if !bumped {
		return true
	}

	pref := path.PreferredTime
	bumpBuffer := int(cfg.BumpBuffer.Seconds())
	if pref+accessState.LinkTime+graceSeconds >= latest {
		path.ResetStates()
		return false
	}
	startTime := pref
	if latest-accessState.LinkTime-bumpBuffer > startTime {
		startTime = latest - accessState.LinkTime - bumpBuffer
	}
	accessState.DeparrTime = startTime + accessState.LinkTime
	firstTripState.LinkTime = firstTripState.DeparrTime - accessState.DeparrTime
	return true
}
