package pathfinder

import "github.com/janzill/fasttrips-go/internal/models"

// ScheduleSource is the read-only subset of the Schedule Store both
// searches depend on (spec.md §6). schedule.Store satisfies this directly.
type ScheduleSource interface {
	tripWindowSource
	Trip(id models.TripID) (*models.Trip, error)
	Stop(id models.StopID) (*models.Stop, error)
	TAZ(id models.TAZID) (*models.TAZ, error)
}
