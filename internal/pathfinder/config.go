package pathfinder

import "time"

// SearchConfig carries the subset of the configuration surface (spec.md §6)
// both searches need, decoupled from internal/config so this package has no
// dependency on the ambient configuration layer.
type SearchConfig struct {
	PathTimeWindow time.Duration
	BumpBuffer     time.Duration

	DispersionParameter       float64
	MaxHyperpathAssignAttempts int

	WalkAccessTimeWeight   float64
	WalkEgressTimeWeight   float64
	WalkTransferTimeWeight float64
	WaitTimeWeight         float64
	ScheduleDelayWeight    float64
	FarePerBoarding        float64
	ValueOfTime            float64
	TransferPenalty        float64
}
