// Package config holds the assignment run's configuration surface, the Go
// analogue of the reference implementation's Assignment-class constants
// (spec.md §6).
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/janzill/fasttrips-go/internal/models"
)

// AssignmentType selects the route-choice algorithm.
type AssignmentType int

const (
	Deterministic AssignmentType = iota
	Stochastic
	SimOnly
)

// Config is the full configuration surface consumed by the Assignment
// Controller, Path Finder and Simulator.
type Config struct {
	IterationFlag int            // maximum outer iterations
	AssignmentType AssignmentType
	SimulationFlag bool // whether to load paths on vehicles

	PathTimeWindow time.Duration // bounds trip search around a stop's current time
	DispersionParameter float64  // theta, hyperpath dispersion, >= 0

	CapacityConstraint bool
	BumpBuffer          time.Duration
	MaxHyperpathAssignAttempts int

	TracePassengerIDs map[int]bool

	WalkAccessTimeWeight   float64
	WalkEgressTimeWeight   float64
	WalkTransferTimeWeight float64
	WaitTimeWeight         float64
	ScheduleDelayWeight    float64
	FarePerBoarding        float64
	ValueOfTime            float64
	TransferPenalty        float64
}

// Default returns the reference implementation's constant values, converted
// to Go types (minutes to time.Duration, boundaries to float64 weights).
func Default() Config {
	return Config{
		IterationFlag:              1,
		AssignmentType:             Deterministic,
		SimulationFlag:             true,
		PathTimeWindow:             30 * time.Minute,
		DispersionParameter:        1.0,
		CapacityConstraint:         true,
		BumpBuffer:                 5 * time.Minute,
		MaxHyperpathAssignAttempts: 1001,
		TracePassengerIDs:          map[int]bool{},
		WalkAccessTimeWeight:       1.0,
		WalkEgressTimeWeight:       1.0,
		WalkTransferTimeWeight:     1.0,
		WaitTimeWeight:             1.0,
		ScheduleDelayWeight:        1.0,
		FarePerBoarding:            0,
		ValueOfTime:                1.0,
		TransferPenalty:            0,
	}
}

// Validate enforces spec.md §7(e): out-of-range parameters must fail at
// startup.
func (c Config) Validate() error {
	if c.DispersionParameter < 0 {
		return errors.WithStack(&models.ConfigError{Field: "DispersionParameter", Reason: "must be >= 0"})
	}
	if c.PathTimeWindow < 0 {
		return errors.WithStack(&models.ConfigError{Field: "PathTimeWindow", Reason: "must be non-negative"})
	}
	if c.BumpBuffer < 0 {
		return errors.WithStack(&models.ConfigError{Field: "BumpBuffer", Reason: "must be non-negative"})
	}
	if c.IterationFlag < 1 {
		return errors.WithStack(&models.ConfigError{Field: "IterationFlag", Reason: "must be >= 1"})
	}
	if c.MaxHyperpathAssignAttempts < 1 {
		return errors.WithStack(&models.ConfigError{Field: "MaxHyperpathAssignAttempts", Reason: "must be >= 1"})
	}
	if c.AssignmentType == Stochastic && c.IterationFlag != 1 {
		// stochastic mode runs exactly one iteration regardless (§4.1 step 4);
		// not an error, the controller enforces this, noted here for clarity.
		return nil
	}
	return nil
}

// Trace reports whether passengerID should emit verbose trace logging.
func (c Config) Trace(passengerID int) bool {
	return c.TracePassengerIDs[passengerID]
}
