package main

import (
	"github.com/janzill/fasttrips-go/internal/config"
	"github.com/janzill/fasttrips-go/internal/pathfinder"
)

// searchConfigFromAssignment narrows the full run configuration to the
// subset the Path Finder package depends on, keeping pathfinder decoupled
// from internal/config.
func searchConfigFromAssignment(cfg config.Config) pathfinder.SearchConfig {
	return pathfinder.SearchConfig{
		PathTimeWindow:             cfg.PathTimeWindow,
		BumpBuffer:                 cfg.BumpBuffer,
		DispersionParameter:        cfg.DispersionParameter,
		MaxHyperpathAssignAttempts: cfg.MaxHyperpathAssignAttempts,
		WalkAccessTimeWeight:       cfg.WalkAccessTimeWeight,
		WalkEgressTimeWeight:       cfg.WalkEgressTimeWeight,
		WalkTransferTimeWeight:     cfg.WalkTransferTimeWeight,
		WaitTimeWeight:             cfg.WaitTimeWeight,
		ScheduleDelayWeight:        cfg.ScheduleDelayWeight,
		FarePerBoarding:            cfg.FarePerBoarding,
		ValueOfTime:                cfg.ValueOfTime,
		TransferPenalty:            cfg.TransferPenalty,
	}
}
