// Package assign implements the Assignment Controller of spec.md §4.1: the
// outer loop that alternates Path Finder search and Simulator network
// loading until the capacity gap converges or the iteration budget is
// spent.
package assign

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/janzill/fasttrips-go/internal/config"
	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/pathfinder"
	"github.com/janzill/fasttrips-go/internal/simulate"
)

// maxConcurrentSearches bounds the per-passenger fan-out in assignAll so it
// stays a worker pool rather than one goroutine per passenger.
var maxConcurrentSearches = runtime.GOMAXPROCS(0)

// TripLister supplies the full trip set for building the simulation event
// stream, in addition to the per-trip/stop/TAZ lookups pathfinder.ScheduleSource
// already provides.
type TripLister interface {
	pathfinder.ScheduleSource
	AllTrips() []*models.Trip
}

// IterationReport summarizes one pass of the outer loop, emitted for
// observability (logged by the caller via logrus).
type IterationReport struct {
	Iteration         int
	PathsFound        int
	PassengersArrived int
	PassengersBumped  int
	CapacityGap       float64
	StopStats         []simulate.StopStat
}

// Controller runs the assign-simulate loop of spec.md §4.1.
type Controller struct {
	store  TripLister
	cfg    config.Config
	search pathfinder.SearchConfig
	seed   int64
}

// New builds a Controller bound to a schedule store, the run configuration
// and the base seed for stochastic assignment. Stochastic searches run
// concurrently across passengers, so the Controller never hands out a
// shared Sampler: each passenger's search gets its own math/rand.Rand
// derived from seed and the passenger's ID (spec.md §5's "each worker has
// an independent RNG stream"), which keeps both the fan-out race-free and
// the batch reproducible for a fixed seed.
func New(store TripLister, cfg config.Config, search pathfinder.SearchConfig, seed int64) *Controller {
	return &Controller{store: store, cfg: cfg, search: search, seed: seed}
}

// samplerFor derives a passenger-scoped Sampler from the run seed so two
// concurrent searches never share (and race on) the same *rand.Rand.
func (c *Controller) samplerFor(passengerID int) pathfinder.Sampler {
	return pathfinder.NewMathRandSampler(c.seed + int64(passengerID)*1_000_003)
}

// Run executes the outer iteration loop against passengers, mutating each
// passenger's Path and PassengerRuntime in place, and returns one report
// per iteration actually executed.
func (c *Controller) Run(ctx context.Context, passengers []*models.PassengerRuntime) ([]IterationReport, error) {
	bumpWait := make(models.BumpWaitTable)
	var reports []IterationReport

	maxIter := c.cfg.IterationFlag
	if c.cfg.AssignmentType == config.Stochastic {
		maxIter = 1 // §4.1 step 4: stochastic mode runs exactly one iteration
	}

	for iteration := 1; iteration <= maxIter; iteration++ {
		snapshot := bumpWait.Snapshot()

		pathsFound, err := c.assignAll(ctx, passengers, snapshot, iteration)
		if err != nil {
			return reports, err
		}

		report := IterationReport{Iteration: iteration, PathsFound: pathsFound}

		if c.cfg.SimulationFlag {
			result, err := c.simulate(passengers, bumpWait)
			if err != nil {
				return reports, err
			}
			report.PassengersArrived = result.PassengersArrived
			report.PassengersBumped = result.PassengersBumped
			report.StopStats = result.StopStats
			if pathsFound > 0 {
				report.CapacityGap = 100.0 * float64(pathsFound-result.PassengersArrived) / float64(pathsFound)
			}
		}

		reports = append(reports, report)

		if c.cfg.AssignmentType == config.Stochastic {
			break
		}
		if report.CapacityGap < 0.001 && c.cfg.SimulationFlag {
			break
		}
	}
	return reports, nil
}

// assignAll invokes the Path Finder for every passenger not already
// arrived, fanning out across goroutines per spec.md §5 ("embarrassingly
// parallelizable ... provided bump-wait is read-only within the
// iteration").
func (c *Controller) assignAll(ctx context.Context, passengers []*models.PassengerRuntime, bumpWait models.BumpWaitTable, iteration int) (int, error) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	pathsFound := make([]bool, len(passengers))

	for i, pr := range passengers {
		i, pr := i, pr
		if iteration > 1 && pr.Status == models.StatusArrived {
			pathsFound[i] = pr.Path != nil && pr.Path.PathFound()
			continue
		}
		g.Go(func() error {
			if pr.Path == nil || !pr.Path.GoesSomewhere() {
				return nil
			}
			var found bool
			var err error
			switch c.cfg.AssignmentType {
			case config.Stochastic:
				found, err = pathfinder.HyperSearch(c.store, c.search, bumpWait, c.samplerFor(pr.ID), pr.Path)
			default:
				found, err = pathfinder.DetSearch(c.store, c.search, bumpWait, pr.Path)
			}
			if err != nil {
				return errors.Wrapf(err, "passenger %d", pr.ID)
			}
			pathsFound[i] = found
			pr.Status = models.StatusInitial
			pr.PathIndex = 0
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0
	for _, found := range pathsFound {
		if found {
			count++
		}
	}
	return count, nil
}

func (c *Controller) simulate(passengers []*models.PassengerRuntime, bumpWait models.BumpWaitTable) (simulate.Result, error) {
	events := simulate.BuildEventStream(c.store.AllTrips())
	sim := simulate.New(c.store, c.cfg.CapacityConstraint)
	return sim.Run(passengers, events, bumpWait)
}
