// Package report renders assignment results to the CSV outputs spec.md's
// OUT OF SCOPE section defers to an external collaborator, plus the
// headway report this repository supplements from the original
// implementation (spec.md §9 "supplement dropped features").
package report

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/simulate"
)

// PassengerRow is one line of the per-passenger outcome CSV.
type PassengerRow struct {
	PassengerID        int    `csv:"passenger_id"`
	Status             string `csv:"status"`
	PathFound          bool   `csv:"path_found"`
	Direction          string `csv:"direction"`
	DestinationArrival int    `csv:"destination_arrival_sec"`
}

// WritePassengerOutcomes writes one row per passenger to path.
func WritePassengerOutcomes(path string, passengers []*models.PassengerRuntime) error {
	rows := make([]PassengerRow, 0, len(passengers))
	for _, pr := range passengers {
		row := PassengerRow{
			PassengerID: pr.ID,
			Status:      pr.Status.String(),
		}
		if pr.Path != nil {
			row.PathFound = pr.Path.PathFound()
			row.Direction = pr.Path.Direction.String()
		}
		if pr.Log.HasDestinationArrival {
			row.DestinationArrival = pr.Log.DestinationArrival
		}
		rows = append(rows, row)
	}
	return writeCSV(path, &rows)
}

// TripStopRow is one line of the per-trip-per-stop loading CSV.
type TripStopRow struct {
	TripID  int     `csv:"trip_id"`
	StopID  int     `csv:"stop_id"`
	Boards  int     `csv:"boards"`
	Alights int     `csv:"alights"`
	Dwell   float64 `csv:"dwell_sec"`
}

// WriteLoadProfile writes the simulator's per-trip-stop stats to path.
func WriteLoadProfile(path string, stats []simulate.StopStat) error {
	rows := make([]TripStopRow, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, TripStopRow{
			TripID:  int(s.TripID),
			StopID:  int(s.StopID),
			Boards:  s.Boards,
			Alights: s.Alights,
			Dwell:   s.Dwell,
		})
	}
	return writeCSV(path, &rows)
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(rows, f); err != nil {
		return errors.Wrapf(err, "write csv %s", path)
	}
	return nil
}
