package report

import (
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/janzill/fasttrips-go/internal/models"
)

// DefaultHeadwaySeconds is used for a trip's first scheduled departure at a
// stop, where no preceding departure exists to measure a gap against.
const DefaultHeadwaySeconds = 30 * 60

// HeadwayRow is one trip's scheduled headway at one stop: the gap since the
// previous trip's departure from the same stop.
type HeadwayRow struct {
	TripID         int `csv:"trip_id"`
	StopID         int `csv:"stop_id"`
	HeadwaySeconds int `csv:"headway_sec"`
}

// CalculateHeadways computes, for every (stop, departure) pair across
// trips, the gap since the previous trip's departure at that stop, mirroring
// the original implementation's per-stop headway calculation (Trip.py
// calculate_headways) without its route/direction grouping, which this
// engine's trip model does not carry.
func CalculateHeadways(trips []*models.Trip) []HeadwayRow {
	type departure struct {
		tripID models.TripID
		stopID models.StopID
		time   int
	}
	var departures []departure
	for _, t := range trips {
		for _, st := range t.StopTimes {
			departures = append(departures, departure{tripID: t.ID, stopID: st.StopID, time: st.Departure})
		}
	}
	sort.Slice(departures, func(i, j int) bool {
		if departures[i].stopID != departures[j].stopID {
			return departures[i].stopID < departures[j].stopID
		}
		return departures[i].time < departures[j].time
	})

	rows := make([]HeadwayRow, 0, len(departures))
	lastTimeAtStop := make(map[models.StopID]int)
	for _, d := range departures {
		headway := DefaultHeadwaySeconds
		if prev, ok := lastTimeAtStop[d.stopID]; ok {
			headway = d.time - prev
		}
		lastTimeAtStop[d.stopID] = d.time
		rows = append(rows, HeadwayRow{TripID: int(d.tripID), StopID: int(d.stopID), HeadwaySeconds: headway})
	}
	return rows
}

// WriteHeadways writes the headway report to path.
func WriteHeadways(path string, rows []HeadwayRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return errors.Wrapf(err, "write csv %s", path)
	}
	return nil
}
