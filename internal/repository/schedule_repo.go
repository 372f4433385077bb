package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/schedule"
)

// ScheduleRepository loads the day's schedule (trips, stops, TAZs) from
// Postgres into an in-memory schedule.Store. Feed ingestion itself (GTFS
// parsing) is out of scope (spec.md §1); this repository only reads
// already-ingested rows.
type ScheduleRepository struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Load builds a schedule.Store from the trips/stop_times, stops/transfers
// and tazs/access_links tables.
func (r *ScheduleRepository) Load(ctx context.Context) (*schedule.Store, error) {
	trips, err := r.loadTrips(ctx)
	if err != nil {
		return nil, err
	}
	stops, err := r.loadStops(ctx)
	if err != nil {
		return nil, err
	}
	tazs, err := r.loadTAZs(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.New(trips, stops, tazs), nil
}

func (r *ScheduleRepository) loadTrips(ctx context.Context) ([]*models.Trip, error) {
	tripRows, err := r.db.Query(ctx, `
		SELECT id, service_id, capacity FROM trips ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer tripRows.Close()

	byID := make(map[models.TripID]*models.Trip)
	var order []models.TripID
	for tripRows.Next() {
		var id models.TripID
		var serviceID string
		var capacity int
		if err := tripRows.Scan(&id, &serviceID, &capacity); err != nil {
			return nil, err
		}
		byID[id] = &models.Trip{ID: id, ServiceID: serviceID, Capacity: capacity}
		order = append(order, id)
	}
	if err := tripRows.Err(); err != nil {
		return nil, err
	}

	stRows, err := r.db.Query(ctx, `
		SELECT trip_id, stop_id, stop_sequence, arrival_sec, departure_sec
		FROM stop_times
		ORDER BY trip_id, stop_sequence
	`)
	if err != nil {
		return nil, err
	}
	defer stRows.Close()

	for stRows.Next() {
		var tripID models.TripID
		var st models.StopTime
		if err := stRows.Scan(&tripID, &st.StopID, &st.Sequence, &st.Arrival, &st.Departure); err != nil {
			return nil, err
		}
		if t, ok := byID[tripID]; ok {
			t.StopTimes = append(t.StopTimes, st)
		}
	}
	if err := stRows.Err(); err != nil {
		return nil, err
	}

	trips := make([]*models.Trip, 0, len(order))
	for _, id := range order {
		trips = append(trips, byID[id])
	}
	return trips, nil
}

func (r *ScheduleRepository) loadStops(ctx context.Context) ([]*models.Stop, error) {
	rows, err := r.db.Query(ctx, `SELECT id, is_transfer FROM stops ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[models.StopID]*models.Stop)
	var order []models.StopID
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.IsTransfer); err != nil {
			return nil, err
		}
		s.Transfers = make(map[models.StopID]int)
		byID[s.ID] = &s
		order = append(order, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	xferRows, err := r.db.Query(ctx, `SELECT from_stop_id, to_stop_id, walk_seconds FROM transfers`)
	if err != nil {
		return nil, err
	}
	defer xferRows.Close()

	for xferRows.Next() {
		var from, to models.StopID
		var seconds int
		if err := xferRows.Scan(&from, &to, &seconds); err != nil {
			return nil, err
		}
		if s, ok := byID[from]; ok {
			s.Transfers[to] = seconds
		}
	}
	if err := xferRows.Err(); err != nil {
		return nil, err
	}

	stops := make([]*models.Stop, 0, len(order))
	for _, id := range order {
		stops = append(stops, byID[id])
	}
	return stops, nil
}

func (r *ScheduleRepository) loadTAZs(ctx context.Context) ([]*models.TAZ, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM tazs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[models.TAZID]*models.TAZ)
	var order []models.TAZID
	for rows.Next() {
		var z models.TAZ
		if err := rows.Scan(&z.ID); err != nil {
			return nil, err
		}
		z.AccessLinks = make(map[models.StopID]int)
		byID[z.ID] = &z
		order = append(order, z.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := r.db.Query(ctx, `SELECT taz_id, stop_id, walk_seconds FROM access_links`)
	if err != nil {
		return nil, err
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var tazID models.TAZID
		var stopID models.StopID
		var seconds int
		if err := linkRows.Scan(&tazID, &stopID, &seconds); err != nil {
			return nil, err
		}
		if z, ok := byID[tazID]; ok {
			z.AccessLinks[stopID] = seconds
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, err
	}

	tazs := make([]*models.TAZ, 0, len(order))
	for _, id := range order {
		tazs = append(tazs, byID[id])
	}
	return tazs, nil
}
