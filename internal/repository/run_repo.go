// Package repository persists assignment runs and their passenger outcomes,
// in the pgx/pgxpool, raw-SQL query style of the RAPTOR line/stop lookup
// layer it replaces.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzill/fasttrips-go/internal/models"
)

// RunRepository stores assignment-run configuration, per-iteration reports
// and per-passenger outcomes.
type RunRepository struct {
	db *pgxpool.Pool
}

func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts a new run row and returns its generated id.
func (r *RunRepository) CreateRun(ctx context.Context, label string, assignmentType string) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO assignment_runs (label, assignment_type, started_at)
		VALUES ($1, $2, now())
		RETURNING id
	`, label, assignmentType).Scan(&id)
	return id, err
}

// RecordIteration appends one outer-loop iteration's convergence metrics.
func (r *RunRepository) RecordIteration(ctx context.Context, runID, iteration, pathsFound, passengersArrived, passengersBumped int, capacityGap float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO assignment_iterations
			(run_id, iteration, paths_found, passengers_arrived, passengers_bumped, capacity_gap)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, runID, iteration, pathsFound, passengersArrived, passengersBumped, capacityGap)
	return err
}

// SavePassengerOutcome persists one passenger's final status, path-found
// flag and destination arrival time for a run.
func (r *RunRepository) SavePassengerOutcome(ctx context.Context, runID int, pr *models.PassengerRuntime) error {
	var destArrival *int
	if pr.Log.HasDestinationArrival {
		v := pr.Log.DestinationArrival
		destArrival = &v
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO passenger_outcomes
			(run_id, passenger_id, status, path_found, destination_arrival)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, passenger_id) DO UPDATE
		SET status = EXCLUDED.status, path_found = EXCLUDED.path_found,
		    destination_arrival = EXCLUDED.destination_arrival
	`, runID, pr.ID, pr.Status.String(), pr.Path != nil && pr.Path.PathFound(), destArrival)
	return err
}

// FinishRun marks a run complete and records the final capacity gap.
func (r *RunRepository) FinishRun(ctx context.Context, runID int, finalCapacityGap float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE assignment_runs SET finished_at = now(), final_capacity_gap = $2
		WHERE id = $1
	`, runID, finalCapacityGap)
	return err
}

// BumpEventRow is one recorded bump observation for the bump-wait report.
type BumpEventRow struct {
	TripID models.TripID
	StopID models.StopID
	Latest int
}

// LoadBumpWait reconstructs a run's final bump-wait table, e.g. for
// diagnostics or resuming a stopped run.
func (r *RunRepository) LoadBumpWait(ctx context.Context, runID int) (models.BumpWaitTable, error) {
	rows, err := r.db.Query(ctx, `
		SELECT trip_id, stop_id, latest_wait_start
		FROM bump_wait_observations
		WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := make(models.BumpWaitTable)
	for rows.Next() {
		var row BumpEventRow
		if err := rows.Scan(&row.TripID, &row.StopID, &row.Latest); err != nil {
			return nil, err
		}
		table.Observe(models.BumpKey{TripID: row.TripID, StopID: row.StopID}, row.Latest)
	}
	return table, rows.Err()
}

// SaveBumpWait overwrites a run's persisted bump-wait table with the final
// snapshot from the last iteration.
func (r *RunRepository) SaveBumpWait(ctx context.Context, runID int, table models.BumpWaitTable) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM bump_wait_observations WHERE run_id = $1`, runID); err != nil {
		return err
	}
	for key, latest := range table {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bump_wait_observations (run_id, trip_id, stop_id, latest_wait_start)
			VALUES ($1, $2, $3, $4)
		`, runID, key.TripID, key.StopID, latest); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
