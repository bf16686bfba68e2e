package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

var ErrRunNotFound = errors.New("run not found")

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(ctx context.Context, run *models.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, source, status, message, started_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, run.ID, run.Source, run.Status, run.Message, run.StartedAt.UTC())
	return err
}

// Update stores the status, counters and model report of a run.
func (r *RunRepository) Update(ctx context.Context, run *models.PipelineRun) error {
	var report sql.NullString
	if run.Model != nil {
		data, err := json.Marshal(run.Model)
		if err != nil {
			return fmt.Errorf("failed to encode model report: %w", err)
		}
		report = sql.NullString{String: string(data), Valid: true}
	}

	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	// sqlite binds $N by order of appearance, so placeholders stay ascending
	query := `
		UPDATE pipeline_runs
		SET status = $1, message = $2, finished_at = $3,
			maintenance_events = $4, sensor_readings = $5, labels_generated = $6,
			features_extracted = $7, vehicles_assessed = $8, model_report = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		run.Status, run.Message, finished,
		run.MaintenanceEvents, run.SensorReadings, run.LabelsGenerated,
		run.FeaturesExtracted, run.VehiclesAssessed, report,
		run.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `id, source, status, message, started_at, finished_at,
	maintenance_events, sensor_readings, labels_generated, features_extracted,
	vehicles_assessed, model_report`

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	query := `SELECT ` + runColumns + ` FROM pipeline_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.PipelineRun, error) {
	var (
		run      models.PipelineRun
		finished sql.NullTime
		report   sql.NullString
	)

	err := row.Scan(
		&run.ID, &run.Source, &run.Status, &run.Message, &run.StartedAt, &finished,
		&run.MaintenanceEvents, &run.SensorReadings, &run.LabelsGenerated, &run.FeaturesExtracted,
		&run.VehiclesAssessed, &report,
	)
	if err != nil {
		return nil, err
	}

	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	if report.Valid && report.String != "" {
		run.Model = &models.ModelReport{}
		if err := json.Unmarshal([]byte(report.String), run.Model); err != nil {
			return nil, fmt.Errorf("failed to decode model report: %w", err)
		}
	}

	return &run, nil
}
