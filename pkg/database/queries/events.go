package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, e *models.Event) error {
	var data sql.NullString
	if e.Data != nil {
		encoded, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to encode event data: %w", err)
		}
		data = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `
		INSERT INTO pipeline_events (id, run_id, type, severity, vin, message, data, trace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query, e.ID, nullString(e.RunID), e.Type, e.Severity, e.VIN,
		e.Message, data, e.TraceID, e.Timestamp.UTC())
	return err
}

func (r *EventRepository) ListByRun(ctx context.Context, runID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, run_id, type, severity, vin, message, data, trace_id, created_at
		FROM pipeline_events
		WHERE run_id = $1
		ORDER BY created_at
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			e    models.Event
			run  sql.NullString
			data sql.NullString
		)
		if err := rows.Scan(&e.ID, &run, &e.Type, &e.Severity, &e.VIN, &e.Message, &data, &e.TraceID, &e.Timestamp); err != nil {
			return nil, err
		}
		e.RunID = run.String
		if data.Valid {
			var raw json.RawMessage = []byte(data.String)
			e.Data = raw
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
