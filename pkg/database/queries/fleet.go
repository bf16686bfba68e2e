package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

// FleetRepository reads and writes the raw fleet inputs: the maintenance log,
// sensor telemetry and diagnostic readings.
type FleetRepository struct {
	db *sql.DB
}

func NewFleetRepository(db *sql.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

func (r *FleetRepository) LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error) {
	query := `
		SELECT id, vehicle_number, vin, event_date, job_description, cost, downtime_days
		FROM maintenance_events
		ORDER BY event_date, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.MaintenanceEvent
	for rows.Next() {
		var (
			e       models.MaintenanceEvent
			vehicle sql.NullString
			vin     sql.NullString
			date    sql.NullTime
		)
		if err := rows.Scan(&e.ID, &vehicle, &vin, &date, &e.JobDescription, &e.Cost, &e.DowntimeDays); err != nil {
			return nil, err
		}
		e.VehicleNumber = vehicle.String
		e.VIN = vin.String
		if date.Valid {
			e.Date = date.Time.UTC()
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// LoadSensors returns telemetry records ordered by VIN and time. Rows that
// share a VIN and timestamp are folded into one reading.
func (r *FleetRepository) LoadSensors(ctx context.Context) ([]models.SensorReading, error) {
	query := `
		SELECT vin, time, sensor, value
		FROM sensor_readings
		ORDER BY vin, time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.SensorReading
	for rows.Next() {
		var (
			vin, sensor string
			ts          time.Time
			value       float64
		)
		if err := rows.Scan(&vin, &ts, &sensor, &value); err != nil {
			return nil, err
		}
		ts = ts.UTC()

		n := len(readings)
		if n > 0 && readings[n-1].VIN == vin && readings[n-1].Time.Equal(ts) {
			readings[n-1].Values[sensor] = value
			continue
		}
		readings = append(readings, models.SensorReading{
			VIN:    vin,
			Time:   ts,
			Values: map[string]float64{sensor: value},
		})
	}

	return readings, rows.Err()
}

func (r *FleetRepository) LoadDiagnostics(ctx context.Context) ([]models.DiagnosticReading, error) {
	query := `
		SELECT asset_name, time, diagnostic, value, unit
		FROM diagnostic_readings
		ORDER BY asset_name, time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.DiagnosticReading
	for rows.Next() {
		var d models.DiagnosticReading
		if err := rows.Scan(&d.AssetName, &d.Time, &d.Diagnostic, &d.Value, &d.Unit); err != nil {
			return nil, err
		}
		d.Time = d.Time.UTC()
		readings = append(readings, d)
	}

	return readings, rows.Err()
}

func (r *FleetRepository) InsertMaintenance(ctx context.Context, events []models.MaintenanceEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO maintenance_events (id, vehicle_number, vin, event_date, job_description, cost, downtime_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		id := e.ID
		if id == "" {
			id = models.NewUUID()
		}
		_, err := stmt.ExecContext(ctx, id, nullString(e.VehicleNumber), nullString(e.VIN), nullTime(e.Date),
			e.JobDescription, e.Cost, e.DowntimeDays)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// InsertSensors stores readings in long form, one row per channel value.
func (r *FleetRepository) InsertSensors(ctx context.Context, readings []models.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sensor_readings (vin, time, sensor, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, reading := range readings {
		for sensor, value := range reading.Values {
			if _, err := stmt.ExecContext(ctx, reading.VIN, reading.Time.UTC(), sensor, value); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *FleetRepository) InsertDiagnostics(ctx context.Context, readings []models.DiagnosticReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostic_readings (asset_name, time, diagnostic, value, unit)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range readings {
		if _, err := stmt.ExecContext(ctx, d.AssetName, d.Time.UTC(), d.Diagnostic, d.Value, d.Unit); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Counts returns the number of stored maintenance events and sensor rows.
func (r *FleetRepository) Counts(ctx context.Context) (maintenance, sensorRows int, err error) {
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM maintenance_events`).Scan(&maintenance); err != nil {
		return 0, 0, err
	}
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_readings`).Scan(&sensorRows); err != nil {
		return 0, 0, err
	}
	return maintenance, sensorRows, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
