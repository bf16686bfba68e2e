package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

// ResultRepository stores the per-run outputs: labels, feature vectors,
// model coefficients and vehicle risks.
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) InsertLabels(ctx context.Context, runID string, labels []models.RULLabel) error {
	if len(labels) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rul_labels (run_id, vehicle_number, vin, prediction_date, maintenance_date,
			rul_days, rul_category, maintenance_type, maintenance_cost, downtime_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range labels {
		_, err := stmt.ExecContext(ctx, runID, l.VehicleNumber, l.VIN, l.PredictionDate.UTC(), l.MaintenanceDate.UTC(),
			l.RULDays, l.Category, l.MaintenanceType, l.MaintenanceCost, l.DowntimeDays)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ResultRepository) GetLabels(ctx context.Context, runID string, limit, offset int) ([]models.RULLabel, error) {
	query := `
		SELECT vehicle_number, vin, prediction_date, maintenance_date, rul_days, rul_category,
			maintenance_type, maintenance_cost, downtime_days
		FROM rul_labels
		WHERE run_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []models.RULLabel
	for rows.Next() {
		var l models.RULLabel
		err := rows.Scan(&l.VehicleNumber, &l.VIN, &l.PredictionDate, &l.MaintenanceDate, &l.RULDays,
			&l.Category, &l.MaintenanceType, &l.MaintenanceCost, &l.DowntimeDays)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}

	return labels, rows.Err()
}

func (r *ResultRepository) InsertFeatures(ctx context.Context, runID string, vectors []models.FeatureVector) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feature_vectors (run_id, vehicle_number, vin, prediction_date, maintenance_date,
			rul_days, rul_category, data_points, window_days, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range vectors {
		data, err := json.Marshal(v.Features)
		if err != nil {
			return fmt.Errorf("failed to encode features: %w", err)
		}
		l := v.Label
		_, err = stmt.ExecContext(ctx, runID, l.VehicleNumber, l.VIN, l.PredictionDate.UTC(), l.MaintenanceDate.UTC(),
			l.RULDays, l.Category, v.DataPoints, v.WindowDays, string(data))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ResultRepository) GetFeatures(ctx context.Context, runID string, limit, offset int) ([]models.FeatureVector, error) {
	query := `
		SELECT vehicle_number, vin, prediction_date, maintenance_date, rul_days, rul_category,
			data_points, window_days, features
		FROM feature_vectors
		WHERE run_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vectors []models.FeatureVector
	for rows.Next() {
		var (
			v    models.FeatureVector
			data string
		)
		err := rows.Scan(&v.Label.VehicleNumber, &v.Label.VIN, &v.Label.PredictionDate, &v.Label.MaintenanceDate,
			&v.Label.RULDays, &v.Label.Category, &v.DataPoints, &v.WindowDays, &data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &v.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
		vectors = append(vectors, v)
	}

	return vectors, rows.Err()
}

func (r *ResultRepository) InsertCoefficients(ctx context.Context, runID string, coefs []models.FeatureCoefficient) error {
	if len(coefs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO model_coefficients (run_id, rank, feature, coefficient, correlation, direction)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range coefs {
		if _, err := stmt.ExecContext(ctx, runID, i+1, c.Feature, c.Coefficient, c.Correlation, c.Direction); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ResultRepository) GetCoefficients(ctx context.Context, runID string) ([]models.FeatureCoefficient, error) {
	query := `
		SELECT feature, coefficient, correlation, direction
		FROM model_coefficients
		WHERE run_id = $1
		ORDER BY rank`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coefs []models.FeatureCoefficient
	for rows.Next() {
		var c models.FeatureCoefficient
		if err := rows.Scan(&c.Feature, &c.Coefficient, &c.Correlation, &c.Direction); err != nil {
			return nil, err
		}
		coefs = append(coefs, c)
	}

	return coefs, rows.Err()
}

func (r *ResultRepository) InsertRisks(ctx context.Context, runID string, risks []models.VehicleRisk) error {
	if len(risks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vehicle_risks (run_id, vin, vehicle_number, as_of, predicted_rul_days, level, data_points, drivers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, risk := range risks {
		drivers, err := json.Marshal(risk.Drivers)
		if err != nil {
			return fmt.Errorf("failed to encode risk drivers: %w", err)
		}
		_, err = stmt.ExecContext(ctx, runID, risk.VIN, risk.VehicleNumber, risk.AsOf.UTC(),
			risk.PredictedRULDays, risk.Level, risk.DataPoints, string(drivers))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const riskColumns = `run_id, vin, vehicle_number, as_of, predicted_rul_days, level, data_points, drivers`

func (r *ResultRepository) GetRisks(ctx context.Context, runID string) ([]models.VehicleRisk, error) {
	query := `SELECT ` + riskColumns + ` FROM vehicle_risks WHERE run_id = $1 ORDER BY predicted_rul_days`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var risks []models.VehicleRisk
	for rows.Next() {
		risk, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		risks = append(risks, *risk)
	}

	return risks, rows.Err()
}

// GetLatestRisk returns the most recent assessment for a VIN, or nil when the
// vehicle was never assessed.
func (r *ResultRepository) GetLatestRisk(ctx context.Context, vin string) (*models.VehicleRisk, error) {
	query := `SELECT ` + riskColumns + ` FROM vehicle_risks WHERE vin = $1 ORDER BY as_of DESC, id DESC LIMIT 1`

	risk, err := scanRisk(r.db.QueryRowContext(ctx, query, vin))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return risk, nil
}

func scanRisk(row rowScanner) (*models.VehicleRisk, error) {
	var (
		risk    models.VehicleRisk
		drivers string
	)
	err := row.Scan(&risk.RunID, &risk.VIN, &risk.VehicleNumber, &risk.AsOf, &risk.PredictedRULDays,
		&risk.Level, &risk.DataPoints, &drivers)
	if err != nil {
		return nil, err
	}
	if drivers != "" {
		if err := json.Unmarshal([]byte(drivers), &risk.Drivers); err != nil {
			return nil, fmt.Errorf("failed to decode risk drivers: %w", err)
		}
	}
	return &risk, nil
}
