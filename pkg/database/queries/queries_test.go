package queries_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/pkg/database"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fleet.db")
	db, err := database.New(database.Config{
		Driver: database.DriverSQLite,
		DSN:    path + "?_foreign_keys=on",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrator(db).Run(context.Background())
	require.NoError(t, err)
	return db
}

func TestFleetRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := queries.NewFleetRepository(db.DB)
	ctx := context.Background()

	day := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	events := []models.MaintenanceEvent{
		{ID: "m1", VehicleNumber: "T-1", VIN: "VIN1", Date: day, JobDescription: "EXHAUST SYSTEM", Cost: 420},
		{ID: "m2", VIN: "VIN2", JobDescription: "FILTER - DIESEL PARTICULATE"},
	}
	require.NoError(t, repo.InsertMaintenance(ctx, events))

	readings := []models.SensorReading{
		{VIN: "VIN1", Time: day, Values: map[string]float64{"sootLevel": 10, "engineRpm": 1500}},
		{VIN: "VIN1", Time: day.Add(time.Hour), Values: map[string]float64{"sootLevel": 11}},
	}
	require.NoError(t, repo.InsertSensors(ctx, readings))

	diagnostics := []models.DiagnosticReading{
		{AssetName: "T-1", Time: day, Diagnostic: "Exhaust Gas Pressure", Value: 3.2, Unit: "kPa"},
	}
	require.NoError(t, repo.InsertDiagnostics(ctx, diagnostics))

	loaded, err := repo.LoadMaintenance(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byID := map[string]models.MaintenanceEvent{}
	for _, e := range loaded {
		byID[e.ID] = e
	}
	assert.True(t, byID["m1"].Date.Equal(day))
	assert.Equal(t, "T-1", byID["m1"].VehicleNumber)
	assert.False(t, byID["m2"].HasIdentity())

	sensors, err := repo.LoadSensors(ctx)
	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, map[string]float64{"sootLevel": 10, "engineRpm": 1500}, sensors[0].Values)

	diags, err := repo.LoadDiagnostics(ctx)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "kPa", diags[0].Unit)

	maintenance, sensorRows, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, maintenance)
	assert.Equal(t, 3, sensorRows)
}

func TestRunRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	runs := queries.NewRunRepository(db.DB)
	results := queries.NewResultRepository(db.DB)
	ctx := context.Background()

	run := models.NewPipelineRun("simulated")
	require.NoError(t, runs.Create(ctx, run))

	label := models.RULLabel{
		VehicleNumber:   "T-1",
		VIN:             "VIN1",
		PredictionDate:  time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC),
		MaintenanceDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		RULDays:         7,
		Category:        models.CategoryCritical,
	}
	require.NoError(t, results.InsertLabels(ctx, run.ID, []models.RULLabel{label}))
	require.NoError(t, results.InsertFeatures(ctx, run.ID, []models.FeatureVector{{
		Label:      label,
		Features:   map[string]float64{"sootLevel_trend_slope": 0.4},
		DataPoints: 12,
		WindowDays: 30,
	}}))
	require.NoError(t, results.InsertCoefficients(ctx, run.ID, []models.FeatureCoefficient{
		{Feature: "sootLevel_trend_slope", Coefficient: -4.2, Correlation: -0.6, Direction: "decreases"},
	}))
	require.NoError(t, results.InsertRisks(ctx, run.ID, []models.VehicleRisk{{
		VIN:              "VIN1",
		AsOf:             label.MaintenanceDate,
		PredictedRULDays: 22,
		Level:            models.AlertUrgent,
		DataPoints:       40,
		Drivers:          []models.RiskDriver{{Feature: "sootLevel_trend_slope", Value: 0.4, Contribution: -3}},
	}}))

	run.LabelsGenerated = 1
	run.Model = &models.ModelReport{Samples: 12, Intercept: 40}
	run.Finish(models.RunStatusCompleted, "")
	require.NoError(t, runs.Update(ctx, run))

	got, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 1, got.LabelsGenerated)
	require.NotNil(t, got.Model)
	assert.Equal(t, 40.0, got.Model.Intercept)
	assert.NotNil(t, got.FinishedAt)

	labels, err := results.GetLabels(ctx, run.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, models.CategoryCritical, labels[0].Category)

	vectors, err := results.GetFeatures(ctx, run.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, 0.4, vectors[0].Features["sootLevel_trend_slope"])

	coefs, err := results.GetCoefficients(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, coefs, 1)

	risk, err := results.GetLatestRisk(ctx, "VIN1")
	require.NoError(t, err)
	require.NotNil(t, risk)
	assert.Equal(t, models.AlertUrgent, risk.Level)
	assert.Len(t, risk.Drivers, 1)

	missing, err := results.GetLatestRisk(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := runs.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = runs.GetByID(ctx, "unknown")
	assert.ErrorIs(t, err, queries.ErrRunNotFound)
}

func TestRunRepository_UpdateStoresEveryColumn(t *testing.T) {
	db := openTestDB(t)
	runs := queries.NewRunRepository(db.DB)
	ctx := context.Background()

	run := models.NewPipelineRun("simulated")
	require.NoError(t, runs.Create(ctx, run))

	run.MaintenanceEvents = 4
	run.SensorReadings = 900
	run.LabelsGenerated = 12
	run.FeaturesExtracted = 11
	run.VehiclesAssessed = 3
	run.Model = &models.ModelReport{Samples: 11}
	run.Finish(models.RunStatusInsufficientData, "not enough labels")
	require.NoError(t, runs.Update(ctx, run))

	got, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusInsufficientData, got.Status)
	assert.Equal(t, "not enough labels", got.Message)
	require.NotNil(t, got.FinishedAt)
	assert.WithinDuration(t, *run.FinishedAt, *got.FinishedAt, time.Second)
	assert.Equal(t, 4, got.MaintenanceEvents)
	assert.Equal(t, 900, got.SensorReadings)
	assert.Equal(t, 12, got.LabelsGenerated)
	assert.Equal(t, 11, got.FeaturesExtracted)
	assert.Equal(t, 3, got.VehiclesAssessed)
	require.NotNil(t, got.Model)
	assert.Equal(t, 11, got.Model.Samples)

	ghost := models.NewPipelineRun("simulated")
	ghost.Finish(models.RunStatusCompleted, "")
	assert.ErrorIs(t, runs.Update(ctx, ghost), queries.ErrRunNotFound)
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	users := queries.NewUserRepository(db.DB)
	ctx := context.Background()

	created, err := users.Create(ctx, "analyst", "hash")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	assert.False(t, created.CreatedAt.IsZero())

	got, err := users.GetByUsername(ctx, "analyst")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = users.Create(ctx, "analyst", "other")
	assert.ErrorIs(t, err, queries.ErrUsernameTaken)

	_, err = users.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, queries.ErrUserNotFound)
}

func TestEventRepository(t *testing.T) {
	db := openTestDB(t)
	runs := queries.NewRunRepository(db.DB)
	events := queries.NewEventRepository(db.DB)
	ctx := context.Background()

	run := models.NewPipelineRun("database")
	require.NoError(t, runs.Create(ctx, run))

	e := models.NewEvent(models.EventTypeLabelsGenerated, run.ID, "generated 10 labels").
		WithData(map[string]int{"labels": 10})
	require.NoError(t, events.Insert(ctx, e))

	list, err := events.ListByRun(ctx, run.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.EventTypeLabelsGenerated, list[0].Type)
	assert.NotNil(t, list[0].Data)
}
