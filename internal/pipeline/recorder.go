package pipeline

import (
	"context"
	"fmt"

	"github.com/OldStager01/dpf-rul/pkg/database"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// RunRecorder persists runs and their outputs.
type RunRecorder interface {
	Start(ctx context.Context, run *models.PipelineRun) error
	Finish(ctx context.Context, result *Result) error
}

// SQLRecorder writes runs to the pipeline_runs table and their outputs to
// the result tables.
type SQLRecorder struct {
	runs    *queries.RunRepository
	results *queries.ResultRepository
}

func NewSQLRecorder(db *database.DB) *SQLRecorder {
	return &SQLRecorder{
		runs:    queries.NewRunRepository(db.DB),
		results: queries.NewResultRepository(db.DB),
	}
}

func (r *SQLRecorder) Start(ctx context.Context, run *models.PipelineRun) error {
	if err := r.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *SQLRecorder) Finish(ctx context.Context, result *Result) error {
	run := result.Run

	if err := r.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if err := r.results.InsertLabels(ctx, run.ID, result.Labels); err != nil {
		return fmt.Errorf("failed to store labels: %w", err)
	}
	if err := r.results.InsertFeatures(ctx, run.ID, result.Features); err != nil {
		return fmt.Errorf("failed to store features: %w", err)
	}
	if result.Report.Model != nil {
		if err := r.results.InsertCoefficients(ctx, run.ID, result.Report.Model.Coefficients); err != nil {
			return fmt.Errorf("failed to store coefficients: %w", err)
		}
	}
	if err := r.results.InsertRisks(ctx, run.ID, result.Report.Risks); err != nil {
		return fmt.Errorf("failed to store risks: %w", err)
	}
	return nil
}
