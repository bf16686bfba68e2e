package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/dpf-rul/api/middleware"
	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/pipeline"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/models"
	"github.com/OldStager01/dpf-rul/pkg/validation"
)

// RunManager starts pipeline runs and knows about the run in progress.
type RunManager interface {
	Trigger(opts pipeline.RunOptions) (*models.PipelineRun, error)
	ActiveRun() (*models.PipelineRun, bool)
	LatestRisk(vin string) (*models.VehicleRisk, bool)
	SubscribeAllEvents() <-chan *models.Event
}

type RunStore interface {
	GetByID(ctx context.Context, id string) (*models.PipelineRun, error)
	List(ctx context.Context, limit int) ([]*models.PipelineRun, error)
}

type ResultStore interface {
	GetLabels(ctx context.Context, runID string, limit, offset int) ([]models.RULLabel, error)
	GetFeatures(ctx context.Context, runID string, limit, offset int) ([]models.FeatureVector, error)
	GetCoefficients(ctx context.Context, runID string) ([]models.FeatureCoefficient, error)
	GetRisks(ctx context.Context, runID string) ([]models.VehicleRisk, error)
	GetLatestRisk(ctx context.Context, vin string) (*models.VehicleRisk, error)
}

type RunHandler struct {
	manager RunManager
	runs    RunStore
	results ResultStore
	config  config.APIConfig
}

// NewRunHandler builds the run endpoints. runs and results may be nil when no
// database is configured; the history endpoints then answer 503.
func NewRunHandler(manager RunManager, runs RunStore, results ResultStore, cfg config.APIConfig) *RunHandler {
	return &RunHandler{
		manager: manager,
		runs:    runs,
		results: results,
		config:  cfg,
	}
}

type TriggerRunRequest struct {
	Source string `json:"source" binding:"omitempty,oneof=database simulated" example:"simulated"`
	AsOf   string `json:"as_of" example:"2024-06-01"`
}

type TriggerRunResponse struct {
	RunID     string    `json:"run_id" example:"3f1c2d4e-8a7b-4c1d-9e2f-0a1b2c3d4e5f"`
	Status    string    `json:"status" example:"running"`
	Source    string    `json:"source" example:"simulated"`
	StartedAt time.Time `json:"started_at"`
}

func (h *RunHandler) defaultLimit() int {
	if h.config.DefaultLimit > 0 {
		return h.config.DefaultLimit
	}
	return 100
}

func (h *RunHandler) maxLimit() int {
	if h.config.MaxLimit > 0 {
		return h.config.MaxLimit
	}
	return 1000
}

func (h *RunHandler) page(c *gin.Context) (limit, offset int) {
	limit = h.defaultLimit()
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > h.maxLimit() {
		limit = h.maxLimit()
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (h *RunHandler) historyAvailable(c *gin.Context) bool {
	if h.runs == nil || h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history requires a database"})
		return false
	}
	return true
}

// runID validates the :id parameter and writes the error response itself.
func runID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := validation.ValidateRunID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

// Trigger godoc
// @Summary Start a pipeline run
// @Description Starts a run in the background. Only one run may be in progress.
// @Tags Runs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TriggerRunRequest false "Run options"
// @Success 202 {object} TriggerRunResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "A run is already in progress"
// @Router /runs [post]
func (h *RunHandler) Trigger(c *gin.Context) {
	var req TriggerRunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	opts := pipeline.RunOptions{
		Source:  req.Source,
		TraceID: middleware.GetTraceID(c),
	}
	if req.AsOf != "" {
		asOf, err := validation.ParseAsOf(req.AsOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.AsOf = asOf
	}

	run, err := h.manager.Trigger(opts)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			active, _ := h.manager.ActiveRun()
			resp := gin.H{"error": "a pipeline run is already in progress"}
			if active != nil {
				resp["run_id"] = active.ID
			}
			c.JSON(http.StatusConflict, resp)
		case errors.Is(err, ingest.ErrUnknownSource), errors.Is(err, ingest.ErrSourceUnavailable):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.ErrorCtxf(c.Request.Context(), "Failed to trigger run: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
		}
		return
	}

	logger.WithRun(run.ID).WithField("user", middleware.GetUsername(c)).Info("Run triggered via API")

	c.JSON(http.StatusAccepted, TriggerRunResponse{
		RunID:     run.ID,
		Status:    string(run.Status),
		Source:    run.Source,
		StartedAt: run.StartedAt,
	})
}

// List godoc
// @Summary List pipeline runs
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of runs"
// @Success 200 {object} map[string]interface{} "Runs, newest first"
// @Failure 503 {object} map[string]string "No database configured"
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	if !h.historyAvailable(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit, _ := h.page(c)
	runs, err := h.runs.List(ctx, limit)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}
	if runs == nil {
		runs = []*models.PipelineRun{}
	}

	resp := gin.H{"runs": runs, "count": len(runs)}
	if active, ok := h.manager.ActiveRun(); ok {
		resp["active_run_id"] = active.ID
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a pipeline run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} models.PipelineRun
// @Failure 400 {object} map[string]string "Malformed run id"
// @Failure 404 {object} map[string]string "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) Get(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}

	if active, running := h.manager.ActiveRun(); running && active.ID == id {
		c.JSON(http.StatusOK, active)
		return
	}

	if !h.historyAvailable(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	run, err := h.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, queries.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		logger.ErrorCtxf(ctx, "Failed to fetch run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// Labels godoc
// @Summary RUL labels of a run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /runs/{id}/labels [get]
func (h *RunHandler) Labels(c *gin.Context) {
	h.paged(c, "labels", func(ctx context.Context, id string, limit, offset int) (interface{}, int, error) {
		labels, err := h.results.GetLabels(ctx, id, limit, offset)
		if labels == nil {
			labels = []models.RULLabel{}
		}
		return labels, len(labels), err
	})
}

// Features godoc
// @Summary Feature vectors of a run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /runs/{id}/features [get]
func (h *RunHandler) Features(c *gin.Context) {
	h.paged(c, "features", func(ctx context.Context, id string, limit, offset int) (interface{}, int, error) {
		vectors, err := h.results.GetFeatures(ctx, id, limit, offset)
		if vectors == nil {
			vectors = []models.FeatureVector{}
		}
		return vectors, len(vectors), err
	})
}

func (h *RunHandler) paged(c *gin.Context, key string, fetch func(ctx context.Context, id string, limit, offset int) (interface{}, int, error)) {
	id, ok := runID(c)
	if !ok || !h.historyAvailable(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit, offset := h.page(c)
	items, count, err := fetch(ctx, id, limit, offset)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to fetch %s of run %s: %v", key, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch " + key})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": id,
		key:      items,
		"count":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// Coefficients godoc
// @Summary Model coefficients of a run
// @Description Selected features with their coefficient in days of RUL per standard deviation
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{}
// @Router /runs/{id}/coefficients [get]
func (h *RunHandler) Coefficients(c *gin.Context) {
	id, ok := runID(c)
	if !ok || !h.historyAvailable(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	coefs, err := h.results.GetCoefficients(ctx, id)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to fetch coefficients of run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch coefficients"})
		return
	}
	if coefs == nil {
		coefs = []models.FeatureCoefficient{}
	}

	c.JSON(http.StatusOK, gin.H{"run_id": id, "coefficients": coefs})
}

// Risks godoc
// @Summary Vehicle risks assessed by a run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param level query string false "Only this alert level" Enums(URGENT, WARNING, CAUTION, NORMAL)
// @Success 200 {object} map[string]interface{}
// @Router /runs/{id}/risks [get]
func (h *RunHandler) Risks(c *gin.Context) {
	id, ok := runID(c)
	if !ok || !h.historyAvailable(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	risks, err := h.results.GetRisks(ctx, id)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to fetch risks of run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch risks"})
		return
	}

	level := models.AlertLevel(c.Query("level"))
	filtered := make([]models.VehicleRisk, 0, len(risks))
	for _, r := range risks {
		if level == "" || r.Level == level {
			filtered = append(filtered, r)
		}
	}

	c.JSON(http.StatusOK, gin.H{"run_id": id, "risks": filtered, "count": len(filtered)})
}
