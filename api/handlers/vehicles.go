package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
	"github.com/OldStager01/dpf-rul/pkg/validation"
)

type RiskCache interface {
	GetRisk(ctx context.Context, vin string) (*models.VehicleRisk, error)
}

type VehicleHandler struct {
	cache   RiskCache
	results ResultStore
	manager RunManager
}

// NewVehicleHandler looks risks up in the cache, then the database, then the
// last in-memory run. cache and results may be nil.
func NewVehicleHandler(cache RiskCache, results ResultStore, manager RunManager) *VehicleHandler {
	return &VehicleHandler{
		cache:   cache,
		results: results,
		manager: manager,
	}
}

type VehicleRiskResponse struct {
	Risk   *models.VehicleRisk `json:"risk"`
	Source string              `json:"source" example:"cache"`
}

// Risk godoc
// @Summary Latest DPF risk of a vehicle
// @Description Predicted remaining useful life, alert level and top drivers from the most recent assessment
// @Tags Vehicles
// @Produce json
// @Security BearerAuth
// @Param vin path string true "Vehicle identification number"
// @Success 200 {object} VehicleRiskResponse
// @Failure 400 {object} map[string]string "Malformed VIN"
// @Failure 404 {object} map[string]string "Vehicle never assessed"
// @Router /vehicles/{vin}/risk [get]
func (h *VehicleHandler) Risk(c *gin.Context) {
	vin := validation.NormalizeVIN(c.Param("vin"))
	if err := validation.ValidateVIN(vin); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.cache != nil {
		risk, err := h.cache.GetRisk(ctx, vin)
		if err != nil {
			logger.WarnCtxf(ctx, "Risk cache lookup failed for %s: %v", vin, err)
		} else if risk != nil {
			c.JSON(http.StatusOK, VehicleRiskResponse{Risk: risk, Source: "cache"})
			return
		}
	}

	if h.results != nil {
		risk, err := h.results.GetLatestRisk(ctx, vin)
		if err != nil {
			logger.ErrorCtxf(ctx, "Failed to fetch latest risk for %s: %v", vin, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch risk"})
			return
		}
		if risk != nil {
			c.JSON(http.StatusOK, VehicleRiskResponse{Risk: risk, Source: "database"})
			return
		}
	}

	if h.manager != nil {
		if risk, ok := h.manager.LatestRisk(vin); ok {
			c.JSON(http.StatusOK, VehicleRiskResponse{Risk: risk, Source: "memory"})
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "no assessment for vehicle", "vin": vin})
}
