package handlers

import (
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// MediationHandler handles mediation settings-related HTTP requests
type MediationHandler struct {
	mediationService *services.MediationService
}

// NewMediationHandler creates a new MediationHandler
func NewMediationHandler(mediationService *services.MediationService) *MediationHandler {
	return &MediationHandler{
		mediationService: mediationService,
	}
}

// GetSettings handles GET /admin/mediation
func (h *MediationHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.mediationService.GetSettings(c.Request.Context()))
}

// UpdateSettings handles PUT /admin/mediation
func (h *MediationHandler) UpdateSettings(c *gin.Context) {
	var settings models.MediationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.mediationService.UpdateSettings(c.Request.Context(), &settings, c.GetString("userID")))
}

// ToggleNetwork handles POST /admin/mediation/networks/:id/toggle
func (h *MediationHandler) ToggleNetwork(c *gin.Context) {
	h.respond(c)(h.mediationService.ToggleNetwork(c.Request.Context(), c.Param("id"), c.GetString("userID")))
}

// MoveNetwork handles POST /admin/mediation/networks/:id/move
func (h *MediationHandler) MoveNetwork(c *gin.Context) {
	var req models.MoveNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.mediationService.MoveNetwork(c.Request.Context(), c.Param("id"), mediation.Direction(req.Direction), c.GetString("userID")))
}

// SetFillRate handles PUT /admin/mediation/networks/:id/fill-rate
func (h *MediationHandler) SetFillRate(c *gin.Context) {
	var req models.FillRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.mediationService.SetFillRate(c.Request.Context(), c.Param("id"), *req.FillRate, c.GetString("userID")))
}

// SetAdUnits handles PUT /admin/mediation/ad-units
func (h *MediationHandler) SetAdUnits(c *gin.Context) {
	var units models.AdUnitConfig
	if err := c.ShouldBindJSON(&units); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.mediationService.SetAdUnits(c.Request.Context(), units, c.GetString("userID")))
}

// SetWaterfall handles PUT /admin/mediation/waterfall
func (h *MediationHandler) SetWaterfall(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.mediationService.SetWaterfall(c.Request.Context(), *req.Enabled, c.GetString("userID")))
}

// TestWaterfall handles POST /admin/mediation/test
func (h *MediationHandler) TestWaterfall(c *gin.Context) {
	result, err := h.mediationService.TestRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MediationHandler) respond(c *gin.Context) func(models.MediationSettings, error) {
	return func(settings models.MediationSettings, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
