package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/copyforge/copyforge-backend/internal/http/response"
	"github.com/copyforge/copyforge-backend/internal/services"
)

type ScenarioHandler struct {
	scenarios services.ScenarioService
}

func NewScenarioHandler(scenarios services.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{scenarios: scenarios}
}

func scenarioID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_scenario_id", err)
		return 0, false
	}
	return uint(id), true
}

// GET /api/scenarios
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	scenarios, err := h.scenarios.ListActive(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_scenarios_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"scenarios": scenarios})
}

// GET /api/scenarios/:id
func (h *ScenarioHandler) GetScenario(c *gin.Context) {
	id, ok := scenarioID(c)
	if !ok {
		return
	}
	scenario, err := h.scenarios.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "scenario_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"scenario": scenario})
}

// POST /api/scenarios
func (h *ScenarioHandler) CreateScenario(c *gin.Context) {
	var input services.CreateScenarioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	scenario, err := h.scenarios.Create(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_scenario_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"scenario": scenario})
}

// PATCH /api/scenarios/:id
func (h *ScenarioHandler) UpdateScenario(c *gin.Context) {
	id, ok := scenarioID(c)
	if !ok {
		return
	}
	var input services.UpdateScenarioInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	scenario, err := h.scenarios.Update(c.Request.Context(), id, input)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "update_scenario_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"scenario": scenario})
}

// DELETE /api/scenarios/:id (soft: deactivates)
func (h *ScenarioHandler) DeactivateScenario(c *gin.Context) {
	id, ok := scenarioID(c)
	if !ok {
		return
	}
	if err := h.scenarios.Deactivate(c.Request.Context(), id); err != nil {
		response.RespondError(c, http.StatusBadRequest, "deactivate_scenario_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deactivated"})
}
