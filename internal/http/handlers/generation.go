package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/copyforge/copyforge-backend/internal/compliance"
	"github.com/copyforge/copyforge-backend/internal/http/response"
	"github.com/copyforge/copyforge-backend/internal/services"
	"github.com/copyforge/copyforge-backend/internal/types"
)

type GenerationHandler struct {
	generator services.GeneratorService
}

func NewGenerationHandler(generator services.GeneratorService) *GenerationHandler {
	return &GenerationHandler{generator: generator}
}

type generateCopyRequest struct {
	Geo             string `json:"geo" binding:"required"`
	Language        string `json:"language" binding:"required"`
	Vertical        string `json:"vertical" binding:"required"`
	Offer           string `json:"offer" binding:"required"`
	Persona         string `json:"persona"`
	ComplianceLevel string `json:"compliance_level"`
	Format          string `json:"format"`
	TargetLength    int    `json:"target_length"`
	UseRAG          *bool  `json:"use_rag"`
}

type generateScenarioRequest struct {
	generateCopyRequest
	ScenarioID uint `json:"scenario_id" binding:"required"`
}

func (r generateCopyRequest) toServiceRequest() services.GenerateRequest {
	useRAG := true
	if r.UseRAG != nil {
		useRAG = *r.UseRAG
	}
	return services.GenerateRequest{
		Geo:             r.Geo,
		Language:        r.Language,
		Vertical:        r.Vertical,
		Offer:           r.Offer,
		Persona:         r.Persona,
		ComplianceLevel: compliance.ParseLevel(r.ComplianceLevel),
		Format:          types.DocumentFormat(r.Format),
		TargetLength:    r.TargetLength,
		UseRAG:          useRAG,
	}
}

// POST /api/generation/copy
func (h *GenerationHandler) GenerateCopy(c *gin.Context) {
	var req generateCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record, result, err := h.generator.Generate(c.Request.Context(), req.toServiceRequest())
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "generation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"copy": record, "compliance": result})
}

// POST /api/generation/scenario
func (h *GenerationHandler) GenerateWithScenario(c *gin.Context) {
	var req generateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record, result, err := h.generator.GenerateWithScenario(c.Request.Context(), req.ScenarioID, req.toServiceRequest())
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "generation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"copy": record, "compliance": result})
}
