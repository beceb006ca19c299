package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/copyforge/copyforge-backend/internal/http/response"
	"github.com/copyforge/copyforge-backend/internal/platform/promptstyle"
	"github.com/copyforge/copyforge-backend/internal/services"
)

type GeneratorsHandler struct {
	names services.NameService
}

func NewGeneratorsHandler(names services.NameService) *GeneratorsHandler {
	return &GeneratorsHandler{names: names}
}

// POST /api/generators/names
func (h *GeneratorsHandler) GenerateNames(c *gin.Context) {
	var req services.NamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	names, err := h.names.GenerateNames(c.Request.Context(), req)
	if err != nil {
		respondGeneratorError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"names": names})
}

// POST /api/generators/reviews
func (h *GeneratorsHandler) GenerateReviews(c *gin.Context) {
	var req services.ReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	reviews, err := h.names.GenerateReviews(c.Request.Context(), req)
	if err != nil {
		respondGeneratorError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": reviews})
}

// GET /api/generators/personas
func (h *GeneratorsHandler) ListPersonas(c *gin.Context) {
	response.RespondOK(c, gin.H{"personas": promptstyle.Personas()})
}

// GET /api/generators/geos
func (h *GeneratorsHandler) ListGeos(c *gin.Context) {
	response.RespondOK(c, gin.H{"geos": promptstyle.Geos()})
}

func respondGeneratorError(c *gin.Context, err error) {
	var parseErr *services.ParseError
	if errors.As(err, &parseErr) {
		response.RespondError(c, http.StatusBadGateway, "model_output_invalid", err)
		return
	}
	response.RespondError(c, http.StatusBadGateway, "generation_failed", err)
}
