package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/copyforge/copyforge-backend/internal/http/response"
	"github.com/copyforge/copyforge-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type createDocumentRequest struct {
	Name         string   `json:"name"`
	Geo          string   `json:"geo" binding:"required"`
	Language     string   `json:"language" binding:"required"`
	Vertical     string   `json:"vertical" binding:"required"`
	Format       string   `json:"format" binding:"required"`
	Status       string   `json:"status"`
	CTRToLanding *float64 `json:"ctr_to_landing"`
	LeadRate     *float64 `json:"lead_rate"`
	DepositRate  *float64 `json:"deposit_rate"`
}

// POST /api/documents
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), services.CreateDocumentInput{
		Name:         req.Name,
		Geo:          req.Geo,
		Language:     req.Language,
		Vertical:     req.Vertical,
		Format:       req.Format,
		Status:       req.Status,
		CTRToLanding: req.CTRToLanding,
		LeadRate:     req.LeadRate,
		DepositRate:  req.DepositRate,
	})
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_document_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	docs, err := h.documents.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_documents_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "document_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// POST /api/documents/:id/elements registers extracted fragments and their
// embeddings.
func (h *DocumentHandler) AddElements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	var req struct {
		Elements []services.ElementInput `json:"elements" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	elements, err := h.documents.AddElements(c.Request.Context(), id, req.Elements)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "add_elements_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"elements": elements})
}

// GET /api/documents/:id/elements
func (h *DocumentHandler) ListElements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	elements, err := h.documents.ListElements(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_elements_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"elements": elements})
}

// DELETE /api/documents/:id archives the document and drops its vectors.
func (h *DocumentHandler) RetireDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	if err := h.documents.Retire(c.Request.Context(), id); err != nil {
		response.RespondError(c, http.StatusBadRequest, "retire_document_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "retired"})
}
