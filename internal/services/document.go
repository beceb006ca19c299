package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
)

// ElementInput is one extracted fragment submitted for registration against
// a document. Extraction itself happens upstream; this side persists the row
// and stores the embedding.
type ElementInput struct {
	ElementType string         `json:"element_type" binding:"required"`
	Text        string         `json:"text" binding:"required"`
	Speaker     string         `json:"speaker"`
	Sentiment   string         `json:"sentiment"`
	OrderIndex  int            `json:"order_index"`
	Metadata    map[string]any `json:"metadata"`
}

type CreateDocumentInput struct {
	Name         string
	Geo          string
	Language     string
	Vertical     string
	Format       string
	Status       string
	CTRToLanding *float64
	LeadRate     *float64
	DepositRate  *float64
}

type DocumentService interface {
	Create(ctx context.Context, input CreateDocumentInput) (*types.SourceDocument, error)
	List(ctx context.Context, limit, offset int) ([]*types.SourceDocument, error)
	Get(ctx context.Context, id uuid.UUID) (*types.SourceDocument, error)
	AddElements(ctx context.Context, documentID uuid.UUID, inputs []ElementInput) ([]*types.Element, error)
	ListElements(ctx context.Context, documentID uuid.UUID) ([]*types.Element, error)
	Retire(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	log       *logger.Logger
	docs      repos.SourceDocumentRepo
	elements  repos.ElementRepo
	embedding EmbeddingService
}

func NewDocumentService(log *logger.Logger, docs repos.SourceDocumentRepo, elements repos.ElementRepo, embedding EmbeddingService) (DocumentService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document repo required")
	}
	if elements == nil {
		return nil, fmt.Errorf("element repo required")
	}
	if embedding == nil {
		return nil, fmt.Errorf("embedding service required")
	}
	return &documentService{
		log:       log.With("service", "DocumentService"),
		docs:      docs,
		elements:  elements,
		embedding: embedding,
	}, nil
}

func (s *documentService) Create(ctx context.Context, input CreateDocumentInput) (*types.SourceDocument, error) {
	if strings.TrimSpace(input.Geo) == "" || strings.TrimSpace(input.Language) == "" || strings.TrimSpace(input.Vertical) == "" {
		return nil, fmt.Errorf("geo, language and vertical are required")
	}
	status := types.DocumentStatus(input.Status)
	if status == "" {
		status = types.DocumentStatusTesting
	}
	switch status {
	case types.DocumentStatusWinner, types.DocumentStatusGenerated, types.DocumentStatusTesting, types.DocumentStatusArchived:
	default:
		return nil, fmt.Errorf("unknown document status %q", input.Status)
	}
	doc, err := s.docs.Create(ctx, nil, &types.SourceDocument{
		ID:           uuid.New(),
		Name:         input.Name,
		Geo:          strings.ToUpper(strings.TrimSpace(input.Geo)),
		Language:     strings.ToLower(strings.TrimSpace(input.Language)),
		Vertical:     strings.TrimSpace(input.Vertical),
		Format:       types.DocumentFormat(input.Format),
		Status:       status,
		CTRToLanding: input.CTRToLanding,
		LeadRate:     input.LeadRate,
		DepositRate:  input.DepositRate,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.log.Info("document created", "document_id", doc.ID, "geo", doc.Geo, "vertical", doc.Vertical, "status", doc.Status)
	return doc, nil
}

func (s *documentService) List(ctx context.Context, limit, offset int) ([]*types.SourceDocument, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.docs.List(ctx, nil, limit, offset)
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.SourceDocument, error) {
	return s.docs.GetByID(ctx, nil, id)
}

// AddElements persists the fragments and stores one vector per fragment.
// An embedding failure skips that fragment's vector (the row keeps an empty
// embedding_id) instead of failing the batch.
func (s *documentService) AddElements(ctx context.Context, documentID uuid.UUID, inputs []ElementInput) ([]*types.Element, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no elements provided")
	}
	doc, err := s.docs.GetByID(ctx, nil, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, err)
	}

	rows := make([]*types.Element, 0, len(inputs))
	for i, in := range inputs {
		if in.Text == "" {
			return nil, fmt.Errorf("element %d: text is required", i)
		}
		rows = append(rows, &types.Element{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			ElementType: types.ElementType(in.ElementType),
			TextContent: in.Text,
			Speaker:     in.Speaker,
			Sentiment:   in.Sentiment,
			OrderIndex:  in.OrderIndex,
		})
	}
	created, err := s.elements.Create(ctx, nil, rows)
	if err != nil {
		return nil, fmt.Errorf("persist elements: %w", err)
	}

	perfScore := 0.0
	if doc.LeadRate != nil {
		perfScore = *doc.LeadRate
	}
	for i, el := range created {
		metadata := map[string]any{
			"geo":      doc.Geo,
			"vertical": doc.Vertical,
		}
		for k, v := range inputs[i].Metadata {
			metadata[k] = v
		}
		if el.Speaker != "" {
			metadata["speaker"] = el.Speaker
		}
		if el.Sentiment != "" {
			metadata["sentiment"] = el.Sentiment
		}
		embeddingID, err := s.embedding.StoreElementEmbedding(ctx, StoreElementInput{
			Text:             el.TextContent,
			DocumentID:       doc.ID.String(),
			ElementType:      string(el.ElementType),
			PerformanceScore: perfScore,
			Metadata:         metadata,
		})
		if err != nil {
			s.log.Warn("element embedding skipped", "element_id", el.ID, "error", err)
			continue
		}
		if err := s.elements.SetEmbeddingID(ctx, nil, el.ID, embeddingID); err != nil {
			return nil, fmt.Errorf("record embedding id for %s: %w", el.ID, err)
		}
		el.EmbeddingID = embeddingID
	}
	s.log.Info("elements registered", "document_id", doc.ID, "count", len(created))
	return created, nil
}

func (s *documentService) ListElements(ctx context.Context, documentID uuid.UUID) ([]*types.Element, error) {
	return s.elements.GetByDocumentID(ctx, nil, documentID)
}

// Retire archives a document and removes its vectors so it stops surfacing
// in retrieval. The row itself stays for audit.
func (s *documentService) Retire(ctx context.Context, id uuid.UUID) error {
	if _, err := s.docs.GetByID(ctx, nil, id); err != nil {
		return fmt.Errorf("document %s: %w", id, err)
	}
	if err := s.docs.UpdateStatus(ctx, nil, id, types.DocumentStatusArchived); err != nil {
		return fmt.Errorf("archive document %s: %w", id, err)
	}
	if err := s.embedding.DeleteDocumentEmbeddings(ctx, id.String()); err != nil {
		return fmt.Errorf("delete embeddings for %s: %w", id, err)
	}
	s.log.Info("document retired", "document_id", id)
	return nil
}
