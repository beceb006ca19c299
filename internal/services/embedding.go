package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/copyforge/copyforge-backend/internal/clients/redis"
	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/platform/openai"
	"github.com/copyforge/copyforge-backend/internal/platform/qdrant"
)

// RetrievedElement is one semantic-search hit with its similarity score and
// the performance-weighted score used for ranking.
type RetrievedElement struct {
	ID               string         `json:"id"`
	Score            float64        `json:"score"`
	WeightedScore    float64        `json:"weighted_score"`
	Text             string         `json:"text"`
	DocumentID       string         `json:"document_id"`
	ElementType      string         `json:"element_type"`
	PerformanceScore float64        `json:"performance_score"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

type StoreElementInput struct {
	Text             string
	DocumentID       string
	ElementType      string
	PerformanceScore float64
	Metadata         map[string]any
}

// EmbeddingService owns the vector side of the reference corpus: creating
// embeddings, storing element vectors with payloads, and similarity search
// with performance weighting.
type EmbeddingService interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	StoreElementEmbedding(ctx context.Context, in StoreElementInput) (string, error)
	RetrieveSimilarElements(ctx context.Context, query string, limit int, filter map[string]any, performanceWeighted bool) ([]RetrievedElement, error)
	DeleteDocumentEmbeddings(ctx context.Context, documentID string) error
}

type embeddingService struct {
	log   *logger.Logger
	ai    openai.Client
	vs    qdrant.VectorStore
	cache redis.EmbedCache
}

func NewEmbeddingService(log *logger.Logger, ai openai.Client, vs qdrant.VectorStore, cache redis.EmbedCache) (EmbeddingService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if vs == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if cache == nil {
		cache = redis.NopEmbedCache{}
	}
	return &embeddingService{
		log:   log.With("service", "EmbeddingService"),
		ai:    ai,
		vs:    vs,
		cache: cache,
	}, nil
}

func (s *embeddingService) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("embedding text is empty")
	}

	if vector, ok := s.cache.Get(ctx, trimmed); ok {
		return vector, nil
	}

	vectors, err := s.ai.Embed(ctx, []string{trimmed})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("create embedding: empty vector returned")
	}

	s.cache.Put(ctx, trimmed, vectors[0])
	return vectors[0], nil
}

func (s *embeddingService) StoreElementEmbedding(ctx context.Context, in StoreElementInput) (string, error) {
	vector, err := s.CreateEmbedding(ctx, in.Text)
	if err != nil {
		return "", err
	}

	embeddingID := uuid.NewString()
	payload := map[string]any{
		"doc_id":            in.DocumentID,
		"element_type":      in.ElementType,
		"text":              in.Text,
		"performance_score": in.PerformanceScore,
	}
	for k, v := range in.Metadata {
		payload[k] = v
	}

	err = s.vs.Upsert(ctx, []qdrant.Point{
		{ID: embeddingID, Vector: vector, Payload: payload},
	})
	if err != nil {
		return "", fmt.Errorf("store element embedding: %w", err)
	}
	return embeddingID, nil
}

// RetrieveSimilarElements runs a similarity search and, when weighting is on,
// over-fetches twice the limit, re-ranks by weighted = raw * (1 + perf/10),
// and truncates back to limit. Elements without a positive performance score
// keep their raw similarity as the weighted score.
func (s *embeddingService) RetrieveSimilarElements(ctx context.Context, query string, limit int, filter map[string]any, performanceWeighted bool) ([]RetrievedElement, error) {
	if limit <= 0 {
		limit = 10
	}

	queryVector, err := s.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	fetchLimit := limit
	if performanceWeighted {
		fetchLimit = limit * 2
	}

	hits, err := s.vs.Search(ctx, queryVector, fetchLimit, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve similar elements: %w", err)
	}

	elements := make([]RetrievedElement, 0, len(hits))
	for _, hit := range hits {
		element := RetrievedElement{
			ID:               hit.ID,
			Score:            hit.Score,
			Text:             payloadString(hit.Payload, "text"),
			DocumentID:       payloadString(hit.Payload, "doc_id"),
			ElementType:      payloadString(hit.Payload, "element_type"),
			PerformanceScore: payloadFloat(hit.Payload, "performance_score"),
		}
		element.Metadata = payloadMetadata(hit.Payload)

		if performanceWeighted && element.PerformanceScore > 0 {
			element.WeightedScore = element.Score * (1 + element.PerformanceScore/10)
		} else {
			element.WeightedScore = element.Score
		}
		elements = append(elements, element)
	}

	if performanceWeighted {
		sort.SliceStable(elements, func(i, j int) bool {
			return elements[i].WeightedScore > elements[j].WeightedScore
		})
	}
	if len(elements) > limit {
		elements = elements[:limit]
	}
	return elements, nil
}

func (s *embeddingService) DeleteDocumentEmbeddings(ctx context.Context, documentID string) error {
	hits, err := s.vs.Scroll(ctx, map[string]any{"doc_id": documentID}, 1000)
	if err != nil {
		return fmt.Errorf("delete document embeddings: %w", err)
	}
	if len(hits) == 0 {
		return nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}
	if err := s.vs.DeleteIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete document embeddings: %w", err)
	}
	s.log.Debug("deleted document embeddings", "doc_id", documentID, "count", len(ids))
	return nil
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func payloadMetadata(payload map[string]any) map[string]any {
	meta := map[string]any{}
	for k, v := range payload {
		switch k {
		case "text", "doc_id", "element_type", "performance_score":
			continue
		}
		meta[k] = v
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
