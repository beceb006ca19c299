package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
)

// WinnerSummary is the per-document slice of a generation context: identity,
// targeting, and the performance metrics that earned the document its winner
// status.
type WinnerSummary struct {
	ID       uuid.UUID     `json:"id"`
	Geo      string        `json:"geo"`
	Vertical string        `json:"vertical"`
	Metrics  WinnerMetrics `json:"metrics"`
	Tags     []string      `json:"tags,omitempty"`
}

type WinnerMetrics struct {
	CTRToLanding *float64 `json:"ctr_to_landing"`
	LeadRate     *float64 `json:"lead_rate"`
	DepositRate  *float64 `json:"deposit_rate"`
}

type DialogueLine struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
}

// GenerationContext is everything retrieval contributes to a generation
// prompt. Fallback marks contexts built from the static examples after a
// retrieval failure.
type GenerationContext struct {
	Winners          []WinnerSummary `json:"winners"`
	ExampleHeadings  []string        `json:"example_headings"`
	ExampleDialogues []DialogueLine  `json:"example_dialogues"`
	ExampleQuotes    []string        `json:"example_quotes"`
	ExampleCTAs      []string        `json:"example_ctas"`
	Fallback         bool            `json:"fallback,omitempty"`
}

// RetrieverService selects winner documents and semantically similar copy
// fragments to ground generation prompts in proven material.
type RetrieverService interface {
	SelectTopWinners(ctx context.Context, q repos.TopWinnersQuery) ([]*types.SourceDocument, error)
	RetrieveRelevantElements(ctx context.Context, query, geo, vertical string, elementTypes []string, limit int) ([]RetrievedElement, error)
	BuildContext(ctx context.Context, offer, geo, vertical, persona string) GenerationContext
}

type retrieverService struct {
	log       *logger.Logger
	docs      repos.SourceDocumentRepo
	embedding EmbeddingService
}

func NewRetrieverService(log *logger.Logger, docs repos.SourceDocumentRepo, embedding EmbeddingService) (RetrieverService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if docs == nil {
		return nil, fmt.Errorf("source document repo required")
	}
	if embedding == nil {
		return nil, fmt.Errorf("embedding service required")
	}
	return &retrieverService{
		log:       log.With("service", "RetrieverService"),
		docs:      docs,
		embedding: embedding,
	}, nil
}

func (s *retrieverService) SelectTopWinners(ctx context.Context, q repos.TopWinnersQuery) ([]*types.SourceDocument, error) {
	return s.docs.TopWinners(ctx, nil, q)
}

// RetrieveRelevantElements runs a performance-weighted similarity search
// scoped to geo/vertical, then post-filters by element type. Type filtering
// happens after the search so the over-fetch window stays wide.
func (s *retrieverService) RetrieveRelevantElements(ctx context.Context, query, geo, vertical string, elementTypes []string, limit int) ([]RetrievedElement, error) {
	filter := map[string]any{
		"geo":      geo,
		"vertical": vertical,
	}

	elements, err := s.embedding.RetrieveSimilarElements(ctx, query, limit, filter, true)
	if err != nil {
		return nil, err
	}
	if len(elementTypes) == 0 {
		return elements, nil
	}

	allowed := make(map[string]struct{}, len(elementTypes))
	for _, et := range elementTypes {
		allowed[et] = struct{}{}
	}
	filtered := make([]RetrievedElement, 0, len(elements))
	for _, e := range elements {
		if _, ok := allowed[e.ElementType]; ok {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// BuildContext assembles the full generation context: top winner documents
// plus four fragment groups (headings, dialogues, quotes, CTAs) retrieved
// concurrently. Retrieval failure is never surfaced: any error falls back to
// the static example context so generation can proceed.
func (s *retrieverService) BuildContext(ctx context.Context, offer, geo, vertical, persona string) GenerationContext {
	winners, err := s.SelectTopWinners(ctx, repos.TopWinnersQuery{
		Geo:      geo,
		Vertical: vertical,
		Metric:   repos.RankMetricLeadRate,
		Limit:    5,
	})
	if err != nil {
		s.log.Warn("winner selection failed, using fallback context", "error", err, "geo", geo, "vertical", vertical)
		return fallbackContext()
	}

	searchQuery := fmt.Sprintf("%s style %s prelanding about %s", persona, vertical, offer)

	var headings, dialogues, quotes, ctas []RetrievedElement
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		headings, err = s.RetrieveRelevantElements(gctx, searchQuery+" headline", geo, vertical, []string{"heading", "subheading"}, 5)
		return err
	})
	g.Go(func() error {
		var err error
		dialogues, err = s.RetrieveRelevantElements(gctx, searchQuery+" conversation dialogue", geo, vertical, []string{"dialogue"}, 8)
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = s.RetrieveRelevantElements(gctx, searchQuery+" quote testimonial", geo, vertical, []string{"quote"}, 3)
		return err
	})
	g.Go(func() error {
		var err error
		ctas, err = s.RetrieveRelevantElements(gctx, searchQuery+" call to action", geo, vertical, []string{"cta"}, 2)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("element retrieval failed, using fallback context", "error", err, "geo", geo, "vertical", vertical)
		return fallbackContext()
	}
	if len(winners) == 0 && len(headings) == 0 && len(dialogues) == 0 && len(quotes) == 0 && len(ctas) == 0 {
		s.log.Warn("reference corpus empty, using fallback context", "geo", geo, "vertical", vertical)
		return fallbackContext()
	}

	out := GenerationContext{
		Winners:          make([]WinnerSummary, 0, len(winners)),
		ExampleHeadings:  elementTexts(headings),
		ExampleDialogues: dialogueLines(dialogues),
		ExampleQuotes:    elementTexts(quotes),
		ExampleCTAs:      elementTexts(ctas),
	}
	for _, w := range winners {
		out.Winners = append(out.Winners, WinnerSummary{
			ID:       w.ID,
			Geo:      w.Geo,
			Vertical: w.Vertical,
			Metrics: WinnerMetrics{
				CTRToLanding: w.CTRToLanding,
				LeadRate:     w.LeadRate,
				DepositRate:  w.DepositRate,
			},
			Tags: decodeTags(w.Tags),
		})
	}
	return out
}

func elementTexts(elements []RetrievedElement) []string {
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		out = append(out, e.Text)
	}
	return out
}

func dialogueLines(elements []RetrievedElement) []DialogueLine {
	out := make([]DialogueLine, 0, len(elements))
	for _, e := range elements {
		line := DialogueLine{Text: e.Text}
		if e.Metadata != nil {
			if speaker, ok := e.Metadata["speaker"].(string); ok {
				line.Speaker = speaker
			}
			if sentiment, ok := e.Metadata["sentiment"].(string); ok {
				line.Sentiment = sentiment
			}
		}
		out = append(out, line)
	}
	return out
}

func decodeTags(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}

// fallbackContext is the static context used when the corpus is empty or
// retrieval is unavailable. Generation quality degrades but requests still
// succeed.
func fallbackContext() GenerationContext {
	return GenerationContext{
		Winners: []WinnerSummary{},
		ExampleHeadings: []string{
			"BREAKING: Local Man Discovers Simple Trading Secret",
			"Exclusive Interview: How AI is Changing Finance",
			"The Truth About Cryptocurrency They Don't Want You to Know",
		},
		ExampleDialogues: []DialogueLine{
			{Speaker: "Host", Text: "Many people are skeptical about this. What would you say to them?"},
			{Speaker: "Expert", Text: "I understand the skepticism, but the results speak for themselves."},
			{Speaker: "Host", Text: "Can anyone really make money with this?"},
			{Speaker: "Expert", Text: "With the right approach and tools, the potential is significant."},
		},
		ExampleQuotes: []string{
			"I never thought this was possible until I tried it myself.",
			"This changed everything for me and my family.",
		},
		ExampleCTAs: []string{
			"Start Now",
			"Learn More",
			"Get Access",
		},
		Fallback: true,
	}
}
