package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/copyforge/copyforge-backend/internal/platform/qdrant"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
)

func seedWinner(t *testing.T, docs repos.SourceDocumentRepo, geo, vertical string, leadRate *float64, status types.DocumentStatus) *types.SourceDocument {
	t.Helper()
	doc, err := docs.Create(context.Background(), nil, &types.SourceDocument{
		Name:     fmt.Sprintf("doc-%s", uuid.NewString()[:8]),
		Geo:      geo,
		Language: "de",
		Vertical: vertical,
		Format:   types.DocumentFormatInterview,
		LeadRate: leadRate,
		Status:   status,
		Tags:     datatypes.JSON([]byte(`["proven"]`)),
	})
	if err != nil {
		t.Fatalf("seed winner: %v", err)
	}
	return doc
}

func TestSelectTopWinnersOrdersByMetricAndSkipsNulls(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	docs := repos.NewSourceDocumentRepo(db, log)

	seedWinner(t, docs, "de", "crypto", floatPtr(0.9), types.DocumentStatusWinner)
	seedWinner(t, docs, "de", "crypto", floatPtr(0.5), types.DocumentStatusWinner)
	seedWinner(t, docs, "de", "crypto", floatPtr(0.7), types.DocumentStatusWinner)
	seedWinner(t, docs, "de", "crypto", nil, types.DocumentStatusWinner)
	seedWinner(t, docs, "de", "crypto", floatPtr(0.3), types.DocumentStatusTesting)
	seedWinner(t, docs, "uk", "crypto", floatPtr(0.8), types.DocumentStatusWinner)

	svc := newTestRetriever(t, docs, &fakeVectorStore{})

	winners, err := svc.SelectTopWinners(context.Background(), repos.TopWinnersQuery{
		Geo:      "de",
		Vertical: "crypto",
		Metric:   repos.RankMetricLeadRate,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("SelectTopWinners: %v", err)
	}
	if len(winners) != 3 {
		t.Fatalf("winners: want=3 got=%d", len(winners))
	}
	rates := []float64{*winners[0].LeadRate, *winners[1].LeadRate, *winners[2].LeadRate}
	if rates[0] != 0.9 || rates[1] != 0.7 || rates[2] != 0.5 {
		t.Fatalf("order: got=%v", rates)
	}
}

func TestRetrieveRelevantElementsPostFiltersByType(t *testing.T) {
	vs := &fakeVectorStore{
		searchFn: func(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]qdrant.ScoredPoint, error) {
			if filter["geo"] != "de" || filter["vertical"] != "crypto" {
				t.Fatalf("filter: got=%v", filter)
			}
			return []qdrant.ScoredPoint{
				scoredElement("el-1", 0.9, 0, "heading", "H1"),
				scoredElement("el-2", 0.8, 0, "paragraph", "body"),
				scoredElement("el-3", 0.7, 0, "subheading", "H2"),
			}, nil
		},
	}
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := newTestRetriever(t, repos.NewSourceDocumentRepo(db, log), vs)

	elements, err := svc.RetrieveRelevantElements(context.Background(), "q", "de", "crypto", []string{"heading", "subheading"}, 5)
	if err != nil {
		t.Fatalf("RetrieveRelevantElements: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("elements: want=2 got=%d", len(elements))
	}
	for _, e := range elements {
		if e.ElementType == "paragraph" {
			t.Fatalf("paragraph leaked through filter")
		}
	}
}

func TestBuildContextAssemblesGroups(t *testing.T) {
	var queries []string
	vs := &fakeVectorStore{
		searchFn: func(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]qdrant.ScoredPoint, error) {
			return []qdrant.ScoredPoint{
				scoredElement("h", 0.9, 0, "heading", "Headline A"),
				{
					ID:    "d",
					Score: 0.8,
					Payload: map[string]any{
						"text":              "Is this real?",
						"doc_id":            "doc-d",
						"element_type":      "dialogue",
						"performance_score": 0.0,
						"speaker":           "Host",
						"sentiment":         "skeptical",
					},
				},
				scoredElement("q", 0.7, 0, "quote", "It worked for me"),
				scoredElement("c", 0.6, 0, "cta", "Start Now"),
			}, nil
		},
	}
	ai := &fakeAI{
		embedFn: func(ctx context.Context, inputs []string) ([][]float32, error) {
			queries = append(queries, inputs...)
			return [][]float32{{0.1, 0.2, 0.3}}, nil
		},
	}
	db := newTestDB(t)
	log := newTestLogger(t)
	docs := repos.NewSourceDocumentRepo(db, log)
	seedWinner(t, docs, "de", "crypto", floatPtr(0.9), types.DocumentStatusWinner)

	embedding, err := NewEmbeddingService(log, ai, vs, nil)
	if err != nil {
		t.Fatalf("NewEmbeddingService: %v", err)
	}
	svc, err := NewRetrieverService(log, docs, embedding)
	if err != nil {
		t.Fatalf("NewRetrieverService: %v", err)
	}

	out := svc.BuildContext(context.Background(), "trading app", "de", "crypto", "excited_fan")
	if out.Fallback {
		t.Fatal("unexpected fallback context")
	}
	if len(out.Winners) != 1 {
		t.Fatalf("winners: want=1 got=%d", len(out.Winners))
	}
	if out.Winners[0].Tags[0] != "proven" {
		t.Fatalf("winner tags: got=%v", out.Winners[0].Tags)
	}
	if len(out.ExampleHeadings) != 1 || out.ExampleHeadings[0] != "Headline A" {
		t.Fatalf("headings: got=%v", out.ExampleHeadings)
	}
	if len(out.ExampleDialogues) != 1 || out.ExampleDialogues[0].Speaker != "Host" {
		t.Fatalf("dialogues: got=%v", out.ExampleDialogues)
	}
	if out.ExampleDialogues[0].Sentiment != "skeptical" {
		t.Fatalf("sentiment: got=%q", out.ExampleDialogues[0].Sentiment)
	}
	if len(out.ExampleQuotes) != 1 || len(out.ExampleCTAs) != 1 {
		t.Fatalf("quotes/ctas: got=%v %v", out.ExampleQuotes, out.ExampleCTAs)
	}

	// Four group queries, each derived from persona + vertical + offer.
	if len(queries) != 4 {
		t.Fatalf("embed queries: want=4 got=%d", len(queries))
	}
	suffixes := map[string]bool{}
	for _, q := range queries {
		if !strings.HasPrefix(q, "excited_fan style crypto prelanding about trading app") {
			t.Fatalf("query prefix: got=%q", q)
		}
		suffixes[strings.TrimPrefix(q, "excited_fan style crypto prelanding about trading app")] = true
	}
	for _, want := range []string{" headline", " conversation dialogue", " quote testimonial", " call to action"} {
		if !suffixes[want] {
			t.Fatalf("missing query suffix %q in %v", want, suffixes)
		}
	}
}

func TestBuildContextFallsBackOnRetrievalFailure(t *testing.T) {
	vs := &fakeVectorStore{
		searchFn: func(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]qdrant.ScoredPoint, error) {
			return nil, fmt.Errorf("qdrant down")
		},
	}
	db := newTestDB(t)
	log := newTestLogger(t)
	docs := repos.NewSourceDocumentRepo(db, log)
	svc := newTestRetriever(t, docs, vs)

	out := svc.BuildContext(context.Background(), "offer", "de", "crypto", "excited_fan")
	if !out.Fallback {
		t.Fatal("expected fallback context")
	}
	if len(out.Winners) != 0 {
		t.Fatalf("fallback winners must be empty, got=%d", len(out.Winners))
	}
	if len(out.ExampleHeadings) != 3 || len(out.ExampleDialogues) != 4 {
		t.Fatalf("fallback shape: headings=%d dialogues=%d", len(out.ExampleHeadings), len(out.ExampleDialogues))
	}
}

func TestBuildContextFallsBackOnEmptyCorpus(t *testing.T) {
	vs := &fakeVectorStore{
		searchFn: func(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]qdrant.ScoredPoint, error) {
			return nil, nil
		},
	}
	db := newTestDB(t)
	log := newTestLogger(t)
	docs := repos.NewSourceDocumentRepo(db, log)
	svc := newTestRetriever(t, docs, vs)

	// No winner rows and zero search hits: retrieval succeeds but yields
	// nothing, which must still produce the static fallback.
	out := svc.BuildContext(context.Background(), "offer", "de", "crypto", "excited_fan")
	if !out.Fallback {
		t.Fatal("expected fallback context for empty corpus")
	}
	if len(out.ExampleHeadings) == 0 || len(out.ExampleCTAs) == 0 {
		t.Fatalf("fallback examples missing: headings=%d ctas=%d", len(out.ExampleHeadings), len(out.ExampleCTAs))
	}
}

func newTestRetriever(t *testing.T, docs repos.SourceDocumentRepo, vs *fakeVectorStore) RetrieverService {
	t.Helper()
	log := newTestLogger(t)
	embedding, err := NewEmbeddingService(log, &fakeAI{}, vs, nil)
	if err != nil {
		t.Fatalf("NewEmbeddingService: %v", err)
	}
	svc, err := NewRetrieverService(log, docs, embedding)
	if err != nil {
		t.Fatalf("NewRetrieverService: %v", err)
	}
	return svc
}
