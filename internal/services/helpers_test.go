package services

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/platform/openai"
	"github.com/copyforge/copyforge-backend/internal/platform/qdrant"
	"github.com/copyforge/copyforge-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&types.SourceDocument{},
		&types.Element{},
		&types.Scenario{},
		&types.GeneratedCopy{},
		&types.FeedbackRecord{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeAI scripts embedding and completion responses per call.
type fakeAI struct {
	embedFn    func(ctx context.Context, inputs []string) ([][]float32, error)
	completeFn func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error)

	embedCalls    []string
	completeCalls []openai.CompletionRequest
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.embedCalls = append(f.embedCalls, inputs...)
	if f.embedFn != nil {
		return f.embedFn(ctx, inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeAI) Complete(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
	f.completeCalls = append(f.completeCalls, req)
	if f.completeFn != nil {
		return f.completeFn(ctx, req)
	}
	return openai.Completion{Text: "generated text", TokensUsed: 10}, nil
}

// fakeVectorStore records calls and serves scripted hits.
type fakeVectorStore struct {
	searchFn func(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]qdrant.ScoredPoint, error)
	scrollFn func(ctx context.Context, filter map[string]any, limit int) ([]qdrant.ScoredPoint, error)

	upserted    []qdrant.Point
	deleted     []string
	searchCalls []map[string]any
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeVectorStore) Upsert(ctx context.Context, points []qdrant.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]qdrant.ScoredPoint, error) {
	f.searchCalls = append(f.searchCalls, filter)
	if f.searchFn != nil {
		return f.searchFn(ctx, vector, limit, filter)
	}
	return nil, nil
}

func (f *fakeVectorStore) Scroll(ctx context.Context, filter map[string]any, limit int) ([]qdrant.ScoredPoint, error) {
	if f.scrollFn != nil {
		return f.scrollFn(ctx, filter, limit)
	}
	return nil, nil
}

func (f *fakeVectorStore) DeleteIDs(ctx context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func scoredElement(id string, score, perf float64, elementType, text string) qdrant.ScoredPoint {
	return qdrant.ScoredPoint{
		ID:    id,
		Score: score,
		Payload: map[string]any{
			"text":              text,
			"doc_id":            fmt.Sprintf("doc-%s", id),
			"element_type":      elementType,
			"performance_score": perf,
		},
	}
}
