package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/copyforge/copyforge-backend/internal/compliance"
	"github.com/copyforge/copyforge-backend/internal/platform/openai"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
)

func newTestGenerator(t *testing.T, ai *fakeAI) (GeneratorService, repos.GeneratedCopyRepo, repos.ScenarioRepo) {
	t.Helper()
	log := newTestLogger(t)
	db := newTestDB(t)

	docs := repos.NewSourceDocumentRepo(db, log)
	generated := repos.NewGeneratedCopyRepo(db, log)
	scenarios := repos.NewScenarioRepo(db, log)
	embedding, err := NewEmbeddingService(log, ai, &fakeVectorStore{}, nil)
	if err != nil {
		t.Fatalf("embedding service: %v", err)
	}
	retriever, err := NewRetrieverService(log, docs, embedding)
	if err != nil {
		t.Fatalf("retriever service: %v", err)
	}
	svc, err := NewGeneratorService(log, ai, retriever, scenarios, generated)
	if err != nil {
		t.Fatalf("generator service: %v", err)
	}
	return svc, generated, scenarios
}

func testRequest() GenerateRequest {
	return GenerateRequest{
		Geo:             "DE",
		Language:        "de",
		Vertical:        "crypto",
		Offer:           "trading platform",
		Persona:         "skeptical_journalist",
		ComplianceLevel: compliance.LevelStrict,
		UseRAG:          false,
	}
}

func seedScenario(t *testing.T, scenarios repos.ScenarioRepo) *types.Scenario {
	t.Helper()
	sc := &types.Scenario{
		Name:              "interview_reveal",
		LocalizedName:     "Interview with a reveal",
		Description:       "Skeptical interview that turns",
		BeginningTemplate: "Open with the journalist doubting the whole thing.",
		MiddleTemplate:    "The expert walks through the evidence step by step.",
		EndTemplate:       "Close with the journalist convinced and a clear next step.",
		Active:            true,
		OrderIndex:        1,
	}
	created, err := scenarios.Create(context.Background(), nil, sc)
	if err != nil {
		t.Fatalf("seed scenario: %v", err)
	}
	return created
}

func TestGeneratePersistsRecord(t *testing.T) {
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			return openai.Completion{Text: "A calm story about saving money over time.", TokensUsed: 321}, nil
		},
	}
	svc, generated, _ := newTestGenerator(t, ai)

	record, result, err := svc.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected clean text to pass compliance, issues: %+v", result.Issues)
	}
	if record.TokensUsed != 321 {
		t.Fatalf("tokens used: want=321 got=%d", record.TokensUsed)
	}
	if len(ai.completeCalls) != 1 {
		t.Fatalf("complete calls: want=1 got=%d", len(ai.completeCalls))
	}

	stored, err := generated.GetByGenID(context.Background(), nil, record.GenID)
	if err != nil {
		t.Fatalf("load persisted copy: %v", err)
	}
	if stored.GeneratedText != "A calm story about saving money over time." {
		t.Fatalf("persisted text mismatch: %q", stored.GeneratedText)
	}
	if stored.Persona != "skeptical_journalist" {
		t.Fatalf("persona: want=skeptical_journalist got=%q", stored.Persona)
	}
	if !stored.CompliancePassed {
		t.Fatalf("expected compliance_passed=true")
	}
	var ids []string
	if err := json.Unmarshal(stored.SourceDocumentIDs, &ids); err != nil {
		t.Fatalf("source_document_ids not valid JSON: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no source documents without retrieval, got %v", ids)
	}
}

func TestGenerateRewritesOnceOnComplianceFailure(t *testing.T) {
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			return openai.Completion{Text: "Join now for guaranteed profit every month.", TokensUsed: 100}, nil
		},
	}
	svc, generated, _ := newTestGenerator(t, ai)

	record, result, err := svc.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ai.completeCalls) != 1 {
		t.Fatalf("rewrite must not call the model again: calls=%d", len(ai.completeCalls))
	}
	if strings.Contains(strings.ToLower(record.GeneratedText), "guaranteed profit") {
		t.Fatalf("banned phrase survived rewrite: %q", record.GeneratedText)
	}
	if !strings.Contains(record.GeneratedText, "potential returns") {
		t.Fatalf("expected softened phrasing, got %q", record.GeneratedText)
	}
	if !result.Passed {
		t.Fatalf("rewritten text should pass re-check, issues: %+v", result.Issues)
	}

	stored, err := generated.GetByGenID(context.Background(), nil, record.GenID)
	if err != nil {
		t.Fatalf("load persisted copy: %v", err)
	}
	if stored.GeneratedText != record.GeneratedText {
		t.Fatalf("persisted the wrong variant: %q", stored.GeneratedText)
	}
}

func TestGenerateValidatesRequest(t *testing.T) {
	svc, _, _ := newTestGenerator(t, &fakeAI{})
	req := testRequest()
	req.Offer = "   "
	if _, _, err := svc.Generate(context.Background(), req); err == nil {
		t.Fatalf("expected validation error for blank offer")
	}
}

func TestGeneratePromptCarriesCultureAndPersona(t *testing.T) {
	var prompt string
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			if len(req.Messages) != 2 {
				return openai.Completion{}, fmt.Errorf("want 2 messages, got %d", len(req.Messages))
			}
			if req.Messages[0].Role != "system" {
				return openai.Completion{}, fmt.Errorf("first message must be system")
			}
			prompt = req.Messages[1].Content
			return openai.Completion{Text: "ok", TokensUsed: 1}, nil
		},
	}
	svc, _, _ := newTestGenerator(t, ai)

	if _, _, err := svc.Generate(context.Background(), testRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{
		"Germany (DE)",
		"EUR",
		"trading platform",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	// Non-RAG generation still supplies reference examples from the static set.
	if !strings.Contains(prompt, "Example Headlines:") {
		t.Fatalf("prompt missing reference examples section:\n%s", prompt)
	}
}

func TestGenerateWithScenarioThreadsStages(t *testing.T) {
	var prompts []string
	stageTexts := []string{
		"Beginning text that hooks the reader immediately.",
		"Middle text carrying the full argument and the proof.",
		"End text with the final push and the next step.",
	}
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			idx := len(prompts)
			prompts = append(prompts, req.Messages[1].Content)
			if req.Temperature != 0.8 {
				return openai.Completion{}, fmt.Errorf("stage %d temperature: want=0.8 got=%v", idx, req.Temperature)
			}
			return openai.Completion{Text: stageTexts[idx], TokensUsed: 50}, nil
		},
	}
	svc, generated, scenarios := newTestGenerator(t, ai)
	sc := seedScenario(t, scenarios)

	record, result, err := svc.GenerateWithScenario(context.Background(), sc.ID, testRequest())
	if err != nil {
		t.Fatalf("GenerateWithScenario: %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("stage calls: want=3 got=%d", len(prompts))
	}

	// Middle stage must see the beginning verbatim.
	if !strings.Contains(prompts[1], stageTexts[0]) {
		t.Fatalf("middle prompt missing verbatim beginning:\n%s", prompts[1])
	}
	if !strings.Contains(prompts[1], sc.MiddleTemplate) {
		t.Fatalf("middle prompt missing scenario template")
	}
	// End stage sees truncated snippets of both earlier stages.
	if !strings.Contains(prompts[2], truncateRunes(stageTexts[0], 300)) {
		t.Fatalf("end prompt missing beginning snippet:\n%s", prompts[2])
	}
	if !strings.Contains(prompts[2], truncateRunes(stageTexts[1], 500)) {
		t.Fatalf("end prompt missing middle snippet:\n%s", prompts[2])
	}

	wantFull := stageTexts[0] + "\n\n" + stageTexts[1] + "\n\n" + stageTexts[2]
	if record.GeneratedText != wantFull {
		t.Fatalf("full text: want=%q got=%q", wantFull, record.GeneratedText)
	}
	if record.BeginningText != stageTexts[0] || record.MiddleText != stageTexts[1] || record.EndText != stageTexts[2] {
		t.Fatalf("stage texts not persisted individually")
	}
	if record.ScenarioID == nil || *record.ScenarioID != sc.ID {
		t.Fatalf("scenario id not recorded")
	}
	if record.TokensUsed != 150 {
		t.Fatalf("tokens used: want=150 got=%d", record.TokensUsed)
	}
	if !result.Passed {
		t.Fatalf("expected clean scenario text to pass, issues: %+v", result.Issues)
	}

	if _, err := generated.GetByGenID(context.Background(), nil, record.GenID); err != nil {
		t.Fatalf("scenario copy not persisted: %v", err)
	}
}

func TestGenerateWithScenarioLongStagesAreSnipped(t *testing.T) {
	longBeginning := strings.Repeat("ä", 400)
	longMiddle := strings.Repeat("ö", 700)
	var endPrompt string
	call := 0
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			call++
			switch call {
			case 1:
				return openai.Completion{Text: longBeginning, TokensUsed: 10}, nil
			case 2:
				return openai.Completion{Text: longMiddle, TokensUsed: 10}, nil
			default:
				endPrompt = req.Messages[1].Content
				return openai.Completion{Text: "done", TokensUsed: 10}, nil
			}
		},
	}
	svc, _, scenarios := newTestGenerator(t, ai)
	sc := seedScenario(t, scenarios)

	if _, _, err := svc.GenerateWithScenario(context.Background(), sc.ID, testRequest()); err != nil {
		t.Fatalf("GenerateWithScenario: %v", err)
	}
	if strings.Contains(endPrompt, longBeginning) {
		t.Fatalf("end prompt must not carry the full beginning")
	}
	if !strings.Contains(endPrompt, strings.Repeat("ä", 300)+"...") {
		t.Fatalf("end prompt missing 300-rune beginning snippet")
	}
	if !strings.Contains(endPrompt, strings.Repeat("ö", 500)+"...") {
		t.Fatalf("end prompt missing 500-rune middle snippet")
	}
}

func TestGenerateWithScenarioAbortsBeforePersistenceOnStageFailure(t *testing.T) {
	call := 0
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			call++
			if call == 2 {
				return openai.Completion{}, fmt.Errorf("model unavailable")
			}
			return openai.Completion{Text: "stage text", TokensUsed: 10}, nil
		},
	}
	svc, generated, scenarios := newTestGenerator(t, ai)
	sc := seedScenario(t, scenarios)

	_, _, err := svc.GenerateWithScenario(context.Background(), sc.ID, testRequest())
	if err == nil {
		t.Fatalf("expected error from failing middle stage")
	}
	if !strings.Contains(err.Error(), "middle stage") {
		t.Fatalf("error should name the failed stage: %v", err)
	}
	if call != 2 {
		t.Fatalf("end stage must not run after middle failure: calls=%d", call)
	}

	rows, err := generated.List(context.Background(), nil, 10, 0)
	if err != nil {
		t.Fatalf("list generated: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("no rows may be persisted after stage failure, got %d", len(rows))
	}
}

func TestGenerateWithScenarioSkipsRewrite(t *testing.T) {
	call := 0
	ai := &fakeAI{
		completeFn: func(ctx context.Context, req openai.CompletionRequest) (openai.Completion, error) {
			call++
			return openai.Completion{Text: "Sign up for guaranteed profit today.", TokensUsed: 10}, nil
		},
	}
	svc, _, scenarios := newTestGenerator(t, ai)
	sc := seedScenario(t, scenarios)

	record, result, err := svc.GenerateWithScenario(context.Background(), sc.ID, testRequest())
	if err != nil {
		t.Fatalf("GenerateWithScenario: %v", err)
	}
	if call != 3 {
		t.Fatalf("scenario mode must not add rewrite calls: calls=%d", call)
	}
	if result.Passed {
		t.Fatalf("banned phrase should fail the check")
	}
	if !strings.Contains(record.GeneratedText, "guaranteed profit") {
		t.Fatalf("scenario text must be stored unrewritten")
	}
	if record.CompliancePassed {
		t.Fatalf("compliance_passed must reflect the failed check")
	}
}

func TestGenerateWithScenarioUnknownScenario(t *testing.T) {
	svc, _, _ := newTestGenerator(t, &fakeAI{})
	if _, _, err := svc.GenerateWithScenario(context.Background(), 9999, testRequest()); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
}
