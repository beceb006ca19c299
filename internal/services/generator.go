package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/copyforge/copyforge-backend/internal/compliance"
	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/platform/openai"
	"github.com/copyforge/copyforge-backend/internal/platform/promptstyle"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
	"github.com/copyforge/copyforge-backend/internal/utils"
)

const systemPrompt = "You are an expert prelanding copywriter specializing in high-conversion sales copy."

type GenerateRequest struct {
	Geo             string
	Language        string
	Vertical        string
	Offer           string
	Persona         string
	ComplianceLevel compliance.Level
	Format          types.DocumentFormat
	TargetLength    int
	UseRAG          bool
}

// GeneratorService produces marketing copy artifacts. Generate is the
// single-pass flow (one model call, at most one compliance rewrite);
// GenerateWithScenario runs the sequential three-stage pipeline.
type GeneratorService interface {
	Generate(ctx context.Context, req GenerateRequest) (*types.GeneratedCopy, compliance.Result, error)
	GenerateWithScenario(ctx context.Context, scenarioID uint, req GenerateRequest) (*types.GeneratedCopy, compliance.Result, error)
}

type generatorService struct {
	log       *logger.Logger
	ai        openai.Client
	retriever RetrieverService
	scenarios repos.ScenarioRepo
	generated repos.GeneratedCopyRepo

	temperature float64
	maxTokens   int
}

func NewGeneratorService(
	log *logger.Logger,
	ai openai.Client,
	retriever RetrieverService,
	scenarios repos.ScenarioRepo,
	generated repos.GeneratedCopyRepo,
) (GeneratorService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever service required")
	}
	if scenarios == nil {
		return nil, fmt.Errorf("scenario repo required")
	}
	if generated == nil {
		return nil, fmt.Errorf("generated copy repo required")
	}
	return &generatorService{
		log:         log.With("service", "GeneratorService"),
		ai:          ai,
		retriever:   retriever,
		scenarios:   scenarios,
		generated:   generated,
		temperature: utils.GetEnvAsFloat("DEFAULT_TEMPERATURE", 0.7, log),
		maxTokens:   utils.GetEnvAsInt("MAX_TOKENS", 2000, log),
	}, nil
}

func (s *generatorService) Generate(ctx context.Context, req GenerateRequest) (*types.GeneratedCopy, compliance.Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, compliance.Result{}, err
	}
	req = normalizeRequest(req)

	genContext := s.buildContext(ctx, req)
	persona := promptstyle.PersonaFor(req.Persona)
	prompt := buildGenerationPrompt(req, persona, genContext)

	completion, err := s.ai.Complete(ctx, openai.CompletionRequest{
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, compliance.Result{}, fmt.Errorf("generate copy: %w", err)
	}

	generatedText := completion.Text
	result := compliance.Check(req.ComplianceLevel, generatedText)
	if !result.Passed {
		// One rewrite pass, then the re-check result stands either way.
		generatedText = compliance.Rewrite(generatedText)
		result = compliance.Check(req.ComplianceLevel, generatedText)
	}

	record := &types.GeneratedCopy{
		GenID:             uuid.New(),
		TargetGeo:         req.Geo,
		TargetLanguage:    req.Language,
		TargetVertical:    req.Vertical,
		Offer:             req.Offer,
		Persona:           persona.Key,
		ComplianceLevel:   string(req.ComplianceLevel),
		SourceDocumentIDs: encodeSourceIDs(genContext),
		GeneratedText:     generatedText,
		CompliancePassed:  result.Passed,
		ComplianceIssues:  encodeIssues(result.Issues),
		TokensUsed:        completion.TokensUsed,
	}
	if _, err := s.generated.Create(ctx, nil, record); err != nil {
		return nil, compliance.Result{}, fmt.Errorf("persist generated copy: %w", err)
	}

	s.log.Info("copy generated",
		"gen_id", record.GenID,
		"geo", req.Geo,
		"vertical", req.Vertical,
		"persona", persona.Key,
		"compliance_passed", result.Passed,
		"tokens_used", completion.TokensUsed,
	)
	return record, result, nil
}

// stageState threads the accumulated outputs through the three scenario
// stages. Each stage reads what earlier stages wrote; the ordering is a hard
// data dependency, not a convention.
type stageState struct {
	req        GenerateRequest
	scenario   *types.Scenario
	persona    promptstyle.Persona
	ragContext string

	beginning  string
	middle     string
	end        string
	tokensUsed int
}

type stageFn func(ctx context.Context, st *stageState) error

func (s *generatorService) GenerateWithScenario(ctx context.Context, scenarioID uint, req GenerateRequest) (*types.GeneratedCopy, compliance.Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, compliance.Result{}, err
	}
	req = normalizeRequest(req)

	scenario, err := s.scenarios.GetByID(ctx, nil, scenarioID)
	if err != nil {
		return nil, compliance.Result{}, fmt.Errorf("scenario %d: %w", scenarioID, err)
	}

	genContext := s.buildContext(ctx, req)

	st := &stageState{
		req:        req,
		scenario:   scenario,
		persona:    promptstyle.PersonaFor(req.Persona),
		ragContext: formatRAGContext(genContext),
	}

	// Stages run strictly in order; a failure aborts before anything is
	// persisted, so no partial artifact can exist.
	pipeline := []stageFn{s.stageBeginning, s.stageMiddle, s.stageEnd}
	for _, stage := range pipeline {
		if err := stage(ctx, st); err != nil {
			return nil, compliance.Result{}, err
		}
	}

	fullText := st.beginning + "\n\n" + st.middle + "\n\n" + st.end

	// Scenario mode runs exactly one compliance check over the concatenation
	// and never rewrites.
	result := compliance.Check(req.ComplianceLevel, fullText)

	record := &types.GeneratedCopy{
		GenID:             uuid.New(),
		TargetGeo:         req.Geo,
		TargetLanguage:    req.Language,
		TargetVertical:    req.Vertical,
		Offer:             req.Offer,
		Persona:           st.persona.Key,
		ComplianceLevel:   string(req.ComplianceLevel),
		SourceDocumentIDs: encodeSourceIDs(genContext),
		ScenarioID:        &scenario.ID,
		BeginningText:     st.beginning,
		MiddleText:        st.middle,
		EndText:           st.end,
		GeneratedText:     fullText,
		CompliancePassed:  result.Passed,
		ComplianceIssues:  encodeIssues(result.Issues),
		TokensUsed:        st.tokensUsed,
	}
	if _, err := s.generated.Create(ctx, nil, record); err != nil {
		return nil, compliance.Result{}, fmt.Errorf("persist generated copy: %w", err)
	}

	s.log.Info("scenario copy generated",
		"gen_id", record.GenID,
		"scenario_id", scenario.ID,
		"geo", req.Geo,
		"vertical", req.Vertical,
		"compliance_passed", result.Passed,
		"tokens_used", st.tokensUsed,
	)
	return record, result, nil
}

func (s *generatorService) buildContext(ctx context.Context, req GenerateRequest) GenerationContext {
	if !req.UseRAG {
		return fallbackContext()
	}
	return s.retriever.BuildContext(ctx, req.Offer, req.Geo, req.Vertical, req.Persona)
}

func (s *generatorService) stageBeginning(ctx context.Context, st *stageState) error {
	var b strings.Builder
	b.WriteString(buildBaseContext(st.req, st.persona))
	b.WriteString("\n\nTASK: Write a gripping opening for the prelanding (700-1000 characters).\n\n")
	b.WriteString(st.scenario.BeginningTemplate)
	b.WriteString("\n\nThis opening must hook the reader hard enough to carry them through the whole page.\n")
	if st.ragContext != "" {
		b.WriteString("\n" + st.ragContext + "\n")
	}
	b.WriteString(fmt.Sprintf("\nCRITICAL: Write strictly in %s.\nLength: 700-1000 characters (characters, not words).", st.req.Language))

	text, tokens, err := s.completeStage(ctx, b.String(), 2000)
	if err != nil {
		return fmt.Errorf("beginning stage: %w", err)
	}
	st.beginning = text
	st.tokensUsed += tokens
	return nil
}

func (s *generatorService) stageMiddle(ctx context.Context, st *stageState) error {
	var b strings.Builder
	b.WriteString(buildBaseContext(st.req, st.persona))
	// The middle stage sees the beginning verbatim so the narrative
	// continues without a seam.
	b.WriteString("\n\nCONTEXT: You already wrote the opening of the prelanding:\n---\n")
	b.WriteString(st.beginning)
	b.WriteString("\n---\n\nTASK: Now write the main part of the prelanding following this scenario:\n\n")
	b.WriteString(st.scenario.MiddleTemplate)
	if st.ragContext != "" {
		b.WriteString("\n\n" + st.ragContext)
	}
	b.WriteString(fmt.Sprintf("\n\nIMPORTANT:\n- Continue the narrative naturally after the opening\n- Write strictly in %s\n- Length: 2000-3000 words\n- Keep the tone and style of the opening", st.req.Language))

	text, tokens, err := s.completeStage(ctx, b.String(), 8000)
	if err != nil {
		return fmt.Errorf("middle stage: %w", err)
	}
	st.middle = text
	st.tokensUsed += tokens
	return nil
}

func (s *generatorService) stageEnd(ctx context.Context, st *stageState) error {
	var b strings.Builder
	b.WriteString(buildBaseContext(st.req, st.persona))
	b.WriteString("\n\nCONTEXT: You wrote a prelanding with this opening:\n---\n")
	b.WriteString(truncateRunes(st.beginning, 300))
	b.WriteString("...\n---\n\nAnd this middle:\n---\n")
	b.WriteString(truncateRunes(st.middle, 500))
	b.WriteString("...\n---\n\nTASK: Write the closing part of the prelanding:\n\n")
	b.WriteString(st.scenario.EndTemplate)
	if st.ragContext != "" {
		b.WriteString("\n\n" + st.ragContext)
	}
	b.WriteString(fmt.Sprintf("\n\nIMPORTANT:\n- Bring the story to a natural close\n- Write strictly in %s\n- Length: 1000-1500 words\n- Include concrete proof and testimonials\n- Screenshot descriptions must be detailed", st.req.Language))

	text, tokens, err := s.completeStage(ctx, b.String(), 5000)
	if err != nil {
		return fmt.Errorf("end stage: %w", err)
	}
	st.end = text
	st.tokensUsed += tokens
	return nil
}

func (s *generatorService) completeStage(ctx context.Context, prompt string, maxTokens int) (string, int, error) {
	completion, err := s.ai.Complete(ctx, openai.CompletionRequest{
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(completion.Text), completion.TokensUsed, nil
}

func validateRequest(req GenerateRequest) error {
	if strings.TrimSpace(req.Geo) == "" {
		return fmt.Errorf("geo is required")
	}
	if strings.TrimSpace(req.Language) == "" {
		return fmt.Errorf("language is required")
	}
	if strings.TrimSpace(req.Vertical) == "" {
		return fmt.Errorf("vertical is required")
	}
	if strings.TrimSpace(req.Offer) == "" {
		return fmt.Errorf("offer is required")
	}
	return nil
}

func normalizeRequest(req GenerateRequest) GenerateRequest {
	if req.ComplianceLevel == "" {
		req.ComplianceLevel = compliance.LevelStrict
	}
	if req.Format == "" {
		req.Format = types.DocumentFormatInterview
	}
	if req.TargetLength <= 0 {
		req.TargetLength = 800
	}
	return req
}

func buildGenerationPrompt(req GenerateRequest, persona promptstyle.Persona, genContext GenerationContext) string {
	culture := promptstyle.CultureFor(req.Geo, req.Language)

	var b strings.Builder
	b.WriteString("Generate a high-converting prelanding copy for the following:\n\n")
	fmt.Fprintf(&b, "**Offer:** %s\n", req.Offer)
	fmt.Fprintf(&b, "**Target Country:** %s (%s)\n", culture.CountryName, req.Geo)
	fmt.Fprintf(&b, "**Target Language:** %s\n", req.Language)
	fmt.Fprintf(&b, "**Local Currency:** %s\n", culture.Currency)
	fmt.Fprintf(&b, "**Target Vertical:** %s\n", req.Vertical)
	fmt.Fprintf(&b, "**Format:** %s\n", req.Format)
	fmt.Fprintf(&b, "**Target Length:** %d words\n\n", req.TargetLength)

	fmt.Fprintf(&b, "**LANGUAGE-GEO RELATIONSHIP (CRITICAL):**\n")
	fmt.Fprintf(&b, "Language takes priority over GEO. If GEO is %s but language is %s:\n", req.Geo, req.Language)
	fmt.Fprintf(&b, "- Write for %s-speaking audience LIVING IN %s\n", req.Language, culture.CountryName)
	fmt.Fprintf(&b, "- Use %s and local %s economic context\n", culture.Currency, req.Geo)
	fmt.Fprintf(&b, "- But communicate in the style natural to %s-speakers\n", req.Language)
	fmt.Fprintf(&b, "- Reference %s reality through the lens of a %s-speaking resident\n\n", req.Geo, req.Language)

	fmt.Fprintf(&b, "**Cultural Context for %s:**\n", culture.CountryName)
	for _, note := range culture.CulturalNotes {
		fmt.Fprintf(&b, "  - %s\n", note)
	}
	fmt.Fprintf(&b, "\n**Local Expressions (adapt to %s if needed):**\n%s\n", req.Language, joinOrNA(culture.LocalExpressions))
	fmt.Fprintf(&b, "\n**Trust Signals for %s audience:**\n%s\n", req.Geo, joinOrNA(culture.TrustSignals))
	fmt.Fprintf(&b, "\n**AVOID in %s:**\n%s\n\n", req.Geo, joinOrNA(culture.Avoid))

	fmt.Fprintf(&b, "**Persona/Style:**\n- Tone: %s\n- Hook Strategy: %s\n- Style: %s\n\n", persona.Tone, persona.Hook, persona.Style)

	b.WriteString("**Reference Examples from Top Performers:**\n\nExample Headlines:\n")
	for _, h := range firstN(genContext.ExampleHeadings, 3) {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	b.WriteString("\nExample Dialogue (Interview Format):\n")
	for i, d := range genContext.ExampleDialogues {
		if i >= 4 {
			break
		}
		speaker := d.Speaker
		if speaker == "" {
			speaker = "Speaker"
		}
		fmt.Fprintf(&b, "  %s: %s\n", speaker, d.Text)
	}
	b.WriteString("\nExample Quotes/Testimonials:\n")
	for _, q := range firstN(genContext.ExampleQuotes, 2) {
		fmt.Fprintf(&b, "- %q\n", q)
	}

	fmt.Fprintf(&b, "\n**ABSOLUTE LANGUAGE REQUIREMENT**\n")
	fmt.Fprintf(&b, "The ENTIRE output MUST be written in **%s** language.\n", req.Language)
	fmt.Fprintf(&b, "Even if the examples above are in English, you MUST write your output in %s.\n\n", req.Language)

	b.WriteString("**Requirements:**\n")
	fmt.Fprintf(&b, "1. Write 100%% in %s language - this is CRITICAL, no exceptions\n", req.Language)
	fmt.Fprintf(&b, "2. Use %s for any monetary references - NEVER use the wrong currency\n", culture.Currency)
	fmt.Fprintf(&b, "3. Use %s format with clear speaker labels if interview\n", req.Format)
	fmt.Fprintf(&b, "4. Include a compelling headline, interview-style dialogue between Host and Expert, authentic hooks grounded in real %s economic and social context, objection handling, a naturally embedded call to action, and detailed [Image: ...] placeholders a designer could work from directly\n", culture.CountryName)
	fmt.Fprintf(&b, "5. Apply %s tone, adapted for contemporary %s communication style\n", persona.Tone, req.Geo)
	fmt.Fprintf(&b, "6. Length: approximately %d words\n", req.TargetLength)
	b.WriteString("7. DO NOT use obviously banned phrases like \"guaranteed profit\" or \"risk-free\"\n")
	fmt.Fprintf(&b, "8. Use persuasion patterns from the examples but with 100%% unique wording IN %s\n", req.Language)
	b.WriteString("9. DO NOT use emojis in the text regardless of the persona\n")
	fmt.Fprintf(&b, "10. Content must feel authentic to modern %s life, not stereotypical\n", culture.CountryName)

	fmt.Fprintf(&b, "\nGenerate the complete prelanding copy now (remember: in %s language!):\n", req.Language)
	return b.String()
}

func buildBaseContext(req GenerateRequest, persona promptstyle.Persona) string {
	culture := promptstyle.CultureFor(req.Geo, req.Language)
	var b strings.Builder
	b.WriteString("**Generation parameters:**\n")
	fmt.Fprintf(&b, "- Offer: %s\n", req.Offer)
	fmt.Fprintf(&b, "- Target Country: %s (%s)\n", culture.CountryName, req.Geo)
	fmt.Fprintf(&b, "- Target Language: %s\n", req.Language)
	fmt.Fprintf(&b, "- Local Currency: %s\n", culture.Currency)
	fmt.Fprintf(&b, "- Vertical: %s\n", req.Vertical)
	fmt.Fprintf(&b, "- Persona Tone: %s\n", persona.Tone)
	fmt.Fprintf(&b, "- Persona Hook: %s\n\n", persona.Hook)
	fmt.Fprintf(&b, "**ABSOLUTE LANGUAGE REQUIREMENT**\n")
	fmt.Fprintf(&b, "The ENTIRE output MUST be written in **%s** language.\n", req.Language)
	fmt.Fprintf(&b, "Use %s for all monetary references.\n", culture.Currency)
	return b.String()
}

// formatRAGContext renders the retrieved examples as a prompt section.
// Empty when there are no winners, so fallback-based scenario prompts carry
// no reference block.
func formatRAGContext(genContext GenerationContext) string {
	if len(genContext.Winners) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("**References from top-performing prelandings:**\n")
	if len(genContext.ExampleHeadings) > 0 {
		b.WriteString("\nExample headlines:\n")
		for _, h := range firstN(genContext.ExampleHeadings, 3) {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	if len(genContext.ExampleDialogues) > 0 {
		b.WriteString("\nExample dialogues:\n")
		for i, d := range genContext.ExampleDialogues {
			if i >= 4 {
				break
			}
			speaker := d.Speaker
			if speaker == "" {
				speaker = "Speaker"
			}
			fmt.Fprintf(&b, "  %s: %s\n", speaker, d.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func encodeSourceIDs(genContext GenerationContext) datatypes.JSON {
	ids := make([]string, 0, len(genContext.Winners))
	for _, w := range genContext.Winners {
		ids = append(ids, w.ID.String())
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func encodeIssues(issues []compliance.Issue) datatypes.JSON {
	if len(issues) == 0 {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(issues)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func joinOrNA(values []string) string {
	if len(values) == 0 {
		return "N/A"
	}
	return strings.Join(values, ", ")
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
