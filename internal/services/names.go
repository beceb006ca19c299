package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/platform/openai"
)

// geoCurrency maps target countries to the currency shown in generated
// amounts. Unknown GEOs fall back to USD.
var geoCurrency = map[string]string{
	"DE": "EUR", "AT": "EUR", "CH": "CHF", "FR": "EUR", "ES": "EUR",
	"IT": "EUR", "UK": "GBP", "US": "USD", "CA": "CAD", "RU": "RUB",
	"PL": "PLN", "NL": "EUR",
}

var geoCountryName = map[string]string{
	"DE": "Germany", "AT": "Austria", "CH": "Switzerland", "FR": "France",
	"ES": "Spain", "IT": "Italy", "UK": "United Kingdom", "US": "United States",
	"CA": "Canada", "RU": "Russia", "PL": "Poland", "NL": "Netherlands",
}

// Realistic earnings ranges per currency, used verbatim in review prompts.
var currencyAmountRanges = map[string]string{
	"RUB": "10,000-500,000",
	"USD": "500-15,000",
	"CAD": "500-15,000",
	"EUR": "400-12,000",
	"GBP": "350-10,000",
	"CHF": "500-15,000",
	"PLN": "2,000-50,000",
}

type GeneratedName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname,omitempty"`
	Gender    string `json:"gender"`
}

type GeneratedReview struct {
	AuthorName            string  `json:"author_name"`
	Text                  string  `json:"text"`
	Rating                int     `json:"rating"`
	Amount                float64 `json:"amount"`
	Currency              string  `json:"currency"`
	ScreenshotDescription string  `json:"screenshot_description"`
}

type NamesRequest struct {
	Geo             string `json:"geo"`
	Gender          string `json:"gender"` // "male", "female" or "random"
	Count           int    `json:"count"`
	IncludeNickname bool   `json:"include_nickname"`
}

type ReviewsRequest struct {
	Geo      string          `json:"geo"`
	Language string          `json:"language"`
	Vertical string          `json:"vertical"`
	Length   string          `json:"length"` // "short" or "medium"
	Count    int             `json:"count"`
	Names    []GeneratedName `json:"names,omitempty"`
}

// ParseError marks model output that could not be decoded as the expected
// JSON array, after the bracket-substring fallback was tried.
type ParseError struct {
	What  string
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s from model output: %v", e.What, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

type NameService interface {
	GenerateNames(ctx context.Context, req NamesRequest) ([]GeneratedName, error)
	GenerateReviews(ctx context.Context, req ReviewsRequest) ([]GeneratedReview, error)
}

type nameService struct {
	log *logger.Logger
	ai  openai.Client
}

func NewNameService(log *logger.Logger, ai openai.Client) (NameService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	return &nameService{log: log.With("service", "NameService"), ai: ai}, nil
}

func (s *nameService) GenerateNames(ctx context.Context, req NamesRequest) ([]GeneratedName, error) {
	if strings.TrimSpace(req.Geo) == "" {
		return nil, fmt.Errorf("geo is required")
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	completion, err := s.ai.Complete(ctx, openai.CompletionRequest{
		Messages: []openai.Message{
			{Role: "system", Content: "You are a helpful assistant that generates realistic names in JSON format."},
			{Role: "user", Content: buildNamePrompt(req)},
		},
		Temperature: 0.8,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("generate names: %w", err)
	}

	var names []GeneratedName
	if err := decodeJSONArray(completion.Text, &names); err != nil {
		return nil, &ParseError{What: "names", Raw: completion.Text, Cause: err}
	}
	s.log.Debug("names generated", "geo", req.Geo, "count", len(names))
	return names, nil
}

func (s *nameService) GenerateReviews(ctx context.Context, req ReviewsRequest) ([]GeneratedReview, error) {
	if strings.TrimSpace(req.Geo) == "" {
		return nil, fmt.Errorf("geo is required")
	}
	if strings.TrimSpace(req.Language) == "" {
		return nil, fmt.Errorf("language is required")
	}
	if req.Count <= 0 {
		req.Count = 5
	}

	completion, err := s.ai.Complete(ctx, openai.CompletionRequest{
		Messages: []openai.Message{
			{Role: "system", Content: "You are a helpful assistant that generates realistic product reviews in JSON format."},
			{Role: "user", Content: buildReviewPrompt(req)},
		},
		Temperature: 0.8,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, fmt.Errorf("generate reviews: %w", err)
	}

	var reviews []GeneratedReview
	if err := decodeJSONArray(completion.Text, &reviews); err != nil {
		return nil, &ParseError{What: "reviews", Raw: completion.Text, Cause: err}
	}
	s.log.Debug("reviews generated", "geo", req.Geo, "language", req.Language, "count", len(reviews))
	return reviews, nil
}

// decodeJSONArray tries the whole payload first, then exactly one fallback:
// the substring between the first '[' and the last ']'. Models wrap JSON in
// prose or code fences often enough that the fallback earns its keep.
func decodeJSONArray(text string, out any) error {
	strictErr := json.Unmarshal([]byte(text), out)
	if strictErr == nil {
		return nil
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return strictErr
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return err
	}
	return nil
}

func buildNamePrompt(req NamesRequest) string {
	country := countryFor(req.Geo)

	genderInstruction := "Generate a roughly 50/50 mix of male and female names"
	switch strings.ToLower(req.Gender) {
	case "male":
		genderInstruction = "Generate male names only"
	case "female":
		genderInstruction = "Generate female names only"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d realistic names for the country: %s (%s)\n\n", req.Count, country, strings.ToUpper(req.Geo))
	b.WriteString(genderInstruction + "\n\nRequirements:\n")
	fmt.Fprintf(&b, "- Names must be typical for %s\n", country)
	b.WriteString("- Follow local spelling and transliteration conventions\n")
	b.WriteString("- Include a first_name and a last_name\n")
	if req.IncludeNickname {
		b.WriteString(`- Add a "nickname" field with an internet handle in the local style.
  Nickname style examples:
  - Russia: IvanP2024, Serg_Moscow, AlexKR, Marina_SPb
  - US: JohnSmith87, MikeNY, SarahLA, DaveBoston
  - Germany: MaxBerlin, AnnaDE, ThomasK92, LisaMunich
  - UK: JohnLondon, SarahUK, DaveManchester
  - France: PierreParis, MarieFR, LucLyon
`)
	}
	b.WriteString(`- Include the gender ("male" or "female")
- Names should sound natural and contemporary
- Avoid very rare or archaic names
- Reflect each country's real naming mix:
  * Russia: typical Russian first and last names
  * US: an ethnic mix (English, Spanish, Italian and others)
  * Germany: German names, occasionally Turkish or Arabic for variety
  * France: French names, occasionally Arabic
  * UK: English names, occasionally Indian or Pakistani

Return the result STRICTLY as a JSON array of objects with no extra text before or after.

Format:
`)
	if req.IncludeNickname {
		b.WriteString(`[
    {
        "first_name": "First",
        "last_name": "Last",
        "nickname": "nick123",
        "gender": "male"
    },
    ...
]`)
	} else {
		b.WriteString(`[
    {
        "first_name": "First",
        "last_name": "Last",
        "gender": "male"
    },
    ...
]
IMPORTANT: do NOT add a nickname field.`)
	}
	fmt.Fprintf(&b, "\n\nGenerate the %d names now:", req.Count)
	return b.String()
}

func buildReviewPrompt(req ReviewsRequest) string {
	country := countryFor(req.Geo)
	currency := currencyFor(req.Geo)

	lengthChars := "150-300 characters"
	if strings.EqualFold(req.Length, "short") {
		lengthChars = "50-100 characters"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d natural, realistic reviews for an investment platform.\n\n", req.Count)
	b.WriteString("Parameters:\n")
	fmt.Fprintf(&b, "- Country: %s (%s)\n", country, strings.ToUpper(req.Geo))
	fmt.Fprintf(&b, "- Language: %s - write ONLY in this language!\n", req.Language)
	fmt.Fprintf(&b, "- Vertical: %s\n", req.Vertical)
	fmt.Fprintf(&b, "- Length of each review: %s\n", lengthChars)
	fmt.Fprintf(&b, "- Currency for amounts: %s\n", currency)
	if len(req.Names) > 0 {
		authors := make([]string, 0, len(req.Names))
		for i, n := range req.Names {
			if i >= req.Count {
				break
			}
			authors = append(authors, strings.TrimSpace(n.FirstName+" "+n.LastName))
		}
		fmt.Fprintf(&b, "- Use these names for review authors: %s\n", strings.Join(authors, ", "))
	}
	fmt.Fprintf(&b, `
Review requirements:
- Write STRICTLY in %s in a style typical for %s
- Use local expressions and manner of speech
- Include concrete earnings amounts in %s
- Add details that make the review feel real and alive
- Mix the tones: enthusiastic, reserved, skeptic-turned-believer
- Describe a bank-deposit screenshot for each review
- Amounts must be realistic for the country and currency:
`, req.Language, country, currency)
	if r, ok := currencyAmountRanges[currency]; ok {
		fmt.Fprintf(&b, "  * %s: %s\n", currency, r)
	} else {
		b.WriteString("  * USD: 500-15,000\n")
	}
	fmt.Fprintf(&b, `
The screenshot description must include:
- The name of a banking app typical for the country
- The operation type (account top-up, transfer)
- The amount
- Date and time
- App interface details

Return the result STRICTLY as a JSON array with no extra text.

Format:
[
    {
        "author_name": "First Last",
        "text": "Review text in %s...",
        "rating": 5,
        "amount": 15000,
        "currency": "%s",
        "screenshot_description": "Mobile banking app screenshot showing the deposit..."
    },
    ...
]

Generate the %d reviews now:`, req.Language, currency, req.Count)
	return b.String()
}

func countryFor(geo string) string {
	if name, ok := geoCountryName[strings.ToUpper(geo)]; ok {
		return name
	}
	return geo
}

func currencyFor(geo string) string {
	if c, ok := geoCurrency[strings.ToUpper(geo)]; ok {
		return c
	}
	return "USD"
}
