// Package compliance checks generated copy against ad-network policy rules.
// All functions are pure: they take text in and return findings, no state,
// no I/O.
package compliance

import (
	"fmt"
	"regexp"
	"strings"
)

type Level string

const (
	LevelStrict   Level = "strict"
	LevelModerate Level = "moderate"
	LevelRelaxed  Level = "relaxed"
)

// ParseLevel normalizes a level string. Unknown values map to strict, the
// safe default for paid traffic.
func ParseLevel(raw string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelModerate:
		return LevelModerate
	case LevelRelaxed:
		return LevelRelaxed
	default:
		return LevelStrict
	}
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

const (
	IssueBannedPhrase     = "banned_phrase"
	IssueCelebrity        = "celebrity_endorsement"
	IssueFinancialClaim   = "financial_claim"
	IssueExcessiveUrgency = "excessive_urgency"
)

// Issue is one compliance finding. Critical issues fail the check; warnings
// are advisory only.
type Issue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Phrase   string   `json:"phrase,omitempty"`
	Matches  []string `json:"matches,omitempty"`
	Amounts  []string `json:"amounts,omitempty"`
	Count    int      `json:"count,omitempty"`
	Message  string   `json:"message"`
}

type Result struct {
	Passed   bool    `json:"passed"`
	Issues   []Issue `json:"issues"`
	Warnings []Issue `json:"warnings"`
}

var bannedPhrases = map[Level][]string{
	LevelStrict: {
		"guaranteed profit",
		"guaranteed income",
		"guaranteed return",
		"risk-free",
		"no risk",
		"zero risk",
		"get rich quick",
		"100% profit",
		"click here to win",
		"you will earn",
		"you will make",
		"become a millionaire",
		"financial freedom guaranteed",
	},
	LevelModerate: {
		"guaranteed profit",
		"100% profit",
		"get rich quick",
		"no risk whatsoever",
	},
	LevelRelaxed: {
		"guaranteed 1000%",
		"impossible to lose",
	},
}

var celebrityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(elon musk|bill gates|warren buffett|jeff bezos)\b`),
	regexp.MustCompile(`(?i)\b(trump|biden|merkel|macron)\b`),
	regexp.MustCompile(`(?i)\b(celebrity|famous person)\b`),
}

var financialClaimPattern = regexp.MustCompile(`\$\d+[\d,]*|€\d+[\d,]*|£\d+[\d,]*`)

var urgencyPhrases = []string{"hurry", "limited time", "only today", "expires soon", "last chance"}

// rewriteRules soften aggressive claims. Applied in order, case-insensitive.
var rewriteRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)you will earn`), "you could potentially earn"},
	{regexp.MustCompile(`(?i)you will make`), "you might make"},
	{regexp.MustCompile(`(?i)guaranteed profit`), "potential returns"},
	{regexp.MustCompile(`(?i)guaranteed income`), "potential income"},
	{regexp.MustCompile(`(?i)guaranteed return`), "expected return"},
	{regexp.MustCompile(`(?i)risk-free`), "low-risk"},
	{regexp.MustCompile(`(?i)no risk`), "managed risk"},
	{regexp.MustCompile(`(?i)zero risk`), "minimal risk"},
	{regexp.MustCompile(`(?i)get rich quick`), "build wealth"},
	{regexp.MustCompile(`(?i)100% profit`), "high returns"},
	{regexp.MustCompile(`(?i)become a millionaire`), "achieve financial success"},
}

// Check evaluates text against the banned-phrase list for level plus the
// advisory patterns. Only banned phrases fail the check; celebrity names,
// explicit currency amounts, and stacked urgency language are warnings.
func Check(level Level, text string) Result {
	var issues, warnings []Issue
	textLower := strings.ToLower(text)

	phrases, ok := bannedPhrases[level]
	if !ok {
		phrases = bannedPhrases[LevelStrict]
	}
	for _, phrase := range phrases {
		if strings.Contains(textLower, phrase) {
			issues = append(issues, Issue{
				Type:     IssueBannedPhrase,
				Severity: SeverityCritical,
				Phrase:   phrase,
				Message:  fmt.Sprintf("Contains banned phrase: %q", phrase),
			})
		}
	}

	for _, pattern := range celebrityPatterns {
		matches := pattern.FindAllString(textLower, -1)
		if len(matches) > 0 {
			warnings = append(warnings, Issue{
				Type:     IssueCelebrity,
				Severity: SeverityWarning,
				Matches:  matches,
				Message:  fmt.Sprintf("Contains celebrity name: %v. Requires manual review.", matches),
			})
		}
	}

	if level == LevelStrict {
		amounts := financialClaimPattern.FindAllString(text, -1)
		if len(amounts) > 0 {
			warnings = append(warnings, Issue{
				Type:     IssueFinancialClaim,
				Severity: SeverityWarning,
				Amounts:  amounts,
				Message:  fmt.Sprintf("Contains specific financial amounts: %v. Verify claims are substantiated.", amounts),
			})
		}

		urgencyCount := 0
		for _, phrase := range urgencyPhrases {
			if strings.Contains(textLower, phrase) {
				urgencyCount++
			}
		}
		if urgencyCount > 2 {
			warnings = append(warnings, Issue{
				Type:     IssueExcessiveUrgency,
				Severity: SeverityWarning,
				Count:    urgencyCount,
				Message:  "High urgency language detected. May trigger ad review.",
			})
		}
	}

	return Result{
		Passed:   len(issues) == 0,
		Issues:   issues,
		Warnings: warnings,
	}
}

// Rewrite softens aggressive claims so the text has a chance of passing a
// re-check. The rule table is fixed; text without aggressive claims passes
// through unchanged.
func Rewrite(text string) string {
	rewritten := text
	for _, rule := range rewriteRules {
		rewritten = rule.pattern.ReplaceAllString(rewritten, rule.replacement)
	}
	return rewritten
}

// Report renders a human-readable compliance summary for level.
func Report(level Level, text string) string {
	result := Check(level, text)

	lines := []string{
		fmt.Sprintf("=== Compliance Report (%s) ===\n", level),
	}
	if result.Passed {
		lines = append(lines, "Status: PASSED\n")
	} else {
		lines = append(lines, "Status: FAILED\n")
	}

	if len(result.Issues) > 0 {
		lines = append(lines, "\nCritical Issues:")
		for _, issue := range result.Issues {
			lines = append(lines, "  - "+issue.Message)
		}
	}
	if len(result.Warnings) > 0 {
		lines = append(lines, "\nWarnings:")
		for _, warning := range result.Warnings {
			lines = append(lines, "  - "+warning.Message)
		}
	}
	if len(result.Issues) == 0 && len(result.Warnings) == 0 {
		lines = append(lines, "\nNo issues detected.")
	}
	return strings.Join(lines, "\n")
}
