package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// The conversational/actionable split is an ordered rule table. Order is a
// semantic contract: command patterns always win over conversational
// patterns, even on ambiguous overlap ("check disk usage, do you think?" is
// actionable because the command rule fires first).

type patternRule struct {
	name  string
	match func(lower string) bool
}

var (
	commandStartPattern = regexp.MustCompile(`^(open|launch|list|show|check|search|create|delete|compile|execute|install)\b`)
	commandNounPattern  = regexp.MustCompile(`\b(process(es)?|files?|director(y|ies)|folders?)\b`)
	greetingPattern     = regexp.MustCompile(`^(hi|hello|hey|howdy|good (morning|afternoon|evening))\b`)
	modalQuestion       = regexp.MustCompile(`^(can|could|would|should|will|do|does|did|are|is|am)\b`)
	explainPattern      = regexp.MustCompile(`^(explain|describe|tell me about|what is|what's)\b`)
	whWordPattern       = regexp.MustCompile(`\b(what|who|where|when|why|how)\b`)
)

var commandRules = []patternRule{
	{"imperative-start", func(s string) bool { return commandStartPattern.MatchString(s) }},
	{"disk-usage", func(s string) bool {
		return strings.Contains(s, "disk usage") || strings.Contains(s, "disk space")
	}},
	{"git-status", func(s string) bool { return strings.Contains(s, "git status") }},
	{"command-noun", func(s string) bool { return commandNounPattern.MatchString(s) }},
}

var conversationalRules = []patternRule{
	{"greeting", func(s string) bool { return greetingPattern.MatchString(s) }},
	{"capability-query", func(s string) bool {
		return strings.Contains(s, "what can you do") ||
			strings.Contains(s, "what do you do") ||
			strings.Contains(s, "capabilit")
	}},
	{"thanks", func(s string) bool { return strings.Contains(s, "thank") }},
	{"identity", func(s string) bool {
		return strings.Contains(s, "who are you") || strings.Contains(s, "what are you")
	}},
	{"modal-question", func(s string) bool {
		return modalQuestion.MatchString(s) && strings.HasSuffix(s, "?")
	}},
	{"explain", func(s string) bool { return explainPattern.MatchString(s) }},
}

var hedgingWords = []string{"generally", "really", "think", "feel", "believe"}

// IsActionable decides whether free text is a command intent rather than a
// conversational utterance. Deterministic, no I/O.
func IsActionable(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}

	for _, r := range commandRules {
		if r.match(lower) {
			return true
		}
	}
	for _, r := range conversationalRules {
		if r.match(lower) {
			return false
		}
	}

	// WH-question without a command noun reads as a real question.
	if whWordPattern.MatchString(lower) && strings.HasSuffix(lower, "?") && !commandNounPattern.MatchString(lower) {
		return false
	}
	for _, w := range hedgingWords {
		if strings.Contains(lower, w) {
			return false
		}
	}

	// A short unadorned phrase is more likely a chat greeting than a
	// command; longer imperative-shaped text defaults to actionable. Length
	// is counted in runes so non-ASCII text is not over-weighted.
	if strings.HasSuffix(lower, "?") || utf8.RuneCountInString(lower) < 15 {
		return false
	}
	return true
}
