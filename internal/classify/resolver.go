package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hebbarp/c9ai/internal/intent"
)

// ErrTimeout is returned when the resolver misses its bounded window.
var ErrTimeout = errors.New("pattern resolver timed out")

// NoMatchError means no rule fired. It carries a suggestion the fallback
// chain can surface to the user; callers distinguish it from hard failures
// to decide whether the next tier should run.
type NoMatchError struct {
	Input      string
	Suggestion string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no pattern matched %q", e.Input)
}

// Resolver maps free text to a Response through a strictly ordered rule
// cascade. Only the first matching rule fires; rules are intentionally broad
// substring checks, so earlier rules shadow later ones on overlapping
// vocabulary ("open" anywhere in the text wins before "search" is even
// considered). That precedence is a compatibility contract; do not reorder.
type Resolver struct {
	rules   []resolveRule
	timeout time.Duration
}

type resolveRule struct {
	name  string
	match func(lower string) bool
	build func(raw, lower string) Response
}

const defaultResolveTimeout = 5 * time.Second

func NewResolver() *Resolver {
	return &Resolver{rules: defaultRules(), timeout: defaultResolveTimeout}
}

// Resolve classifies prompt. Fails with *NoMatchError when no rule matches
// and ErrTimeout when the bounded window elapses.
func (r *Resolver) Resolve(ctx context.Context, prompt string) (Response, error) {
	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := r.resolveNow(prompt)
		done <- outcome{resp, err}
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case out := <-done:
		return out.resp, out.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
		return Response{}, ErrTimeout
	}
}

func (r *Resolver) resolveNow(prompt string) (Response, error) {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	if lower == "" {
		return Response{}, &NoMatchError{Input: prompt, Suggestion: resolverSuggestion}
	}
	for _, rule := range r.rules {
		if rule.match(lower) {
			return rule.build(prompt, lower), nil
		}
	}
	return Response{}, &NoMatchError{Input: prompt, Suggestion: resolverSuggestion}
}

const resolverSuggestion = "Try 'open <app>', 'search for <query>', 'compile <file>.tex' or 'run <script>'."

// defaultRules enumerates the cascade: greeting, app-open, file-listing,
// search, disk/process query, compile, run, help, create, close. The order
// mirrors the shipped behavior exactly.
func defaultRules() []resolveRule {
	return []resolveRule{
		{
			name:  "greeting",
			match: func(s string) bool { return greetingPattern.MatchString(s) },
			build: func(_, _ string) Response {
				return Conversational("Hello! I can open apps, search the web, compile documents and run scripts. What do you need?")
			},
		},
		{
			name: "app-open",
			match: func(s string) bool {
				return strings.Contains(s, "open") || strings.Contains(s, "launch")
			},
			build: func(_, lower string) Response {
				target := extractAfter(lower, "open", "launch")
				if target == "" {
					return Conversational("What would you like me to open?")
				}
				return ActionResponse(intent.VerbOpen, target)
			},
		},
		{
			name: "file-listing",
			match: func(s string) bool {
				return (strings.Contains(s, "list") || strings.Contains(s, "show")) &&
					commandNounPattern.MatchString(s)
			},
			build: func(_, _ string) Response {
				// Current directory through the platform open mechanism;
				// keeps the resolver free of OS branching.
				return ActionResponse(intent.VerbOpen, ".")
			},
		},
		{
			name: "search",
			match: func(s string) bool {
				return strings.Contains(s, "search") || strings.Contains(s, "google ") ||
					strings.Contains(s, "look up")
			},
			build: func(_, lower string) Response {
				query := extractQuery(lower)
				if query == "" {
					return Conversational("What should I search for?")
				}
				return ActionResponse(intent.VerbSearch, query)
			},
		},
		{
			name: "system-query",
			match: func(s string) bool {
				return strings.Contains(s, "disk usage") || strings.Contains(s, "disk space") ||
					strings.Contains(s, "process")
			},
			build: func(_, lower string) Response {
				if strings.Contains(lower, "process") {
					return ActionResponse(intent.VerbRun, "ps")
				}
				return ActionResponse(intent.VerbRun, "df")
			},
		},
		{
			name: "compile",
			match: func(s string) bool {
				return strings.Contains(s, "compile") || strings.Contains(s, "build")
			},
			build: func(_, lower string) Response {
				return ActionResponse(intent.VerbCompile, compileTarget(lower))
			},
		},
		{
			name: "run",
			match: func(s string) bool {
				return strings.Contains(s, "run ") || strings.Contains(s, "execute ")
			},
			build: func(_, lower string) Response {
				return ActionResponse(intent.VerbRun, runTarget(lower))
			},
		},
		{
			name:  "help",
			match: func(s string) bool { return strings.Contains(s, "help") },
			build: func(_, _ string) Response {
				return Conversational(resolverSuggestion)
			},
		},
		{
			name: "create",
			match: func(s string) bool {
				return strings.Contains(s, "create") || strings.Contains(s, "write a") ||
					strings.Contains(s, "generate")
			},
			build: func(raw, lower string) Response {
				return Response{Kind: KindCreateFile, File: createTemplate(raw, lower)}
			},
		},
		{
			name: "close",
			match: func(s string) bool {
				return strings.Contains(s, "close") || strings.Contains(s, "exit") ||
					strings.Contains(s, "quit") || strings.Contains(s, "bye")
			},
			build: func(_, _ string) Response {
				return Conversational("Goodbye! Type exit to leave the prompt.")
			},
		},
	}
}

var leadingArticles = []string{"my ", "the ", "a ", "an ", "up "}

// extractAfter returns the text following the first keyword present,
// stripped of leading articles and trailing punctuation.
func extractAfter(lower string, keywords ...string) string {
	for _, kw := range keywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(lower[idx+len(kw):])
		for changed := true; changed; {
			changed = false
			for _, art := range leadingArticles {
				if strings.HasPrefix(rest, art) {
					rest = strings.TrimSpace(strings.TrimPrefix(rest, art))
					changed = true
				}
			}
		}
		return strings.Trim(rest, "?.!\"' ")
	}
	return ""
}

func extractQuery(lower string) string {
	if idx := strings.Index(lower, "search for "); idx >= 0 {
		return strings.Trim(lower[idx+len("search for "):], "?.!\"' ")
	}
	return extractAfter(lower, "search", "google", "look up")
}

// compileTarget selects the file to compile; "research" anywhere picks the
// research paper, an explicit .tex word wins otherwise.
func compileTarget(lower string) string {
	if strings.Contains(lower, "research") {
		return "research_paper.tex"
	}
	for _, word := range strings.Fields(lower) {
		if strings.HasSuffix(word, ".tex") {
			return strings.Trim(word, "?.!\"'")
		}
	}
	return "document.tex"
}

func runTarget(lower string) string {
	for _, word := range strings.Fields(lower) {
		trimmed := strings.Trim(word, "?.!\"'")
		for _, ext := range []string{".sh", ".py", ".js"} {
			if strings.HasSuffix(trimmed, ext) {
				return trimmed
			}
		}
	}
	return "script.sh"
}

func createTemplate(raw, lower string) CreateFile {
	switch {
	case strings.Contains(lower, "python"):
		return CreateFile{
			Name:    "generated.py",
			Content: "#!/usr/bin/env python3\n\nprint(\"Hello from c9ai\")\n",
		}
	case strings.Contains(lower, "javascript"), strings.Contains(lower, "node"):
		return CreateFile{
			Name:    "generated.js",
			Content: "console.log(\"Hello from c9ai\");\n",
		}
	default:
		return CreateFile{
			Name:    "notes.txt",
			Content: "Notes\n=====\n\n" + strings.TrimSpace(raw) + "\n",
		}
	}
}
