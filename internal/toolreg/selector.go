package toolreg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hebbarp/c9ai/internal/model"
)

// ErrParseFailure means the model's tool-selection reply was not the
// expected JSON, even after the single retry.
var ErrParseFailure = errors.New("tool selection JSON parse failure")

// ErrNoTool means neither the model nor the pattern fallback could match a
// registered tool.
var ErrNoTool = errors.New("no matching tool")

// Inferer is the slice of the model capability the selector needs.
type Inferer interface {
	Infer(ctx context.Context, prompt string, opts model.InferOptions) (string, error)
	Ready() bool
}

// Selection is a resolved tool invocation.
type Selection struct {
	Tool   Descriptor
	Params map[string]string
}

// Selector maps free text to a registered tool via the model-backed JSON
// protocol, with deterministic pattern matching as the fallback tier.
type Selector struct {
	reg     *Registry
	inferer Inferer
}

func NewSelector(reg *Registry, inferer Inferer) *Selector {
	return &Selector{reg: reg, inferer: inferer}
}

type selectionWire struct {
	Tool       string            `json:"tool"`
	Parameters map[string]string `json:"parameters"`
}

// Select resolves text to a tool. The model path gets exactly one parse
// retry (with the parse error fed back); on exhaustion the pattern fallback
// runs. Only when that tier also finds nothing does Select fail.
func (s *Selector) Select(ctx context.Context, text string) (Selection, error) {
	if s.inferer != nil && s.inferer.Ready() {
		prompt := s.selectionPrompt(text)
		for attempt := 0; attempt < 2; attempt++ {
			out, err := s.inferer.Infer(ctx, prompt, model.InferOptions{MaxTokens: 256})
			if err != nil {
				break
			}
			sel, perr := s.parseSelection(out)
			if perr == nil {
				return sel, nil
			}
			// Feed the failure back once so the model can correct itself.
			prompt = s.selectionPrompt(text) +
				fmt.Sprintf("\n\nYour previous reply could not be parsed (%v). Reply with the JSON object only.", perr)
		}
	}
	return s.patternFallback(text)
}

func (s *Selector) selectionPrompt(text string) string {
	var b strings.Builder
	b.WriteString(s.reg.SelectionPrompt())
	b.WriteString("\n\nAvailable tools:\n")
	for _, name := range s.reg.Names() {
		d, _ := s.reg.Get(name)
		fmt.Fprintf(&b, "- %s: %s\n", name, d.Description)
		params := make([]string, 0, len(d.Parameters))
		for pname := range d.Parameters {
			params = append(params, pname)
		}
		sort.Strings(params)
		for _, pname := range params {
			p := d.Parameters[pname]
			fmt.Fprintf(&b, "    %s (%s, required=%t): %s\n", pname, p.Type, p.Required, p.Description)
		}
	}
	b.WriteString("\nRequest: ")
	b.WriteString(text)
	return b.String()
}

func (s *Selector) parseSelection(out string) (Selection, error) {
	raw := extractJSONObject(out)
	if raw == "" {
		return Selection{}, fmt.Errorf("%w: no JSON object in reply", ErrParseFailure)
	}
	var wire selectionWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	d, ok := s.reg.Get(strings.TrimSpace(wire.Tool))
	if !ok {
		return Selection{}, fmt.Errorf("%w: unknown tool %q", ErrParseFailure, wire.Tool)
	}
	if wire.Parameters == nil {
		wire.Parameters = map[string]string{}
	}
	return Selection{Tool: d, Params: wire.Parameters}, nil
}

// patternFallback scores each tool by keyword overlap between the request
// and the tool's name and description.
func (s *Selector) patternFallback(text string) (Selection, error) {
	words := tokenize(text)
	best := ""
	bestScore := 0
	for _, name := range s.reg.Names() {
		d, _ := s.reg.Get(name)
		score := overlap(words, tokenize(name+" "+d.Description))
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if best == "" {
		return Selection{}, fmt.Errorf("%w for %q", ErrNoTool, text)
	}
	d, _ := s.reg.Get(best)
	return Selection{Tool: d, Params: defaultParams(d, text)}, nil
}

// defaultParams fills a lone required string parameter with the whole
// request text; anything more structured needs the model path.
func defaultParams(d Descriptor, text string) map[string]string {
	params := map[string]string{}
	required := make([]string, 0, 1)
	for name, p := range d.Parameters {
		if p.Required {
			required = append(required, name)
		}
	}
	if len(required) == 1 {
		params[required[0]] = strings.TrimSpace(text)
	}
	return params
}

func extractJSONObject(out string) string {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return ""
	}
	return out[start : end+1]
}

func tokenize(s string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, `.,!?"'`)
		if len(w) > 2 {
			words[w] = struct{}{}
		}
	}
	return words
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
