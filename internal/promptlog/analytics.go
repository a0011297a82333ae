package promptlog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Summary aggregates the prompt log for the analytics command.
type Summary struct {
	Total           int
	ByModel         map[string]int
	ByDay           map[string]int
	EstimatedTokens int
	PreciseTokens   bool
}

// Summarize folds entries into per-model and per-day counts plus a token
// estimate of all logged prompts.
func Summarize(entries []Entry) Summary {
	s := Summary{
		ByModel: map[string]int{},
		ByDay:   map[string]int{},
	}
	tok := defaultTokenizer()
	s.PreciseTokens = tok.precise
	for _, e := range entries {
		s.Total++
		s.ByModel[e.Model]++
		if len(e.Timestamp) >= 10 {
			s.ByDay[e.Timestamp[:10]]++
		}
		s.EstimatedTokens += tok.count(e.Prompt)
	}
	return s
}

// Render formats a summary for the terminal.
func (s Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prompts logged: %d\n", s.Total)
	marker := "~"
	if s.PreciseTokens {
		marker = ""
	}
	fmt.Fprintf(&b, "Prompt tokens: %s%d\n", marker, s.EstimatedTokens)

	if len(s.ByModel) > 0 {
		b.WriteString("By model:\n")
		for _, model := range sortedKeys(s.ByModel) {
			fmt.Fprintf(&b, "  %-8s %d\n", model, s.ByModel[model])
		}
	}
	if len(s.ByDay) > 0 {
		b.WriteString("By day:\n")
		for _, day := range sortedKeys(s.ByDay) {
			fmt.Fprintf(&b, "  %s  %d\n", day, s.ByDay[day])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tokenizer wraps tiktoken with a heuristic fallback for offline
// environments without the BPE cache.
type tokenizer struct {
	encoder *tiktoken.Tiktoken
	precise bool
}

var (
	tokOnce sync.Once
	tok     *tokenizer
)

func defaultTokenizer() *tokenizer {
	tokOnce.Do(func() {
		tok = &tokenizer{}
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			tok.encoder = enc
			tok.precise = true
		}
	})
	return tok
}

func (t *tokenizer) count(text string) int {
	if text == "" {
		return 0
	}
	if !t.precise {
		// ~4 chars per token for English text.
		n := len(text) / 4
		if n < 1 {
			n = 1
		}
		return n
	}
	return len(t.encoder.Encode(text, nil, nil))
}
