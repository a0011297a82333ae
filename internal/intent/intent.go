package intent

import (
	"errors"
	"fmt"
	"strings"
)

// Intent is a resolved (verb, target) pair ready for execution. Verbs come
// from a fixed vocabulary; anything else is a terminal error at parse time,
// never silently ignored.
type Intent struct {
	Verb   string
	Target string
}

const (
	VerbOpen    = "open"
	VerbCompile = "compile"
	VerbRun     = "run"
	VerbSearch  = "search"
)

var (
	ErrUnknownVerb       = errors.New("unknown verb")
	ErrUnsupportedTarget = errors.New("unsupported target")
	ErrScriptNotFound    = errors.New("script not found")
)

// KnownVerb reports whether verb belongs to the vocabulary.
func KnownVerb(verb string) bool {
	switch verb {
	case VerbOpen, VerbCompile, VerbRun, VerbSearch:
		return true
	}
	return false
}

// Parse builds an Intent from a "<verb> <target>" string, as produced by the
// resolver or an @action: todo annotation.
func Parse(s string) (Intent, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 2 {
		return Intent{}, fmt.Errorf("parse intent %q: want \"<verb> <target>\"", s)
	}
	verb := strings.ToLower(fields[0])
	if !KnownVerb(verb) {
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
	return Intent{Verb: verb, Target: strings.Join(fields[1:], " ")}, nil
}

func (i Intent) String() string {
	return i.Verb + " " + i.Target
}
