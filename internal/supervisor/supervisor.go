package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hebbarp/c9ai/internal/classify"
	"github.com/hebbarp/c9ai/internal/model"
)

// Inferer is the capability contract the supervisor needs from the model
// layer: given a prompt, return text or fail. Tests substitute a scripted
// implementation.
type Inferer interface {
	Infer(ctx context.Context, prompt string, opts model.InferOptions) (string, error)
	Ready() bool
}

// Supervisor wraps classification with bounded retries and a fallback
// chain: real model -> pattern resolver -> suggestion-only response. Each
// tier's failure is non-fatal; only the final tier's text reaches the user.
type Supervisor struct {
	inferer    Inferer
	resolver   *classify.Resolver
	maxRetries int
	backoff    time.Duration
	cloudHint  string
}

// Options tune the retry envelope.
type Options struct {
	MaxRetries int
	Backoff    time.Duration
	// CloudHint names the escape hatch surfaced on the final tier,
	// e.g. "@claude".
	CloudHint string
}

func New(inferer Inferer, resolver *classify.Resolver, opts Options) *Supervisor {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.CloudHint == "" {
		opts.CloudHint = "@claude"
	}
	return &Supervisor{
		inferer:    inferer,
		resolver:   resolver,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		cloudHint:  opts.CloudHint,
	}
}

// Classify resolves free text into a Response, degrading tier by tier. The
// returned error is non-nil only for context cancellation; the suggestion
// tier itself cannot fail.
func (s *Supervisor) Classify(ctx context.Context, text string) (classify.Response, error) {
	if s.inferer != nil && s.inferer.Ready() {
		if resp, ok := s.classifyWithModel(ctx, text); ok {
			return resp, nil
		}
	}

	resp, err := s.resolver.Resolve(ctx, text)
	if err == nil {
		return resp, nil
	}
	var noMatch *classify.NoMatchError
	if errors.As(err, &noMatch) {
		return s.suggestionResponse(text, noMatch.Suggestion), nil
	}
	if errors.Is(err, context.Canceled) {
		return classify.Response{}, err
	}
	// Resolver timeout or other soft failure: last tier still answers.
	return s.suggestionResponse(text, ""), nil
}

// classifyWithModel tries the real-model path with fixed backoff between
// attempts. A parse failure of the model's reply counts as an attempt.
func (s *Supervisor) classifyWithModel(ctx context.Context, text string) (classify.Response, bool) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		out, err := s.inferer.Infer(ctx, text, model.InferOptions{MaxTokens: 256})
		if err == nil {
			resp, perr := classify.ParseModelOutput(out)
			if perr == nil {
				return resp, true
			}
		}
		if ctx.Err() != nil {
			return classify.Response{}, false
		}
		if attempt < s.maxRetries {
			time.Sleep(s.backoff)
		}
	}
	return classify.Response{}, false
}

func (s *Supervisor) suggestionResponse(text, suggestion string) classify.Response {
	msg := "I couldn't map that to an action."
	if suggestion != "" {
		msg += " " + suggestion
	}
	msg += fmt.Sprintf(" For open-ended questions, try %s %s", s.cloudHint, text)
	return classify.Conversational(msg)
}

// Generate produces free text for a topic ("achieve <goal>" path). The
// content template itself is a black box: the ready model writes it, the
// degraded path returns a deterministic skeleton.
func (s *Supervisor) Generate(ctx context.Context, topic string) (string, error) {
	if s.inferer != nil && s.inferer.Ready() {
		out, err := s.inferer.Infer(ctx, "Write a short, concrete plan for: "+topic,
			model.InferOptions{MaxTokens: 512})
		if err == nil {
			return out, nil
		}
	}
	return fmt.Sprintf("Goal: %s\n\n1. Break the goal into daily tasks (add <task>).\n2. Track them with todos.\n3. Use %s %s for a detailed plan.",
		topic, s.cloudHint, topic), nil
}
