package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// State tags the session lifecycle explicitly instead of ad hoc booleans.
type State int

const (
	// StateUninitialized means Initialize has not run yet.
	StateUninitialized State = iota
	// StateReady means the inference endpoint answered the probe.
	StateReady
	// StateDegraded means inference is unavailable; classification must use
	// the deterministic pattern resolver instead.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "uninitialized"
	}
}

var (
	// ErrEmpty is returned when the model produced zero-length output.
	ErrEmpty = errors.New("model returned empty output")
	// ErrTimeout is returned when inference exceeded its bounded window.
	ErrTimeout = errors.New("model inference timed out")
	// ErrNotReady is returned when Infer is called on a session that is not
	// in the ready state.
	ErrNotReady = errors.New("model session not ready")
)

// Config points the session at an OpenAI-compatible local endpoint
// (llama-server, ollama's compat mode, etc.).
type Config struct {
	BaseURL   string
	Model     string
	APIKey    string
	TimeoutMS int
}

// InferOptions are the per-call generation knobs.
type InferOptions struct {
	MaxTokens   int
	Temperature float32
	Stop        []string
}

const (
	defaultBaseURL   = "http://127.0.0.1:8080/v1"
	defaultInferMS   = 30000
	probeTimeout     = 5 * time.Second
	classifierPrompt = `You convert user requests into actions. Reply with exactly one of:
@action: <verb> <target>   (verb is one of: open, compile, run, search)
@create: <filename>        (followed by file content on the next lines)
or a short conversational answer.`
)

// Session is the local inference capability. It is constructed once and
// injected into the router and supervisor; there is no package-level
// instance. Initialization is lazy and idempotent.
type Session struct {
	cfg    Config
	client *openai.Client
	state  State
}

func NewSession(cfg Config) *Session {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = defaultInferMS
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		// Local servers ignore the key but the SDK requires one.
		cfg.APIKey = "local"
	}
	return &Session{cfg: cfg}
}

// Initialize probes the endpoint and settles the session into Ready or
// Degraded. A second call while already settled is a no-op; degradation is
// graceful and never an error.
func (s *Session) Initialize(ctx context.Context) error {
	if s.state != StateUninitialized {
		return nil
	}
	if s.client == nil {
		clientCfg := openai.DefaultConfig(s.cfg.APIKey)
		clientCfg.BaseURL = strings.TrimRight(s.cfg.BaseURL, "/")
		clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(s.cfg.TimeoutMS) * time.Millisecond}
		s.client = openai.NewClientWithConfig(clientCfg)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := s.client.ListModels(probeCtx); err != nil {
		s.state = StateDegraded
		return nil
	}
	s.state = StateReady
	return nil
}

func (s *Session) State() State { return s.state }

// Ready reports whether true model inference is available.
func (s *Session) Ready() bool { return s.state == StateReady }

// FallbackMode reports whether the classifier must use pattern matching.
func (s *Session) FallbackMode() bool { return s.state != StateReady }

// Model returns the configured model name.
func (s *Session) Model() string { return s.cfg.Model }

// Infer sends prompt through the role-marker template and returns the raw
// completion text. The timeout is enforced here; the endpoint itself may
// not self-timeout.
func (s *Session) Infer(ctx context.Context, prompt string, opts InferOptions) (string, error) {
	if s.state != StateReady {
		return "", ErrNotReady
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 256
	}

	inferCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutMS)*time.Millisecond)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(inferCtx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.Stop,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(inferCtx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmpty
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmpty
	}
	return content, nil
}
