package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Handler consumes one line of input. It returns nil to keep the loop
// running; any non-nil error (including deliberate exit sentinels) stops
// the loop and is returned to the caller.
type Handler interface {
	Route(ctx context.Context, input string, out io.Writer) error
}

// Loop is the interactive read-route cycle.
type Loop struct {
	input   LineInput
	handler Handler
	out     io.Writer
	prompt  string
}

func New(input LineInput, handler Handler, out io.Writer) *Loop {
	return &Loop{input: input, handler: handler, out: out, prompt: "c9> "}
}

// SetPrompt overrides the default prompt, e.g. to show the active model.
func (l *Loop) SetPrompt(prompt string) {
	if strings.TrimSpace(prompt) != "" {
		l.prompt = prompt
	}
}

// Run blocks until EOF, context cancellation, or the handler asks to stop.
// Ctrl-C at the prompt clears the line and keeps the loop alive; leaving is
// explicit (exit, quit, or Ctrl-D).
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := l.input.ReadLine(l.prompt)
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				// The signal context may already be cancelled; don't invite
				// another line the next iteration would never read.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintln(l.out, "(type exit to leave)")
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		if err := l.handler.Route(ctx, line, l.out); err != nil {
			return err
		}
	}
}
