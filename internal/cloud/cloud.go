package cloud

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hebbarp/c9ai/internal/platform"
)

// CLI wraps a cloud AI command-line client (claude, gemini) as an opaque
// subprocess. The assistant never parses the client's internals, only its
// spawn contract: interactive sessions inherit the terminal, one-shot
// prompts capture stdout.
type CLI struct {
	name   string
	runner platform.Runner
}

func NewCLI(name string, runner platform.Runner) *CLI {
	return &CLI{name: strings.TrimSpace(name), runner: runner}
}

func (c *CLI) Name() string { return c.name }

// Available reports whether the client binary is on PATH.
func (c *CLI) Available() bool {
	_, err := exec.LookPath(c.name)
	return err == nil
}

// Interactive starts a full interactive session, inheriting stdio, and
// blocks until the user leaves it.
func (c *CLI) Interactive(ctx context.Context) error {
	if !c.Available() {
		return fmt.Errorf("%s CLI not found on PATH", c.name)
	}
	res, err := c.runner.Run(ctx, []string{c.name}, platform.RunOptions{})
	if err != nil {
		return fmt.Errorf("start %s session: %w", c.name, err)
	}
	return res.Err()
}

// Prompt sends one prompt and returns the captured reply.
func (c *CLI) Prompt(ctx context.Context, text string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("%s CLI not found on PATH", c.name)
	}
	res, err := c.runner.Run(ctx, []string{c.name, "-p", text},
		platform.RunOptions{Capture: true, TimeoutMS: 120000})
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", c.name, err)
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
