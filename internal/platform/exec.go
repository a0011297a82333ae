package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandError reports a subprocess that ran but exited non-zero. The
// captured stderr (when available) becomes the failure reason shown to the
// user.
type CommandError struct {
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	reason := strings.TrimSpace(e.Stderr)
	if reason == "" {
		reason = "command failed"
	}
	return fmt.Sprintf("exit %d: %s", e.ExitCode, reason)
}

// RunOptions controls a single subprocess invocation.
type RunOptions struct {
	// Dir is the working directory; empty means inherit.
	Dir string
	// Capture collects stdout/stderr instead of inheriting the terminal.
	Capture bool
	// TimeoutMS bounds the command; <=0 means no timeout.
	TimeoutMS int
	// OutputLimitBytes caps each captured stream; <=0 uses 1 MiB.
	OutputLimitBytes int
}

// Result is the outcome of a completed subprocess.
type Result struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	Truncated  bool
	DurationMS int64
}

// Err converts a non-zero exit into a *CommandError; nil on success.
func (r Result) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	return &CommandError{ExitCode: r.ExitCode, Stderr: r.Stderr}
}

// Runner is the single command-execution primitive. Every synthesized
// command in the repository goes through one of these; tests substitute a
// fake to assert that no subprocess is spawned on fast-fail paths.
type Runner interface {
	Run(ctx context.Context, argv []string, opts RunOptions) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner { return &ExecRunner{} }

func (r *ExecRunner) Run(ctx context.Context, argv []string, opts RunOptions) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty argv")
	}

	runCtx := ctx
	if opts.TimeoutMS > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir

	var stdout, stderr *cappedBuffer
	if opts.Capture {
		stdout = newCappedBuffer(opts.OutputLimitBytes)
		stderr = newCappedBuffer(opts.OutputLimitBytes)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	} else {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)

	res := Result{DurationMS: dur.Milliseconds()}
	if stdout != nil {
		res.Stdout = stdout.String()
		res.Stderr = stderr.String()
		res.Truncated = stdout.truncated || stderr.truncated
	}
	if err != nil {
		var ee *exec.ExitError
		switch {
		// A deadline kill also surfaces as an ExitError (signal, code -1),
		// so the timeout check must come first to map it to 124.
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			res.ExitCode = 124
		case errors.As(err, &ee):
			res.ExitCode = ee.ExitCode()
		default:
			return res, fmt.Errorf("run %s: %w", argv[0], err)
		}
	}
	return res, nil
}

type cappedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func newCappedBuffer(max int) *cappedBuffer {
	if max <= 0 {
		max = 1 << 20
	}
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.truncated {
		return len(p), nil
	}
	remain := b.max - b.buf.Len()
	if remain <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remain {
		_, _ = b.buf.Write(p[:remain])
		b.truncated = true
		return len(p), nil
	}
	_, err := b.buf.Write(p)
	return len(p), err
}

func (b *cappedBuffer) String() string {
	if !b.truncated {
		return b.buf.String()
	}
	var out bytes.Buffer
	_, _ = io.Copy(&out, bytes.NewReader(b.buf.Bytes()))
	out.WriteString("\n[output truncated]")
	return out.String()
}
