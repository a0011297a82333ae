package intent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hebbarp/c9ai/internal/appmap"
	"github.com/hebbarp/c9ai/internal/platform"
)

const execTimeoutMS = 30000

// Executor synthesizes one platform-specific command per intent and runs it
// through the shared Runner. Platform decisions live entirely in the
// injected Ops; the executor owns only the verb semantics.
type Executor struct {
	ops    platform.Ops
	runner platform.Runner
	apps   *appmap.Store
}

func NewExecutor(ops platform.Ops, runner platform.Runner, apps *appmap.Store) *Executor {
	return &Executor{ops: ops, runner: runner, apps: apps}
}

// Execute runs the intent and returns captured stdout. Failures are
// ErrUnknownVerb, ErrUnsupportedTarget, ErrScriptNotFound or the subprocess
// layer's *platform.CommandError.
func (e *Executor) Execute(ctx context.Context, in Intent) (string, error) {
	target := strings.TrimSpace(in.Target)
	if target == "" {
		return "", fmt.Errorf("%w: empty target", ErrUnsupportedTarget)
	}
	switch in.Verb {
	case VerbOpen:
		return e.open(ctx, target)
	case VerbCompile:
		return e.compile(ctx, target)
	case VerbRun:
		return e.run(ctx, target)
	case VerbSearch:
		return e.search(ctx, target)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVerb, in.Verb)
	}
}

// open handles files, URLs and application aliases. Aliases go through the
// learned mapping first; a successful fallback probe is persisted so the
// probe never repeats on this OS.
func (e *Executor) open(ctx context.Context, target string) (string, error) {
	if isURL(target) || pathExists(target) {
		return e.capture(ctx, e.ops.OpenArgs(target))
	}

	alias := strings.ToLower(target)
	if exe, ok := e.apps.Lookup(alias, e.ops.Family()); ok {
		return e.capture(ctx, e.openAppArgs(exe))
	}

	var lastErr error
	for _, candidate := range e.ops.AppCandidates(alias) {
		out, err := e.capture(ctx, e.openAppArgs(candidate))
		if err == nil {
			if learnErr := e.apps.Learn(alias, e.ops.Family(), candidate); learnErr != nil {
				return out, fmt.Errorf("open succeeded but learning failed: %w", learnErr)
			}
			return out, nil
		}
		lastErr = err
	}
	_ = e.apps.RecordFailure(alias, e.ops.Family())
	if lastErr != nil {
		return "", fmt.Errorf("%w: no launcher found for %q: %v", ErrUnsupportedTarget, target, lastErr)
	}
	return "", fmt.Errorf("%w: no launcher found for %q", ErrUnsupportedTarget, target)
}

// openAppArgs launches an application by name. On darwin that means
// "open -a <name>"; elsewhere the executable is invoked directly.
func (e *Executor) openAppArgs(name string) []string {
	if e.ops.Family() == platform.FamilyDarwin {
		return []string{"open", "-a", name}
	}
	return []string{name}
}

// compile accepts only .tex; everything else fails before any subprocess.
func (e *Executor) compile(ctx context.Context, target string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(target), ".tex") {
		return "", fmt.Errorf("%w: compile supports .tex only, got %q", ErrUnsupportedTarget, target)
	}
	return e.capture(ctx, []string{"pdflatex", "-interaction=nonstopmode", target})
}

// run resolves the target to an interpreter by extension. A .sh target on
// the windows family fails fast; a script path that does not exist fails
// without spawning.
func (e *Executor) run(ctx context.Context, target string) (string, error) {
	argv, ok := e.ops.InterpreterArgs(target)
	if !ok {
		return "", fmt.Errorf("%w: %q is not runnable on %s", ErrUnsupportedTarget, target, e.ops.Family())
	}
	if looksLikeScript(target) && !fileExists(target) {
		return "", fmt.Errorf("%w: %q", ErrScriptNotFound, target)
	}
	return e.capture(ctx, argv)
}

// search URL-encodes the query and opens the web-search URL via the
// platform's open mechanism.
func (e *Executor) search(ctx context.Context, query string) (string, error) {
	return e.capture(ctx, e.ops.OpenArgs(platform.SearchURL(query)))
}

func (e *Executor) capture(ctx context.Context, argv []string) (string, error) {
	res, err := e.runner.Run(ctx, argv, platform.RunOptions{Capture: true, TimeoutMS: execTimeoutMS})
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return res.Stdout, err
	}
	return res.Stdout, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// looksLikeScript reports whether the target names a script file (has a
// known script extension) as opposed to a bare program name.
func looksLikeScript(target string) bool {
	lower := strings.ToLower(target)
	for _, ext := range []string{".sh", ".py", ".js"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
