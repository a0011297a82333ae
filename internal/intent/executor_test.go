package intent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hebbarp/c9ai/internal/appmap"
	"github.com/hebbarp/c9ai/internal/platform"
)

// fakeRunner records every spawned argv so tests can assert fast-fail
// paths never reach a subprocess.
type fakeRunner struct {
	calls [][]string
	fail  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, argv []string, _ platform.RunOptions) (platform.Result, error) {
	f.calls = append(f.calls, argv)
	if f.fail[argv[0]] {
		return platform.Result{ExitCode: 1, Stderr: "not found"}, nil
	}
	return platform.Result{Stdout: "ok\n"}, nil
}

func newTestExecutor(t *testing.T, family platform.Family, runner platform.Runner) *Executor {
	t.Helper()
	apps, err := appmap.Load(filepath.Join(t.TempDir(), "app_mappings.json"))
	if err != nil {
		t.Fatal(err)
	}
	return NewExecutor(platform.OpsFor(family), runner, apps)
}

func TestRunShellScriptFailsOnWindowsWithoutSpawning(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyWindows, runner)

	_, err := e.Execute(context.Background(), Intent{Verb: VerbRun, Target: "deploy.sh"})
	if !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("err=%v want ErrUnsupportedTarget", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("spawned %v, want none", runner.calls)
	}
}

func TestCompileRejectsNonTexWithoutSpawning(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	_, err := e.Execute(context.Background(), Intent{Verb: VerbCompile, Target: "paper.docx"})
	if !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("err=%v want ErrUnsupportedTarget", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("spawned %v, want none", runner.calls)
	}
}

func TestCompileTexUsesPdflatex(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	if _, err := e.Execute(context.Background(), Intent{Verb: VerbCompile, Target: "research_paper.tex"}); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != "pdflatex" {
		t.Fatalf("calls=%v", runner.calls)
	}
}

func TestRunMissingScriptFailsWithoutSpawning(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	_, err := e.Execute(context.Background(), Intent{Verb: VerbRun, Target: filepath.Join(t.TempDir(), "nope.sh")})
	if !errors.Is(err, ErrScriptNotFound) {
		t.Fatalf("err=%v want ErrScriptNotFound", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("spawned %v, want none", runner.calls)
	}
}

func TestOpenURLUsesPlatformOpener(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	if _, err := e.Execute(context.Background(), Intent{Verb: VerbOpen, Target: "https://example.com"}); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != "xdg-open" || runner.calls[0][1] != "https://example.com" {
		t.Fatalf("calls=%v", runner.calls)
	}
}

func TestSearchEncodesQuery(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	if _, err := e.Execute(context.Background(), Intent{Verb: VerbSearch, Target: "go generics tutorial"}); err != nil {
		t.Fatal(err)
	}
	want := "https://www.google.com/search?q=go+generics+tutorial"
	if len(runner.calls) != 1 || runner.calls[0][1] != want {
		t.Fatalf("calls=%v want url %q", runner.calls, want)
	}
}

func TestOpenAliasProbesThenLearns(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"browser": true}}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	// First open probes the candidate list until one works.
	if _, err := e.Execute(context.Background(), Intent{Verb: VerbOpen, Target: "browser"}); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 2 || runner.calls[1][0] != "gnome-browser" {
		t.Fatalf("probe calls=%v", runner.calls)
	}

	// Second open uses the learned mapping directly, no probing.
	runner.calls = nil
	if _, err := e.Execute(context.Background(), Intent{Verb: VerbOpen, Target: "browser"}); err != nil {
		t.Fatal(err)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != "gnome-browser" {
		t.Fatalf("learned calls=%v", runner.calls)
	}
}

func TestExecuteRejectsUnknownVerbAndEmptyTarget(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExecutor(t, platform.FamilyLinux, runner)

	if _, err := e.Execute(context.Background(), Intent{Verb: "teleport", Target: "home"}); !errors.Is(err, ErrUnknownVerb) {
		t.Fatalf("err=%v want ErrUnknownVerb", err)
	}
	if _, err := e.Execute(context.Background(), Intent{Verb: VerbOpen}); !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("err=%v want ErrUnsupportedTarget", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("spawned %v, want none", runner.calls)
	}
}
