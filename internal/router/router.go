package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hebbarp/c9ai/internal/classify"
	"github.com/hebbarp/c9ai/internal/cloud"
	"github.com/hebbarp/c9ai/internal/config"
	"github.com/hebbarp/c9ai/internal/intent"
	"github.com/hebbarp/c9ai/internal/model"
	"github.com/hebbarp/c9ai/internal/platform"
	"github.com/hebbarp/c9ai/internal/promptlog"
	"github.com/hebbarp/c9ai/internal/storage"
	"github.com/hebbarp/c9ai/internal/supervisor"
	"github.com/hebbarp/c9ai/internal/toolreg"
)

// ErrExit asks the caller to shut down gracefully.
var ErrExit = errors.New("exit requested")

// ErrEmergency asks the caller to terminate immediately, bypassing
// graceful shutdown.
var ErrEmergency = errors.New("emergency exit requested")

const shellTimeoutMS = 120000

// ModelFetcher downloads a local model file into destDir. The actual
// download-with-progress implementation is an external collaborator.
type ModelFetcher func(ctx context.Context, name, destDir string) error

// Options wires the router's collaborators. Everything is injected; the
// router owns only dispatch.
type Options struct {
	Config     *config.Config
	Paths      config.Paths
	Ops        platform.Ops
	Runner     platform.Runner
	Executor   *intent.Executor
	Supervisor *supervisor.Supervisor
	Session    *model.Session
	Tools      *toolreg.Registry
	Selector   *toolreg.Selector
	Logger     *promptlog.Logger
	Store      storage.Store
	SessionID  string
	Clouds     map[string]*cloud.CLI
	Fetcher    ModelFetcher
	TodoFile   string
}

// Router turns one line of free text into an execution path: shell
// passthrough, a cloud session, a named subsystem, or a synthesized
// intent via the classifier.
type Router struct {
	cfg       *config.Config
	paths     config.Paths
	ops       platform.Ops
	runner    platform.Runner
	executor  *intent.Executor
	sup       *supervisor.Supervisor
	session   *model.Session
	tools     *toolreg.Registry
	selector  *toolreg.Selector
	logger    *promptlog.Logger
	store     storage.Store
	sessionID string
	clouds    map[string]*cloud.CLI
	fetcher   ModelFetcher
	todoFile  string
}

func New(opts Options) *Router {
	todoFile := opts.TodoFile
	if todoFile == "" {
		todoFile = "todo.md"
	}
	return &Router{
		cfg:       opts.Config,
		paths:     opts.Paths,
		ops:       opts.Ops,
		runner:    opts.Runner,
		executor:  opts.Executor,
		sup:       opts.Supervisor,
		session:   opts.Session,
		tools:     opts.Tools,
		selector:  opts.Selector,
		logger:    opts.Logger,
		store:     opts.Store,
		sessionID: opts.SessionID,
		clouds:    opts.Clouds,
		fetcher:   opts.Fetcher,
		todoFile:  todoFile,
	}
}

// Route handles one input to completion. Handler failures are reported to
// out and swallowed here so the loop survives an unbounded sequence of
// malformed inputs. Only exit requests propagate.
func (r *Router) Route(ctx context.Context, input string, out io.Writer) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	switch strings.ToLower(trimmed) {
	case "exit", "quit":
		return ErrExit
	case "exit!", "quit!":
		return ErrEmergency
	}

	if err := r.dispatch(ctx, trimmed, out); err != nil {
		if errors.Is(err, ErrExit) || errors.Is(err, ErrEmergency) {
			return err
		}
		renderError(out, err)
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, input string, out io.Writer) error {
	if command, ok := parseBangCommand(input); ok {
		return r.runBang(ctx, command, out)
	}
	if sigil, rest, ok := parseSigil(input); ok {
		return r.runSigil(ctx, sigil, rest, out)
	}

	first, rest := splitFirstToken(input)
	if handled, err := r.runNamedCommand(ctx, strings.ToLower(first), rest, out); handled {
		return err
	}

	if classify.IsActionable(input) {
		return r.handleCommand(ctx, input, out)
	}
	return r.handleConversation(ctx, input, out)
}

// parseBangCommand strips the shell sigil; everything after "!" is a
// literal shell command.
func parseBangCommand(input string) (string, bool) {
	if !strings.HasPrefix(input, "!") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(input, "!")), true
}

// parseSigil recognizes the "@" mode prefixes.
func parseSigil(input string) (sigil, rest string, ok bool) {
	if !strings.HasPrefix(input, "@") {
		return "", "", false
	}
	body := strings.TrimPrefix(input, "@")
	first, rest := splitFirstToken(body)
	return strings.ToLower(first), rest, true
}

func splitFirstToken(s string) (first, rest string) {
	parts := strings.SplitN(strings.TrimSpace(s), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return first, rest
}

// runBang executes a literal shell command, except for the cd builtin,
// which mutates the process working directory without spawning anything.
func (r *Router) runBang(ctx context.Context, command string, out io.Writer) error {
	if command == "" {
		fmt.Fprintln(out, "usage: !<shell command>")
		return nil
	}
	if fields := strings.Fields(command); fields[0] == "cd" {
		target := ""
		if len(fields) > 1 {
			target = strings.Join(fields[1:], " ")
		}
		if target == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve home dir: %w", err)
			}
			target = home
		}
		if err := os.Chdir(target); err != nil {
			return fmt.Errorf("cd: %w", err)
		}
		cwd, _ := os.Getwd()
		fmt.Fprintln(out, renderDim("cwd: "+cwd))
		return nil
	}

	res, err := r.runner.Run(ctx, r.ops.ShellArgs(command),
		platform.RunOptions{Capture: true, TimeoutMS: shellTimeoutMS})
	if err != nil {
		return fmt.Errorf("shell passthrough: %w", err)
	}
	fmt.Fprintln(out, formatShellResult(command, res))
	return nil
}

func (r *Router) runSigil(ctx context.Context, sigil, rest string, out io.Writer) error {
	switch sigil {
	case "claude", "gemini":
		return r.runCloud(ctx, sigil, rest, out)
	case "local":
		if rest == "" {
			fmt.Fprintln(out, r.localStatus())
			return nil
		}
		return r.handleCommand(ctx, rest, out)
	case "conv", "chat":
		if rest == "" {
			fmt.Fprintln(out, "usage: @conv <text>")
			return nil
		}
		return r.handleConversation(ctx, rest, out)
	case "cmd", "command":
		if rest == "" {
			fmt.Fprintln(out, "usage: @cmd <text>")
			return nil
		}
		return r.handleCommand(ctx, rest, out)
	case "tool":
		return r.runTool(ctx, rest, out)
	default:
		fmt.Fprintf(out, "Unknown mode @%s. Modes: @claude @gemini @local @conv @chat @cmd @tool\n", sigil)
		return nil
	}
}

// runCloud routes text to a cloud AI CLI: an interactive subprocess session
// when there is no trailing text, a one-shot prompt otherwise.
func (r *Router) runCloud(ctx context.Context, name, rest string, out io.Writer) error {
	cli, ok := r.clouds[name]
	if !ok {
		return fmt.Errorf("no %s client configured", name)
	}
	if rest == "" {
		fmt.Fprintln(out, renderDim("Starting "+name+" session (leave it to return here)..."))
		return cli.Interactive(ctx)
	}
	r.logPrompt(out, name, rest)
	reply, err := cli.Prompt(ctx, rest)
	if err != nil {
		return err
	}
	r.recordTurn("user", rest)
	r.recordTurn("assistant", reply)
	fmt.Fprintln(out, renderMarkdown(reply))
	return nil
}

// handleCommand runs the actionable path: classify (model first, pattern
// fallback handled by the supervisor) and execute the result.
func (r *Router) handleCommand(ctx context.Context, text string, out io.Writer) error {
	_ = r.session.Initialize(ctx)
	r.logPrompt(out, "local", text)
	resp, err := r.sup.Classify(ctx, text)
	if err != nil {
		return err
	}
	return r.applyResponse(ctx, text, resp, out)
}

// handleConversation prefers the configured cloud model for open-ended
// text; without one it degrades to the deterministic tiers.
func (r *Router) handleConversation(ctx context.Context, text string, out io.Writer) error {
	name := r.cfg.DefaultModel
	if cli, ok := r.clouds[name]; ok && cli.Available() {
		return r.runCloud(ctx, name, text, out)
	}
	_ = r.session.Initialize(ctx)
	r.logPrompt(out, "local", text)
	resp, err := r.sup.Classify(ctx, text)
	if err != nil {
		return err
	}
	return r.applyResponse(ctx, text, resp, out)
}

func (r *Router) applyResponse(ctx context.Context, text string, resp classify.Response, out io.Writer) error {
	switch resp.Kind {
	case classify.KindAction:
		fmt.Fprintln(out, renderDim("-> "+resp.Action.String()))
		stdout, err := r.executor.Execute(ctx, resp.Action)
		if err != nil {
			return err
		}
		if strings.TrimSpace(stdout) != "" {
			fmt.Fprintln(out, strings.TrimRight(stdout, "\n"))
		} else {
			fmt.Fprintln(out, renderOK("done"))
		}
		r.recordTurn("user", text)
		r.recordTurn("assistant", "executed: "+resp.Action.String())
		return nil
	case classify.KindCreateFile:
		if _, err := os.Stat(resp.File.Name); err == nil {
			return fmt.Errorf("refusing to overwrite existing file %q", resp.File.Name)
		}
		if err := os.WriteFile(resp.File.Name, []byte(resp.File.Content), 0o644); err != nil {
			return fmt.Errorf("create file %q: %w", resp.File.Name, err)
		}
		fmt.Fprintln(out, renderOK("created "+resp.File.Name))
		r.recordTurn("user", text)
		r.recordTurn("assistant", "created file: "+resp.File.Name)
		return nil
	default:
		fmt.Fprintln(out, renderMarkdown(resp.Text))
		r.recordTurn("user", text)
		r.recordTurn("assistant", resp.Text)
		return nil
	}
}

// runTool resolves free text to a registered tool and executes it.
func (r *Router) runTool(ctx context.Context, rest string, out io.Writer) error {
	if rest == "" {
		return r.listTools(out)
	}
	sel, err := r.selector.Select(ctx, rest)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderDim("-> tool "+sel.Tool.Name))
	stdout, err := r.tools.Execute(ctx, r.runner, r.ops, sel.Tool.Name, sel.Params)
	if err != nil {
		return err
	}
	if strings.TrimSpace(stdout) != "" {
		fmt.Fprintln(out, strings.TrimRight(stdout, "\n"))
	} else {
		fmt.Fprintln(out, renderOK("done"))
	}
	return nil
}

func (r *Router) localStatus() string {
	return fmt.Sprintf("local model: %s (state: %s)", r.session.Model(), r.session.State())
}

// logPrompt appends to the daily prompt log; failures are reported but
// never abort the command.
func (r *Router) logPrompt(out io.Writer, modelName, prompt string) {
	if r.logger == nil {
		return
	}
	if err := r.logger.Append(modelName, prompt); err != nil {
		fmt.Fprintln(out, renderDim("log: "+err.Error()))
	}
}

// recordTurn persists a conversation turn for the history command. A
// storage failure never blocks the command that produced the turn.
func (r *Router) recordTurn(role, content string) {
	if r.store == nil || r.sessionID == "" || strings.TrimSpace(content) == "" {
		return
	}
	_ = r.store.AppendMessage(r.sessionID, role, content)
}
