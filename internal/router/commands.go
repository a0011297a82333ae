package router

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hebbarp/c9ai/internal/config"
	"github.com/hebbarp/c9ai/internal/platform"
	"github.com/hebbarp/c9ai/internal/promptlog"
	"github.com/hebbarp/c9ai/internal/todo"
	"github.com/hebbarp/c9ai/internal/toolreg"
)

// runNamedCommand dispatches the first-word commands. Returns handled=false
// when the word is not a command, letting free text fall through to the
// classifier.
func (r *Router) runNamedCommand(ctx context.Context, name, rest string, out io.Writer) (bool, error) {
	switch name {
	case "claude", "gemini":
		return true, r.runCloud(ctx, name, rest, out)
	case "switch":
		return true, r.cmdSwitch(rest, out)
	case "todos":
		return true, r.cmdTodos(out)
	case "add":
		return true, r.cmdAdd(rest, out)
	case "scan":
		return true, r.cmdScan(ctx, out)
	case "analytics":
		return true, r.cmdAnalytics(out)
	case "tools":
		return true, r.cmdTools(rest, out)
	case "models":
		return true, r.cmdModels(ctx, rest, out)
	case "issues":
		return true, r.cmdIssues(ctx, rest, out)
	case "achieve", "goal":
		return true, r.cmdAchieve(ctx, rest, out)
	case "config":
		return true, r.cmdConfig(rest, out)
	case "history":
		return true, r.cmdHistory(rest, out)
	case "help":
		fmt.Fprintln(out, helpText())
		return true, nil
	case "logo", "banner":
		fmt.Fprintln(out, Banner())
		return true, nil
	default:
		return false, nil
	}
}

// cmdSwitch changes the default model and persists immediately.
func (r *Router) cmdSwitch(rest string, out io.Writer) error {
	target := strings.ToLower(strings.TrimSpace(rest))
	if target == "" {
		fmt.Fprintf(out, "Current model: %s. Usage: switch <%s>\n",
			r.cfg.DefaultModel, strings.Join(config.KnownModels, "|"))
		return nil
	}
	if !config.IsKnownModel(target) {
		return fmt.Errorf("unknown model %q (want one of %s)", target, strings.Join(config.KnownModels, ", "))
	}
	r.cfg.DefaultModel = target
	if err := config.Save(r.paths.ConfigFile, *r.cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, renderOK("Default model is now "+target))
	return nil
}

func (r *Router) cmdTodos(out io.Writer) error {
	items, err := todo.Load(r.todoFile)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, renderDim("No todos. Use: add <description>"))
		return nil
	}
	for i, item := range items {
		box := "[ ]"
		if item.Done {
			box = "[x]"
		}
		line := fmt.Sprintf("%2d. %s %s", i+1, box, item.Description)
		if item.Action != nil {
			line += renderDim("  (" + item.Action.String() + ")")
		}
		if item.ActionErr != nil {
			line += renderDim("  (action ignored: " + item.ActionErr.Error() + ")")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func (r *Router) cmdAdd(rest string, out io.Writer) error {
	if err := todo.Add(r.todoFile, rest); err != nil {
		return err
	}
	fmt.Fprintln(out, renderOK("added: "+strings.TrimSpace(rest)))
	return nil
}

// cmdScan walks pending todos and executes their action annotations. One
// failing item is reported and the scan moves on.
func (r *Router) cmdScan(ctx context.Context, out io.Writer) error {
	items, err := todo.Load(r.todoFile)
	if err != nil {
		return err
	}
	ran := 0
	for _, item := range items {
		if item.Done || item.Action == nil {
			continue
		}
		ran++
		fmt.Fprintln(out, renderDim("-> "+item.Action.String()+"  ("+item.Description+")"))
		if stdout, err := r.executor.Execute(ctx, *item.Action); err != nil {
			renderError(out, err)
		} else if strings.TrimSpace(stdout) != "" {
			fmt.Fprintln(out, strings.TrimRight(stdout, "\n"))
		}
	}
	if ran == 0 {
		fmt.Fprintln(out, renderDim("No pending actionable todos."))
	}
	return nil
}

func (r *Router) cmdAnalytics(out io.Writer) error {
	entries, err := r.logger.LoadAll()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, promptlog.Summarize(entries).Render())
	return nil
}

// cmdTools manages the tool registry: list, show, add, remove.
func (r *Router) cmdTools(rest string, out io.Writer) error {
	sub, args := splitFirstToken(rest)
	switch strings.ToLower(sub) {
	case "", "list":
		return r.listTools(out)
	case "show":
		name := strings.TrimSpace(args)
		d, ok := r.tools.Get(name)
		if !ok {
			return fmt.Errorf("unknown tool: %s", name)
		}
		fmt.Fprintf(out, "%s: %s\n  command: %s\n", d.Name, d.Description, d.Command)
		for fam, cmd := range d.PlatformCommands {
			fmt.Fprintf(out, "  command[%s]: %s\n", fam, cmd)
		}
		for _, pname := range sortedParamNames(d.Parameters) {
			p := d.Parameters[pname]
			req := ""
			if p.Required {
				req = " (required)"
			}
			fmt.Fprintf(out, "  param %s: %s%s\n", pname, p.Description, req)
		}
		return nil
	case "add":
		// tools add <name> <command template...>
		name, command := splitFirstToken(args)
		if name == "" || command == "" {
			fmt.Fprintln(out, "usage: tools add <name> <command template>")
			return nil
		}
		d := toolreg.Descriptor{Name: name, Command: command, Parameters: map[string]toolreg.Parameter{}}
		for _, pname := range toolreg.Placeholders(command) {
			d.Parameters[pname] = toolreg.Parameter{Type: "string", Required: true}
		}
		if err := r.tools.Add(d); err != nil {
			return err
		}
		fmt.Fprintln(out, renderOK("registered tool "+name))
		return nil
	case "remove":
		name := strings.TrimSpace(args)
		if err := r.tools.Remove(name); err != nil {
			return err
		}
		fmt.Fprintln(out, renderOK("removed tool "+name))
		return nil
	default:
		fmt.Fprintln(out, "usage: tools [list|show <name>|add <name> <command>|remove <name>]")
		return nil
	}
}

func (r *Router) listTools(out io.Writer) error {
	names := r.tools.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, renderDim("No tools registered. Use: tools add <name> <command>"))
		return nil
	}
	for _, name := range names {
		d, _ := r.tools.Get(name)
		desc := d.Description
		if desc == "" {
			desc = d.Command
		}
		fmt.Fprintf(out, "  %-16s %s\n", name, desc)
	}
	return nil
}

func sortedParamNames(params map[string]toolreg.Parameter) []string {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// cmdModels manages local model files under the models directory.
func (r *Router) cmdModels(ctx context.Context, rest string, out io.Writer) error {
	sub, args := splitFirstToken(rest)
	switch strings.ToLower(sub) {
	case "", "list":
		entries, err := os.ReadDir(r.paths.ModelsDir)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read models dir: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, renderDim("No local model files in "+r.paths.ModelsDir))
			return nil
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "  %-40s %.1f MB\n", e.Name(), float64(info.Size())/(1024*1024))
		}
		return nil
	case "status":
		fmt.Fprintln(out, r.localStatus())
		return nil
	case "install":
		name := strings.TrimSpace(args)
		if name == "" {
			fmt.Fprintln(out, "usage: models install <name>")
			return nil
		}
		if r.fetcher == nil {
			return fmt.Errorf("model downloads are not configured")
		}
		if err := os.MkdirAll(r.paths.ModelsDir, 0o755); err != nil {
			return fmt.Errorf("create models dir: %w", err)
		}
		if err := r.fetcher(ctx, name, r.paths.ModelsDir); err != nil {
			return fmt.Errorf("install model %q: %w", name, err)
		}
		fmt.Fprintln(out, renderOK("installed "+name))
		return nil
	case "remove":
		name := filepath.Base(strings.TrimSpace(args))
		if name == "" || name == "." {
			fmt.Fprintln(out, "usage: models remove <file>")
			return nil
		}
		if err := os.Remove(filepath.Join(r.paths.ModelsDir, name)); err != nil {
			return fmt.Errorf("remove model %q: %w", name, err)
		}
		fmt.Fprintln(out, renderOK("removed "+name))
		return nil
	default:
		fmt.Fprintln(out, "usage: models [list|status|install <name>|remove <file>]")
		return nil
	}
}

// cmdIssues shells out to the GitHub CLI; the assistant adds nothing on top.
func (r *Router) cmdIssues(ctx context.Context, rest string, out io.Writer) error {
	args := []string{"gh", "issue"}
	if strings.TrimSpace(rest) == "" {
		args = append(args, "list")
	} else {
		args = append(args, strings.Fields(rest)...)
	}
	res, err := r.runner.Run(ctx, args, platform.RunOptions{Capture: true, TimeoutMS: shellTimeoutMS})
	if err != nil {
		return fmt.Errorf("gh: %w (is the GitHub CLI installed?)", err)
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("gh issue: %w", err)
	}
	fmt.Fprintln(out, strings.TrimRight(res.Stdout, "\n"))
	return nil
}

// cmdAchieve prints a goal-achievement plan: model-written when the local
// session is ready, a deterministic skeleton otherwise.
func (r *Router) cmdAchieve(ctx context.Context, rest string, out io.Writer) error {
	topic := strings.TrimSpace(rest)
	if topic == "" {
		fmt.Fprintln(out, "usage: achieve <goal>")
		return nil
	}
	_ = r.session.Initialize(ctx)
	r.logPrompt(out, "local", "achieve "+topic)
	plan, err := r.sup.Generate(ctx, topic)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderMarkdown(plan))
	return nil
}

func (r *Router) cmdConfig(rest string, out io.Writer) error {
	sub, args := splitFirstToken(rest)
	switch strings.ToLower(sub) {
	case "", "show":
		fmt.Fprintf(out, "defaultModel: %s\nlastUpdated:  %s\nbaseDir:      %s\n",
			r.cfg.DefaultModel, orDash(r.cfg.LastUpdated), r.paths.BaseDir)
		return nil
	case "set", "model":
		target := args
		if strings.ToLower(sub) == "set" {
			key, value := splitFirstToken(args)
			if !strings.EqualFold(key, "model") {
				return fmt.Errorf("unknown config key %q", key)
			}
			target = value
		}
		return r.cmdSwitch(target, out)
	default:
		fmt.Fprintln(out, "usage: config [show|set model <name>]")
		return nil
	}
}

// cmdHistory lists stored sessions, or replays one by ID.
func (r *Router) cmdHistory(rest string, out io.Writer) error {
	if r.store == nil {
		fmt.Fprintln(out, renderDim("Session history is disabled."))
		return nil
	}
	id := strings.TrimSpace(rest)
	if id == "" {
		metas, err := r.store.ListSessions()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Fprintln(out, renderDim("No stored sessions."))
			return nil
		}
		for _, m := range metas {
			fmt.Fprintf(out, "  %-24s %-8s %s  %s\n", m.ID, m.Model, m.UpdatedAt, m.CWD)
		}
		return nil
	}
	msgs, err := r.store.LoadMessages(id)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out, renderDim("No messages for session "+id))
		return nil
	}
	for _, m := range msgs {
		fmt.Fprintf(out, "%s %s: %s\n", renderDim(m.CreatedAt), m.Role, m.Content)
	}
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func helpText() string {
	return strings.TrimSpace(`
Commands
  claude [text]        Cloud session (interactive) or one-shot prompt
  gemini [text]        Same, for the gemini CLI
  switch <model>       Set the default model (claude|gemini|local)
  todos                List todo.md items
  add <text>           Append a todo item
  scan                 Execute @action annotations of pending todos
  analytics            Prompt-log usage summary
  tools [...]          list | show <name> | add <name> <cmd> | remove <name>
  models [...]         list | status | install <name> | remove <file>
  issues [...]         GitHub issues via the gh CLI
  achieve <goal>       Generate an achievement plan
  config [...]         show | set model <name>
  history [id]         Stored sessions, or one session's transcript
  help                 This text
  exit | quit          Leave (exit! forces immediate termination)

Sigils
  !<cmd>               Run a shell command (cd changes this process's cwd)
  @claude @gemini      Force a cloud model
  @local               Force the local classifier path
  @conv @chat          Treat text as conversation
  @cmd @command        Treat text as an actionable command
  @tool <text>         Route text to a registered tool

Anything else is classified: actionable text becomes an intent and runs,
conversational text goes to the default model.`)
}
