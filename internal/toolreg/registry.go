package toolreg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/hebbarp/c9ai/internal/platform"
)

var (
	namePattern        = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	placeholderPattern = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
)

// Parameter describes one template placeholder of a tool command.
type Parameter struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Descriptor is a registry entry mapping a name to a parameterized shell
// command template, optionally overridden per OS family.
type Descriptor struct {
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	Command          string               `json:"command"`
	PlatformCommands map[string]string    `json:"platform_commands,omitempty"`
	Parameters       map[string]Parameter `json:"parameters,omitempty"`
}

type registryFile struct {
	Tools               map[string]Descriptor `json:"tools"`
	ToolSelectionPrompt string                `json:"tool_selection_prompt"`
}

// Registry holds tool descriptors loaded from a JSON file. Every mutation
// rewrites the file wholesale; the watcher goroutine may Reload concurrently
// with REPL reads, hence the lock.
type Registry struct {
	mu   sync.RWMutex
	path string
	file registryFile
}

const defaultSelectionPrompt = `Select the tool that best matches the request. Reply with JSON only:
{"tool": "<name>", "parameters": {"<param>": "<value>"}}`

// Load reads the registry file; a missing file yields an empty registry
// bound to the same path.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the backing file, replacing in-memory state.
func (r *Registry) Reload() error {
	var file registryFile
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read tool registry %q: %w", r.path, err)
		}
	} else if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse tool registry %q: %w", r.path, err)
	}
	if file.Tools == nil {
		file.Tools = map[string]Descriptor{}
	}
	if strings.TrimSpace(file.ToolSelectionPrompt) == "" {
		file.ToolSelectionPrompt = defaultSelectionPrompt
	}
	// The map key is authoritative for the name.
	for key, d := range file.Tools {
		d.Name = key
		file.Tools[key] = d
	}

	r.mu.Lock()
	r.file = file
	r.mu.Unlock()
	return nil
}

// Add inserts a new descriptor and persists. The name must match
// [a-zA-Z_][a-zA-Z0-9_]* and be unique.
func (r *Registry) Add(d Descriptor) error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.file.Tools[d.Name]; exists {
		return fmt.Errorf("tool %q already registered", d.Name)
	}
	r.file.Tools[d.Name] = d
	return r.persistLocked()
}

// Update replaces an existing descriptor and persists.
func (r *Registry) Update(d Descriptor) error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.file.Tools[d.Name]; !exists {
		return fmt.Errorf("tool %q not registered", d.Name)
	}
	r.file.Tools[d.Name] = d
	return r.persistLocked()
}

// Remove deletes a descriptor and persists.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.file.Tools[name]; !exists {
		return fmt.Errorf("tool %q not registered", name)
	}
	delete(r.file.Tools, name)
	return r.persistLocked()
}

func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.file.Tools[name]
	return d, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.file.Tools))
	for name := range r.file.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

func (r *Registry) SelectionPrompt() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.file.ToolSelectionPrompt
}

func (r *Registry) Path() string { return r.path }

// persistLocked rewrites the registry file wholesale; callers hold mu.
func (r *Registry) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create tool registry dir: %w", err)
	}
	data, err := json.MarshalIndent(r.file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tool registry: %w", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write tool registry %q: %w", r.path, err)
	}
	return nil
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid tool name %q (want %s)", name, namePattern.String())
	}
	return nil
}

// Placeholders lists the {{param}} names of a command template in order of
// first appearance.
func Placeholders(command string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(command, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ExpandCommand resolves the per-family command template for d and fills
// {{param}} placeholders. Missing required parameters are an error; missing
// optional ones expand to the empty string.
func ExpandCommand(d Descriptor, params map[string]string, family platform.Family) (string, error) {
	command := d.Command
	if override, ok := d.PlatformCommands[string(family)]; ok && strings.TrimSpace(override) != "" {
		command = override
	}
	for name, p := range d.Parameters {
		if p.Required {
			if v, ok := params[name]; !ok || strings.TrimSpace(v) == "" {
				return "", fmt.Errorf("tool %q: missing required parameter %q", d.Name, name)
			}
		}
	}
	expanded := placeholderPattern.ReplaceAllStringFunc(command, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		return params[key]
	})
	return expanded, nil
}

// Execute expands the named tool and runs it through the platform shell,
// returning captured stdout.
func (r *Registry) Execute(ctx context.Context, runner platform.Runner, ops platform.Ops, name string, params map[string]string) (string, error) {
	d, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	command, err := ExpandCommand(d, params, ops.Family())
	if err != nil {
		return "", err
	}
	res, err := runner.Run(ctx, ops.ShellArgs(command), platform.RunOptions{Capture: true, TimeoutMS: 60000})
	if err != nil {
		return "", fmt.Errorf("execute tool %q: %w", name, err)
	}
	if err := res.Err(); err != nil {
		return res.Stdout, err
	}
	return res.Stdout, nil
}
