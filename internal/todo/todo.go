package todo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hebbarp/c9ai/internal/intent"
)

// Item is one checklist line of todo.md. The file is the source of truth
// and is parsed on every read; there is no cached state.
type Item struct {
	Description string
	Done        bool
	// Action is non-nil when the line carries a valid "@action: <verb>
	// <target>" annotation; ActionErr holds the parse failure otherwise
	// (unknown verbs are reported, never silently ignored).
	Action    *intent.Intent
	ActionErr error
	Raw       string
}

const actionMarker = "@action:"

// Load parses the todo file. A missing file is an empty list.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read todo file %q: %w", path, err)
	}

	var items []Item
	for _, line := range strings.Split(string(data), "\n") {
		item, ok := parseLine(line)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Add appends a new unchecked task line.
func Add(path, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return errors.New("empty todo description")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open todo file %q: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "- [ ] %s\n", description); err != nil {
		return fmt.Errorf("append todo: %w", err)
	}
	return nil
}

func parseLine(line string) (Item, bool) {
	trimmed := strings.TrimSpace(line)
	var done bool
	var body string
	switch {
	case strings.HasPrefix(trimmed, "- [ ] "):
		body = strings.TrimPrefix(trimmed, "- [ ] ")
	case strings.HasPrefix(trimmed, "- [x] "), strings.HasPrefix(trimmed, "- [X] "):
		done = true
		body = trimmed[len("- [x] "):]
	default:
		return Item{}, false
	}

	item := Item{Done: done, Raw: trimmed}
	if idx := strings.Index(body, actionMarker); idx >= 0 {
		spec := strings.TrimSpace(body[idx+len(actionMarker):])
		item.Description = strings.TrimSpace(body[:idx])
		if in, err := intent.Parse(spec); err == nil {
			item.Action = &in
		} else {
			item.ActionErr = err
		}
	} else {
		item.Description = strings.TrimSpace(body)
	}
	return item, true
}
