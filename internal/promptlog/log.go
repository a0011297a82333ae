package promptlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one logged prompt. The session field is the process ID, so one
// REPL run groups together across the day files.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Session   int    `json:"session"`
}

// Logger appends prompt entries to one JSON array per calendar day under
// the logs directory. Appending is read-modify-write of the whole file; the
// arrays stay small (one day of interactive use).
type Logger struct {
	dir     string
	session int
	now     func() time.Time
}

func NewLogger(dir string) *Logger {
	return &Logger{dir: dir, session: os.Getpid(), now: time.Now}
}

// Append records a prompt against the model that handled it.
func (l *Logger) Append(model, prompt string) error {
	now := l.now().UTC()
	path := filepath.Join(l.dir, now.Format("2006-01-02")+".json")

	entries, err := readDay(path)
	if err != nil {
		return err
	}
	entries = append(entries, Entry{
		Timestamp: now.Format(time.RFC3339),
		Model:     model,
		Prompt:    prompt,
		Session:   l.session,
	})

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal log entries: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write log %q: %w", path, err)
	}
	return nil
}

// LoadAll reads every day file of this logger's directory.
func (l *Logger) LoadAll() ([]Entry, error) {
	return LoadAll(l.dir)
}

// LoadAll reads every day file in the logs directory, oldest day first.
func LoadAll(dir string) ([]Entry, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read logs dir %q: %w", dir, err)
	}

	files := make([]string, 0, len(names))
	for _, e := range names {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var all []Entry
	for _, name := range files {
		entries, err := readDay(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

func readDay(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log %q: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse log %q: %w", path, err)
	}
	return entries, nil
}
