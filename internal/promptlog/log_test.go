package promptlog

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendAndLoadAll(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)
	day1 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)

	l.now = func() time.Time { return day1 }
	if err := l.Append("local", "open excel"); err != nil {
		t.Fatal(err)
	}
	if err := l.Append("claude", "summarize my notes"); err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time { return day2 }
	if err := l.Append("local", "compile paper"); err != nil {
		t.Fatal(err)
	}

	entries, err := LoadAll(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("len=%d", len(entries))
	}
	// Day files load oldest first.
	if !strings.HasPrefix(entries[0].Timestamp, "2026-08-24") ||
		!strings.HasPrefix(entries[2].Timestamp, "2026-08-25") {
		t.Fatalf("entries=%v", entries)
	}
	if entries[0].Session == 0 {
		t.Fatal("session must carry the process id")
	}
}

func TestLoadAllMissingDirIsEmpty(t *testing.T) {
	entries, err := LoadAll(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("entries=%v", entries)
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Timestamp: "2026-08-24T10:00:00Z", Model: "local", Prompt: "open excel"},
		{Timestamp: "2026-08-24T11:00:00Z", Model: "claude", Prompt: "explain channels in go"},
		{Timestamp: "2026-08-25T09:00:00Z", Model: "local", Prompt: "compile paper"},
	}
	s := Summarize(entries)
	if s.Total != 3 {
		t.Fatalf("total=%d", s.Total)
	}
	if s.ByModel["local"] != 2 || s.ByModel["claude"] != 1 {
		t.Fatalf("byModel=%v", s.ByModel)
	}
	if s.ByDay["2026-08-24"] != 2 || s.ByDay["2026-08-25"] != 1 {
		t.Fatalf("byDay=%v", s.ByDay)
	}
	if s.EstimatedTokens <= 0 {
		t.Fatalf("tokens=%d", s.EstimatedTokens)
	}

	rendered := s.Render()
	for _, want := range []string{"Prompts logged: 3", "local", "2026-08-24"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered=%q missing %q", rendered, want)
		}
	}
}
