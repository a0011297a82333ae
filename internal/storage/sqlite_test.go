package storage

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	id := NewSessionID()
	if !strings.HasPrefix(id, "sess_") {
		t.Fatalf("id=%q", id)
	}
	if err := store.CreateSession(SessionMeta{ID: id, Model: "local", CWD: "/tmp"}); err != nil {
		t.Fatal(err)
	}

	if err := store.AppendMessage(id, "user", "open excel"); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendMessage(id, "assistant", "executed: open excel"); err != nil {
		t.Fatal(err)
	}

	msgs, err := store.LoadMessages(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("msgs=%v", msgs)
	}

	metas, err := store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].ID != id || metas[0].Model != "local" {
		t.Fatalf("metas=%v", metas)
	}
	if metas[0].CreatedAt == "" || metas[0].UpdatedAt == "" {
		t.Fatalf("timestamps missing: %+v", metas[0])
	}
}

func TestLoadMessagesUnknownSessionIsEmpty(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	msgs, err := store.LoadMessages("sess_nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("msgs=%v", msgs)
	}
}

func TestCreateSessionRejectsDuplicateID(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	meta := SessionMeta{ID: "sess_fixed", Model: "local"}
	if err := store.CreateSession(meta); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateSession(meta); err == nil {
		t.Fatal("duplicate id must fail")
	}
}
