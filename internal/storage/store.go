package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionMeta describes one REPL session.
type SessionMeta struct {
	ID        string
	Model     string
	CWD       string
	CreatedAt string
	UpdatedAt string
}

// Message is one exchanged turn within a session.
type Message struct {
	Role      string
	Content   string
	CreatedAt string
}

// Store persists REPL sessions and their conversation turns for the
// history command.
type Store interface {
	CreateSession(meta SessionMeta) error
	ListSessions() ([]SessionMeta, error)
	AppendMessage(sessionID, role, content string) error
	LoadMessages(sessionID string) ([]Message, error)
	Close() error
}

// NewSessionID generates a new session ID.
func NewSessionID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("sess_%d_%s", time.Now().UTC().Unix(), hex.EncodeToString(buf))
}
