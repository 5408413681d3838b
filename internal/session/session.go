// Package session holds per-conversation state: chat history, the list
// of documents a user has added, and the status line describing what the
// server is currently doing with their upload.
package session

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// State is the coarse lifecycle phase of a session's current upload.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateExtracting State = "extracting"
	StateIngesting  State = "ingesting"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Message is one chat exchange entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a single conversation's state. All methods are safe for
// concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	uploadDir string

	mu            sync.Mutex
	state         State
	status        string
	messages      []Message
	knowledgeBase []string
}

// newSession creates a session with its own temp directory for uploads.
func newSession(id string) (*Session, error) {
	dir, err := os.MkdirTemp("", "pdfchat-upload-")
	if err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		uploadDir: dir,
		state:     StateIdle,
	}, nil
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UploadDir is the session-private directory uploaded files are saved to.
func (s *Session) UploadDir() string { return s.uploadDir }

// SetState updates the lifecycle state and the human-readable status line.
func (s *Session) SetState(state State, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.status = status
}

// Snapshot returns a consistent copy of the session's mutable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:            s.id,
		CreatedAt:     s.createdAt,
		State:         s.state,
		Status:        s.status,
		Messages:      append([]Message(nil), s.messages...),
		KnowledgeBase: append([]string(nil), s.knowledgeBase...),
	}
}

// AppendMessage adds one entry to the chat history.
func (s *Session) AppendMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the chat history in order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// AddToKnowledgeBase records a filename in the session's document list.
// Uploading the same filename twice records it twice; the list mirrors
// what the user did, not a set of distinct names.
func (s *Session) AddToKnowledgeBase(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knowledgeBase = append(s.knowledgeBase, filename)
}

// ClearChat empties the chat history. The knowledge base list and status
// are untouched.
func (s *Session) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Close removes the session's upload directory.
func (s *Session) Close() error {
	return os.RemoveAll(s.uploadDir)
}

// Snapshot is a point-in-time copy of a session for rendering.
type Snapshot struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	State         State     `json:"state"`
	Status        string    `json:"status"`
	Messages      []Message `json:"messages"`
	KnowledgeBase []string  `json:"knowledge_base"`
}
