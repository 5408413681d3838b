package session

import (
	"os"
	"sync"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	t.Cleanup(func() { m.CloseAll() })
	return m
}

func TestCreate_AssignsIDAndUploadDir(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if s.ID() == "" {
		t.Error("session has empty id")
	}
	if info, err := os.Stat(s.UploadDir()); err != nil || !info.IsDir() {
		t.Errorf("upload dir %q not usable: %v", s.UploadDir(), err)
	}

	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}
}

func TestGet_UnknownID(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Get("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSession_StateAndStatus(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.Create()

	snap := s.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("initial state = %q, want %q", snap.State, StateIdle)
	}

	s.SetState(StateExtracting, "No selectable text found in scan.pdf, performing OCR...")
	snap = s.Snapshot()
	if snap.State != StateExtracting {
		t.Errorf("state = %q", snap.State)
	}
	if snap.Status != "No selectable text found in scan.pdf, performing OCR..." {
		t.Errorf("status = %q", snap.Status)
	}
}

func TestSession_MessagesAppendOnly(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.Create()

	s.AppendMessage("user", "hello")
	s.AppendMessage("assistant", "hi there")

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("messages[0] = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hi there" {
		t.Errorf("messages[1] = %+v", msgs[1])
	}

	// Mutating the returned slice must not affect the session.
	msgs[0].Content = "tampered"
	if s.Messages()[0].Content != "hello" {
		t.Error("Messages() returned internal slice")
	}
}

func TestSession_KnowledgeBaseAllowsDuplicates(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.Create()

	s.AddToKnowledgeBase("report.pdf")
	s.AddToKnowledgeBase("report.pdf")

	kb := s.Snapshot().KnowledgeBase
	if len(kb) != 2 {
		t.Fatalf("knowledge base = %v, want two entries", kb)
	}
}

func TestSession_ClearChatKeepsKnowledgeBase(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.Create()

	s.AppendMessage("user", "hello")
	s.AddToKnowledgeBase("report.pdf")
	s.SetState(StateReady, "Processed and added report.pdf to the knowledge base!")

	s.ClearChat()

	snap := s.Snapshot()
	if len(snap.Messages) != 0 {
		t.Errorf("messages after clear = %v", snap.Messages)
	}
	if len(snap.KnowledgeBase) != 1 {
		t.Errorf("knowledge base after clear = %v", snap.KnowledgeBase)
	}
	if snap.Status == "" {
		t.Error("status wiped by ClearChat")
	}
}

func TestRemove_ClosesSession(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.Create()
	dir := s.UploadDir()

	if err := m.Remove(s.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("upload dir still exists after Remove")
	}
	if _, err := m.Get(s.ID()); err != ErrNotFound {
		t.Errorf("Get after Remove: err = %v", err)
	}
}

func TestCloseAll_RemovesEverySession(t *testing.T) {
	m := NewManager()
	var dirs []string
	for i := 0; i < 3; i++ {
		s, err := m.Create()
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		dirs = append(dirs, s.UploadDir())
	}

	if err := m.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count after CloseAll = %d", m.Count())
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("upload dir %q still exists", d)
		}
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	m := newTestManager(t)
	s, _ := m.Create()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendMessage("user", "msg")
			s.AddToKnowledgeBase("f.pdf")
			s.SetState(StateReady, "ok")
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if got := len(s.Messages()); got != 10 {
		t.Errorf("len(messages) = %d, want 10", got)
	}
}
