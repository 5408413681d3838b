package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// mockEngine implements Engine with function fields.
type mockEngine struct {
	chatFn    func(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error)
	embedFn   func(ctx context.Context, model string, text string) ([]float32, error)
	running   bool
	models    map[string]bool
	pulled    []string
	pullErr   error
}

func (m *mockEngine) Chat(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, model, messages, opts)
	}
	return "", nil
}

func (m *mockEngine) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, model, text)
	}
	return nil, nil
}

func (m *mockEngine) IsRunning(ctx context.Context) bool { return m.running }

func (m *mockEngine) HasModel(ctx context.Context, name string) bool { return m.models[name] }

func (m *mockEngine) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	if m.pullErr != nil {
		return m.pullErr
	}
	m.pulled = append(m.pulled, name)
	if onProgress != nil {
		onProgress(PullProgress{Status: "downloading", Total: 100, Completed: 50})
	}
	return nil
}

func TestEnsureReady_NotRunning(t *testing.T) {
	e := &mockEngine{running: false}
	err := EnsureReady(context.Background(), e, "llama3.2:latest", "nomic-embed-text", &bytes.Buffer{})
	if err == nil {
		t.Fatal("EnsureReady returned nil error when backend is down")
	}
}

func TestEnsureReady_AllModelsPresent(t *testing.T) {
	e := &mockEngine{
		running: true,
		models:  map[string]bool{"llama3.2:latest": true, "nomic-embed-text": true},
	}

	var out bytes.Buffer
	if err := EnsureReady(context.Background(), e, "llama3.2:latest", "nomic-embed-text", &out); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(e.pulled) != 0 {
		t.Errorf("pulled %v, want no pulls", e.pulled)
	}
	if !strings.Contains(out.String(), "llama3.2:latest: ready") {
		t.Errorf("output missing readiness line: %q", out.String())
	}
}

func TestEnsureReady_PullsMissingModels(t *testing.T) {
	e := &mockEngine{
		running: true,
		models:  map[string]bool{"llama3.2:latest": true},
	}

	var out bytes.Buffer
	if err := EnsureReady(context.Background(), e, "llama3.2:latest", "nomic-embed-text", &out); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(e.pulled) != 1 || e.pulled[0] != "nomic-embed-text" {
		t.Errorf("pulled %v, want [nomic-embed-text]", e.pulled)
	}
}

func TestEnsureReady_SameChatAndEmbedModel(t *testing.T) {
	e := &mockEngine{running: true, models: map[string]bool{}}

	if err := EnsureReady(context.Background(), e, "llama3.2:latest", "llama3.2:latest", &bytes.Buffer{}); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(e.pulled) != 1 {
		t.Errorf("pulled %v, want exactly one pull for shared model", e.pulled)
	}
}

func TestEnsureReady_PullFailure(t *testing.T) {
	e := &mockEngine{
		running: true,
		models:  map[string]bool{},
		pullErr: errors.New("registry unreachable"),
	}

	err := EnsureReady(context.Background(), e, "llama3.2:latest", "", &bytes.Buffer{})
	if err == nil {
		t.Fatal("EnsureReady returned nil error on pull failure")
	}
}
