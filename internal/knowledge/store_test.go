package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ruslanv/pdfchat/internal/engine"
	"github.com/ruslanv/pdfchat/internal/retrieval"
	"github.com/ruslanv/pdfchat/internal/storage"
)

type mockEngine struct {
	chatFn  func(ctx context.Context, model string, messages []engine.Message, opts engine.ChatOptions) (string, error)
	embedFn func(ctx context.Context, model, text string) ([]float32, error)
}

func (m *mockEngine) Chat(ctx context.Context, model string, messages []engine.Message, opts engine.ChatOptions) (string, error) {
	return m.chatFn(ctx, model, messages, opts)
}

func (m *mockEngine) Embed(ctx context.Context, model, text string) ([]float32, error) {
	return m.embedFn(ctx, model, text)
}

func (m *mockEngine) IsRunning(ctx context.Context) bool             { return true }
func (m *mockEngine) HasModel(ctx context.Context, name string) bool { return true }
func (m *mockEngine) PullModel(ctx context.Context, name string, onProgress func(engine.PullProgress)) error {
	return nil
}

type mockVectorStore struct {
	records  []retrieval.Record
	insertFn func(records []retrieval.Record) error
	searchFn func(vector []float32, topK int) ([]retrieval.ScoredRecord, error)
}

func (m *mockVectorStore) Insert(records []retrieval.Record) error {
	if m.insertFn != nil {
		return m.insertFn(records)
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *mockVectorStore) Search(vector []float32, topK int) ([]retrieval.ScoredRecord, error) {
	if m.searchFn != nil {
		return m.searchFn(vector, topK)
	}
	return nil, nil
}

func (m *mockVectorStore) DeleteByDocument(documentID string) error {
	kept := m.records[:0]
	for _, r := range m.records {
		if r.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

func (m *mockVectorStore) Count() (int, error) { return len(m.records), nil }

func newTestStore(t *testing.T, e engine.Engine, vectors retrieval.VectorStore) *Store {
	t.Helper()
	docs, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening document store: %v", err)
	}
	t.Cleanup(func() { docs.Close() })

	return NewStore(e, retrieval.NewEmbedder(e, "test-embed"), vectors, docs, Options{
		ChatModel:   "test-chat",
		MaxTokens:   250,
		Temperature: 0.5,
		TopK:        3,
	})
}

func TestIngest_StoresVectorsAndDocument(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
	}
	vectors := &mockVectorStore{}
	s := newTestStore(t, eng, vectors)

	doc, err := s.Ingest(context.Background(), "report.pdf", "quarterly revenue grew by ten percent", "direct", 4)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if doc.Filename != "report.pdf" || doc.Method != "direct" || doc.PageCount != 4 {
		t.Errorf("document = %+v", doc)
	}
	if len(vectors.records) == 0 {
		t.Fatal("no vector records stored")
	}
	for i, r := range vectors.records {
		if r.DocumentID != doc.ID {
			t.Errorf("record %d DocumentID = %q, want %q", i, r.DocumentID, doc.ID)
		}
		if r.ChunkIndex != i {
			t.Errorf("record %d ChunkIndex = %d", i, r.ChunkIndex)
		}
	}

	listed, err := s.Documents()
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != doc.ID {
		t.Errorf("Documents() = %+v", listed)
	}
}

func TestIngest_EmptyContent(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			t.Error("embed called for empty content")
			return nil, nil
		},
	}
	s := newTestStore(t, eng, &mockVectorStore{})

	_, err := s.Ingest(context.Background(), "blank.pdf", "   \n\t ", "ocr", 1)
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("err = %v, want ErrEmptyContent", err)
	}
}

func TestIngest_EmbedFailure(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return nil, errors.New("model unavailable")
		},
	}
	vectors := &mockVectorStore{}
	s := newTestStore(t, eng, vectors)

	_, err := s.Ingest(context.Background(), "doc.pdf", "some content here", "direct", 1)
	if err == nil {
		t.Fatal("Ingest returned nil error on embed failure")
	}
	if len(vectors.records) != 0 {
		t.Errorf("vectors stored despite embed failure: %d", len(vectors.records))
	}
}

func TestIngest_VectorInsertFailureLeavesNoDocument(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}
	vectors := &mockVectorStore{
		insertFn: func(records []retrieval.Record) error {
			return errors.New("disk full")
		},
	}
	s := newTestStore(t, eng, vectors)

	_, err := s.Ingest(context.Background(), "doc.pdf", "some content here", "direct", 1)
	if err == nil {
		t.Fatal("Ingest returned nil error on vector insert failure")
	}
	docs, err := s.Documents()
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("document row left behind after failed ingest: %+v", docs)
	}
}

func TestQuery_GroundsAnswerInContext(t *testing.T) {
	var gotMessages []engine.Message
	var gotOpts engine.ChatOptions
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
		chatFn: func(ctx context.Context, model string, messages []engine.Message, opts engine.ChatOptions) (string, error) {
			gotMessages = messages
			gotOpts = opts
			return "Revenue grew ten percent.", nil
		},
	}
	vectors := &mockVectorStore{
		searchFn: func(vector []float32, topK int) ([]retrieval.ScoredRecord, error) {
			if topK != 3 {
				t.Errorf("topK = %d, want 3", topK)
			}
			return []retrieval.ScoredRecord{
				{Record: retrieval.Record{TextChunk: "revenue grew ten percent"}, Score: 0.9},
			}, nil
		},
	}
	s := newTestStore(t, eng, vectors)

	answer, err := s.Query(context.Background(), "how did revenue do?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "Revenue grew ten percent." {
		t.Errorf("answer = %q", answer)
	}

	if len(gotMessages) != 2 || gotMessages[0].Role != "system" || gotMessages[1].Role != "user" {
		t.Fatalf("messages = %+v", gotMessages)
	}
	if !strings.Contains(gotMessages[1].Content, "revenue grew ten percent") {
		t.Errorf("user prompt missing retrieved context: %q", gotMessages[1].Content)
	}
	if !strings.Contains(gotMessages[1].Content, "how did revenue do?") {
		t.Errorf("user prompt missing question: %q", gotMessages[1].Content)
	}
	if gotOpts.MaxTokens != 250 || gotOpts.Temperature != 0.5 {
		t.Errorf("opts = %+v", gotOpts)
	}
}

func TestQuery_EmptyStorePassesQuestionThrough(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{1}, nil
		},
		chatFn: func(ctx context.Context, model string, messages []engine.Message, opts engine.ChatOptions) (string, error) {
			if got := messages[1].Content; got != "what is this about?" {
				t.Errorf("user prompt = %q, want bare question", got)
			}
			return "I don't have any documents yet.", nil
		},
	}
	s := newTestStore(t, eng, &mockVectorStore{})

	if _, err := s.Query(context.Background(), "what is this about?"); err != nil {
		t.Fatalf("Query: %v", err)
	}
}

func TestQuery_ChatFailure(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{1}, nil
		},
		chatFn: func(ctx context.Context, model string, messages []engine.Message, opts engine.ChatOptions) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	s := newTestStore(t, eng, &mockVectorStore{})

	if _, err := s.Query(context.Background(), "anything"); err == nil {
		t.Fatal("Query returned nil error on chat failure")
	}
}

func TestRemoveDocument_DeletesVectors(t *testing.T) {
	eng := &mockEngine{
		embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}
	vectors := &mockVectorStore{}
	s := newTestStore(t, eng, vectors)

	doc, err := s.Ingest(context.Background(), "a.pdf", "content for document a", "direct", 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := s.RemoveDocument(doc.ID); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if n, _ := vectors.Count(); n != 0 {
		t.Errorf("vectors remaining after delete: %d", n)
	}
	if docs, _ := s.Documents(); len(docs) != 0 {
		t.Errorf("documents remaining after delete: %d", len(docs))
	}
}

func TestRemoveDocument_NotFound(t *testing.T) {
	s := newTestStore(t, &mockEngine{}, &mockVectorStore{})
	if err := s.RemoveDocument("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
