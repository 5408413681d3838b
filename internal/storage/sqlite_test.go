package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"documents", "document_vectors"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migrations: %v", table, err)
		}
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	s := openTestStore(t)

	// Re-running migrate on an already-migrated database must be a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	s := openTestStore(t)

	doc := Document{
		ID:        "doc-1",
		Filename:  "contract.pdf",
		Method:    "direct",
		PageCount: 3,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	got, err := s.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Filename != "contract.pdf" {
		t.Errorf("Filename = %q, want %q", got.Filename, "contract.pdf")
	}
	if got.Method != "direct" {
		t.Errorf("Method = %q, want %q", got.Method, "direct")
	}
	if got.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", got.PageCount)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, doc.CreatedAt)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetDocument("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDocuments_OrderedAndDuplicateFilenames(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Same filename twice: the knowledge base does not deduplicate.
	for i, id := range []string{"a", "b", "c"} {
		filename := "scan.pdf"
		if id == "b" {
			filename = "contract.pdf"
		}
		err := s.SaveDocument(Document{
			ID:        id,
			Filename:  filename,
			Method:    "ocr",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveDocument(%s): %v", id, err)
		}
	}

	docs, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	if docs[0].ID != "a" || docs[1].ID != "b" || docs[2].ID != "c" {
		t.Errorf("order = %s,%s,%s, want a,b,c", docs[0].ID, docs[1].ID, docs[2].ID)
	}
}

func TestDeleteDocument(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveDocument(Document{ID: "doc-1", Filename: "x.pdf", Method: "direct"}); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if err := s.DeleteDocument("doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument("doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("document still present after delete")
	}

	if err := s.DeleteDocument("doc-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
