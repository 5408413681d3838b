// Package knowledge ties extraction, embedding, and retrieval together:
// ingesting document text into the vector store and answering questions
// grounded in what was ingested.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ruslanv/pdfchat/internal/engine"
	"github.com/ruslanv/pdfchat/internal/retrieval"
	"github.com/ruslanv/pdfchat/internal/storage"
)

// ErrEmptyContent is returned when a document's text chunks down to nothing.
var ErrEmptyContent = errors.New("document has no content to ingest")

// Store ingests documents and answers questions against them.
type Store struct {
	engine    engine.Engine
	embedder  *retrieval.Embedder
	retriever *retrieval.Retriever
	vectors   retrieval.VectorStore
	docs      *storage.Store
	chunker   *Chunker
	logger    *slog.Logger

	chatModel   string
	maxTokens   int
	temperature float64
	topK        int
}

// Options configures a Store.
type Options struct {
	ChatModel   string
	MaxTokens   int
	Temperature float64
	TopK        int
}

// NewStore creates a knowledge Store wired to the given backends.
func NewStore(e engine.Engine, embedder *retrieval.Embedder, vectors retrieval.VectorStore, docs *storage.Store, opts Options) *Store {
	return &Store{
		engine:      e,
		embedder:    embedder,
		retriever:   retrieval.NewRetriever(embedder, vectors),
		vectors:     vectors,
		docs:        docs,
		chunker:     NewChunker(defaultChunkSize, defaultChunkOverlap),
		logger:      slog.Default(),
		chatModel:   opts.ChatModel,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		topK:        opts.TopK,
	}
}

// Ingest chunks and embeds text, stores the vectors, and records the
// document. Returns the stored document.
func (s *Store) Ingest(ctx context.Context, filename, text, method string, pageCount int) (storage.Document, error) {
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return storage.Document{}, ErrEmptyContent
	}

	vectors, err := s.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return storage.Document{}, fmt.Errorf("embedding chunks: %w", err)
	}

	now := time.Now().UTC()
	doc := storage.Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		Method:    method,
		PageCount: pageCount,
		CreatedAt: now,
	}

	records := make([]retrieval.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = retrieval.Record{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			TextChunk:  chunk,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	// The document row goes in first so document_vectors never holds
	// rows whose parent document does not exist.
	if err := s.docs.SaveDocument(doc); err != nil {
		return storage.Document{}, fmt.Errorf("recording document: %w", err)
	}
	if err := s.vectors.Insert(records); err != nil {
		if derr := s.docs.DeleteDocument(doc.ID); derr != nil {
			s.logger.Warn("removing document after failed vector insert",
				"id", doc.ID, "error", derr)
		}
		return storage.Document{}, fmt.Errorf("storing vectors: %w", err)
	}

	s.logger.Info("document ingested",
		"filename", filename, "method", method, "chunks", len(chunks), "pages", pageCount)
	return doc, nil
}

// Query retrieves relevant chunks for the question and asks the chat
// model for an answer grounded in them.
func (s *Store) Query(ctx context.Context, question string) (string, error) {
	chunks, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	messages := []engine.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(chunks, question)},
	}

	answer, err := s.engine.Chat(ctx, s.chatModel, messages, engine.ChatOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return answer, nil
}

// RemoveDocument deletes a document's metadata and all its vectors.
func (s *Store) RemoveDocument(id string) error {
	if err := s.docs.DeleteDocument(id); err != nil {
		return err
	}
	if err := s.vectors.DeleteByDocument(id); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Documents lists all ingested documents, oldest first.
func (s *Store) Documents() ([]storage.Document, error) {
	return s.docs.ListDocuments()
}
