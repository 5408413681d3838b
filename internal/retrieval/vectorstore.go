package retrieval

import "time"

// VectorStore is the interface for embedding storage and similarity search.
// The default implementation is SQLite with brute-force cosine similarity,
// which is comfortable for the per-user document counts this service sees.
type VectorStore interface {
	// Insert adds chunk records.
	Insert(records []Record) error

	// Search returns the top-K records most similar to the query vector.
	Search(vector []float32, topK int) ([]ScoredRecord, error)

	// DeleteByDocument removes all records belonging to a document.
	DeleteByDocument(documentID string) error

	// Count returns the number of stored records.
	Count() (int, error)
}

// Record is one embedded text chunk of an ingested document.
type Record struct {
	ID         string
	DocumentID string
	ChunkIndex int
	TextChunk  string
	Embedding  []float32
	CreatedAt  time.Time
}

// ScoredRecord is a Record with a similarity score attached.
type ScoredRecord struct {
	Record
	Score float32
}
