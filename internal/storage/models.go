package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Document is a knowledge-base entry: one ingested PDF.
type Document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Method    string    `json:"method"` // "direct" or "ocr"
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}
