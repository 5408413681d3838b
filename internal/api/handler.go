// Package api exposes the session, upload, chat, and document endpoints
// over HTTP, plus an MCP server for agent clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ruslanv/pdfchat/internal/extract"
	"github.com/ruslanv/pdfchat/internal/session"
	"github.com/ruslanv/pdfchat/internal/storage"
)

const maxUploadSize = 50 << 20 // 50MB
const maxRequestBodySize = 1 << 20

// Extractor turns an uploaded PDF into text. onOCRFallback fires when the
// file had no embedded text and OCR is about to start.
type Extractor interface {
	ExtractWithProgress(ctx context.Context, path string, onOCRFallback func()) (extract.Result, error)
}

// Knowledge is the knowledge-base surface the handlers need.
type Knowledge interface {
	Ingest(ctx context.Context, filename, text, method string, pageCount int) (storage.Document, error)
	Query(ctx context.Context, question string) (string, error)
	RemoveDocument(id string) error
	Documents() ([]storage.Document, error)
}

// Deps holds handler dependencies.
type Deps struct {
	Sessions  *session.Manager
	Knowledge Knowledge
	Extractor Extractor
	Token     string // empty disables auth
}

// NewHandler builds the HTTP API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	if deps.Token != "" {
		r.Use(BearerAuth(deps.Token))
	}

	r.Get("/health", handleHealth)

	r.Post("/sessions", handleCreateSession(deps))
	r.Get("/sessions/{id}", handleGetSession(deps))
	r.Post("/sessions/{id}/upload", handleUpload(deps))
	r.Post("/sessions/{id}/chat", handleChat(deps))
	r.Post("/sessions/{id}/clear", handleClearChat(deps))

	r.Get("/documents", handleListDocuments(deps))
	r.Delete("/documents/{id}", handleDeleteDocument(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Create()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create session: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": s.ID()})
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// handleUpload saves the uploaded PDF into the session directory, extracts
// its text (OCR fallback included), and ingests it into the knowledge
// base. The session status line tracks each phase and ends on the final
// outcome message.
func handleUpload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			s.SetState(session.StateError, "No file uploaded!")
			httpError(w, http.StatusBadRequest, "invalid_request_error", "No file uploaded!")
			return
		}
		defer file.Close()

		filename := filepath.Base(header.Filename)
		if !isPDF(header.Header.Get("Content-Type"), filename) {
			s.SetState(session.StateError, "No file uploaded!")
			httpError(w, http.StatusBadRequest, "invalid_request_error", "only application/pdf uploads are accepted")
			return
		}

		s.SetState(session.StateUploading, fmt.Sprintf("Uploading %s...", filename))

		path := filepath.Join(s.UploadDir(), filename)
		if err := saveUpload(path, file); err != nil {
			s.SetState(session.StateError, "File not saved properly or is empty!")
			httpError(w, http.StatusInternalServerError, "api_error", "File not saved properly or is empty!")
			return
		}

		s.SetState(session.StateExtracting, fmt.Sprintf("Extracting text from %s...", filename))

		res, err := deps.Extractor.ExtractWithProgress(r.Context(), path, func() {
			s.SetState(session.StateExtracting,
				fmt.Sprintf("No selectable text found in %s, performing OCR...", filename))
		})
		if errors.Is(err, extract.ErrNoUsableText) {
			status := fmt.Sprintf("OCR failed to extract meaningful content from %s", filename)
			s.SetState(session.StateError, status)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"status": status})
			return
		}
		if err != nil {
			status := fmt.Sprintf("Failed to process %s. Error: %v", filename, err)
			s.SetState(session.StateError, status)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"status": status})
			return
		}

		s.SetState(session.StateIngesting, fmt.Sprintf("Adding %s to the knowledge base...", filename))

		doc, err := deps.Knowledge.Ingest(r.Context(), filename, res.Text, string(res.Method), res.PageCount)
		if err != nil {
			status := fmt.Sprintf("Failed to process %s. Error: %v", filename, err)
			s.SetState(session.StateError, status)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": status})
			return
		}

		status := fmt.Sprintf("Processed and added %s to the knowledge base!", filename)
		s.AddToKnowledgeBase(filename)
		s.SetState(session.StateReady, status)

		writeJSON(w, http.StatusOK, map[string]string{
			"status":      status,
			"document_id": doc.ID,
			"method":      string(res.Method),
		})
	}
}

func isPDF(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "application/pdf") {
		return true
	}
	// Browsers sometimes send octet-stream; fall back to the extension.
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		return strings.EqualFold(filepath.Ext(filename), ".pdf")
	}
	return false
}

// saveUpload writes the file and verifies it landed non-empty.
func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("empty upload")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errors.New("empty upload")
	}
	return nil
}

type chatRequest struct {
	Question string `json:"question"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		answer, err := deps.Knowledge.Query(r.Context(), req.Question)
		if err != nil {
			// History stays untouched on provider failure.
			httpError(w, http.StatusBadGateway, "api_error", "chat failed: %v", err)
			return
		}

		s.AppendMessage("user", req.Question)
		s.AppendMessage("assistant", answer)

		writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}

func handleClearChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		s.ClearChat()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func handleListDocuments(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := deps.Knowledge.Documents()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list documents: %v", err)
			return
		}
		if docs == nil {
			docs = []storage.Document{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleDeleteDocument(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Knowledge.RemoveDocument(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete document: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
