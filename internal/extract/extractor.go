// Package extract turns PDF files into plain text, preferring embedded
// text and falling back to OCR for scanned documents.
package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoUsableText is returned when neither direct extraction nor OCR
// produced anything beyond whitespace.
var ErrNoUsableText = errors.New("no usable text extracted")

// Method tags how the text of a Result was obtained.
type Method string

const (
	// MethodDirect means the PDF carried embedded (selectable) text.
	MethodDirect Method = "direct"
	// MethodOCR means the text came from rasterizing and recognizing pages.
	MethodOCR Method = "ocr"
)

// Result is the outcome of a successful extraction.
type Result struct {
	Method    Method
	Text      string
	PageCount int
}

// Engine is the OCR provider contract: one page image in, plain text out.
// The default implementation is Tesseract (see the tesseract subpackage);
// it lives behind this interface so the CGO dependency stays opt-in and
// tests can substitute fakes.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Extractor extracts text from PDF files.
type Extractor struct {
	raster Rasterizer
	ocr    Engine
	logger *slog.Logger

	// direct is swappable in tests.
	direct func(path string) (string, int, error)
}

// New creates an Extractor with the given rasterizer and OCR engine.
func New(raster Rasterizer, ocr Engine) *Extractor {
	return &Extractor{
		raster: raster,
		ocr:    ocr,
		logger: slog.Default(),
		direct: directText,
	}
}

// Extract returns the text of the PDF at path. Embedded text wins; when a
// parseable PDF yields only whitespace, pages are rasterized, preprocessed,
// and OCR'd one by one. A parse error during direct extraction aborts
// without attempting OCR. If OCR also yields only whitespace, the error is
// ErrNoUsableText.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	return e.ExtractWithProgress(ctx, path, nil)
}

// ExtractWithProgress is Extract with a hook: onOCRFallback, if non-nil,
// is called once just before OCR starts, so callers can report that a
// document had no embedded text.
func (e *Extractor) ExtractWithProgress(ctx context.Context, path string, onOCRFallback func()) (Result, error) {
	text, pages, err := e.direct(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading pdf: %w", err)
	}

	if strings.TrimSpace(text) != "" {
		return Result{Method: MethodDirect, Text: text, PageCount: pages}, nil
	}

	e.logger.Info("no embedded text found, falling back to OCR", "path", path)
	if onOCRFallback != nil {
		onOCRFallback()
	}

	ocrText, ocrPages, err := e.extractWithOCR(ctx, path)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(ocrText) == "" {
		return Result{}, ErrNoUsableText
	}

	return Result{Method: MethodOCR, Text: ocrText, PageCount: ocrPages}, nil
}

// extractWithOCR rasterizes every page, preprocesses each image, and runs
// OCR per page. A failing page is logged and skipped; it contributes no
// text. Page texts are joined with blank lines.
func (e *Extractor) extractWithOCR(ctx context.Context, path string) (string, int, error) {
	images, err := e.raster.PagesAsImages(ctx, path)
	if err != nil {
		return "", 0, fmt.Errorf("rasterizing pages: %w", err)
	}

	var sb strings.Builder
	for i, img := range images {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}

		text, err := e.ocr.Recognize(ctx, Preprocess(img))
		if err != nil {
			e.logger.Warn("OCR failed for page, skipping",
				"page", i+1, "engine", e.ocr.Name(), "error", err)
			continue
		}

		e.logger.Debug("OCR page done", "page", i+1, "chars", len(text))
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return sb.String(), len(images), nil
}

// directText concatenates the embedded text of every page. Empty or
// unreadable embedded text is not an error here; emptiness is what
// triggers the OCR fallback. Structural parse failures are.
func directText(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
	}

	return sb.String(), pages, nil
}
