// Package tesseract provides the default OCR engine via gosseract. It is
// a separate subpackage so the CGO dependency on libtesseract is only
// pulled in by builds that need OCR.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text in page images using a local Tesseract install.
type Engine struct {
	languages []string

	// clientFactory is swappable in tests.
	clientFactory func() *gosseract.Client
}

// NewEngine creates a Tesseract-backed OCR engine. languages are Tesseract
// language codes (e.g. "eng", "deu"); empty means Tesseract's default.
func NewEngine(languages ...string) *Engine {
	return &Engine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs OCR on a single page image and returns the trimmed text.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding page image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
