package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Rasterizer converts the pages of a PDF into images for OCR.
type Rasterizer interface {
	PagesAsImages(ctx context.Context, path string) ([]image.Image, error)
}

// PdftoppmRasterizer renders pages with poppler's pdftoppm binary, the
// same renderer pdf2image drives. Output files land in a per-call temp
// directory that is removed before returning.
type PdftoppmRasterizer struct {
	// Binary is the pdftoppm executable; empty means "pdftoppm" on PATH.
	Binary string
	// DPI is the render resolution; <= 0 defaults to 300.
	DPI int
}

// NewPdftoppmRasterizer creates a rasterizer using the given binary and DPI.
func NewPdftoppmRasterizer(binary string, dpi int) *PdftoppmRasterizer {
	return &PdftoppmRasterizer{Binary: binary, DPI: dpi}
}

// PagesAsImages renders every page of the PDF at path to a PNG and decodes
// them in page order.
func (r *PdftoppmRasterizer) PagesAsImages(ctx context.Context, path string) ([]image.Image, error) {
	bin := r.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = 300
	}

	dir, err := os.MkdirTemp("", "pdfchat-raster-")
	if err != nil {
		return nil, fmt.Errorf("creating raster dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, bin, "-png", "-r", strconv.Itoa(dpi), path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	names, err := renderedPageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", path)
	}

	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := decodePNG(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("decoding page %s: %w", name, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// renderedPageFiles lists pdftoppm output PNGs in page order. pdftoppm
// zero-pads page numbers to a fixed width per run, so a lexical sort is
// also a numeric sort.
func renderedPageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing raster dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
