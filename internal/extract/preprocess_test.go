package extract

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocess_Deterministic(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8((x + y) * 8), A: 255})
		}
	}

	first := encodePNG(t, Preprocess(src))
	second := encodePNG(t, Preprocess(src))
	if !bytes.Equal(first, second) {
		t.Error("Preprocess output differs between identical calls")
	}
}

func TestPreprocess_ProducesGrayscale(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.NRGBA{R: 200, G: 30, B: 90, A: 255})
		}
	}

	out := Preprocess(src)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := out.At(x, y).RGBA()
			if r != g || g != bl {
				t.Fatalf("pixel (%d,%d) not gray: r=%d g=%d b=%d", x, y, r, g, bl)
			}
		}
	}
}

func TestPreprocess_PreservesDimensions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 31))
	out := Preprocess(src)
	if got, want := out.Bounds().Dx(), 20; got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
	if got, want := out.Bounds().Dy(), 31; got != want {
		t.Errorf("height = %d, want %d", got, want)
	}
}
