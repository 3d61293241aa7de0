package canvas

import (
	"image/color"
	"strings"
	"testing"
)

func sampleStroke() Stroke {
	return Stroke{
		{X: 20, Y: 80},
		{X: 60, Y: 40},
		{X: 100, Y: 90},
		{X: 140, Y: 50},
	}
}

func TestSurface_AddStroke(t *testing.T) {
	s := NewSurface(200, 120)
	s.AddStroke(sampleStroke())
	s.AddStroke(Stroke{}) // ignored
	if s.StrokeCount() != 1 {
		t.Errorf("expected 1 stroke, got %d", s.StrokeCount())
	}
	s.Clear()
	if s.StrokeCount() != 0 {
		t.Error("expected no strokes after clear")
	}
}

func TestSurface_RenderDrawsInk(t *testing.T) {
	s := NewSurface(200, 120)
	s.AddStroke(sampleStroke())
	img := s.Render()

	inked := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && bl < 0x8000 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Fatal("expected dark pixels along the stroke path")
	}
}

func TestSurface_RenderBlank(t *testing.T) {
	s := NewSurface(50, 50)
	img := s.Render()
	if c := img.At(25, 25); !isWhite(c) {
		t.Errorf("expected white background, got %v", c)
	}
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestDataURL_RoundTrip(t *testing.T) {
	s := NewSurface(200, 120)
	s.AddStroke(sampleStroke())
	s.AddStroke(Stroke{{X: 150, Y: 100}})

	dataURL, err := s.EncodeDataURL()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Fatalf("unexpected data url prefix: %.40s", dataURL)
	}

	decoded, err := DecodeDataURL(dataURL)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	original := s.Render()
	if ratio := DiffRatio(original, decoded); ratio > 0.01 {
		t.Errorf("round-tripped image differs by %.4f of pixels", ratio)
	}
}

func TestDecodeDataURL_Rejects(t *testing.T) {
	if _, err := DecodeDataURL("data:image/jpeg;base64,abc"); err == nil {
		t.Error("expected error for non-png data url")
	}
	if _, err := DecodeDataURL("data:image/png;base64,!!!not-base64"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := DecodeDataURL("data:image/png;base64,aGVsbG8="); err == nil {
		t.Error("expected error for non-png payload")
	}
}

func TestThumbnail(t *testing.T) {
	s := NewSurface(400, 300)
	s.AddStroke(sampleStroke())
	img := s.Render()

	thumb := Thumbnail(img, 100, 100)
	b := thumb.Bounds()
	if b.Dx() != 100 || b.Dy() != 75 {
		t.Errorf("expected 100x75 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}

	// Already within bounds: returned unchanged.
	same := Thumbnail(thumb, 200, 200)
	if same.Bounds() != thumb.Bounds() {
		t.Error("expected in-bounds image to pass through")
	}
}

func TestDiffRatio_DimensionMismatch(t *testing.T) {
	a := NewSurface(10, 10).Render()
	b := NewSurface(20, 10).Render()
	if DiffRatio(a, b) != 1 {
		t.Error("expected ratio 1 for mismatched dimensions")
	}
}
