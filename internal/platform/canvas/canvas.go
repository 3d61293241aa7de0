// Package canvas renders captured signature strokes to PNG images. Pointer
// samples arrive as ordered points; consecutive points within a stroke are
// joined with round-capped line segments so the rendered curve matches what
// the patient drew on screen.
package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

const dataURLPrefix = "data:image/png;base64,"

// Point is a single pointer sample in surface coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is an ordered sequence of pointer samples between pen-down and pen-up.
type Stroke []Point

// Surface accumulates signature strokes and renders them to an image.
type Surface struct {
	width     int
	height    int
	lineWidth float64
	strokes   []Stroke
}

// NewSurface creates a blank drawing surface of the given pixel dimensions.
func NewSurface(width, height int) *Surface {
	return &Surface{
		width:     width,
		height:    height,
		lineWidth: 2.5,
	}
}

func (s *Surface) Width() int  { return s.width }
func (s *Surface) Height() int { return s.height }

// AddStroke appends a stroke to the surface. Empty strokes are ignored.
func (s *Surface) AddStroke(stroke Stroke) {
	if len(stroke) == 0 {
		return
	}
	s.strokes = append(s.strokes, stroke)
}

// Clear removes all strokes.
func (s *Surface) Clear() {
	s.strokes = nil
}

// StrokeCount returns the number of strokes drawn so far.
func (s *Surface) StrokeCount() int {
	return len(s.strokes)
}

// Render draws all strokes onto a white background and returns the image.
func (s *Surface) Render() image.Image {
	dc := gg.NewContext(s.width, s.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(s.lineWidth)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, stroke := range s.strokes {
		if len(stroke) == 1 {
			// A tap with no movement still leaves a dot.
			dc.DrawCircle(stroke[0].X, stroke[0].Y, s.lineWidth/2)
			dc.Fill()
			continue
		}
		dc.MoveTo(stroke[0].X, stroke[0].Y)
		for _, p := range stroke[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}

	return dc.Image()
}

// EncodeDataURL renders the surface and returns it as a PNG data URL suitable
// for embedding in a submission answer.
func (s *Surface) EncodeDataURL() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Render()); err != nil {
		return "", fmt.Errorf("encode signature png: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL parses a PNG data URL back into an image.
func DecodeDataURL(dataURL string) (image.Image, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, fmt.Errorf("not a png data url")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

// Thumbnail scales an image down to fit within maxWidth x maxHeight while
// preserving aspect ratio. Images already within bounds are returned as-is.
func Thumbnail(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// DiffRatio compares two images pixel-by-pixel and returns the fraction of
// pixels that differ by more than a small per-channel tolerance. Images of
// different dimensions return 1.
func DiffRatio(a, b image.Image) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 1
	}

	const tolerance = 0x0202 // allow tiny rounding drift per 16-bit channel
	var differing, total int
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if chanDiff(ar, br) > tolerance || chanDiff(ag, bg) > tolerance || chanDiff(abl, bbl) > tolerance {
				differing++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(differing) / float64(total)
}

func chanDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
