package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
)

// Point is a position in original-image pixel space.
type Point struct {
	X float64
	Y float64
}

// Quad is an ordered four-point polygon around a detected text block.
// Detectors may return rotated quads; axis-aligned boxes are expressed as
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// AxisAligned builds the axis-aligned quad covering the given rectangle.
func AxisAligned(minX, minY, maxX, maxY float64) Quad {
	return Quad{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

// IsZero reports whether all four points are at the origin, which is how a
// missing or unusable set of coordinates is represented.
func (q Quad) IsZero() bool {
	return q == Quad{}
}

// IsFinite reports whether every coordinate is a finite number.
func (q Quad) IsFinite() bool {
	for _, p := range q {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// Center returns the arithmetic mean of the quad's four points.
func (q Quad) Center() Point {
	var cx, cy float64
	for _, p := range q {
		cx += p.X
		cy += p.Y
	}
	return Point{X: cx / 4, Y: cy / 4}
}

// MinY returns the topmost y-coordinate, or +Inf for a zero quad so that
// unusable regions sort after usable ones.
func (q Quad) MinY() float64 {
	if q.IsZero() {
		return math.Inf(1)
	}
	minY := q[0].Y
	for _, p := range q[1:] {
		if p.Y < minY {
			minY = p.Y
		}
	}
	return minY
}

// Height returns the vertical extent max(y)-min(y) over the quad points.
// A zero quad has height 0.
func (q Quad) Height() float64 {
	if q.IsZero() {
		return 0
	}
	minY, maxY := q[0].Y, q[0].Y
	for _, p := range q[1:] {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return maxY - minY
}

// Scale multiplies every coordinate by the given per-axis factors. It is used
// to map detections from a downscaled working image back to original pixels.
func (q Quad) Scale(sx, sy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Translate shifts every coordinate by the given offsets.
func (q Quad) Translate(dx, dy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// MarshalJSON encodes the quad as four [x,y] integer pairs, the on-disk
// format used by project archives.
func (q Quad) MarshalJSON() ([]byte, error) {
	pairs := make([][2]int, 4)
	for i, p := range q {
		pairs[i] = [2]int{int(math.Round(p.X)), int(math.Round(p.Y))}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON accepts four [x,y] pairs with integer or fractional values.
func (q *Quad) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	if len(pairs) != 4 {
		return fmt.Errorf("quad must have 4 points, got %d", len(pairs))
	}
	for i, pair := range pairs {
		q[i] = Point{X: pair[0], Y: pair[1]}
	}
	return nil
}

// Detection is one raw detector result: a quad in the coordinate space of
// the image that was handed to the engine, the recognized text, and a
// confidence in [0,1].
type Detection struct {
	Quad       Quad
	Text       string
	Confidence float64
}

// Engine is the detector contract. A call either returns the ordered
// sequence of detections or fails; the pipeline assumes nothing else about
// engine behavior. BatchSize and decoder are engine tuning knobs that an
// implementation is free to ignore.
type Engine interface {
	// Name identifies the engine implementation (e.g. "tesseract").
	Name() string

	// Detect runs text detection over the whole image. The call is atomic
	// from the caller's perspective: cancellation via ctx is best-effort
	// and an engine that ignores it simply runs to completion.
	Detect(ctx context.Context, img image.Image, batchSize int, decoder string) ([]Detection, error)

	// Close releases engine resources.
	Close() error
}
