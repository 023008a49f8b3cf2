//go:build !cgo

package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrTesseractUnavailable is returned when the binary was built without cgo
// and the Tesseract bindings are not compiled in.
var ErrTesseractUnavailable = errors.New("tesseract support requires a cgo build with libtesseract installed")

// Tesseract is a placeholder in non-cgo builds.
type Tesseract struct{}

// NewTesseract always fails in non-cgo builds.
func NewTesseract(language string) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

// Name identifies the engine implementation.
func (t *Tesseract) Name() string { return "tesseract" }

// Close releases engine resources.
func (t *Tesseract) Close() error { return nil }

// Detect always fails in non-cgo builds.
func (t *Tesseract) Detect(ctx context.Context, img image.Image, batchSize int, decoder string) ([]Detection, error) {
	return nil, ErrTesseractUnavailable
}
