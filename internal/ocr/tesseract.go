//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract adapts the gosseract client to the Engine contract.
//
// Tesseract processes one page per call and has no beam-search decoder, so
// the batchSize and decoder knobs from the contract are accepted and
// ignored. Boxes are read at text-line level because downstream merging
// expects roughly one detection per visual line.
type Tesseract struct {
	client   *gosseract.Client
	language string
}

// NewTesseract creates a Tesseract-backed engine for the given language
// code (e.g. "eng", "kor", "jpn"). The corresponding traineddata must be
// installed on the system.
func NewTesseract(language string) (*Tesseract, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language %q: %w", language, err)
	}

	return &Tesseract{client: client, language: language}, nil
}

// Name identifies the engine implementation.
func (t *Tesseract) Name() string { return "tesseract" }

// Close releases the underlying Tesseract client.
func (t *Tesseract) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Detect runs detection over the whole image and returns one Detection per
// recognized text line, with confidence normalized to [0,1].
//
// The ctx is checked once before the Tesseract call; the call itself is not
// preemptible.
func (t *Tesseract) Detect(ctx context.Context, img image.Image, batchSize int, decoder string) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	if err := t.client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		detections = append(detections, Detection{
			Quad: AxisAligned(
				float64(box.Box.Min.X), float64(box.Box.Min.Y),
				float64(box.Box.Max.X), float64(box.Box.Max.Y),
			),
			Text:       text,
			Confidence: box.Confidence / 100.0,
		})
	}

	return detections, nil
}
