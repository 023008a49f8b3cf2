package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
)

// PreprocessOptions control the per-image preparation before detection.
type PreprocessOptions struct {
	// ContrastAdjust scales contrast by max(0.1, 1+ContrastAdjust).
	// Zero disables the step.
	ContrastAdjust float64

	// ResizeThreshold is the maximum working width in pixels; wider images
	// are downscaled to it, preserving aspect ratio. Zero disables.
	ResizeThreshold int
}

// Preprocessed is the detector-ready pixel buffer plus the factors needed
// to map detected coordinates back to original-image space.
type Preprocessed struct {
	Image image.Image

	// ScaleX and ScaleY are original size divided by working size; 1.0 when
	// no downscale happened.
	ScaleX float64
	ScaleY float64
}

// Preprocess converts the image to grayscale, optionally boosts contrast,
// and optionally downscales it to the working width. Steps always run in
// that order.
func Preprocess(img image.Image, opts PreprocessOptions) Preprocessed {
	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()

	var work image.Image = imaging.Grayscale(img)

	if opts.ContrastAdjust > 0 {
		factor := math.Max(0.1, 1+opts.ContrastAdjust)
		work = adjust.Contrast(work, factor-1)
	}

	scaleX, scaleY := 1.0, 1.0
	if opts.ResizeThreshold > 0 && origW > opts.ResizeThreshold {
		resized := imaging.Resize(work, opts.ResizeThreshold, 0, imaging.Lanczos)
		w := resized.Bounds().Dx()
		h := resized.Bounds().Dy()
		if w > 0 && h > 0 {
			scaleX = float64(origW) / float64(w)
			scaleY = float64(origH) / float64(h)
			work = resized
		}
	}

	return Preprocessed{Image: work, ScaleX: scaleX, ScaleY: scaleY}
}
