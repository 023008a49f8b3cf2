package pipeline

import "github.com/inkbound/scanlate/internal/detection"

// Config is the one immutable bundle of tuning values a batch run needs.
// It is passed explicitly into constructors; nothing in the pipeline reads
// ambient settings.
type Config struct {
	// ContrastAdjust scales preprocessing contrast by max(0.1, 1+value);
	// zero disables the step.
	ContrastAdjust float64

	// ResizeThreshold is the maximum working width in pixels before
	// detection; zero disables downscaling.
	ResizeThreshold int

	// MinHeight and MaxHeight window region heights in original pixels.
	MinHeight float64
	MaxHeight float64

	// MinConfidence drops detections below this certainty.
	MinConfidence float64

	// MergeDistance is the center-to-center pixel threshold for fusing
	// detections into one text block.
	MergeDistance float64

	// BatchSize and Decoder are passed through to the engine, which may
	// ignore them.
	BatchSize int
	Decoder   string
}

// DefaultConfig returns tuning values that work for typical comic pages.
func DefaultConfig() Config {
	return Config{
		ResizeThreshold: 1600,
		MinHeight:       10,
		MaxHeight:       500,
		MinConfidence:   0.1,
		MergeDistance:   80,
		BatchSize:       8,
		Decoder:         "greedy",
	}
}

func (c Config) filterOptions() detection.FilterOptions {
	return detection.FilterOptions{
		MinHeight:     c.MinHeight,
		MaxHeight:     c.MaxHeight,
		MinConfidence: c.MinConfidence,
	}
}
