package pipeline

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by a job or batch run that was cancelled
// cooperatively. Results streamed before the stop stay applied.
var ErrStopped = errors.New("batch stopped")

// ImageLoadError means a source page could not be read or decoded. It
// aborts the whole batch.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// EngineError means the detection engine failed on one image. It aborts the
// whole batch with the originating filename attached.
type EngineError struct {
	Filename string
	Err      error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine failed on %s: %v", e.Filename, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
