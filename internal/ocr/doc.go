// Package ocr defines the text-detection engine contract and its geometry
// types, plus the Tesseract-backed implementation.
//
// The pipeline treats the engine as a black box: one image in, an ordered
// sequence of (quad, text, confidence) detections out. No retries or
// timeouts are imposed here; an engine call either returns or fails, and
// the single call per image is not preemptible.
//
// # Tesseract
//
// The bundled implementation wraps gosseract/v2 and requires a cgo build
// with Tesseract installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-<lang>
//   - macOS: brew install tesseract
//
// Non-cgo builds compile a stub that reports ErrTesseractUnavailable, so
// the rest of the module (project archives, merging, batch bookkeeping)
// stays usable without the native dependency.
package ocr
