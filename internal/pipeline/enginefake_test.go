package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkbound/scanlate/internal/ocr"
)

// fakeEngine plays back a scripted sequence of per-call detections, one
// entry per Detect call, and can be told to fail on a given call.
type fakeEngine struct {
	script  [][]ocr.Detection
	failOn  int // 1-based call number to fail on; 0 disables
	failErr error
	calls   int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) Detect(ctx context.Context, img image.Image, batchSize int, decoder string) ([]ocr.Detection, error) {
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		err := f.failErr
		if err == nil {
			err = errors.New("scripted failure")
		}
		return nil, err
	}
	if f.calls <= len(f.script) {
		return f.script[f.calls-1], nil
	}
	return nil, nil
}

// lineAt builds a detection whose quad spans the given box.
func lineAt(x1, y1, x2, y2 float64, text string, conf float64) ocr.Detection {
	return ocr.Detection{
		Quad:       ocr.AxisAligned(x1, y1, x2, y2),
		Text:       text,
		Confidence: conf,
	}
}

// writePage writes a small PNG page and returns its path.
func writePage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{240, 240, 240, 255})
		}
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

// testConfig is permissive enough that scripted detections survive
// filtering and stay unmerged unless a test wants merging.
func testConfig() Config {
	return Config{
		MinHeight:     1,
		MaxHeight:     10000,
		MinConfidence: 0,
		MergeDistance: 40,
		BatchSize:     1,
		Decoder:       "greedy",
	}
}

func never() bool { return false }
