package pipeline

import (
	"context"
	"log"
	"path/filepath"

	"github.com/inkbound/scanlate/internal/detection"
	"github.com/inkbound/scanlate/internal/imaging"
	"github.com/inkbound/scanlate/internal/ocr"
)

// ProgressFunc receives coarse progress in percent. Implementations must be
// cheap; they are called from the worker between pipeline stages.
type ProgressFunc func(percent float64)

// Job processes a single page: load, preprocess, detect, rescale back to
// original coordinates, filter, merge.
type Job struct {
	engine ocr.Engine
	cfg    Config
	cache  *imaging.Cache
}

// NewJob builds a job around an engine and one immutable config. The cache
// may be shared across jobs.
func NewJob(engine ocr.Engine, cfg Config, cache *imaging.Cache) *Job {
	if cache == nil {
		cache = imaging.NewCache()
	}
	return &Job{engine: engine, cfg: cfg, cache: cache}
}

// Run executes the pipeline for one page and returns merged regions tagged
// with the page's basename, without row numbers.
//
// Progress is reported at 50% after detection, 50-75% while filtering, and
// 100% after merge. The stopped flag is polled before the engine call,
// during the filter loop and before results are returned; the engine call
// itself cannot be interrupted. A stop surfaces as ErrStopped.
func (j *Job) Run(ctx context.Context, path string, stopped func() bool, progress ProgressFunc) ([]detection.Region, error) {
	base := filepath.Base(path)

	img, err := j.cache.Load(path)
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: err}
	}

	pre := imaging.Preprocess(img, imaging.PreprocessOptions{
		ContrastAdjust:  j.cfg.ContrastAdjust,
		ResizeThreshold: j.cfg.ResizeThreshold,
	})

	if stopped() {
		return nil, ErrStopped
	}

	detections, err := j.engine.Detect(ctx, pre.Image, j.cfg.BatchSize, j.cfg.Decoder)
	if err != nil {
		return nil, &EngineError{Filename: base, Err: err}
	}
	report(progress, 50)

	valid := make([]ocr.Detection, 0, len(detections))
	for _, d := range detections {
		if !d.Quad.IsFinite() {
			log.Printf("skipping malformed region on %s", base)
			continue
		}
		d.Quad = d.Quad.Scale(pre.ScaleX, pre.ScaleY)
		valid = append(valid, d)
	}

	regions := detection.FromDetections(valid, base)
	opts := j.cfg.filterOptions()
	kept := make([]detection.Region, 0, len(regions))
	for i, r := range regions {
		if stopped() {
			return nil, ErrStopped
		}
		if opts.Keep(r) {
			kept = append(kept, r)
		}
		report(progress, 50+25*float64(i+1)/float64(len(regions)))
	}

	merged := detection.MergeRegions(kept, j.cfg.MergeDistance)

	if stopped() {
		return nil, ErrStopped
	}
	report(progress, 100)
	return merged, nil
}

func report(progress ProgressFunc, percent float64) {
	if progress != nil {
		progress(percent)
	}
}
