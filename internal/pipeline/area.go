package pipeline

import (
	"context"
	"image"
	"log"

	"github.com/disintegration/imaging"

	"github.com/inkbound/scanlate/internal/detection"
	intimaging "github.com/inkbound/scanlate/internal/imaging"
	"github.com/inkbound/scanlate/internal/ocr"
)

// DetectArea runs one detection pass over a hand-drawn rectangle of a page,
// for the manual-region flow. Results come back in original-page
// coordinates, tagged with filename, merged, and without row numbers; the
// caller allocates a fractional row number and stores them as manual
// regions.
func DetectArea(ctx context.Context, engine ocr.Engine, cfg Config, img image.Image, area image.Rectangle, filename string) ([]detection.Region, error) {
	cropped := imaging.Crop(img, area)

	pre := intimaging.Preprocess(cropped, intimaging.PreprocessOptions{
		ContrastAdjust:  cfg.ContrastAdjust,
		ResizeThreshold: cfg.ResizeThreshold,
	})

	detections, err := engine.Detect(ctx, pre.Image, cfg.BatchSize, cfg.Decoder)
	if err != nil {
		return nil, &EngineError{Filename: filename, Err: err}
	}

	valid := make([]ocr.Detection, 0, len(detections))
	for _, d := range detections {
		if !d.Quad.IsFinite() {
			log.Printf("skipping malformed region on %s", filename)
			continue
		}
		d.Quad = d.Quad.
			Scale(pre.ScaleX, pre.ScaleY).
			Translate(float64(area.Min.X), float64(area.Min.Y))
		valid = append(valid, d)
	}

	regions := detection.FilterRegions(detection.FromDetections(valid, filename), cfg.filterOptions())
	return detection.MergeRegions(regions, cfg.MergeDistance), nil
}
