package detection

import "github.com/inkbound/scanlate/internal/ocr"

// Region is the currency between pipeline stages: a detector result that has
// been mapped back to original-image coordinates and tagged with the owning
// image. RowNumber is zero until the batch coordinator assigns one.
type Region struct {
	Quad       ocr.Quad
	Text       string
	Confidence float64
	Filename   string
	RowNumber  float64
}

// FromDetections converts raw engine output into pipeline regions tagged
// with the owning image's basename.
func FromDetections(detections []ocr.Detection, filename string) []Region {
	regions := make([]Region, 0, len(detections))
	for _, d := range detections {
		regions = append(regions, Region{
			Quad:       d.Quad,
			Text:       d.Text,
			Confidence: d.Confidence,
			Filename:   filename,
		})
	}
	return regions
}
