package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/inkbound/scanlate/internal/detection"
)

// RenderOverlay draws each region's bounding box onto a copy of the page in
// a distinct color, for visual inspection of detection and merge output.
// The pipeline itself never consults the rendered image.
func RenderOverlay(img image.Image, regions []detection.Region) *image.NRGBA {
	out := imaging.Clone(img)
	if len(regions) == 0 {
		return out
	}

	palette := colorful.FastHappyPalette(len(regions))
	for i, region := range regions {
		if region.Quad.IsZero() {
			continue
		}
		r, g, b := palette[i%len(palette)].RGB255()
		drawQuadOutline(out, region, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return out
}

// outlineWidth is the box border thickness in pixels.
const outlineWidth = 3

func drawQuadOutline(img *image.NRGBA, region detection.Region, c color.NRGBA) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range region.Quad {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	bounds := img.Bounds()
	x1 := clampInt(int(math.Round(minX)), bounds.Min.X, bounds.Max.X-1)
	y1 := clampInt(int(math.Round(minY)), bounds.Min.Y, bounds.Max.Y-1)
	x2 := clampInt(int(math.Round(maxX)), bounds.Min.X, bounds.Max.X-1)
	y2 := clampInt(int(math.Round(maxY)), bounds.Min.Y, bounds.Max.Y-1)

	for t := 0; t < outlineWidth; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(img, x, y1+t, c)
			setPixel(img, x, y2-t, c)
		}
		for y := y1; y <= y2; y++ {
			setPixel(img, x1+t, y, c)
			setPixel(img, x2-t, y, c)
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
