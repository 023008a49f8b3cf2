package detection

// FilterOptions bounds which detections survive into merging.
type FilterOptions struct {
	// MinHeight and MaxHeight window the vertical extent of a region's quad
	// in original-image pixels.
	MinHeight float64
	MaxHeight float64

	// MinConfidence drops low-certainty detections (0 keeps everything).
	MinConfidence float64
}

// Keep reports whether a single region passes the height and confidence
// thresholds. A region with unusable coordinates has height 0 and is kept
// only if MinHeight admits it.
func (o FilterOptions) Keep(r Region) bool {
	h := r.Quad.Height()
	if h < o.MinHeight || h > o.MaxHeight {
		return false
	}
	return r.Confidence >= o.MinConfidence
}

// FilterRegions applies the thresholds to each region in order, preserving
// the order of survivors. Rejects are dropped silently.
func FilterRegions(regions []Region, opts FilterOptions) []Region {
	kept := make([]Region, 0, len(regions))
	for _, r := range regions {
		if opts.Keep(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
