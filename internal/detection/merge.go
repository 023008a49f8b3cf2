package detection

import (
	"log"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inkbound/scanlate/internal/ocr"
)

// MergeRegions fuses detections that belong to one visual text block.
// Detectors frequently split a speech bubble into per-line boxes; this
// clusters them by center proximity and merges each cluster into a single
// region.
//
// Clustering is greedy single-link and order-sensitive: each input region,
// in input order, joins the first existing group (in creation order) that
// contains any member within distanceThreshold of the region's center, or
// starts a new group. Membership is tested against every member of a group,
// not its centroid, so chains A-B-C merge even when A and C are far apart.
// That chaining is intentional.
//
// Output groups are returned in the order each group was first created.
func MergeRegions(regions []Region, distanceThreshold float64) []Region {
	var groups [][]Region

	for _, r := range regions {
		center := r.Quad.Center()
		idx := -1
	scan:
		for gi, group := range groups {
			for _, member := range group {
				mc := member.Quad.Center()
				if math.Hypot(center.X-mc.X, center.Y-mc.Y) <= distanceThreshold {
					idx = gi
					break scan
				}
			}
		}
		if idx >= 0 {
			groups[idx] = append(groups[idx], r)
		} else {
			groups = append(groups, []Region{r})
		}
	}

	merged := make([]Region, 0, len(groups))
	for _, group := range groups {
		out, ok := fuseGroup(group)
		if !ok {
			log.Printf("skipping merge group with no usable coordinates (%d members)", len(group))
			continue
		}
		merged = append(merged, out)
	}
	return merged
}

// fuseGroup collapses a cluster into one region. Members are ordered
// top-to-bottom first so the merged text reads naturally and the group
// inherits filename and row number from its topmost member.
func fuseGroup(group []Region) (Region, bool) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Quad.Center().Y < group[j].Quad.Center().Y
	})

	var (
		parts []string
		confs []float64
		xs    []float64
		ys    []float64
	)
	for _, member := range group {
		parts = append(parts, flattenLines(member.Text))
		confs = append(confs, member.Confidence)
		if member.Quad.IsZero() {
			continue
		}
		for _, p := range member.Quad {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}
	if len(xs) == 0 {
		return Region{}, false
	}

	top := group[0]
	return Region{
		Quad: ocr.AxisAligned(
			floats.Min(xs), floats.Min(ys),
			floats.Max(xs), floats.Max(ys),
		),
		Text:       strings.TrimSpace(strings.Join(parts, " ")),
		Confidence: stat.Mean(confs, nil),
		Filename:   top.Filename,
		RowNumber:  top.RowNumber,
	}, true
}

// flattenLines replaces internal line breaks with single spaces.
func flattenLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
