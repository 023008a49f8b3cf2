package detection

import (
	"math"
	"testing"

	"github.com/inkbound/scanlate/internal/ocr"
)

func TestMergeRegions_ThreeStackedBoxes(t *testing.T) {
	// Centers at (10,10), (12,40), (11,70) all chain within threshold 50.
	regions := []Region{
		{Quad: boxAt(10, 10, 10, 10), Text: "first", Confidence: 0.9, Filename: "page1.png", RowNumber: 3},
		{Quad: boxAt(12, 40, 10, 10), Text: "second", Confidence: 0.6, Filename: "page1.png", RowNumber: 4},
		{Quad: boxAt(11, 70, 10, 10), Text: "third", Confidence: 0.3, Filename: "page1.png", RowNumber: 5},
	}

	merged := MergeRegions(regions, 50)
	if len(merged) != 1 {
		t.Fatalf("got %d groups, want 1", len(merged))
	}
	m := merged[0]

	if m.Text != "first second third" {
		t.Errorf("text = %q, want %q", m.Text, "first second third")
	}
	if want := (0.9 + 0.6 + 0.3) / 3; math.Abs(m.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", m.Confidence, want)
	}

	// Bounding quad covers all member points.
	want := ocr.AxisAligned(5, 5, 17, 75)
	if m.Quad != want {
		t.Errorf("quad = %v, want %v", m.Quad, want)
	}

	// Filename and row number come from the topmost member.
	if m.Filename != "page1.png" || m.RowNumber != 3 {
		t.Errorf("inherited (%s, %v), want (page1.png, 3)", m.Filename, m.RowNumber)
	}
}

func TestMergeRegions_ChainingProperty(t *testing.T) {
	// dist(A,B) = 40 < 50, dist(B,C) = 40 < 50, dist(A,C) = 80 >= 50.
	// Single-link clustering still puts all three in one group.
	regions := []Region{
		{Quad: boxAt(0, 0, 10, 10), Text: "A", Confidence: 1},
		{Quad: boxAt(40, 0, 10, 10), Text: "B", Confidence: 1},
		{Quad: boxAt(80, 0, 10, 10), Text: "C", Confidence: 1},
	}

	merged := MergeRegions(regions, 50)
	if len(merged) != 1 {
		t.Fatalf("got %d groups, want 1 (chaining must merge A-B-C)", len(merged))
	}
}

func TestMergeRegions_GroupsKeepCreationOrder(t *testing.T) {
	// Two clusters far apart, interleaved in input order. Output order is
	// the order each group was first created, not spatial order.
	regions := []Region{
		{Quad: boxAt(1000, 1000, 10, 10), Text: "far1", Confidence: 1},
		{Quad: boxAt(0, 0, 10, 10), Text: "near1", Confidence: 1},
		{Quad: boxAt(1005, 1005, 10, 10), Text: "far2", Confidence: 1},
	}

	merged := MergeRegions(regions, 50)
	if len(merged) != 2 {
		t.Fatalf("got %d groups, want 2", len(merged))
	}
	if merged[0].Text != "far1 far2" {
		t.Errorf("first group text = %q, want %q", merged[0].Text, "far1 far2")
	}
	if merged[1].Text != "near1" {
		t.Errorf("second group text = %q, want %q", merged[1].Text, "near1")
	}
}

func TestMergeRegions_SeparateBeyondThreshold(t *testing.T) {
	regions := []Region{
		{Quad: boxAt(0, 0, 10, 10), Text: "a", Confidence: 1},
		{Quad: boxAt(0, 200, 10, 10), Text: "b", Confidence: 1},
	}

	merged := MergeRegions(regions, 50)
	if len(merged) != 2 {
		t.Fatalf("got %d groups, want 2", len(merged))
	}
}

func TestMergeRegions_FlattensLineBreaks(t *testing.T) {
	regions := []Region{
		{Quad: boxAt(10, 10, 10, 10), Text: "hello\nworld", Confidence: 1},
		{Quad: boxAt(10, 30, 10, 10), Text: "again\r\nthere", Confidence: 1},
	}

	merged := MergeRegions(regions, 50)
	if len(merged) != 1 {
		t.Fatalf("got %d groups, want 1", len(merged))
	}
	if want := "hello world again there"; merged[0].Text != want {
		t.Errorf("text = %q, want %q", merged[0].Text, want)
	}
}

func TestMergeRegions_TopToBottomWithinGroup(t *testing.T) {
	// Input order bottom-first; merged text must read top to bottom and the
	// group inherits from the topmost member.
	regions := []Region{
		{Quad: boxAt(10, 60, 10, 10), Text: "bottom", Confidence: 1, RowNumber: 9},
		{Quad: boxAt(10, 20, 10, 10), Text: "top", Confidence: 1, RowNumber: 2},
	}

	merged := MergeRegions(regions, 100)
	if len(merged) != 1 {
		t.Fatalf("got %d groups, want 1", len(merged))
	}
	if merged[0].Text != "top bottom" {
		t.Errorf("text = %q, want %q", merged[0].Text, "top bottom")
	}
	if merged[0].RowNumber != 2 {
		t.Errorf("row number = %v, want 2 (topmost member)", merged[0].RowNumber)
	}
}

func TestMergeRegions_SkipsGroupWithoutCoordinates(t *testing.T) {
	regions := []Region{
		{Quad: ocr.Quad{}, Text: "ghost", Confidence: 1},
		{Quad: boxAt(500, 500, 10, 10), Text: "real", Confidence: 1},
	}

	merged := MergeRegions(regions, 50)
	if len(merged) != 1 {
		t.Fatalf("got %d groups, want 1 (zero-coordinate group skipped)", len(merged))
	}
	if merged[0].Text != "real" {
		t.Errorf("text = %q, want %q", merged[0].Text, "real")
	}
}

func TestMergeRegions_Empty(t *testing.T) {
	if got := MergeRegions(nil, 50); len(got) != 0 {
		t.Errorf("got %d groups from empty input, want 0", len(got))
	}
}
