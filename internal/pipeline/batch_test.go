package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/inkbound/scanlate/internal/ocr"
	"github.com/inkbound/scanlate/internal/project"
)

// recordingSink captures each streamed batch and can trigger a callback
// per delivery.
type recordingSink struct {
	batches   [][]project.Region
	onReceive func()
}

func (s *recordingSink) AddBatchResults(regions []project.Region) {
	s.batches = append(s.batches, regions)
	if s.onReceive != nil {
		s.onReceive()
	}
}

func (s *recordingSink) all() []project.Region {
	var out []project.Region
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func twoPageScript() [][]ocr.Detection {
	return [][]ocr.Detection{
		{
			lineAt(10, 300, 40, 320, "lower", 0.7),
			lineAt(10, 10, 40, 30, "upper", 0.9),
		},
		{
			lineAt(10, 50, 40, 70, "only", 0.5),
		},
	}
}

func TestCoordinatorRun_NumbersAndStreams(t *testing.T) {
	dir := t.TempDir()
	pages := []string{
		writePage(t, dir, "01.png", 100, 100),
		writePage(t, dir, "02.png", 100, 100),
	}

	engine := &fakeEngine{script: twoPageScript()}
	sink := &recordingSink{}
	coord := NewCoordinator(engine, testConfig(), sink, nil)

	next, err := coord.Run(context.Background(), pages, 5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if coord.State() != StateFinished {
		t.Errorf("state = %v, want finished", coord.State())
	}
	if next != 8 {
		t.Errorf("next row = %d, want 8", next)
	}

	// One streamed delivery per page, in page order.
	if len(sink.batches) != 2 {
		t.Fatalf("got %d streamed batches, want 2", len(sink.batches))
	}

	all := sink.all()
	if len(all) != 3 {
		t.Fatalf("got %d regions, want 3", len(all))
	}

	// Page one sorted top to bottom before numbering.
	if all[0].Text != "upper" || all[0].RowNumber != 5 {
		t.Errorf("first region = (%q, %v), want (upper, 5)", all[0].Text, all[0].RowNumber)
	}
	if all[1].Text != "lower" || all[1].RowNumber != 6 {
		t.Errorf("second region = (%q, %v), want (lower, 6)", all[1].Text, all[1].RowNumber)
	}
	if all[2].Text != "only" || all[2].RowNumber != 7 || all[2].Filename != "02.png" {
		t.Errorf("third region = (%q, %v, %q), want (only, 7, 02.png)", all[2].Text, all[2].RowNumber, all[2].Filename)
	}

	// Invariants: unique row numbers, batch provenance.
	seen := make(map[float64]bool)
	for _, r := range all {
		if seen[r.RowNumber] {
			t.Errorf("duplicate row number %v", r.RowNumber)
		}
		seen[r.RowNumber] = true
		if r.IsManual {
			t.Errorf("batch region %v marked manual", r.RowNumber)
		}
		if r.Confidence == nil {
			t.Errorf("batch region %v has no confidence", r.RowNumber)
		}
	}
}

func TestCoordinatorRun_StopAfterFirstPage(t *testing.T) {
	dir := t.TempDir()
	pages := []string{
		writePage(t, dir, "01.png", 100, 100),
		writePage(t, dir, "02.png", 100, 100),
	}

	engine := &fakeEngine{script: twoPageScript()}
	sink := &recordingSink{}
	coord := NewCoordinator(engine, testConfig(), sink, nil)
	sink.onReceive = coord.Stop

	next, err := coord.Run(context.Background(), pages, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if coord.State() != StateStopped {
		t.Errorf("state = %v, want stopped", coord.State())
	}

	// First page's results stay applied, second page never ran.
	if len(sink.batches) != 1 {
		t.Errorf("got %d streamed batches, want 1", len(sink.batches))
	}
	if engine.calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.calls)
	}
	if next != 2 {
		t.Errorf("next row = %d, want 2", next)
	}
}

func TestCoordinatorRun_ErrorAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	pages := []string{
		writePage(t, dir, "01.png", 100, 100),
		writePage(t, dir, "02.png", 100, 100),
		writePage(t, dir, "03.png", 100, 100),
	}

	engine := &fakeEngine{script: twoPageScript(), failOn: 2}
	sink := &recordingSink{}
	coord := NewCoordinator(engine, testConfig(), sink, nil)

	_, err := coord.Run(context.Background(), pages, 0)
	if err == nil {
		t.Fatal("Run succeeded, want engine error")
	}
	if coord.State() != StateErrored {
		t.Errorf("state = %v, want errored", coord.State())
	}

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("err = %T (%v), want *EngineError", err, err)
	}
	if engineErr.Filename != "02.png" {
		t.Errorf("failing filename = %q, want 02.png", engineErr.Filename)
	}

	// Page one's streamed results are not rolled back, page three never ran.
	if len(sink.batches) != 1 {
		t.Errorf("got %d streamed batches, want 1", len(sink.batches))
	}
	if engine.calls != 2 {
		t.Errorf("engine called %d times, want 2 (no skip-and-continue)", engine.calls)
	}
}

func TestCoordinatorRun_ProgressShape(t *testing.T) {
	dir := t.TempDir()
	pages := []string{
		writePage(t, dir, "01.png", 100, 100),
		writePage(t, dir, "02.png", 100, 100),
	}

	var reports []float64
	engine := &fakeEngine{script: twoPageScript()}
	coord := NewCoordinator(engine, testConfig(), &recordingSink{}, func(p float64) {
		reports = append(reports, p)
	})

	if _, err := coord.Run(context.Background(), pages, 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(reports) < 2 {
		t.Fatalf("too few progress reports: %v", reports)
	}
	if reports[0] != 20 {
		t.Errorf("first report = %v, want 20 (startup allowance)", reports[0])
	}
	if last := reports[len(reports)-1]; last != 100 {
		t.Errorf("last report = %v, want 100", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress not monotonic: %v", reports)
		}
	}
}

func TestCoordinatorRun_EmptyProject(t *testing.T) {
	engine := &fakeEngine{}
	coord := NewCoordinator(engine, testConfig(), &recordingSink{}, nil)

	next, err := coord.Run(context.Background(), nil, 7)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if next != 7 {
		t.Errorf("next row = %d, want 7 (unchanged)", next)
	}
	if coord.State() != StateFinished {
		t.Errorf("state = %v, want finished", coord.State())
	}
}
