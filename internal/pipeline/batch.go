package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/inkbound/scanlate/internal/detection"
	"github.com/inkbound/scanlate/internal/imaging"
	"github.com/inkbound/scanlate/internal/ocr"
	"github.com/inkbound/scanlate/internal/project"
)

// State is the coordinator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateStopped
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateStopped:
		return "stopped"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ResultSink receives newly-numbered regions as each page completes.
// project.Store satisfies it.
type ResultSink interface {
	AddBatchResults(regions []project.Region)
}

// Coordinator runs the per-page pipeline strictly sequentially over a
// project's images, assigns global row numbers, and streams each page's
// results into the sink as soon as they exist. One engine call is in flight
// at any time, which bounds peak memory and engine resource usage.
type Coordinator struct {
	runID    string
	job      *Job
	sink     ResultSink
	progress ProgressFunc

	mu    sync.Mutex
	state State
	stop  atomic.Bool
}

// NewCoordinator wires a coordinator to an engine, config and sink. The
// progress callback may be nil.
func NewCoordinator(engine ocr.Engine, cfg Config, sink ResultSink, progress ProgressFunc) *Coordinator {
	return &Coordinator{
		runID:    uuid.NewString(),
		job:      NewJob(engine, cfg, imaging.NewCache()),
		sink:     sink,
		progress: progress,
		state:    StateIdle,
	}
}

// RunID identifies this coordinator's batch in logs.
func (c *Coordinator) RunID() string { return c.runID }

// State returns the current lifecycle state. Safe to call from any
// goroutine.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Stop requests cooperative cancellation. The in-flight page is abandoned
// at its next cancellation point; pages already streamed are not rolled
// back.
func (c *Coordinator) Stop() { c.stop.Store(true) }

// Run processes the images in order, numbering regions from startRow, and
// returns the next free row number for the caller to persist. Results are
// streamed into the sink per page.
//
// Any page failure aborts the rest of the batch and is returned with the
// originating file attached; a cooperative stop ends the run without error.
// The outcome is also readable via State.
func (c *Coordinator) Run(ctx context.Context, images []string, startRow int) (int, error) {
	c.mu.Lock()
	if c.state == StateRunning {
		c.mu.Unlock()
		return startRow, errors.New("batch already running")
	}
	c.state = StateRunning
	c.mu.Unlock()

	stopped := func() bool {
		return c.stop.Load() || ctx.Err() != nil
	}

	log.Printf("batch %s: starting over %d images at row %d", c.runID, len(images), startRow)
	c.report(20)

	next := startRow
	total := len(images)
	for i, path := range images {
		if stopped() {
			c.setState(StateStopped)
			log.Printf("batch %s: stopped before image %d/%d", c.runID, i+1, total)
			return next, nil
		}

		idx := i
		sub := func(p float64) {
			c.report(20 + (float64(idx)+p/100)*80/float64(total))
		}

		regions, err := c.job.Run(ctx, path, stopped, sub)
		if errors.Is(err, ErrStopped) {
			c.setState(StateStopped)
			log.Printf("batch %s: stopped during image %d/%d", c.runID, i+1, total)
			return next, nil
		}
		if err != nil {
			c.setState(StateErrored)
			return next, err
		}

		sortByTop(regions)
		numbered := make([]project.Region, 0, len(regions))
		for _, r := range regions {
			r.RowNumber = float64(next)
			next++
			numbered = append(numbered, toProjectRegion(r, false))
		}
		c.sink.AddBatchResults(numbered)
	}

	c.setState(StateFinished)
	c.report(100)
	log.Printf("batch %s: finished, next row %d", c.runID, next)
	return next, nil
}

func (c *Coordinator) report(percent float64) {
	if c.progress != nil {
		c.progress(percent)
	}
}

// sortByTop orders a page's merged regions top to bottom before numbering.
// Regions with unusable coordinates sort last, keeping detection order
// among themselves.
func sortByTop(regions []detection.Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Quad.MinY() < regions[j].Quad.MinY()
	})
}

func toProjectRegion(r detection.Region, manual bool) project.Region {
	conf := r.Confidence
	return project.Region{
		Coordinates: r.Quad,
		Text:        r.Text,
		Confidence:  &conf,
		Filename:    r.Filename,
		RowNumber:   r.RowNumber,
		IsManual:    manual,
	}
}

// ToProjectRegions converts pipeline output into store records, keeping the
// row numbers already assigned.
func ToProjectRegions(regions []detection.Region) []project.Region {
	out := make([]project.Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, toProjectRegion(r, false))
	}
	return out
}
