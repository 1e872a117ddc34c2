// Package navproc implements the navigation processor and its bounded
// thread pool (spec §5): algorithms that need more than one scan step —
// e.g. a pivot filter lookup followed by a sequential refinement pass —
// express each step as a Processor and hand the sequence to a Pool,
// which polls for cooperative cancellation between steps the same way
// algorithm.Algorithm does within a single step.
package navproc

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/messif/metrickernel/mcmn"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/operation"
)

// Processor is one navigation step. ProcessStep runs synchronously;
// ProcessStepAsync returns a thunk a Pool can run on its errgroup instead,
// for processors whose work can overlap with other steps' I/O.
type Processor interface {
	ProcessStep(ctx context.Context) (operation.Operation, error)
}

// AsyncProcessor is implemented by processors that support overlapping
// with other steps; Pool prefers this path when a concurrency limit > 1
// is configured.
type AsyncProcessor interface {
	Processor
	ProcessStepAsync(ctx context.Context) func() (operation.Operation, error)
}

// Report is the pool's post-run record: the last operation produced by
// each step (in step order) plus a best-effort disk snapshot taken right
// after the run finishes (spec §4.7 "statistics_after").
type Report struct {
	Results []operation.Operation
	Disk    []mstats.DiskSnapshot
}

// Pool is the bounded navigation thread pool; a zero-value Pool runs
// every step sequentially on the calling goroutine (limit 1).
type Pool struct {
	limit int
}

// NewPool builds a pool that runs at most limit steps concurrently.
// limit <= 1 degrades to purely sequential execution.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

// Run executes steps in order, polling ctx between each one for
// cooperative cancellation (spec §5). When the pool's limit allows it and
// a step implements AsyncProcessor, consecutive async-capable steps are
// fanned out onto the errgroup instead of run one at a time; any
// non-async step forces a sync point before and after it.
func (p *Pool) Run(ctx context.Context, steps []Processor) (*Report, error) {
	report := &Report{Results: make([]operation.Operation, 0, len(steps))}

	i := 0
	for i < len(steps) {
		if err := ctx.Err(); err != nil {
			return report, mcmn.Wrap(err, "navproc: cancelled between steps")
		}

		if p.limit > 1 {
			if batch := p.collectAsyncRun(steps, i); len(batch) > 1 {
				results, err := p.runAsyncBatch(ctx, batch)
				report.Results = append(report.Results, results...)
				i += len(batch)
				if err != nil {
					report.Disk = mstats.TakeDiskSnapshot()
					return report, err
				}
				continue
			}
		}

		op, err := steps[i].ProcessStep(ctx)
		if op != nil {
			report.Results = append(report.Results, op)
		}
		if err != nil {
			report.Disk = mstats.TakeDiskSnapshot()
			return report, err
		}
		i++
	}

	report.Disk = mstats.TakeDiskSnapshot()
	return report, nil
}

// collectAsyncRun returns the maximal run of consecutive AsyncProcessor
// steps starting at i, capped at the pool's concurrency limit.
func (p *Pool) collectAsyncRun(steps []Processor, i int) []AsyncProcessor {
	var run []AsyncProcessor
	for i+len(run) < len(steps) && len(run) < p.limit {
		ap, ok := steps[i+len(run)].(AsyncProcessor)
		if !ok {
			break
		}
		run = append(run, ap)
	}
	return run
}

func (p *Pool) runAsyncBatch(ctx context.Context, batch []AsyncProcessor) ([]operation.Operation, error) {
	results := make([]operation.Operation, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for idx, proc := range batch {
		idx, thunk := idx, proc.ProcessStepAsync(gctx)
		g.Go(func() error {
			op, err := thunk()
			results[idx] = op
			return err
		})
	}
	err := g.Wait()
	return results, err
}
