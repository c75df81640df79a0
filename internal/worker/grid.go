package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

// shardsPerWorker keeps workers busy when shards take uneven time
const shardsPerWorker = 4

// ChartBuilder builds one snapshot. It must be safe for concurrent use.
type ChartBuilder interface {
	Build(instant time.Time, lat, lon float64, opts model.ChartOptions) (model.ChartSnapshot, error)
}

// ChartJob builds the snapshots of one contiguous shard of candidate instants
type ChartJob struct {
	Offset   int // Index of Instants[0] in the full grid
	Instants []time.Time
	Lat, Lon float64
	Opts     model.ChartOptions
	Builder  ChartBuilder
}

// Execute builds the shard, checking for cancellation before every instant
func (j *ChartJob) Execute(ctx context.Context) Result {
	out := &ChartResult{Offset: j.Offset, Snapshots: make([]model.ChartSnapshot, 0, len(j.Instants))}
	for i, at := range j.Instants {
		if err := ctx.Err(); err != nil {
			out.Error = err
			return out
		}
		snap, err := j.Builder.Build(at, j.Lat, j.Lon, j.Opts)
		if err != nil {
			out.Error = fmt.Errorf("candidate %s: %w", at.Format(time.RFC3339), err)
			out.FailedAt = j.Offset + i
			return out
		}
		out.Snapshots = append(out.Snapshots, snap)
	}
	return out
}

// ChartResult holds the snapshots of one shard
type ChartResult struct {
	Offset    int
	Snapshots []model.ChartSnapshot
	FailedAt  int
	Error     error
}

// GetError returns the error from the shard
func (r *ChartResult) GetError() error {
	return r.Error
}

// GridBuilder builds the snapshots of a candidate grid concurrently
type GridBuilder struct {
	builder ChartBuilder
	workers int
	observe func(candidates int, elapsed time.Duration)
}

// NewGridBuilder creates a new grid builder
func NewGridBuilder(builder ChartBuilder, workers int) *GridBuilder {
	return &GridBuilder{builder: builder, workers: workers}
}

// OnBuilt registers a callback invoked after every completed grid
func (g *GridBuilder) OnBuilt(fn func(candidates int, elapsed time.Duration)) {
	g.observe = fn
}

// Build returns one snapshot per instant, in input order. Nothing is
// returned unless every candidate was built; on cancellation the context
// error is returned.
func (g *GridBuilder) Build(ctx context.Context, instants []time.Time, lat, lon float64, opts model.ChartOptions) ([]model.ChartSnapshot, error) {
	if len(instants) == 0 {
		return []model.ChartSnapshot{}, nil
	}
	start := time.Now()

	pool := NewPool(ctx, g.workers)
	defer pool.Shutdown()
	pool.Start()

	results := pool.Run(g.shard(instants, lat, lon, opts))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("grid build cancelled: %w", err)
	}

	out := make([]model.ChartSnapshot, len(instants))
	built := 0
	var failed *ChartResult
	for _, r := range results {
		cr := r.(*ChartResult)
		if cr.Error != nil {
			// Report the earliest failing candidate regardless of completion order
			if failed == nil || cr.FailedAt < failed.FailedAt {
				failed = cr
			}
			continue
		}
		copy(out[cr.Offset:], cr.Snapshots)
		built += len(cr.Snapshots)
	}
	if failed != nil {
		return nil, failed.Error
	}
	if built != len(instants) {
		return nil, fmt.Errorf("grid build incomplete: %d of %d candidates", built, len(instants))
	}

	if g.observe != nil {
		g.observe(len(instants), time.Since(start))
	}
	return out, nil
}

func (g *GridBuilder) shard(instants []time.Time, lat, lon float64, opts model.ChartOptions) []Job {
	workers := g.workers
	if workers <= 0 {
		workers = 1
	}
	size := (len(instants) + workers*shardsPerWorker - 1) / (workers * shardsPerWorker)
	if size < 1 {
		size = 1
	}

	jobs := make([]Job, 0, (len(instants)+size-1)/size)
	for off := 0; off < len(instants); off += size {
		end := min(off+size, len(instants))
		jobs = append(jobs, &ChartJob{
			Offset:   off,
			Instants: instants[off:end],
			Lat:      lat,
			Lon:      lon,
			Opts:     opts,
			Builder:  g.builder,
		})
	}
	return jobs
}
