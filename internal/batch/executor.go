// Package batch implements the Batch Executor: it groups a sequence
// of per-item Gmail operations into bounded-concurrency chunks and reports
// an independent outcome for every item, so one item's failure never aborts
// its siblings.
//
// Gmail's old multipart/mixed HTTP batch endpoint is deprecated for most
// Workspace APIs; the native per-call endpoints (messages.get, messages.trash,
// messages.modify, ...) don't have a bulk counterpart with per-item results
// except messages.batchModify/batchDelete, which apply to a whole id set
// atomically and report no per-id outcome. The executor here reproduces the
// per-item-outcome contract with bounded concurrent dispatch instead of a
// literal wire-level batch; chunk boundaries still bound how many requests
// are in flight against the rate limiter at once.
package batch

import (
	"context"
	"sync"

	"github.com/thegrumpylion/google-mcp/internal/gmailerr"
	"github.com/thegrumpylion/google-mcp/internal/metrics"
)

// DefaultChunkSize is the default number of items processed concurrently
// per chunk. It is a tenth of MaxChunkSize, which equals the Gmail
// batchModify/batchDelete limit of 1000 ids per request.
const DefaultChunkSize = 100

// MaxChunkSize is the hard ceiling on chunk size.
const MaxChunkSize = 1000

// Outcome is the per-item result of a batch operation.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// OK reports whether the item succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Kind returns the classified error kind, or Unknown on success.
func (o Outcome[T]) Kind() gmailerr.Kind {
	if o.Err == nil {
		return gmailerr.Unknown
	}
	return gmailerr.KindOf(o.Err)
}

// Executor runs item operations with bounded concurrency.
type Executor struct {
	chunkSize int
	metrics   *metrics.Metrics
}

// Config configures an Executor.
type Config struct {
	ChunkSize int
}

// New builds an Executor. A ChunkSize <= 0 or > MaxChunkSize is clamped.
func New(cfg Config, m *metrics.Metrics) *Executor {
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	if size > MaxChunkSize {
		size = MaxChunkSize
	}
	return &Executor{chunkSize: size, metrics: m}
}

// Run applies fn to every item in items with at most e.chunkSize operations
// in flight at a time, returning one Outcome per item in input order. A
// context cancellation stops launching new work but still returns an
// Outcome (Cancelled) for every item that never ran.
func Run[I any, O any](ctx context.Context, e *Executor, items []I, fn func(ctx context.Context, item I) (O, error)) []Outcome[O] {
	out := make([]Outcome[O], len(items))
	if len(items) == 0 {
		return out
	}

	chunkSize := e.chunkSize
	if e.metrics != nil {
		remaining := len(items)
		for remaining > 0 {
			n := chunkSize
			if n > remaining {
				n = remaining
			}
			e.metrics.BatchChunkSize.Observe(float64(n))
			remaining -= n
		}
	}

	sem := make(chan struct{}, chunkSize)
	var wg sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		select {
		case <-ctx.Done():
			out[i] = Outcome[O]{Index: i, Err: gmailerr.Wrap(gmailerr.Cancelled, ctx.Err(), "batch item %d", i)}
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			v, err := fn(ctx, item)
			if err != nil {
				out[i] = Outcome[O]{Index: i, Err: err}
				return
			}
			out[i] = Outcome[O]{Index: i, Value: v}
		}()
	}
	wg.Wait()
	return out
}

// Succeeded filters outcomes down to successful values, in original order.
func Succeeded[O any](outcomes []Outcome[O]) []O {
	vals := make([]O, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			vals = append(vals, o.Value)
		}
	}
	return vals
}

// Failed filters outcomes down to the failures, in original order.
func Failed[O any](outcomes []Outcome[O]) []Outcome[O] {
	fails := make([]Outcome[O], 0)
	for _, o := range outcomes {
		if !o.OK() {
			fails = append(fails, o)
		}
	}
	return fails
}
