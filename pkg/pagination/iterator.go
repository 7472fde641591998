// Package pagination drives repeated batch fetches as an explicit, pull-based
// iterator over normalized records.
//
// An Iterator is lazy (a batch is requested only when the caller asks for a
// record and none are buffered), finite (it never yields more than its bound)
// and not restartable (once it ends, every call to Next returns ErrDone; a new
// search starts a new Iterator from offset zero).
package pagination

import (
	"context"
	"errors"
	"iter"

	"apiscraper/pkg/config"
	"apiscraper/pkg/logger"
	"apiscraper/pkg/ratelimit"
	"github.com/rs/xid"
)

// ErrDone is returned by Next once the iterator is exhausted
var ErrDone = errors.New("pagination: no more records")

// State is the position of an iterator. It is mutated once per batch.
type State struct {
	// Cursor is the opaque continuation token reported by the last batch.
	Cursor string
	// Offset is the number of records requested so far.
	Offset int
	// Page is the zero-based index of the next batch.
	Page    int
	Yielded int
	Max     int
}

// Remaining is the budget left before the bound is reached
func (s State) Remaining() int {
	if s.Yielded >= s.Max {
		return 0
	}
	return s.Max - s.Yielded
}

// Batch is one fetched page as seen by the iterator
type Batch[T any] struct {
	Records []T
	Cursor  string
	// More reports whether the source signals further pages.
	More bool
}

// Fetcher fetches the batch at state, asking for size records
type Fetcher[T any] func(ctx context.Context, state State, size int) (Batch[T], error)

// Options configures an Iterator
type Options struct {
	Site     string
	PageSize int
	Max      int
	// PageDelay is paced before every batch after the first.
	PageDelay config.Delay
	// KeepOverflow keeps records a batch returns beyond the requested size.
	// Offset paged sources leave it unset, since the next offset would
	// serve those records again.
	KeepOverflow bool
	Pacer     ratelimit.Pacer
	Logger    logger.Logger
}

// Iterator yields records from successive batches up to a bound
type Iterator[T any] struct {
	fetch    Fetcher[T]
	opts     Options
	log      logger.Logger
	state    State
	buf      []T
	batches  int
	finished bool
	err      error
}

// New creates an iterator. Nothing is fetched until the first call to Next.
func New[T any](fetch Fetcher[T], opts Options) *Iterator[T] {
	if opts.Max < 0 {
		opts.Max = 0
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1
	}
	if opts.Pacer == nil {
		opts.Pacer = ratelimit.Nop{}
	}

	log := logger.OrNop(opts.Logger).WithFields(map[string]interface{}{
		"site":   opts.Site,
		"run_id": xid.New().String(),
	})

	return &Iterator[T]{
		fetch: fetch,
		opts:  opts,
		log:   log,
		state: State{Max: opts.Max},
	}
}

// State returns a copy of the current position
func (it *Iterator[T]) State() State {
	return it.state
}

// Batches returns how many batches have been fetched
func (it *Iterator[T]) Batches() int {
	return it.batches
}

// Next returns the next record, ErrDone when exhausted, or the error that
// terminated pagination. Errors are sticky.
func (it *Iterator[T]) Next(ctx context.Context) (T, error) {
	var zero T

	for len(it.buf) == 0 {
		if it.err != nil {
			return zero, it.err
		}
		if it.finished || it.state.Remaining() == 0 {
			it.finished = true
			return zero, ErrDone
		}
		if err := it.fill(ctx); err != nil {
			it.err = err
			return zero, err
		}
	}

	rec := it.buf[0]
	it.buf = it.buf[1:]
	return rec, nil
}

func (it *Iterator[T]) fill(ctx context.Context) error {
	if it.batches > 0 {
		if err := it.opts.Pacer.Pace(ctx, it.opts.PageDelay); err != nil {
			return err
		}
	}

	size := min(it.opts.PageSize, it.state.Remaining())
	it.log.DebugWithFields("fetching batch", map[string]interface{}{
		"batch":  it.batches + 1,
		"offset": it.state.Offset,
		"page":   it.state.Page,
		"size":   size,
		"cursor": it.state.Cursor,
	})

	batch, err := it.fetch(ctx, it.state, size)
	if err != nil {
		it.log.WithError(err).WarnWithFields("batch failed, stopping pagination", map[string]interface{}{
			"batch":   it.batches + 1,
			"yielded": it.state.Yielded,
		})
		return err
	}
	it.batches++

	records := batch.Records
	if !it.opts.KeepOverflow && len(records) > size {
		records = records[:size]
	}
	if len(records) > it.state.Remaining() {
		records = records[:it.state.Remaining()]
	}
	it.buf = append(it.buf, records...)

	it.state.Yielded += len(records)
	it.state.Offset += size
	it.state.Page++
	it.state.Cursor = batch.Cursor

	switch {
	case len(batch.Records) == 0:
		it.finished = true
		it.log.Info("empty batch, source exhausted")
	case !batch.More:
		it.finished = true
		it.log.InfoWithFields("no more pages", map[string]interface{}{"yielded": it.state.Yielded})
	case it.state.Remaining() == 0:
		it.finished = true
	}

	logger.LogSearchProgress(it.log, it.opts.Site, it.state.Yielded, it.state.Max)
	return nil
}

// All adapts the iterator to a range-over-func sequence. Iteration stops at
// the end of the records or after yielding the terminating error.
func (it *Iterator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			rec, err := it.Next(ctx)
			if errors.Is(err, ErrDone) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Collect drains the iterator. On error it returns the records yielded so far.
func (it *Iterator[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for rec, err := range it.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
