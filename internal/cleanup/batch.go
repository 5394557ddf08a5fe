package cleanup

import (
	"context"

	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

// Deleter is the write side of storage.Store.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// batch accumulates deletes and issues them together once size are pending.
// settle is called for every candidate, in the order they were added.
type batch struct {
	store   Deleter
	limiter *rate.Limiter
	size    int
	pending []Candidate
	settle  func(Candidate, error)
}

func newBatch(store Deleter, limiter *rate.Limiter, size int, settle func(Candidate, error)) *batch {
	return &batch{
		store:   store,
		limiter: limiter,
		size:    size,
		pending: make([]Candidate, 0, size),
		settle:  settle,
	}
}

func (b *batch) add(ctx context.Context, c Candidate) {
	b.pending = append(b.pending, c)
	if len(b.pending) >= b.size {
		b.flush(ctx)
	}
}

// flush waits for every pending delete before returning.
func (b *batch) flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}

	errs := make([]error, len(b.pending))
	var wg conc.WaitGroup
	for i, c := range b.pending {
		wg.Go(func() {
			if b.limiter != nil {
				if err := b.limiter.Wait(ctx); err != nil {
					errs[i] = err
					return
				}
			}
			errs[i] = b.store.Delete(ctx, c.Key)
		})
	}
	wg.Wait()

	for i, c := range b.pending {
		b.settle(c, errs[i])
	}
	b.pending = b.pending[:0]
}
