package cleanup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dev-tams/assetsweep/internal/catalog"
	"github.com/dev-tams/assetsweep/internal/classify"
	"github.com/dev-tams/assetsweep/internal/dedupe"
	"github.com/dev-tams/assetsweep/internal/metrics"
)

// Store is what a Runner needs from a storage backend.
type Store interface {
	catalog.Reader
	Deleter
}

type Runner struct {
	store   Store
	prefix  string
	log     zerolog.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter
	now     func() time.Time
}

type RunnerOption func(*Runner)

func WithLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithDeleteRate limits real deletes to perSecond. Zero or less means unlimited.
func WithDeleteRate(perSecond float64) RunnerOption {
	return func(r *Runner) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		burst := int(math.Ceil(perSecond))
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewRunner scans keys under prefix in store.
func NewRunner(store Store, prefix string, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:  store,
		prefix: prefix,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Junk deletes every asset the junk classifier flags, up to MaxDeletions.
func (r *Runner) Junk(ctx context.Context, opts Options) (*Result, error) {
	rn := r.begin(ctx, ModeJunk, opts)
	stats, err := catalog.Scan(ctx, r.store, r.prefix, rn.log, func(rec catalog.Record) error {
		if !classify.IsJunk(rec.Asset) {
			return nil
		}
		rn.res.Found++
		rn.consider(ctx, newCandidate(rec, classify.JunkReason(rec.Asset)))
		return nil
	})
	return rn.finish(ctx, stats, err)
}

// LowQuality deletes assets scoring below QualityThreshold, up to MaxDeletions.
// With ExcludeJunk, junk assets are left for the junk mode.
func (r *Runner) LowQuality(ctx context.Context, opts Options) (*Result, error) {
	rn := r.begin(ctx, ModeLowQuality, opts)
	stats, err := catalog.Scan(ctx, r.store, r.prefix, rn.log, func(rec catalog.Record) error {
		if rn.opts.ExcludeJunk && classify.IsJunk(rec.Asset) {
			return nil
		}
		score := classify.Score(rec.Asset.Src)
		if score >= rn.opts.QualityThreshold {
			return nil
		}
		rn.res.Found++
		c := newCandidate(rec, fmt.Sprintf("Low quality score: %d", score))
		c.QualityScore = &score
		rn.consider(ctx, c)
		return nil
	})
	return rn.finish(ctx, stats, err)
}

// Duplicates groups the whole collection by signature, keeps one member of
// each group and deletes the rest. The cap is shared by all groups, which
// are handled in first-seen order. Junk assets are grouped too, so this
// finds more duplicates than the analytics seen-before count.
func (r *Runner) Duplicates(ctx context.Context, opts Options) (*Result, error) {
	rn := r.begin(ctx, ModeDuplicates, opts)
	groups := dedupe.NewGroups()
	stats, err := catalog.Scan(ctx, r.store, r.prefix, rn.log, func(rec catalog.Record) error {
		groups.Add(dedupe.Member{Key: rec.Key, Asset: rec.Asset})
		return nil
	})
	if err != nil {
		return rn.finish(ctx, stats, err)
	}

	dups := groups.Duplicates()
	rn.res.DuplicateGroups = len(dups)
	for _, g := range dups {
		if err := ctx.Err(); err != nil {
			return rn.finish(ctx, stats, err)
		}
		for _, c := range duplicateCandidates(g, rn.opts.KeepStrategy) {
			rn.res.Found++
			rn.consider(ctx, c)
		}
	}
	return rn.finish(ctx, stats, nil)
}

func duplicateCandidates(g *dedupe.Group, strategy dedupe.KeepStrategy) []Candidate {
	keep := dedupe.SelectKeeper(g.Members, strategy)
	if keep < 0 {
		return nil
	}
	keeper := g.Members[keep]
	out := make([]Candidate, 0, len(g.Members)-1)
	for i, m := range g.Members {
		if i == keep {
			continue
		}
		c := newCandidate(catalog.Record{Key: m.Key, Asset: m.Asset}, "Duplicate of "+keeper.Asset.ID)
		c.KeptID = keeper.Asset.ID
		out = append(out, c)
	}
	return out
}

// run is the state of one destructive invocation.
type run struct {
	r       *Runner
	mode    Mode
	opts    Options
	res     *Result
	log     zerolog.Logger
	batch   *batch
	planned int
	started time.Time
}

func (r *Runner) begin(ctx context.Context, mode Mode, opts Options) *run {
	opts = opts.normalized()
	id := uuid.NewString()
	rn := &run{
		r:       r,
		mode:    mode,
		opts:    opts,
		res:     newResult(id, mode, opts.DryRun),
		log:     r.log.With().Str("run_id", id).Str("mode", string(mode)).Logger(),
		started: r.now(),
	}
	rn.batch = newBatch(r.store, r.limiter, opts.BatchSize, rn.settle)
	rn.log.Debug().
		Bool("dry_run", opts.DryRun).
		Int("max_deletions", opts.MaxDeletions).
		Int("batch_size", opts.BatchSize).
		Msg("cleanup started")
	return rn
}

// consider applies the deletion cap and either records or queues c.
func (rn *run) consider(ctx context.Context, c Candidate) {
	if rn.planned >= rn.opts.MaxDeletions {
		rn.res.Skipped++
		rn.log.Debug().Str("key", c.Key).Msg("max deletions reached, skipped")
		return
	}
	rn.planned++
	rn.log.Debug().Str("key", c.Key).Str("reason", c.Reason).Msg("candidate")

	if rn.opts.DryRun {
		rn.record(c)
		return
	}
	rn.batch.add(ctx, c)
}

func (rn *run) settle(c Candidate, err error) {
	if err != nil {
		rn.res.Errors = append(rn.res.Errors, ItemError{ID: c.ID, Key: c.Key, Error: err.Error()})
		rn.log.Warn().Err(err).Str("key", c.Key).Msg("delete failed")
		return
	}
	rn.record(c)
}

func (rn *run) record(c Candidate) {
	rn.res.Deleted++
	rn.res.DeletedAssets = append(rn.res.DeletedAssets, c)
	rn.res.StorageSavedBytes += c.EstimatedSize
}

// finish drains pending deletes and completes the report. A listing failure
// yields no result; any other error is returned with the partial result.
func (rn *run) finish(ctx context.Context, stats catalog.Stats, scanErr error) (*Result, error) {
	var listErr *catalog.ListError
	if errors.As(scanErr, &listErr) {
		rn.r.metrics.ObserveRun(metrics.RunReport{Mode: string(rn.mode), DryRun: rn.opts.DryRun, Failed: true})
		return nil, scanErr
	}

	rn.batch.flush(ctx)

	res := rn.res
	res.Scanned = stats.Scanned
	res.StorageSaved = classify.FormatBytes(res.StorageSavedBytes)
	elapsed := rn.r.now().Sub(rn.started)
	res.DurationMs = elapsed.Milliseconds()

	rn.r.metrics.ObserveRun(metrics.RunReport{
		Mode:      string(rn.mode),
		DryRun:    res.DryRun,
		Scanned:   res.Scanned,
		Deleted:   res.Deleted,
		Skipped:   res.Skipped,
		Errors:    len(res.Errors),
		Reclaimed: res.StorageSavedBytes,
		Duration:  elapsed,
		Failed:    scanErr != nil,
	})

	ev := rn.log.Info()
	if scanErr != nil {
		ev = rn.log.Warn().Err(scanErr)
	}
	ev.Bool("dry_run", res.DryRun).
		Int("scanned", res.Scanned).
		Int("found", res.Found).
		Int("deleted", res.Deleted).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Int("unreadable", stats.Skipped).
		Str("storage_saved", res.StorageSaved).
		Msg("cleanup finished")

	return res, scanErr
}
