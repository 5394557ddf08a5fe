package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dev-tams/assetsweep/internal/catalog"
	"github.com/dev-tams/assetsweep/internal/cleanup"
	"github.com/dev-tams/assetsweep/internal/config"
	"github.com/dev-tams/assetsweep/internal/dedupe"
	"github.com/dev-tams/assetsweep/internal/notify"
)

// Overrides are per-invocation values that replace the configured ones.
// Nil fields keep the configuration.
type Overrides struct {
	DryRun           *bool
	MaxDeletions     *int
	BatchSize        *int
	QualityThreshold *int
	ExcludeJunk      *bool
	KeepStrategy     *string
	MaxPreview       *int
}

// OptionsFor resolves the cleanup options for mode from configuration and overrides.
func OptionsFor(cfg config.CleanupConfig, mode cleanup.Mode, ov Overrides) cleanup.Options {
	opts := cleanup.DefaultOptions(mode)
	opts.BatchSize = cfg.BatchSize

	switch mode {
	case cleanup.ModeJunk:
		opts.MaxDeletions = cfg.Junk.MaxDeletions
	case cleanup.ModeLowQuality:
		opts.MaxDeletions = cfg.LowQuality.MaxDeletions
		opts.QualityThreshold = cfg.LowQuality.QualityThreshold
		opts.ExcludeJunk = cfg.LowQuality.ExcludeJunk
	case cleanup.ModeDuplicates:
		opts.MaxDeletions = cfg.Duplicates.MaxDeletions
		opts.KeepStrategy = dedupe.ParseKeepStrategy(cfg.Duplicates.KeepStrategy)
	case cleanup.ModePreview:
		opts.MaxPreview = cfg.Preview.MaxPreview
		opts.QualityThreshold = cfg.Preview.QualityThreshold
		opts.KeepStrategy = dedupe.ParseKeepStrategy(cfg.Preview.KeepStrategy)
	}

	if ov.DryRun != nil {
		opts.DryRun = *ov.DryRun
	}
	if ov.MaxDeletions != nil {
		opts.MaxDeletions = *ov.MaxDeletions
	}
	if ov.BatchSize != nil {
		opts.BatchSize = *ov.BatchSize
	}
	if ov.QualityThreshold != nil {
		opts.QualityThreshold = *ov.QualityThreshold
	}
	if ov.ExcludeJunk != nil {
		opts.ExcludeJunk = *ov.ExcludeJunk
	}
	if ov.KeepStrategy != nil {
		opts.KeepStrategy = dedupe.ParseKeepStrategy(*ov.KeepStrategy)
	}
	if ov.MaxPreview != nil {
		opts.MaxPreview = *ov.MaxPreview
	}
	if mode == cleanup.ModePreview {
		opts.DryRun = true
	}
	return opts
}

// RunCleanup opens the configured store and runs one destructive mode
// (junk, low_quality or duplicates). Per-asset failures are in the result;
// only an unavailable store or a cancelled context is returned as an error.
func RunCleanup(ctx context.Context, cfg *config.Config, mode cleanup.Mode, ov Overrides, rt Runtime) (*cleanup.Result, error) {
	if mode == cleanup.ModePreview {
		return nil, fmt.Errorf("mode %s has no cleanup result, use RunPreview", mode)
	}
	started := time.Now()
	opts := OptionsFor(cfg.Cleanup, mode, ov)

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		return nil, err
	}

	st, err := rt.open(ctx, cfg.Store)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		rt.observeOpenFailure(string(mode), opts.DryRun, started)
		notifyRun(ctx, dispatcher, failureEvent(string(mode), opts.DryRun, err, time.Since(started)), rt)
		return nil, err
	}
	defer rt.closeStore(st)

	runner := cleanup.NewRunner(st, cfg.Store.Prefix,
		cleanup.WithLogger(rt.Log.With().Str("store", st.Name()).Logger()),
		cleanup.WithMetrics(rt.Metrics),
		cleanup.WithDeleteRate(cfg.Cleanup.DeleteRate),
	)

	var res *cleanup.Result
	switch mode {
	case cleanup.ModeJunk:
		res, err = runner.Junk(ctx, opts)
	case cleanup.ModeLowQuality:
		res, err = runner.LowQuality(ctx, opts)
	case cleanup.ModeDuplicates:
		res, err = runner.Duplicates(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported cleanup mode %q", mode)
	}
	err = unavailable(err)

	notifyRun(ctx, dispatcher, cleanupEvent(res, string(mode), opts.DryRun, err, time.Since(started)), rt)
	return res, err
}

// RunPreview reports what each cleanup mode would remove.
func RunPreview(ctx context.Context, cfg *config.Config, ov Overrides, rt Runtime) (*cleanup.PreviewResult, error) {
	started := time.Now()
	st, err := rt.open(ctx, cfg.Store)
	if err != nil {
		rt.observeOpenFailure(string(cleanup.ModePreview), true, started)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer rt.closeStore(st)

	runner := cleanup.NewRunner(st, cfg.Store.Prefix,
		cleanup.WithLogger(rt.Log.With().Str("store", st.Name()).Logger()),
		cleanup.WithMetrics(rt.Metrics),
	)
	res, err := runner.Preview(ctx, OptionsFor(cfg.Cleanup, cleanup.ModePreview, ov))
	return res, unavailable(err)
}

// unavailable tags listing failures so callers can tell them from cancellation.
func unavailable(err error) error {
	var le *catalog.ListError
	if errors.As(err, &le) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
