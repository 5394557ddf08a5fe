package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dev-tams/assetsweep/internal/analytics"
	"github.com/dev-tams/assetsweep/internal/config"
	"github.com/dev-tams/assetsweep/internal/metrics"
	"github.com/dev-tams/assetsweep/internal/notify"
)

// RunAnalytics scans the configured store once and reports collection health.
func RunAnalytics(ctx context.Context, cfg *config.Config, rt Runtime) (*analytics.Report, error) {
	started := time.Now()

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		return nil, err
	}

	st, err := rt.open(ctx, cfg.Store)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		rt.observeOpenFailure(analyzeMode, true, started)
		notifyRun(ctx, dispatcher, failureEvent(analyzeMode, true, err, time.Since(started)), rt)
		return nil, err
	}
	defer rt.closeStore(st)

	log := rt.Log.With().Str("mode", analyzeMode).Str("store", st.Name()).Logger()
	rep, err := analytics.Analyze(ctx, st, cfg.Store.Prefix, log)
	err = unavailable(err)
	elapsed := time.Since(started)

	report := metrics.RunReport{Mode: analyzeMode, DryRun: true, Duration: elapsed, Failed: err != nil}
	ev := failureEvent(analyzeMode, true, err, elapsed)
	if rep != nil {
		report.Scanned = rep.TotalAssets
		rt.Metrics.ObserveCollection(rep.TotalAssets, rep.EstimatedWaste.Bytes)
		ev.Status = notify.StatusSuccess
		ev.Scanned = rep.TotalAssets
		ev.Found = rep.JunkAssets + rep.LowQualityAssets + rep.DuplicateAssets
		ev.StorageSaved = rep.EstimatedWaste.Formatted
		for _, rc := range []notify.ReasonCount{
			{Reason: "Junk", Count: rep.JunkAssets},
			{Reason: "Low quality", Count: rep.LowQualityAssets},
			{Reason: "Duplicate", Count: rep.DuplicateAssets},
		} {
			if rc.Count > 0 {
				ev.Reasons = append(ev.Reasons, rc)
			}
		}
	}
	rt.Metrics.ObserveRun(report)
	notifyRun(ctx, dispatcher, ev, rt)

	return rep, err
}
