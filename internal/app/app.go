package app

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dev-tams/assetsweep/internal/config"
	"github.com/dev-tams/assetsweep/internal/metrics"
	"github.com/dev-tams/assetsweep/internal/storage"
)

// ErrStoreUnavailable marks invocations that failed before anything was
// scanned because the store could not be opened or listed.
var ErrStoreUnavailable = errors.New("asset store unavailable")

const analyzeMode = "analyze"

// Runtime carries what every command shares.
type Runtime struct {
	Log     zerolog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs the daemon's /metrics endpoint when set.
	Gatherer prometheus.Gatherer

	openStore func(ctx context.Context, cfg config.StoreConfig) (storage.Store, error)
}

func (rt Runtime) open(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	if rt.openStore != nil {
		return rt.openStore(ctx, cfg)
	}
	return storeFromConfig(ctx, cfg)
}

func (rt Runtime) closeStore(st storage.Store) {
	if err := st.Close(); err != nil {
		rt.Log.Warn().Err(err).Str("store", st.Name()).Msg("close store")
	}
}

// observeOpenFailure records a run that never reached the scan.
func (rt Runtime) observeOpenFailure(mode string, dryRun bool, started time.Time) {
	rt.Metrics.ObserveRun(metrics.RunReport{
		Mode:     mode,
		DryRun:   dryRun,
		Duration: time.Since(started),
		Failed:   true,
	})
}
