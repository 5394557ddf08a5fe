package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dev-tams/assetsweep/internal/cleanup"
	"github.com/dev-tams/assetsweep/internal/config"
	"github.com/dev-tams/assetsweep/internal/schedule"
)

type daemonJob struct {
	cfg      config.ScheduleConfig
	schedule schedule.CronSpec
}

type daemon struct {
	cfg        *config.Config
	rt         Runtime
	runTimeout time.Duration
	jobs       []daemonJob
	lastRun    map[string]time.Time
}

func newDaemon(cfg *config.Config, rt Runtime, runTimeout time.Duration) (*daemon, error) {
	jobs := make([]daemonJob, 0, len(cfg.Schedules))
	for i, s := range cfg.Schedules {
		spec, err := schedule.Parse(s.Cron)
		if err != nil {
			return nil, fmt.Errorf("schedules[%d] %s: invalid cron %q: %w", i, s.Name, s.Cron, err)
		}
		jobs = append(jobs, daemonJob{cfg: s, schedule: spec})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("daemon: no schedules configured")
	}
	return &daemon{
		cfg:        cfg,
		rt:         rt,
		runTimeout: runTimeout,
		jobs:       jobs,
		lastRun:    make(map[string]time.Time, len(jobs)),
	}, nil
}

// RunDaemon runs the configured schedules until ctx is cancelled. A failed
// or timed-out run is logged and the daemon keeps going.
func RunDaemon(ctx context.Context, cfg *config.Config, rt Runtime, runTimeout time.Duration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d, err := newDaemon(cfg, rt, runTimeout)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" && rt.Gatherer != nil {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(rt),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rt.Log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics listener stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		rt.Log.Info().Str("addr", cfg.Metrics.Addr).Msg("daemon: serving metrics")
	}

	rt.Log.Info().Int("schedules", len(d.jobs)).Msg("daemon: started")

	lastMinute := time.Time{}
	for {
		select {
		case <-ctx.Done():
			rt.Log.Info().Msg("daemon: shutdown requested")
			return nil
		default:
		}

		currentMinute := time.Now().UTC().Truncate(time.Minute)
		if currentMinute.Equal(lastMinute) {
			sleepUntilNextPoll(ctx, 500*time.Millisecond)
			continue
		}
		lastMinute = currentMinute
		d.tick(ctx, currentMinute)
	}
}

func metricsMux(rt Runtime) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	return mux
}

// tick runs every job due in minute that has not already run in it and
// returns how many ran.
func (d *daemon) tick(ctx context.Context, minute time.Time) int {
	ran := 0
	for _, job := range d.jobs {
		if !job.schedule.Matches(minute) {
			continue
		}
		if lm, ok := d.lastRun[job.cfg.Name]; ok && lm.Equal(minute) {
			continue
		}
		d.lastRun[job.cfg.Name] = minute
		ran++

		log := d.rt.Log.With().Str("schedule", job.cfg.Name).Str("mode", job.cfg.Mode).Logger()
		log.Info().Time("minute", minute).Bool("dry_run", job.cfg.DryRun).Msg("daemon: triggering run")

		runCtx := ctx
		cancel := func() {}
		if d.runTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, d.runTimeout)
		}
		err := d.runJob(runCtx, job.cfg)
		cancel()

		switch {
		case err == nil:
		case d.runTimeout > 0 && errors.Is(err, context.DeadlineExceeded):
			log.Warn().Dur("timeout", d.runTimeout).Msg("daemon: run timed out, partial result kept")
		default:
			log.Error().Err(err).Msg("daemon: run failed")
		}
	}
	return ran
}

func (d *daemon) runJob(ctx context.Context, job config.ScheduleConfig) error {
	if job.Mode == analyzeMode {
		_, err := RunAnalytics(ctx, d.cfg, d.rt)
		return err
	}
	mode, err := cleanup.ParseMode(job.Mode)
	if err != nil {
		return err
	}
	dryRun := job.DryRun
	_, err = RunCleanup(ctx, d.cfg, mode, Overrides{DryRun: &dryRun}, d.rt)
	return err
}

func sleepUntilNextPoll(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
