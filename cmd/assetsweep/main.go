package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/dev-tams/assetsweep/internal/app"
	"github.com/dev-tams/assetsweep/internal/cleanup"
	"github.com/dev-tams/assetsweep/internal/config"
	"github.com/dev-tams/assetsweep/internal/logging"
	"github.com/dev-tams/assetsweep/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "assetsweep",
		Usage: "find and remove junk, low-quality and duplicate media assets",
		Commands: []*cli.Command{
			cleanupCommand(cleanup.ModeJunk, "junk", "delete assets flagged as junk"),
			cleanupCommand(cleanup.ModeLowQuality, "low-quality", "delete assets scoring below the quality threshold"),
			cleanupCommand(cleanup.ModeDuplicates, "duplicates", "keep one asset per duplicate group and delete the rest"),
			{
				Name:  "preview",
				Usage: "list what every cleanup mode would delete, without deleting",
				Flags: append(commonFlags(),
					&cli.IntFlag{Name: "max-preview", Usage: "items listed per category"},
					&cli.IntFlag{Name: "quality-threshold", Usage: "scores below this count as low quality"},
					&cli.StringFlag{Name: "keep-strategy", Usage: "highest_quality, most_recent or smallest_size"},
				),
				Action: func(c *cli.Context) error {
					cfg, rt, err := setup(c)
					if err != nil {
						return err
					}
					res, err := app.RunPreview(c.Context, cfg, overrides(c), rt)
					if res != nil {
						if werr := app.WriteReport(c.App.Writer, c.String("out"), res); werr != nil {
							return werr
						}
					}
					return err
				},
			},
			{
				Name:  "analyze",
				Usage: "report quality distribution, duplicates and estimated waste",
				Flags: commonFlags(),
				Action: func(c *cli.Context) error {
					cfg, rt, err := setup(c)
					if err != nil {
						return err
					}
					rep, err := app.RunAnalytics(c.Context, cfg, rt)
					if rep != nil {
						if werr := app.WriteReport(c.App.Writer, c.String("out"), rep); werr != nil {
							return werr
						}
					}
					return err
				},
			},
			{
				Name:  "check",
				Usage: "verify the configured store is reachable",
				Flags: commonFlags(),
				Action: func(c *cli.Context) error {
					cfg, rt, err := setup(c)
					if err != nil {
						return err
					}
					res, err := app.Check(c.Context, cfg, rt)
					if err != nil {
						return err
					}
					return app.WriteReport(c.App.Writer, c.String("out"), res)
				},
			},
			{
				Name:  "daemon",
				Usage: "run the configured schedules",
				Flags: append(commonFlags(),
					&cli.DurationFlag{
						Name:  "run-timeout",
						Value: 30 * time.Minute,
						Usage: "upper bound for a single scheduled run (0 disables)",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, rt, err := setup(c)
					if err != nil {
						return err
					}
					return app.RunDaemon(c.Context, cfg, rt, c.Duration("run-timeout"))
				},
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cleanupCommand(mode cleanup.Mode, name, usage string) *cli.Command {
	flags := append(commonFlags(),
		&cli.BoolFlag{Name: "dry-run", Usage: "report candidates without deleting"},
		&cli.IntFlag{Name: "max-deletions", Usage: "stop deleting after this many assets"},
		&cli.IntFlag{Name: "batch-size", Usage: "deletes issued together before the scan continues"},
	)
	switch mode {
	case cleanup.ModeLowQuality:
		flags = append(flags,
			&cli.IntFlag{Name: "quality-threshold", Usage: "delete assets scoring below this"},
			&cli.BoolFlag{Name: "exclude-junk", Usage: "leave junk assets to the junk command"},
		)
	case cleanup.ModeDuplicates:
		flags = append(flags,
			&cli.StringFlag{Name: "keep-strategy", Usage: "highest_quality, most_recent or smallest_size"},
		)
	}

	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: flags,
		Action: func(c *cli.Context) error {
			cfg, rt, err := setup(c)
			if err != nil {
				return err
			}
			res, err := app.RunCleanup(c.Context, cfg, mode, overrides(c), rt)
			if res != nil {
				if werr := app.WriteReport(c.App.Writer, c.String("out"), res); werr != nil {
					return werr
				}
			}
			return err
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Required: true,
			Usage:    "path to config yaml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "write the JSON report to this file (.gz to compress) instead of stdout",
		},
	}
}

// overrides picks up only the flags the user actually set.
func overrides(c *cli.Context) app.Overrides {
	var ov app.Overrides
	if c.IsSet("dry-run") {
		v := c.Bool("dry-run")
		ov.DryRun = &v
	}
	if c.IsSet("max-deletions") {
		v := c.Int("max-deletions")
		ov.MaxDeletions = &v
	}
	if c.IsSet("batch-size") {
		v := c.Int("batch-size")
		ov.BatchSize = &v
	}
	if c.IsSet("quality-threshold") {
		v := c.Int("quality-threshold")
		ov.QualityThreshold = &v
	}
	if c.IsSet("exclude-junk") {
		v := c.Bool("exclude-junk")
		ov.ExcludeJunk = &v
	}
	if c.IsSet("keep-strategy") {
		v := c.String("keep-strategy")
		ov.KeepStrategy = &v
	}
	if c.IsSet("max-preview") {
		v := c.Int("max-preview")
		ov.MaxPreview = &v
	}
	return ov
}

func setup(c *cli.Context) (*config.Config, app.Runtime, error) {
	cfg, err := loadValidatedConfig(c.String("config"))
	if err != nil {
		return nil, app.Runtime{}, err
	}

	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	log := logging.New(logging.Config{Level: level, Format: cfg.Log.Format})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return cfg, app.Runtime{Log: log, Metrics: metrics.New(reg), Gatherer: reg}, nil
}

func loadValidatedConfig(cfgPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
