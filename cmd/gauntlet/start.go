package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fjell-io/gauntlet/internal/config"
	"github.com/fjell-io/gauntlet/internal/pipeline"
	"github.com/fjell-io/gauntlet/internal/watch"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run continuously on watch events or a schedule",
	Long: "Runs the pipeline once, then re-runs it whenever watched paths change or the cron schedule fires. " +
		"Sends configured notifications on failure and again on recovery. A cancelled run is never resumed; " +
		"the next trigger starts over from the first stage.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := config.Resolve(viper.GetString("config"))
		if err != nil {
			return err
		}
		applyOptionFlags(cmd, cfg)

		if len(cfg.Trigger.Watch) == 0 && cfg.Trigger.Cron == "" {
			return fmt.Errorf("start requires trigger.watch or trigger.cron in config")
		}
		if enabled, _ := pipeline.Select(cfg.Stages, nil); len(enabled) == 0 {
			return fmt.Errorf("no enabled stages to run")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fire := make(chan struct{}, 1)

		if len(cfg.Trigger.Watch) > 0 {
			debounce, _ := time.ParseDuration(cfg.Options.Debounce)
			w := watch.New(cfg.Trigger.Watch, cfg.Trigger.Ignore, debounce, logger)
			go func() {
				if err := w.Run(ctx, fire); err != nil {
					logger.Error("watcher stopped", "error", err)
					stop()
				}
			}()
		}

		if cfg.Trigger.Cron != "" {
			c := cron.New()
			_, err := c.AddFunc(cfg.Trigger.Cron, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
			if err != nil {
				return fmt.Errorf("invalid cron schedule %q: %w", cfg.Trigger.Cron, err)
			}
			c.Start()
			defer c.Stop()
		}

		prevFailed := false
		runOnce := func() {
			stages, err := pipeline.Select(cfg.Stages, nil)
			if err != nil {
				logger.Error("selecting stages", "error", err)
				return
			}

			r := pipeline.New(stages, logger, pipeline.WithDir(cfg.Options.Workdir))
			res := r.Run(ctx)
			printSummary(os.Stdout, res)

			if ctx.Err() != nil {
				// Interrupted by shutdown; no notification for a run we killed.
				return
			}

			failed := !res.Success()
			if failed || prevFailed {
				if err := sendNotifications(cfg, res, logger, false); err != nil {
					logger.Error("notification failed", "error", err)
				}
			}
			prevFailed = failed
		}

		logger.Info("starting", "watch", []string(cfg.Trigger.Watch), "cron", cfg.Trigger.Cron)
		runOnce()

		for {
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				return nil
			case <-fire:
				runOnce()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
