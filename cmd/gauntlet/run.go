package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fjell-io/gauntlet/internal/config"
	"github.com/fjell-io/gauntlet/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [stage...]",
	Short: "Run the pipeline once",
	Long: "Runs every enabled stage in declaration order, stopping at the first failure. " +
		"Naming stages runs just those, in declaration order; an explicitly named stage runs even when disabled. " +
		"The exit code is the failing stage's own exit status when it has one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		notifyFlag, _ := cmd.Flags().GetBool("notify")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		logger := setupLogger()

		cfg, err := config.Resolve(viper.GetString("config"))
		if err != nil {
			return err
		}
		applyOptionFlags(cmd, cfg)

		stages, err := pipeline.Select(cfg.Stages, args)
		if err != nil {
			return err
		}
		if len(stages) == 0 {
			return fmt.Errorf("no enabled stages to run")
		}

		// A signal kills the running child via the context; no orphans.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := pipeline.New(stages, logger, pipeline.WithDir(cfg.Options.Workdir))
		res := r.Run(ctx)
		printSummary(os.Stdout, res)

		if notifyFlag || dryRun {
			if err := sendNotifications(cfg, res, logger, dryRun); err != nil {
				logger.Error("notification failed", "error", err)
			}
		}

		if code := res.ExitCode(); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("notify", false, "send configured notifications after the run")
	runCmd.Flags().Bool("dry-run", false, "validate notifications without sending them")
	rootCmd.AddCommand(runCmd)
}
