package cmd

import (
	"context"
	"time"

	"github.com/naka-gawa/pages-portfolio/internal/config"
	"github.com/naka-gawa/pages-portfolio/internal/usecase"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// jobTimeout bounds a single scheduled regeneration.
const jobTimeout = 10 * time.Minute

// scheduleFlagKeys maps schedule flags to configuration keys.
var scheduleFlagKeys = map[string]string{
	"cron":           "cron",
	"mode":           "mode",
	"run-on-startup": "run_on_startup",
	"template":       "template",
	"output":         "output",
	"index":          "index",
	"strict":         "strict",
}

func newScheduleCmd(a *app) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Regenerate the page on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, cfg, err := a.newGenerator(cmd, scheduleFlagKeys)
			if err != nil {
				return err
			}
			if err := cfg.ValidateSchedule(); err != nil {
				return err
			}
			return a.runSchedule(cmd.Context(), generator, cfg)
		},
	}
	flags := scheduleCmd.Flags()
	flags.String("cron", "0 * * * *", "Cron schedule (standard 5-field syntax)")
	flags.String("mode", config.ModeUpdate, "What to run on each tick: update or render")
	flags.Bool("run-on-startup", false, "Run once immediately before waiting for the schedule")
	flags.StringP("template", "t", "template.html", "Page template (render mode)")
	flags.StringP("output", "o", "index.html", "File to write (render mode)")
	flags.StringP("index", "i", "index.html", "Page to update in place (update mode)")
	flags.Bool("strict", false, "Fail instead of falling back to the default page (update mode)")
	return scheduleCmd
}

func (a *app) runSchedule(ctx context.Context, generator *usecase.Generator, cfg *config.Config) error {
	job := func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		var err error
		if cfg.Mode == config.ModeRender {
			err = a.runRender(jobCtx, generator, cfg)
		} else {
			err = a.runUpdate(jobCtx, generator, cfg)
		}
		if err != nil {
			a.ui.Error("Scheduled %s failed: %v", cfg.Mode, err)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc(cfg.CronSchedule, job)
	if err != nil {
		return err
	}

	c.Start()
	a.ui.Info("Scheduler started with schedule %q (mode %s)", cfg.CronSchedule, cfg.Mode)

	if cfg.RunOnStartup {
		a.ui.Info("Running initial %s on startup...", cfg.Mode)
		// Through the wrapped job so a tick during this run is skipped.
		c.Entry(id).WrappedJob.Run()
	}

	<-ctx.Done()
	a.ui.Info("Shutting down...")
	<-c.Stop().Done()
	return nil
}
