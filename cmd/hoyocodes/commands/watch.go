package commands

import (
	"context"
	"errors"
	"log/slog"

	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	watchSchedule  string
	watchImmediate bool
)

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "cron", "", "Cron schedule, defaults to watch_cron from the config.")
	watchCmd.Flags().BoolVar(&watchImmediate, "now", true, "Scrape once immediately before waiting for the schedule.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--cron \"0 */6 * * *\"]",
	Short: "Scrapes every enabled game on a cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec := cfg.WatchCron
		if watchSchedule != "" {
			spec = watchSchedule
		}
		err := chrono.ValidateSpec(spec)
		if err != nil {
			return err
		}

		selected, err := cfg.EnabledGames(nil)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		telemetry.InstrumentPerfStats(ctx)

		run := func() {
			results, err := scrapeOnce(ctx, a, selected)
			if err != nil {
				slog.Error("scrape failed", "err", err.Error())
				return
			}
			printSummary(results)
		}

		if watchImmediate {
			run()
		}

		cron := chrono.NewStandardCron(a.tel)
		err = cron.Cron(spec, run)
		if err != nil {
			return err
		}
		slog.Info("watching for new codes", "cron", spec, "zone", chrono.ReportingZone.String())
		cron.Run(ctx)

		if errors.Is(ctx.Err(), context.Canceled) {
			slog.Info("stopped watching")
		}
		return nil
	},
}
