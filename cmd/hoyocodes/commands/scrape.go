package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hoyocodes/internal/games"
	"hoyocodes/internal/job"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeReset bool
	scrapeGames []string
)

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeReset, "reset", false, "Delete every selected game folder before scraping.")
	scrapeCmd.Flags().StringSliceVarP(&scrapeGames, "games", "g", nil, "Games to scrape, defaults to the games in the config.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--reset] [--games genshin,starrail,honkai]",
	Short: "Scrapes every enabled game once, writes snapshots and announces new codes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		selected, err := cfg.EnabledGames(scrapeGames)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		if scrapeReset {
			for _, g := range selected {
				err := a.store.Reset(string(g.ID))
				if err != nil {
					return fmt.Errorf("reset %s: %w", g.ID, err)
				}
				slog.Info("reset game folder", "game", g.ID, "dir", a.store.Dir(string(g.ID)))
			}
		}

		results, err := scrapeOnce(ctx, a, selected)
		if err != nil {
			return err
		}
		printSummary(results)
		return nil
	},
}

func scrapeOnce(ctx context.Context, a *app, selected []games.Game) ([]job.Result, error) {
	jobs, err := a.jobs(selected)
	if err != nil {
		return nil, err
	}

	t1 := time.Now()
	results := job.NewRunner(jobs, a.tel).Run(ctx)
	slog.Info("scrape finished", "games", len(results), "seconds", time.Since(t1).Seconds())
	return results, nil
}

// printSummary writes one row per game and an error line for each failed
// game. Failures never change the exit code.
func printSummary(results []job.Result) {
	t := newTable()
	t.AppendHeader(table.Row{"Game", "Total", "Active", "Expired", "New", "Status"})
	for _, res := range results {
		t.AppendRow(table.Row{
			res.Game.Name,
			res.Total,
			res.Active,
			res.Expired,
			res.New,
			res.Stage().String(),
		})
	}
	t.Render()

	for _, res := range results {
		if res.Err == nil {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: failed while %s: %s\n", res.Game.Name, res.FailedAt, res.Err)
	}
}
