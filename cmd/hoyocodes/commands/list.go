package commands

import (
	"fmt"
	"strings"

	"hoyocodes/internal/components/telemetry"
	"hoyocodes/internal/games"
	"hoyocodes/internal/snapshot"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listKind string

func init() {
	listCmd.Flags().StringVarP(&listKind, "kind", "k", string(snapshot.KindActive), "Snapshot to show: all, active or expired.")
	rootCmd.AddCommand(listCmd)
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

var listCmd = &cobra.Command{
	Use:   "list <game> [--kind all|active|expired]",
	Short: "Shows the codes of the last snapshot of a game.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		game, err := games.Resolve(args[0])
		if err != nil {
			return err
		}
		kind, err := snapshot.ParseKind(listKind)
		if err != nil {
			return err
		}

		store := snapshot.NewStore(cfg.OutputDir, telemetry.SlogAPI{})
		list, err := store.Read(string(game.ID), kind)
		if err != nil {
			return fmt.Errorf("no %s snapshot for %s yet, run scrape first: %w", kind, game.Name, err)
		}

		t := newTable()
		t.SetTitle(fmt.Sprintf("%s (%s)", game.Name, kind))
		t.AppendHeader(table.Row{"Code", "Status", "Server", "Rewards", "Valid"})
		for _, c := range list {
			rewards := make([]string, len(c.Rewards))
			for i, r := range c.Rewards {
				rewards[i] = r.Name
			}
			t.AppendRow(table.Row{
				c.Code,
				c.Status,
				c.Server,
				strings.Join(rewards, "\n"),
				orDash(c.Duration.Valid),
			})
		}
		t.AppendFooter(table.Row{"", "", "", "Total", len(list)})
		t.Render()
		return nil
	},
}
