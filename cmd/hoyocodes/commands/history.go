package commands

import (
	"errors"
	"fmt"

	"hoyocodes/internal/components/chrono"
	"hoyocodes/internal/games"
	"hoyocodes/internal/history"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <game>",
	Short: "Lists every code ever announced for a game.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		game, err := games.Resolve(args[0])
		if err != nil {
			return err
		}
		if cfg.History.File == "" {
			return errors.New("history is disabled, set history.file in the config or HOYOCODES_HISTORY_DB")
		}

		database, err := openHistory(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		entries, err := history.NewStore(database).List(ctx, string(game.ID))
		if err != nil {
			return err
		}

		t := newTable()
		t.SetTitle(fmt.Sprintf("%s history", game.Name))
		t.AppendHeader(table.Row{"First seen", "Code", "Server", "Rewards"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.FirstSeen.In(chrono.ReportingZone).Format("2006-01-02 15:04"),
				e.Code,
				e.Server,
				e.Rewards,
			})
		}
		t.Render()
		return nil
	},
}
