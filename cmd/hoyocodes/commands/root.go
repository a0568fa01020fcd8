package commands

import (
	"context"
	"fmt"
	"os"

	"hoyocodes/internal/components/telemetry"
	"hoyocodes/internal/config"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHttp   string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hoyocodes",
	Short: "hoyocodes scrapes promotional codes of Hoyoverse games from their fandom wikis.",
	Long: `hoyocodes scrapes the promotional code tables of Genshin Impact, Honkai Star Rail
and Honkai Impact 3rd, writes them to per game snapshot files and announces newly
active codes to a Discord webhook.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		loaded, err := config.Load(configPath, os.Getenv)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the json5 configuration file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every wiki request and response to this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
