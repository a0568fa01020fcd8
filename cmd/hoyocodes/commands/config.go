package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const redacted = "<redacted>"

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration with secrets redacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := cfg
		if shown.Discord.WebhookURL != "" {
			shown.Discord.WebhookURL = redacted
		}
		if shown.Email.Password != "" {
			shown.Email.Password = redacted
		}
		if shown.History.AuthToken != "" {
			shown.History.AuthToken = redacted
		}

		out, err := json.MarshalIndent(shown, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
