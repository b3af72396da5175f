// Command eventchat is a terminal client for the assistant API.
package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eventcorner/assistant/internal/client"
)

var rootCmd = &cobra.Command{
	Use:   "eventchat",
	Short: "Terminal client for the Event Corner assistant",
	Long: `Terminal client for the Event Corner assistant.

Examples:
  # Describe an event and answer follow-up questions
  eventchat converse

  # Extract event details from a banner
  eventchat analyze ./banner.png

  # Talk to a remote server
  EVENTCHAT_SERVER=http://assistant:5001 eventchat converse`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", client.DefaultBaseURL, "assistant API base URL")
	rootCmd.PersistentFlags().Duration("timeout", 3*time.Minute, "timeout for one request")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	viper.SetEnvPrefix("eventchat")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(converseCmd, analyzeCmd, chatCmd)
}

func newClient() *client.Client {
	return client.New(viper.GetString("server"), viper.GetDuration("timeout"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
