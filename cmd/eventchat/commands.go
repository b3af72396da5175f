package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eventcorner/assistant/internal/model"
)

var converseCmd = &cobra.Command{
	Use:   "converse [first message]",
	Short: "Create an event through a guided conversation",
	Long: `Reads messages from stdin, one per line, and sends each with the full
conversation history. Stops when the assistant has every required field and
prints the event as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv := newClient().NewConversation()
		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		message := strings.Join(args, " ")
		if message == "" {
			fmt.Fprintln(out, "Describe your event:")
		}
		for {
			if message == "" {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					if err := in.Err(); err != nil {
						return err
					}
					return fmt.Errorf("conversation ended before the event was complete")
				}
				message = strings.TrimSpace(in.Text())
				if message == "" {
					continue
				}
			}

			decision, err := conv.Send(cmd.Context(), message)
			if err != nil {
				return err
			}
			message = ""

			switch d := decision.(type) {
			case *model.Clarification:
				printWarnings(out, d.Warnings)
				fmt.Fprintln(out, d.Question)
				if viper.GetBool("verbose") && len(d.MissingFields) > 0 {
					fmt.Fprintf(out, "  (missing: %s)\n", strings.Join(d.MissingFields, ", "))
				}
			case *model.Completion:
				printWarnings(out, d.Warnings)
				fmt.Fprintln(out, d.Message)
				return printJSON(out, d.EventData)
			}
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Extract event details from a banner image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newClient().Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the assistant a free-form question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := newClient().Chat(cmd.Context(), strings.Join(args, " "), viper.GetString("context"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	converseCmd.Flags().Bool("verbose", false, "show missing fields after each question")
	_ = viper.BindPFlag("verbose", converseCmd.Flags().Lookup("verbose"))

	chatCmd.Flags().String("context", "", "extra context for the assistant")
	_ = viper.BindPFlag("context", chatCmd.Flags().Lookup("context"))
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "  ! %s\n", w)
	}
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
