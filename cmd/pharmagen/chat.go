package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/pharmagen-dev/pharmagen/internal/chat"
	"github.com/pharmagen-dev/pharmagen/internal/report"
	"github.com/pharmagen-dev/pharmagen/internal/translate"
)

func newChatCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive console session",
		Long: `Start an interactive console session.

Commands inside the session:
  /summary   print the current report summary
  /report    export the report to an HTML file
  /reset     start the conversation over
  /quit      leave the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configFile)
			if err != nil {
				return err
			}
			return runREPL(cmd.Context(), a.Engine, a.Exporter, cmd.OutOrStdout())
		},
	}
}

func runREPL(ctx context.Context, engine *chat.Engine, exporter *report.Exporter, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	session := chat.NewSession()
	fmt.Fprintf(out, "PharmaGEN. Please select your language (%s).\n\n",
		strings.Join(translate.SupportedLanguages(), ", "))

	var lastResult chat.Result
	for {
		input, err := line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(out, "\nGoodbye.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "/quit", "/exit":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		case "/reset":
			session.Reset()
			fmt.Fprintln(out, "Conversation restarted. Please select your language.")
			continue
		case "/summary":
			fmt.Fprintln(out, lastResult.TranslatedSummary)
			continue
		case "/report":
			path, err := exporter.Export(session)
			if err != nil {
				if errors.Is(err, report.ErrUnavailable) {
					fmt.Fprintln(out, "No report available yet. Complete the diagnosis first.")
				} else {
					fmt.Fprintf(out, "Report export failed: %v\n", err)
				}
				continue
			}
			fmt.Fprintf(out, "Report written to %s\n", path)
			continue
		}

		lastResult = engine.Process(ctx, input, session)
		fmt.Fprintf(out, "\n%s\n\n", lastResult.Reply)
	}
}
