package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var opts pipelineOptions
	var question string
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Index a channel's transcripts and answer one question",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			defer a.teardown()

			result, err := a.engine.Ask(ctx, a.session, question, a.opts.temperature)
			if err != nil {
				return err
			}
			fmt.Println(result.AnswerText)
			if len(result.Citations) > 0 {
				fmt.Printf("\nSources (%d):\n", len(result.Citations))
				for i, citation := range result.Citations {
					fmt.Printf("  [%d] %s — %s\n", i+1, citation.SourceLabel, firstLine(citation.DisplayText, 100))
				}
			}
			return nil
		},
	}
	registerPipelineFlags(cmd, &opts)
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to ask (required)")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func firstLine(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
