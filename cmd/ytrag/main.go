package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:   "ytrag",
		Short: "Chat with a YouTube channel's videos using Gemini File Search",
		Long: "ytrag scrapes a YouTube channel's transcripts, indexes them in a " +
			"Gemini File Search store and answers questions about them with citations.",
	}
	root.AddCommand(chatCmd(), askCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
