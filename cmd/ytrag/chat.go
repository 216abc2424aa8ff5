package main

import (
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jackliaoall/gemini-api-rag/internal/tui"
)

func chatCmd() *cobra.Command {
	var opts pipelineOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Index a channel's transcripts and chat about them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			defer a.teardown()

			port := queryAdapter{engine: a.engine, session: a.session, temperature: a.opts.temperature}
			m := tui.New(port, a.channelName)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	registerPipelineFlags(cmd, &opts)
	return cmd
}
