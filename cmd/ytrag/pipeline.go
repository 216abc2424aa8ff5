package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jackliaoall/gemini-api-rag/internal/config"
	"github.com/jackliaoall/gemini-api-rag/internal/domain"
	"github.com/jackliaoall/gemini-api-rag/internal/gemini"
	"github.com/jackliaoall/gemini-api-rag/internal/rag"
	"github.com/jackliaoall/gemini-api-rag/internal/scraper"
	"github.com/jackliaoall/gemini-api-rag/internal/transcripts"
)

type pipelineOptions struct {
	channelURL  string
	maxVideos   int
	cfgPath     string
	temperature float64
	keepStore   bool
	keepFiles   bool
}

func registerPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().StringVar(&opts.channelURL, "channel", "", "YouTube channel URL (required)")
	cmd.Flags().IntVar(&opts.maxVideos, "max-videos", 0, "number of videos to process (default from config)")
	cmd.Flags().StringVar(&opts.cfgPath, "config", "", "path to YAML config file")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", -1, "answer temperature in [0,1] (default from config)")
	cmd.Flags().BoolVar(&opts.keepStore, "keep-store", false, "keep the remote store on exit")
	cmd.Flags().BoolVar(&opts.keepFiles, "keep-files", true, "keep local transcript files on exit")
	_ = cmd.MarkFlagRequired("channel")
}

// app holds the assembled pipeline: scraped transcripts on disk, an open
// index session over them and a query engine.
type app struct {
	cfg         *config.AppConfig
	opts        pipelineOptions
	channelName string
	files       *transcripts.Store
	session     *rag.Session
	engine      *rag.Engine
	report      rag.Report
}

// setup runs the linear part of the pipeline: env validation, scraping,
// transcript files, store creation and ingestion.
func setup(ctx context.Context, opts pipelineOptions) (*app, error) {
	_ = godotenv.Load()
	apifyToken := os.Getenv("APIFY_API_TOKEN")
	if apifyToken == "" {
		return nil, errors.New("APIFY_API_TOKEN not set (get one at https://console.apify.com/account/integrations)")
	}
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not set (get one at https://aistudio.google.com/app/apikey)")
	}

	var cfg *config.AppConfig
	var err error
	if opts.cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.maxVideos <= 0 {
		opts.maxVideos = cfg.Scraper.MaxVideos
	}
	if opts.temperature < 0 {
		opts.temperature = cfg.Chat.Temperature
	}

	scr, err := scraper.NewClient(scraper.Config{
		Token:   apifyToken,
		Actor:   cfg.Scraper.Actor,
		Timeout: time.Duration(cfg.Scraper.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	videos, err := scr.ScrapeChannel(ctx, opts.channelURL, opts.maxVideos)
	if err != nil {
		return nil, fmt.Errorf("scrape channel: %w", err)
	}
	if len(videos) == 0 {
		return nil, errors.New("no videos with transcripts found")
	}

	files := transcripts.NewStore(cfg.Transcripts.Dir)
	docs, err := files.Write(videos)
	if err != nil {
		return nil, fmt.Errorf("write transcripts: %w", err)
	}

	client, err := gemini.NewClient(gemini.Config{
		APIKey:     geminiKey,
		Model:      cfg.Gemini.Model,
		BaseURL:    cfg.Gemini.BaseURL,
		Timeout:    time.Duration(cfg.Gemini.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Gemini.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	session := rag.NewSession(client, rag.SessionConfig{
		StorePrefix:  cfg.Index.StorePrefix,
		PollInterval: time.Duration(cfg.Index.PollIntervalMS) * time.Millisecond,
		MaxWait:      time.Duration(cfg.Index.MaxWaitSecs) * time.Second,
	})
	if err := session.Open(ctx); err != nil {
		return nil, err
	}
	report, err := session.Ingest(ctx, docs)
	if err != nil {
		closeSession(session)
		return nil, err
	}
	slog.Info("ingestion finished",
		slog.Int("succeeded", len(report.Succeeded)),
		slog.Int("failed", len(report.Failed)),
	)
	for _, failure := range report.Failed {
		slog.Warn("not indexed",
			slog.String("document", failure.DocumentID),
			slog.Any("error", failure.Err),
		)
	}
	if len(report.Succeeded) == 0 {
		closeSession(session)
		return nil, errors.New("no documents were indexed")
	}

	return &app{
		cfg:         cfg,
		opts:        opts,
		channelName: channelNameFromURL(opts.channelURL),
		files:       files,
		session:     session,
		engine:      rag.NewEngine(client),
		report:      report,
	}, nil
}

// teardown deletes the remote store and, when asked, the local transcript
// files. It uses a fresh context so cleanup still runs after an interrupt.
func (a *app) teardown() {
	if !a.opts.keepStore {
		closeSession(a.session)
	}
	if !a.opts.keepFiles {
		if err := a.files.Clear(); err != nil {
			slog.Warn("clearing transcript files failed", slog.Any("error", err))
		}
	}
}

func closeSession(session *rag.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := session.Close(ctx); err != nil {
		slog.Warn("store teardown failed", slog.Any("error", err))
	}
}

func channelNameFromURL(raw string) string {
	name := path.Base(strings.TrimSuffix(raw, "/"))
	name = strings.TrimPrefix(name, "@")
	if name == "" || name == "." {
		return "YouTube Channel"
	}
	return name
}

// queryAdapter binds the engine to one session and temperature for the TUI.
type queryAdapter struct {
	engine      *rag.Engine
	session     *rag.Session
	temperature float64
}

func (q queryAdapter) Ask(ctx context.Context, question string) (domain.QueryResult, error) {
	return q.engine.Ask(ctx, q.session, question, q.temperature)
}
