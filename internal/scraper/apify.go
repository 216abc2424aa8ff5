package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

// Client scrapes YouTube channel videos through an Apify actor. It uses the
// synchronous run endpoint, so one call covers actor start, wait and
// dataset retrieval.
type Client struct {
	baseURL string
	token   string
	actor   string
	client  *http.Client
}

// Config configures the Apify client. Token is required.
type Config struct {
	Token   string
	Actor   string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an Apify scraper client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("missing Apify API token")
	}
	if cfg.Actor == "" {
		cfg.Actor = "streamers~youtube-scraper"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.apify.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		actor:   cfg.Actor,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ScrapeChannel fetches up to maxVideos of the channel's newest videos.
// Videos without a transcript are skipped.
func (c *Client) ScrapeChannel(ctx context.Context, channelURL string, maxVideos int) ([]domain.Video, error) {
	if maxVideos <= 0 {
		maxVideos = 10
	}
	input, _ := json.Marshal(map[string]any{
		"startUrls":        []map[string]string{{"url": channelURL}},
		"maxResults":       maxVideos,
		"searchType":       "channel",
		"includeSubtitles": true,
	})
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, c.actor, url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Info("scraping channel", slog.String("url", channelURL), slog.Int("max_videos", maxVideos))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apify run failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("apify run failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var items []scrapedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode apify dataset: %w", err)
	}

	videos := make([]domain.Video, 0, len(items))
	for _, item := range items {
		transcript := flattenSubtitles(item.Subtitles)
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		if transcript == "" {
			slog.Debug("skipping video without transcript", slog.String("title", title))
			continue
		}
		videos = append(videos, domain.Video{
			ID:          item.ID,
			Title:       title,
			URL:         item.URL,
			Transcript:  transcript,
			Description: item.Description,
			Duration:    item.Duration,
			Views:       item.ViewCount,
		})
	}
	slog.Info("channel scraped",
		slog.Int("with_transcript", len(videos)),
		slog.Int("total", len(items)),
	)
	return videos, nil
}

type scrapedItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	Duration    string          `json:"duration"`
	ViewCount   int64           `json:"viewCount"`
	Subtitles   []subtitleEntry `json:"subtitles"`
}

// subtitleEntry tolerates both shapes the actor emits: a bare string or an
// object with a text field.
type subtitleEntry struct {
	Text string
}

func (s *subtitleEntry) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Text = str
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.Text = obj.Text
	return nil
}

func flattenSubtitles(subtitles []subtitleEntry) string {
	parts := make([]string, 0, len(subtitles))
	for _, sub := range subtitles {
		if sub.Text != "" {
			parts = append(parts, sub.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
