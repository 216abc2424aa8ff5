package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScraperConfig configures the channel scraping collaborator.
type ScraperConfig struct {
	Actor       string `yaml:"actor"`
	MaxVideos   int    `yaml:"max_videos"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeminiConfig configures the Gemini API client.
type GeminiConfig struct {
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// IndexConfig controls the retrieval-store ingestion lifecycle.
type IndexConfig struct {
	StorePrefix    string `yaml:"store_prefix"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
	MaxWaitSecs    int    `yaml:"max_wait_secs"`
}

// ChatConfig configures query behavior for the interactive loop.
type ChatConfig struct {
	Temperature float64 `yaml:"temperature"`
}

// TranscriptsConfig configures local transcript storage.
type TranscriptsConfig struct {
	Dir string `yaml:"dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Scraper     ScraperConfig     `yaml:"scraper"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Index       IndexConfig       `yaml:"index"`
	Chat        ChatConfig        `yaml:"chat"`
	Transcripts TranscriptsConfig `yaml:"transcripts"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ytrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/ytrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ytrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Scraper.Actor == "" {
		cfg.Scraper.Actor = "streamers~youtube-scraper"
	}
	if cfg.Scraper.MaxVideos == 0 {
		cfg.Scraper.MaxVideos = 10
	}
	if cfg.Scraper.TimeoutSecs == 0 {
		cfg.Scraper.TimeoutSecs = 300
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash-8b"
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Gemini.TimeoutSecs == 0 {
		cfg.Gemini.TimeoutSecs = 60
	}
	if cfg.Gemini.MaxRetries == 0 {
		cfg.Gemini.MaxRetries = 3
	}
	if cfg.Index.StorePrefix == "" {
		cfg.Index.StorePrefix = "ytrag"
	}
	if cfg.Index.PollIntervalMS == 0 {
		cfg.Index.PollIntervalMS = 1500
	}
	if cfg.Index.MaxWaitSecs == 0 {
		cfg.Index.MaxWaitSecs = 120
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.7
	}
	if cfg.Transcripts.Dir == "" {
		cfg.Transcripts.Dir = "transcripts"
	}
}
