package transcripts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

const divider = "================================================================================"

// Store writes one transcript file per video under a base directory and
// turns the written files into indexable documents.
type Store struct {
	baseDir string
}

// NewStore creates a transcript store rooted at baseDir.
func NewStore(baseDir string) *Store {
	if baseDir == "" {
		baseDir = "transcripts"
	}
	return &Store{baseDir: baseDir}
}

// Write persists each video as NNN_<title>.txt with a structured header and
// returns the corresponding documents in input order.
func (s *Store) Write(videos []domain.Video) ([]domain.TranscriptDocument, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", s.baseDir, err)
	}
	docs := make([]domain.TranscriptDocument, 0, len(videos))
	for i, video := range videos {
		name := fmt.Sprintf("%03d_%s.txt", i+1, sanitizeFilename(video.Title))
		path := filepath.Join(s.baseDir, name)
		body := formatTranscript(video)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		id := video.ID
		if id == "" {
			id = uuid.NewString()
		}
		docs = append(docs, domain.TranscriptDocument{
			ID:        id,
			Title:     video.Title,
			SourceURL: video.URL,
			Path:      path,
			Body:      body,
			Metadata: map[string]string{
				"duration": video.Duration,
				"views":    strconv.FormatInt(video.Views, 10),
			},
		})
	}
	slog.Info("transcript files written", slog.Int("count", len(docs)), slog.String("dir", s.baseDir))
	return docs, nil
}

// List returns the paths of all transcript files in the store.
func (s *Store) List() ([]string, error) {
	return filepath.Glob(filepath.Join(s.baseDir, "*.txt"))
}

// Clear removes all transcript files from the store.
func (s *Store) Clear() error {
	paths, err := s.List()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// sanitizeFilename converts a video title to a safe filename stem.
func sanitizeFilename(title string) string {
	name := invalidFileChars.ReplaceAllString(title, "")
	name = whitespaceRun.ReplaceAllString(name, "_")
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100])
	}
	name = strings.TrimRight(name, "._")
	if name == "" {
		return "video"
	}
	return name
}

func formatTranscript(video domain.Video) string {
	description := video.Description
	if description == "" {
		description = "No description available"
	}
	duration := video.Duration
	if duration == "" {
		duration = "N/A"
	}
	lines := []string{
		divider,
		"VIDEO: " + video.Title,
		divider,
		"URL: " + video.URL,
		"Video ID: " + video.ID,
		"Duration: " + duration,
		"Views: " + strconv.FormatInt(video.Views, 10),
		divider,
		"",
		"DESCRIPTION:",
		description,
		"",
		divider,
		"",
		"TRANSCRIPT:",
		video.Transcript,
		"",
		divider,
	}
	return strings.Join(lines, "\n")
}
