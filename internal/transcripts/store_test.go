package transcripts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

func sampleVideos() []domain.Video {
	return []domain.Video{
		{
			ID:          "v1",
			Title:       "Test Video #1: How to Build RAG",
			URL:         "https://youtube.com/watch?v=v1",
			Transcript:  "This is a test transcript for video 1.",
			Description: "A test video",
			Duration:    "10:30",
			Views:       1000,
		},
		{
			Title:      "AI/ML Basics?",
			URL:        "https://youtube.com/watch?v=v2",
			Transcript: "This is a test transcript for video 2.",
		},
	}
}

func TestWriteCreatesNumberedFiles(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "transcripts"))
	docs, err := store.Write(sampleVideos())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "v1", docs[0].ID)
	assert.NotEmpty(t, docs[1].ID, "missing video id gets a generated one")
	assert.True(t, strings.HasSuffix(docs[0].Path, "001_Test_Video_#1_How_to_Build_RAG.txt"), docs[0].Path)
	assert.True(t, strings.HasSuffix(docs[1].Path, "002_AIML_Basics.txt"), docs[1].Path)

	data, err := os.ReadFile(docs[0].Path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "VIDEO: Test Video #1: How to Build RAG")
	assert.Contains(t, content, "URL: https://youtube.com/watch?v=v1")
	assert.Contains(t, content, "Video ID: v1")
	assert.Contains(t, content, "Duration: 10:30")
	assert.Contains(t, content, "Views: 1000")
	assert.Contains(t, content, "DESCRIPTION:\nA test video")
	assert.Contains(t, content, "TRANSCRIPT:\nThis is a test transcript for video 1.")
	assert.Equal(t, content, docs[0].Body)

	assert.Contains(t, docs[0].Metadata, "views")
	assert.Equal(t, "1000", docs[0].Metadata["views"])
}

func TestWriteFillsMissingFields(t *testing.T) {
	store := NewStore(t.TempDir())
	docs, err := store.Write([]domain.Video{{Title: "Bare", Transcript: "words"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Body, "Duration: N/A")
	assert.Contains(t, docs[0].Body, "No description available")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"invalid chars stripped", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"spaces become underscores", "hello   world", "hello_world"},
		{"trailing dots trimmed", "ending...", "ending"},
		{"empty falls back", "???", "video"},
		{"long titles capped", strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.title))
		})
	}
}

func TestListAndClear(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Write(sampleVideos())
	require.NoError(t, err)

	paths, err := store.List()
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	require.NoError(t, store.Clear())
	paths, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}
