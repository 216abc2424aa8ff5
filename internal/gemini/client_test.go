package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		APIKey:     "test-key",
		Model:      "test-model",
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestCreateStore(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/fileSearchStores", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ytrag-chan", body["displayName"])
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "fileSearchStores/abc123"})
	}))

	name, err := c.CreateStore(context.Background(), "ytrag-chan")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/abc123", name)
}

func TestUploadDocument(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/v1beta/fileSearchStores/abc123:uploadToFileSearchStore", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/related")
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "001_intro.txt")
		assert.Contains(t, string(body), "transcript body")
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "fileSearchStores/abc123/operations/op-1", "done": false})
	}))

	op, err := c.UploadDocument(context.Background(), "fileSearchStores/abc123", "001_intro.txt", "transcript body")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/abc123/operations/op-1", op)
}

func TestPollOperation(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/fileSearchStores/abc123/operations/op-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"done":     true,
			"response": map[string]any{"document": map[string]string{"name": "fileSearchStores/abc123/documents/doc-1"}},
		})
	}))

	op, err := c.PollOperation(context.Background(), "fileSearchStores/abc123/operations/op-1")
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Empty(t, op.Err)
	assert.Equal(t, "fileSearchStores/abc123/documents/doc-1", op.DocumentName)
}

func TestPollOperationRemoteError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"done":  true,
			"error": map[string]any{"code": 13, "message": "embedding failed"},
		})
	}))

	op, err := c.PollOperation(context.Background(), "operations/op-1")
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, "embedding failed", op.Err)
}

func TestDeleteStore(t *testing.T) {
	var gotForce string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1beta/fileSearchStores/abc123", r.URL.Path)
		gotForce = r.URL.Query().Get("force")
		_, _ = w.Write([]byte("{}"))
	}))

	require.NoError(t, c.DeleteStore(context.Background(), "fileSearchStores/abc123"))
	assert.Equal(t, "true", gotForce)
}

func TestGenerateDecodesGrounding(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "fileSearchStoreNames")
		assert.Contains(t, string(body), "what is covered?")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "The channel "}, {"text": "covers Go."}]},
				"groundingMetadata": {
					"groundingChunks": [
						{"retrievedContext": {"title": "001_intro.txt", "uri": "files/x", "text": "Go is covered"}},
						{"retrievedContext": {"uri": "files/y", "text": "so is testing"}}
					],
					"searchEntryPoint": {"renderedContent": "<div>related</div>"}
				}
			}]
		}`))
	}))

	resp, err := c.Generate(context.Background(), domain.GenerateRequest{
		Question:    "what is covered?",
		Temperature: 0.7,
		StoreIDs:    []string{"fileSearchStores/abc123"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The channel covers Go.", resp.Text)
	require.Len(t, resp.Candidates, 1)
	md := resp.Candidates[0].Grounding
	require.NotNil(t, md)
	require.Len(t, md.Chunks, 2)
	assert.Equal(t, "001_intro.txt", md.Chunks[0].Source)
	assert.Equal(t, "Go is covered", md.Chunks[0].Text)
	assert.Equal(t, "files/y", md.Chunks[1].Source, "uri is the fallback source label")
	require.NotNil(t, md.SearchEntryPoint)
	assert.Equal(t, "<div>related</div>", md.SearchEntryPoint.RenderedContent)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "fileSearchStores/retry"})
	}))

	name, err := c.CreateStore(context.Background(), "chan")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/retry", name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "invalid argument"}}`, http.StatusBadRequest)
	}))

	_, err := c.CreateStore(context.Background(), "chan")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "400"))
	assert.Equal(t, int32(1), calls.Load())
}
