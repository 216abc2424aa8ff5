package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

// Client is a minimal REST client for the Gemini API (v1beta) covering the
// File Search store lifecycle and grounded content generation. It retries
// transient failures (network errors, 429, 5xx) with exponential backoff.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	client     *http.Client
}

// Config configures the Gemini API client. APIKey is required; the rest
// falls back to sensible defaults.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a Gemini API client from the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-8b"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// CreateStore creates a File Search store and returns its resource name.
func (c *Client) CreateStore(ctx context.Context, displayName string) (string, error) {
	payload, _ := json.Marshal(map[string]any{"displayName": displayName})
	var out struct {
		Name string `json:"name"`
	}
	url := c.baseURL + "/v1beta/fileSearchStores"
	if err := c.do(ctx, http.MethodPost, url, "application/json", payload, &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", errors.New("store name missing in create response")
	}
	return out.Name, nil
}

// UploadDocument submits a transcript to the store for chunking and
// embedding. It returns the name of the long-running indexing operation;
// the document is not searchable until that operation completes.
func (c *Client) UploadDocument(ctx context.Context, storeID, displayName, content string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	meta, _ := json.Marshal(map[string]any{"displayName": displayName, "mimeType": "text/plain"})
	part, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return "", err
	}
	if _, err := part.Write(meta); err != nil {
		return "", err
	}
	part, err = w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain"}})
	if err != nil {
		return "", err
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var out struct {
		Name string `json:"name"`
	}
	url := fmt.Sprintf("%s/upload/v1beta/%s:uploadToFileSearchStore", c.baseURL, storeID)
	contentType := "multipart/related; boundary=" + w.Boundary()
	if err := c.do(ctx, http.MethodPost, url, contentType, buf.Bytes(), &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", errors.New("operation name missing in upload response")
	}
	return out.Name, nil
}

// PollOperation fetches the current state of an indexing operation.
func (c *Client) PollOperation(ctx context.Context, operationName string) (domain.Operation, error) {
	var out struct {
		Done  bool `json:"done"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Response struct {
			Document struct {
				Name string `json:"name"`
			} `json:"document"`
		} `json:"response"`
	}
	url := fmt.Sprintf("%s/v1beta/%s", c.baseURL, operationName)
	if err := c.do(ctx, http.MethodGet, url, "", nil, &out); err != nil {
		return domain.Operation{}, err
	}
	op := domain.Operation{Done: out.Done, DocumentName: out.Response.Document.Name}
	if out.Error != nil {
		op.Err = out.Error.Message
	}
	return op, nil
}

// DeleteStore removes a File Search store and all documents inside it.
func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	url := fmt.Sprintf("%s/v1beta/%s?force=true", c.baseURL, storeID)
	return c.do(ctx, http.MethodDelete, url, "", nil, nil)
}

// Generate answers a question grounded in the given File Search stores.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]any{{"text": req.Question}}},
		},
		"generationConfig": map[string]any{"temperature": req.Temperature},
	}
	if len(req.StoreIDs) > 0 {
		body["tools"] = []map[string]any{
			{"fileSearch": map[string]any{"fileSearchStoreNames": req.StoreIDs}},
		}
	}
	payload, _ := json.Marshal(body)
	var out generateContentResponse
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	if err := c.do(ctx, http.MethodPost, url, "application/json", payload, &out); err != nil {
		return domain.GenerateResponse{}, err
	}
	return decodeGenerateResponse(out), nil
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				RetrievedContext *struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
					Text  string `json:"text"`
				} `json:"retrievedContext"`
				Web *struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
			SearchEntryPoint *struct {
				RenderedContent string `json:"renderedContent"`
			} `json:"searchEntryPoint"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

func decodeGenerateResponse(out generateContentResponse) domain.GenerateResponse {
	resp := domain.GenerateResponse{}
	for ci, cand := range out.Candidates {
		if ci == 0 {
			var sb strings.Builder
			for _, p := range cand.Content.Parts {
				sb.WriteString(p.Text)
			}
			resp.Text = sb.String()
		}
		dc := domain.Candidate{}
		if md := cand.GroundingMetadata; md != nil {
			grounding := &domain.GroundingMetadata{}
			for _, chunk := range md.GroundingChunks {
				switch {
				case chunk.RetrievedContext != nil:
					source := chunk.RetrievedContext.Title
					if source == "" {
						source = chunk.RetrievedContext.URI
					}
					grounding.Chunks = append(grounding.Chunks, domain.GroundingChunk{
						Text:   chunk.RetrievedContext.Text,
						Source: source,
					})
				case chunk.Web != nil:
					grounding.Chunks = append(grounding.Chunks, domain.GroundingChunk{
						Text:   chunk.Web.Title,
						Source: chunk.Web.URI,
					})
				}
			}
			if md.SearchEntryPoint != nil {
				grounding.SearchEntryPoint = &domain.SearchEntryPoint{
					RenderedContent: md.SearchEntryPoint.RenderedContent,
				}
			}
			dc.Grounding = grounding
		}
		resp.Candidates = append(resp.Candidates, dc)
	}
	return resp
}

// do executes one HTTP request with retries. 429 and 5xx responses and
// transport errors are retried; other failures are permanent.
func (c *Client) do(ctx context.Context, method, url, contentType string, payload []byte, out any) error {
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("x-goog-api-key", c.apiKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("gemini %s %s: %s", method, url, resp.Status)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("gemini %s %s: %s: %s", method, url, resp.Status, strings.TrimSpace(string(body))))
		}
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode gemini response: %w", err))
			}
		}
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	return backoff.Retry(attempt, bo)
}
