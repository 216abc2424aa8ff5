package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

// SessionConfig controls the ingestion lifecycle of one session.
type SessionConfig struct {
	// StorePrefix is prepended to the generated store display name.
	StorePrefix string
	// PollInterval is the fixed delay between indexing-operation polls.
	PollInterval time.Duration
	// MaxWait bounds the total wait for one document's indexing operation.
	MaxWait time.Duration
}

// Session owns one remote retrieval store for one channel: it creates the
// store, ingests documents into it with per-document completion tracking,
// and deletes the store on Close. A single document's failure never aborts
// the batch. Safe for concurrent use.
type Session struct {
	store domain.RetrievalStore
	cfg   SessionConfig

	mu      sync.Mutex
	storeID string
	records []*domain.IngestionRecord
	open    bool
}

// Report is the outcome of one Ingest call. Succeeded and Failed together
// cover every input document exactly once, in input order.
type Report struct {
	Succeeded []string
	Failed    []IngestFailure
}

// NewSession creates an unopened session over the given retrieval store.
func NewSession(store domain.RetrievalStore, cfg SessionConfig) *Session {
	if cfg.StorePrefix == "" {
		cfg.StorePrefix = "ytrag"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 120 * time.Second
	}
	return &Session{store: store, cfg: cfg}
}

// Open creates the remote store. On failure the session stays unopened and
// a StoreCreationError carrying the cause is returned. A session owns at
// most one store; reopening an open session is an error.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return errors.New("session already open")
	}
	s.mu.Unlock()

	displayName := fmt.Sprintf("%s-%s", s.cfg.StorePrefix, uuid.NewString()[:8])
	storeID, err := s.store.CreateStore(ctx, displayName)
	if err != nil {
		return &StoreCreationError{Cause: err}
	}
	s.mu.Lock()
	s.storeID = storeID
	s.records = nil
	s.open = true
	s.mu.Unlock()
	slog.Info("retrieval store created", slog.String("store", storeID))
	return nil
}

// IsOpen reports whether the session currently owns a remote store.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// StoreID returns the remote store id, empty until Open succeeds.
func (s *Session) StoreID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeID
}

// Records returns a snapshot of the ingestion records in input order.
func (s *Session) Records() []domain.IngestionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.IngestionRecord, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// Ingest uploads each document to the remote store and waits for it to
// become searchable, in input order. Per-document failures are collected
// into the report; only SessionNotOpen is returned as an error. Once the
// context is cancelled, the current document's wait is aborted and all
// remaining documents are marked failed without being uploaded.
func (s *Session) Ingest(ctx context.Context, docs []domain.TranscriptDocument) (Report, error) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return Report{}, ErrSessionNotOpen
	}
	storeID := s.storeID
	s.mu.Unlock()

	var report Report
	for _, doc := range docs {
		rec := &domain.IngestionRecord{Document: doc, Status: domain.StatusPending}
		s.mu.Lock()
		s.records = append(s.records, rec)
		s.mu.Unlock()

		if ctx.Err() != nil {
			s.fail(rec, &report, ErrIngestCancelled)
			continue
		}

		s.setStatus(rec, domain.StatusUploading)
		opName, err := s.store.UploadDocument(ctx, storeID, doc.Title, doc.Body)
		if err != nil {
			s.fail(rec, &report, fmt.Errorf("upload: %w", err))
			continue
		}

		s.setStatus(rec, domain.StatusIndexing)
		remoteName, err := s.awaitOperation(ctx, opName)
		if err != nil {
			s.fail(rec, &report, err)
			continue
		}

		s.mu.Lock()
		rec.Status = domain.StatusIndexed
		rec.RemoteName = remoteName
		s.mu.Unlock()
		report.Succeeded = append(report.Succeeded, doc.ID)
		slog.Info("document indexed",
			slog.String("document", doc.ID),
			slog.String("remote", remoteName),
		)
	}
	return report, nil
}

// Close deletes the remote store. Local state is marked closed even when
// the remote delete fails; calling Close on an already-closed session is a
// warned no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		slog.Warn("close called on a session that is not open")
		return nil
	}
	storeID := s.storeID
	s.open = false
	s.records = nil
	s.mu.Unlock()

	if err := s.store.DeleteStore(ctx, storeID); err != nil {
		return &TeardownError{StoreID: storeID, Cause: err}
	}
	slog.Info("retrieval store deleted", slog.String("store", storeID))
	return nil
}

// awaitOperation polls the indexing operation at a fixed interval until it
// completes, the per-document deadline expires, or the context is cancelled.
func (s *Session) awaitOperation(ctx context.Context, opName string) (string, error) {
	deadline := time.Now().Add(s.cfg.MaxWait)
	for {
		op, err := s.store.PollOperation(ctx, opName)
		if err != nil {
			if ctx.Err() != nil {
				return "", ErrIngestCancelled
			}
			return "", fmt.Errorf("poll: %w", err)
		}
		if op.Done {
			if op.Err != "" {
				return "", errors.New(op.Err)
			}
			return op.DocumentName, nil
		}
		if time.Now().After(deadline) {
			return "", ErrIndexingTimeout
		}
		select {
		case <-ctx.Done():
			return "", ErrIngestCancelled
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

func (s *Session) setStatus(rec *domain.IngestionRecord, status domain.IngestStatus) {
	s.mu.Lock()
	rec.Status = status
	s.mu.Unlock()
}

func (s *Session) fail(rec *domain.IngestionRecord, report *Report, err error) {
	s.mu.Lock()
	rec.Status = domain.StatusFailed
	rec.Err = err.Error()
	s.mu.Unlock()
	report.Failed = append(report.Failed, IngestFailure{DocumentID: rec.Document.ID, Err: err})
	slog.Warn("document ingestion failed",
		slog.String("document", rec.Document.ID),
		slog.Any("error", err),
	)
}
