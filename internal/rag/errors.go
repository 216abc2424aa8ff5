package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotOpen is returned when an operation is attempted on a
	// session that was never opened or has been closed.
	ErrSessionNotOpen = errors.New("session is not open")

	// ErrEmptyQuestion is returned when a question is blank after trimming.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrIndexingTimeout marks a document whose remote indexing operation
	// did not complete within the configured maximum wait.
	ErrIndexingTimeout = errors.New("indexing timed out")

	// ErrIngestCancelled marks a document whose ingestion was aborted by
	// caller cancellation.
	ErrIngestCancelled = errors.New("ingestion cancelled")
)

// StoreCreationError means the remote retrieval store could not be created.
// Fatal to the session; the caller must not proceed to Ingest.
type StoreCreationError struct {
	Cause error
}

func (e *StoreCreationError) Error() string {
	return fmt.Sprintf("creating retrieval store: %v", e.Cause)
}

func (e *StoreCreationError) Unwrap() error { return e.Cause }

// TeardownError means the remote store could not be deleted on Close.
// The session is still marked closed locally; the remote store may be
// garbage-collected server-side regardless.
type TeardownError struct {
	StoreID string
	Cause   error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("deleting retrieval store %s: %v", e.StoreID, e.Cause)
}

func (e *TeardownError) Unwrap() error { return e.Cause }

// IngestFailure records one document that failed to index. Collected and
// returned by Ingest, never raised.
type IngestFailure struct {
	DocumentID string
	Err        error
}

func (f IngestFailure) Error() string {
	return fmt.Sprintf("document %s: %v", f.DocumentID, f.Err)
}

func (f IngestFailure) Unwrap() error { return f.Err }
