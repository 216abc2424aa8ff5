package domain

import "context"

// Video is one scraped channel entry together with its transcript.
type Video struct {
	ID          string
	Title       string
	URL         string
	Transcript  string
	Description string
	Duration    string
	Views       int64
}

// TranscriptDocument is a persisted transcript ready for indexing.
// Immutable once created by the document store.
type TranscriptDocument struct {
	ID        string
	Title     string
	SourceURL string
	Path      string
	Body      string
	Metadata  map[string]string
}

// IngestStatus tracks where a document is in the indexing lifecycle.
// Transitions are strictly forward: Pending → Uploading → Indexing →
// Indexed or Failed.
type IngestStatus int

const (
	StatusPending IngestStatus = iota
	StatusUploading
	StatusIndexing
	StatusIndexed
	StatusFailed
)

func (s IngestStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusUploading:
		return "uploading"
	case StatusIndexing:
		return "indexing"
	case StatusIndexed:
		return "indexed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IngestionRecord tracks one document's journey through the retrieval store.
type IngestionRecord struct {
	Document   TranscriptDocument
	Status     IngestStatus
	RemoteName string
	Err        string
}

// Citation is one retrieved passage that grounded an answer.
type Citation struct {
	DisplayText string
	SourceLabel string
}

// QueryResult is the normalized outcome of a single question.
type QueryResult struct {
	AnswerText string
	Citations  []Citation
}

// Operation reports the state of a long-running remote indexing operation.
type Operation struct {
	Done         bool
	Err          string
	DocumentName string
}

// ChannelScraper fetches videos with transcripts for a channel.
type ChannelScraper interface {
	ScrapeChannel(ctx context.Context, channelURL string, maxVideos int) ([]Video, error)
}

// DocumentStore persists transcript documents on local disk.
type DocumentStore interface {
	Write(videos []Video) ([]TranscriptDocument, error)
	List() ([]string, error)
	Clear() error
}

// RetrievalStore drives the lifecycle of a managed semantic-search store.
// UploadDocument returns the name of a long-running operation; the document
// is not searchable until PollOperation reports it done without error.
type RetrievalStore interface {
	CreateStore(ctx context.Context, displayName string) (string, error)
	UploadDocument(ctx context.Context, storeID, displayName, content string) (string, error)
	PollOperation(ctx context.Context, operationName string) (Operation, error)
	DeleteStore(ctx context.Context, storeID string) error
}

// GroundingChunk is one retrieved passage attached to a candidate answer.
type GroundingChunk struct {
	Text   string
	Source string
}

// SearchEntryPoint is a rendered summary blob the store sometimes returns
// instead of (or in addition to) individual chunks.
type SearchEntryPoint struct {
	RenderedContent string
}

// GroundingMetadata carries the optional retrieval evidence for a candidate.
type GroundingMetadata struct {
	Chunks           []GroundingChunk
	SearchEntryPoint *SearchEntryPoint
}

// Candidate is one generated answer variant.
type Candidate struct {
	Grounding *GroundingMetadata
}

// GenerateRequest asks for a grounded answer scoped to retrieval stores.
type GenerateRequest struct {
	Question    string
	Temperature float64
	StoreIDs    []string
}

// GenerateResponse is the decoded answer plus its grounding evidence.
type GenerateResponse struct {
	Text       string
	Candidates []Candidate
}

// AnswerGenerator produces a grounded answer for one question.
type AnswerGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
