package rag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

// Engine issues grounded questions against an open session's store and
// normalizes the heterogeneous citation payload into a stable result shape.
type Engine struct {
	generator domain.AnswerGenerator
}

// NewEngine creates a query engine over the given answering capability.
func NewEngine(generator domain.AnswerGenerator) *Engine {
	return &Engine{generator: generator}
}

// Ask answers one question scoped to the session's retrieval store.
// Contract violations (closed session, blank question) are returned as
// errors. Remote failures are not: a bad query in an interactive loop must
// not kill the session, so they are downgraded into an answer-shaped error
// message with no citations.
func (e *Engine) Ask(ctx context.Context, session *Session, question string, temperature float64) (domain.QueryResult, error) {
	if !session.IsOpen() {
		return domain.QueryResult{}, ErrSessionNotOpen
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.QueryResult{}, ErrEmptyQuestion
	}

	resp, err := e.generator.Generate(ctx, domain.GenerateRequest{
		Question:    question,
		Temperature: temperature,
		StoreIDs:    []string{session.StoreID()},
	})
	if err != nil {
		slog.Warn("query failed", slog.Any("error", err))
		return domain.QueryResult{
			AnswerText: "Error generating response: " + err.Error(),
			Citations:  []domain.Citation{},
		}, nil
	}

	return domain.QueryResult{
		AnswerText: resp.Text,
		Citations:  NormalizeCitations(resp.Candidates),
	}, nil
}
