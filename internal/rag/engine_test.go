package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

type fakeGenerator struct {
	resp    domain.GenerateResponse
	err     error
	lastReq domain.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func openSession(t *testing.T) *Session {
	t.Helper()
	s := testSession(newFakeStore())
	require.NoError(t, s.Open(context.Background()))
	return s
}

func TestAskRequiresOpenSession(t *testing.T) {
	engine := NewEngine(&fakeGenerator{})
	s := testSession(newFakeStore())

	_, err := engine.Ask(context.Background(), s, "anything", 0.7)
	assert.ErrorIs(t, err, ErrSessionNotOpen)
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	engine := NewEngine(&fakeGenerator{})
	s := openSession(t)

	_, err := engine.Ask(context.Background(), s, "   \n\t", 0.7)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAskScopesQueryToSessionStore(t *testing.T) {
	gen := &fakeGenerator{resp: domain.GenerateResponse{Text: "answer"}}
	engine := NewEngine(gen)
	s := openSession(t)

	result, err := engine.Ask(context.Background(), s, "  what is this about?  ", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "answer", result.AnswerText)
	assert.Equal(t, "what is this about?", gen.lastReq.Question)
	assert.Equal(t, 0.3, gen.lastReq.Temperature)
	assert.Equal(t, []string{s.StoreID()}, gen.lastReq.StoreIDs)
}

func TestAskDowngradesRemoteFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limit exceeded")}
	engine := NewEngine(gen)
	s := openSession(t)

	result, err := engine.Ask(context.Background(), s, "why?", 0.7)
	require.NoError(t, err, "remote failures must not surface as errors")
	assert.Contains(t, result.AnswerText, "Error generating response")
	assert.Contains(t, result.AnswerText, "rate limit exceeded")
	assert.Empty(t, result.Citations)
}

func TestAskWithoutGroundingIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{resp: domain.GenerateResponse{
		Text:       "answered from model knowledge",
		Candidates: []domain.Candidate{{}},
	}}
	engine := NewEngine(gen)
	s := openSession(t)

	result, err := engine.Ask(context.Background(), s, "anything new?", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "answered from model knowledge", result.AnswerText)
	assert.Empty(t, result.Citations)
	assert.NotContains(t, result.AnswerText, "Error")
}
