package rag

import (
	"strings"

	"github.com/jackliaoall/gemini-api-rag/internal/domain"
)

const (
	// citationPreviewLimit caps the display text synthesized from a
	// rendered search entry point.
	citationPreviewLimit = 200
	truncationMarker     = "…"
	entryPointLabel      = "search suggestions"
	unknownSourceLabel   = "Unknown"
)

// NormalizeCitations flattens the optional grounding shapes of a response
// into one uniform citation list. Chunks with empty text are skipped; a
// rendered search entry point becomes a single synthesized citation with a
// bounded preview. Absent grounding yields an empty list, which is a valid
// non-error outcome.
func NormalizeCitations(candidates []domain.Candidate) []domain.Citation {
	citations := make([]domain.Citation, 0, 4)
	for _, cand := range candidates {
		md := cand.Grounding
		if md == nil {
			continue
		}
		for _, chunk := range md.Chunks {
			if strings.TrimSpace(chunk.Text) == "" {
				continue
			}
			source := chunk.Source
			if source == "" {
				source = unknownSourceLabel
			}
			citations = append(citations, domain.Citation{
				DisplayText: chunk.Text,
				SourceLabel: source,
			})
		}
		if md.SearchEntryPoint != nil && strings.TrimSpace(md.SearchEntryPoint.RenderedContent) != "" {
			citations = append(citations, domain.Citation{
				DisplayText: truncate(md.SearchEntryPoint.RenderedContent, citationPreviewLimit),
				SourceLabel: entryPointLabel,
			})
		}
	}
	return citations
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}
