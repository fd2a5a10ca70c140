package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"studybuddy-backend/index"
)

const (
	// DefaultResults is the number of chunks retrieved per query.
	DefaultResults = 3
	// DefaultMaxChars is the context character budget.
	DefaultMaxChars = 2000

	// minTruncationBudget: a partially filled chunk is included only when at
	// least this much budget remains, otherwise it is dropped entirely. The
	// asymmetry is deliberate.
	minTruncationBudget = 100
)

// Searcher is the slice of the vector index the retriever needs.
// Satisfied by *index.VectorIndex.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]index.SearchResult, error)
}

// Retriever assembles a provenance-annotated context string for a query
// under a character budget.
type Retriever struct {
	searcher Searcher
	k        int
	maxChars int
}

func ProvideRetriever(searcher Searcher, k, maxChars int) *Retriever {
	if k <= 0 {
		k = DefaultResults
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Retriever{searcher: searcher, k: k, maxChars: maxChars}
}

// GetContext retrieves the top-k chunks for the query and greedily
// accumulates them in ranked order until the character budget is spent.
// The first chunk that would overflow is truncated with a trailing ellipsis
// when enough budget remains, otherwise dropped; either way accumulation
// stops there. Returns "" when nothing matches. The budget counts chunk
// text only; the fixed per-chunk provenance header is excluded.
func (r *Retriever) GetContext(ctx context.Context, query string) (string, error) {
	results, err := r.searcher.Search(ctx, query, r.k, nil)
	if err != nil {
		return "", fmt.Errorf("context retrieval failed: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	var parts []string
	total := 0

	for _, result := range results {
		doc := result.Document
		truncated := false

		if total+len(doc) > r.maxChars {
			remaining := r.maxChars - total
			if remaining <= minTruncationBudget {
				break
			}
			// Back up to a rune boundary so truncation never emits
			// invalid UTF-8.
			for remaining > 0 && !utf8.RuneStart(doc[remaining]) {
				remaining--
			}
			doc = doc[:remaining] + "..."
			truncated = true
		}

		source := result.Metadata["source"]
		if source == "" {
			source = "Study Material"
		}

		header := "[Source: " + source
		if section := result.Metadata["section"]; section != "" {
			header += " - " + section
		}
		header += "]"

		parts = append(parts, header+"\n"+doc)
		total += len(doc)

		if truncated {
			break
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
