package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy-backend/index"
)

type stubSearcher struct {
	results []index.SearchResult
	err     error
	gotK    int
}

func (s *stubSearcher) Search(_ context.Context, _ string, k int, _ map[string]string) ([]index.SearchResult, error) {
	s.gotK = k
	return s.results, s.err
}

func hit(doc, source, section string) index.SearchResult {
	return index.SearchResult{
		Document: doc,
		Metadata: map[string]string{"source": source, "section": section},
	}
}

func TestGetContext_NoResults(t *testing.T) {
	r := ProvideRetriever(&stubSearcher{results: []index.SearchResult{}}, 3, 2000)

	out, err := r.GetContext(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetContext_SearchError(t *testing.T) {
	wantErr := errors.New("index offline")
	r := ProvideRetriever(&stubSearcher{err: wantErr}, 3, 2000)

	_, err := r.GetContext(context.Background(), "anything")
	assert.ErrorIs(t, err, wantErr)
}

func TestGetContext_AnnotatesProvenance(t *testing.T) {
	searcher := &stubSearcher{results: []index.SearchResult{
		hit("Mitochondria produce ATP.", "bio.txt", "Cells"),
		hit("Orbits are elliptical.", "", ""),
	}}
	r := ProvideRetriever(searcher, 5, 2000)

	out, err := r.GetContext(context.Background(), "energy")
	require.NoError(t, err)

	want := "[Source: bio.txt - Cells]\nMitochondria produce ATP." +
		"\n\n[Source: Study Material]\nOrbits are elliptical."
	assert.Equal(t, want, out)
	assert.Equal(t, 5, searcher.gotK)
}

func TestGetContext_TruncatesOverflowingChunk(t *testing.T) {
	long := strings.Repeat("a", 300)
	searcher := &stubSearcher{results: []index.SearchResult{
		hit(long, "bio.txt", ""),
		hit("never reached", "bio.txt", ""),
	}}
	r := ProvideRetriever(searcher, 5, 150)

	out, err := r.GetContext(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, "[Source: bio.txt]\n"+strings.Repeat("a", 150)+"...", out)
	assert.NotContains(t, out, "never reached")
}

func TestGetContext_TruncationKeepsRuneBoundaries(t *testing.T) {
	// A 151-byte cut would land mid-rune in two-byte text; truncation must
	// back up instead of emitting invalid UTF-8.
	long := strings.Repeat("é", 200)
	searcher := &stubSearcher{results: []index.SearchResult{
		hit(long, "bio.txt", ""),
	}}
	r := ProvideRetriever(searcher, 5, 151)

	out, err := r.GetContext(context.Background(), "anything")
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "[Source: bio.txt]\n"+strings.Repeat("é", 75)+"...", out)
}

func TestGetContext_DropsChunkWhenBudgetNearlySpent(t *testing.T) {
	first := strings.Repeat("a", 120)
	searcher := &stubSearcher{results: []index.SearchResult{
		hit(first, "bio.txt", ""),
		hit(strings.Repeat("b", 200), "bio.txt", ""),
	}}
	// 80 chars remain after the first chunk, under the truncation floor,
	// so the second chunk is dropped rather than truncated.
	r := ProvideRetriever(searcher, 5, 200)

	out, err := r.GetContext(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, "[Source: bio.txt]\n"+first, out)
}

func TestGetContext_BudgetIgnoresHeaders(t *testing.T) {
	// Two 100-char chunks fit a 200-char budget exactly even though the
	// provenance headers push the rendered string past 200.
	searcher := &stubSearcher{results: []index.SearchResult{
		hit(strings.Repeat("a", 100), "bio.txt", "Cells"),
		hit(strings.Repeat("b", 100), "bio.txt", "Cells"),
	}}
	r := ProvideRetriever(searcher, 5, 200)

	out, err := r.GetContext(context.Background(), "anything")
	require.NoError(t, err)

	assert.Contains(t, out, strings.Repeat("a", 100))
	assert.Contains(t, out, strings.Repeat("b", 100))
	assert.Greater(t, len(out), 200)
}

func TestProvideRetriever_Defaults(t *testing.T) {
	searcher := &stubSearcher{}
	r := ProvideRetriever(searcher, 0, -1)

	_, err := r.GetContext(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, DefaultResults, searcher.gotK)
}
