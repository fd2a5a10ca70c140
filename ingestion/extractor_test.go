package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorFor(t *testing.T) {
	cases := []struct {
		path string
		want any
		ok   bool
	}{
		{"notes.pdf", &PDFExtractor{}, true},
		{"notes.PDF", &PDFExtractor{}, true},
		{"notes.md", &MarkdownExtractor{}, true},
		{"notes.markdown", &MarkdownExtractor{}, true},
		{"notes.txt", &PlainTextExtractor{}, true},
		{"notes.text", &PlainTextExtractor{}, true},
		{"notes.docx", nil, false},
		{"noextension", nil, false},
	}

	for _, c := range cases {
		extractor, ok := ExtractorFor(c.path)
		assert.Equal(t, c.ok, ok, c.path)
		assert.IsType(t, c.want, extractor, c.path)
	}
}

func TestPlainTextExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("raw content\nas written"), 0o644))

	text, err := (&PlainTextExtractor{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "raw content\nas written", text)
}

func TestMarkdownExtractor_KeepsHeadingsOnOwnLines(t *testing.T) {
	md := "# Chapter 1: Cells\n\nCells are the *basic* unit of life.\n\n## Details\n\nMore on cells here."
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(md), 0o644))

	text, err := (&MarkdownExtractor{}).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, text, "Chapter 1: Cells\n")
	assert.Contains(t, text, "Details\n")
	// Inline markup is flattened and content appears exactly once.
	assert.Contains(t, text, "Cells are the basic unit of life.")
	assert.Equal(t, 1, strings.Count(text, "unit of life"))
	assert.NotContains(t, text, "*basic*")
	assert.NotContains(t, text, "#")
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&PlainTextExtractor{}).Extract(ctx, "anything.txt")
	assert.ErrorIs(t, err, context.Canceled)
}
