package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Extractor turns a source document into raw text. Implementations are
// selected by file extension; a failed extraction skips the file, it never
// aborts the ingestion batch.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFor returns the extractor handling the given path, or false when
// the file type is not ingestible.
func ExtractorFor(path string) (Extractor, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return &PDFExtractor{}, true
	case ".md", ".markdown":
		return &MarkdownExtractor{}, true
	case ".txt", ".text":
		return &PlainTextExtractor{}, true
	default:
		return nil, false
	}
}

// PDFExtractor extracts page text from PDF files using pdfcpu.
type PDFExtractor struct{}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	outDir, err := os.MkdirTemp("", "studybuddy-pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := pdfapi.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract pdf content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extraction dir: %w", err)
	}

	type page struct {
		num  int
		text string
	}
	var pages []page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(entry.Name(), "page_%d", &num); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		pages = append(pages, page{num: num, text: string(content)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	var builder strings.Builder
	for _, p := range pages {
		builder.WriteString(p.text)
		builder.WriteString("\n\n")
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return text, nil
}

// MarkdownExtractor flattens a markdown document to plain text, keeping
// heading lines so the segmenter can pick them up.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	md, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown file: %w", err)
	}

	reader := gmtext.NewReader(md)
	root := goldmark.DefaultParser().Parse(reader)

	var buf bytes.Buffer
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindHeading {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			buf.WriteByte('\n')
			buf.Write(node.Text(md))
			buf.WriteByte('\n')
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(node.Segment.Value(md))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse markdown: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// PlainTextExtractor reads the file as-is.
type PlainTextExtractor struct{}

func (e *PlainTextExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(content), nil
}
