package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// TrainingDataFile holds the synthesized QA pairs, ordered by source file.
	TrainingDataFile = "training_data.json"
	// ChunksFile holds the chunks destined for the vector index, ordered by
	// source file and position.
	ChunksFile = "rag_chunks.json"
)

// ChunkIndexer is the slice of the vector index the processor needs to load
// chunks. Satisfied by *index.VectorIndex.
type ChunkIndexer interface {
	Add(ctx context.Context, texts []string, metadatas []map[string]string, ids []string) (int, error)
}

// FileResult records the outcome of ingesting one source document.
type FileResult struct {
	File    string `json:"file"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Chunks  int    `json:"chunks"`
	QAPairs int    `json:"qaPairs"`
}

// BatchSummary describes one ingestion run. Individual file failures are
// recorded here, they never abort the batch.
type BatchSummary struct {
	RunID        string       `json:"runId"`
	FilesTotal   int          `json:"filesTotal"`
	FilesFailed  int          `json:"filesFailed"`
	TotalChunks  int          `json:"totalChunks"`
	TotalQAPairs int          `json:"totalQaPairs"`
	Results      []FileResult `json:"results"`
	OutputDir    string       `json:"outputDir"`
}

// Processor turns a directory of source documents into the two durable
// ingestion artifacts: QA pairs for supervised tuning and chunks for the
// vector index.
type Processor struct {
	chunkSize int
	overlap   int
	outputDir string
}

func ProvideProcessor(chunkSize, overlap int, outputDir string) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Processor{chunkSize: chunkSize, overlap: overlap, outputDir: outputDir}
}

type fileOutput struct {
	file    string
	err     error
	chunks  []Chunk
	qaPairs []QAPair
}

// ProcessDirectory ingests every supported document under dir. Extraction
// and segmentation fan out per file; results are assembled in deterministic
// directory order so chunk provenance is stable between runs.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*BatchSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var tasks []<-chan async.Result[*fileOutput]
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		extractor, ok := ExtractorFor(entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		name := entry.Name()
		tasks = append(tasks, async.Go(func() (*fileOutput, error) {
			return p.processFile(ctx, extractor, path, name), nil
		}))
	}

	summary := &BatchSummary{
		RunID:      uuid.NewString(),
		FilesTotal: len(tasks),
		OutputDir:  p.outputDir,
	}

	var allChunks []Chunk
	var allQAPairs []QAPair

	// Await in submission order: chunk ids downstream depend on it.
	for _, task := range tasks {
		out, err := async.Await(task)
		if err != nil {
			return nil, err
		}

		if out.err != nil {
			logger.Error("Failed to ingest document", zap.String("file", out.file), zap.Error(out.err))
			summary.FilesFailed++
			summary.Results = append(summary.Results, FileResult{
				File:   out.file,
				Status: "failed",
				Error:  out.err.Error(),
			})
			continue
		}

		allChunks = append(allChunks, out.chunks...)
		allQAPairs = append(allQAPairs, out.qaPairs...)
		summary.Results = append(summary.Results, FileResult{
			File:    out.file,
			Status:  "success",
			Chunks:  len(out.chunks),
			QAPairs: len(out.qaPairs),
		})
	}

	summary.TotalChunks = len(allChunks)
	summary.TotalQAPairs = len(allQAPairs)

	if err := p.writeArtifact(TrainingDataFile, allQAPairs); err != nil {
		return nil, err
	}
	if err := p.writeArtifact(ChunksFile, allChunks); err != nil {
		return nil, err
	}

	logger.Info("Ingestion batch complete",
		zap.String("runId", summary.RunID),
		zap.Int("files", summary.FilesTotal),
		zap.Int("failed", summary.FilesFailed),
		zap.Int("chunks", summary.TotalChunks),
		zap.Int("qaPairs", summary.TotalQAPairs))

	return summary, nil
}

func (p *Processor) processFile(ctx context.Context, extractor Extractor, path, name string) *fileOutput {
	out := &fileOutput{file: name}

	text, err := extractor.Extract(ctx, path)
	if err != nil {
		out.err = err
		return out
	}

	sections := ExtractSections(text)
	logger.Info("Segmented document",
		zap.String("file", name),
		zap.Int("characters", len(text)),
		zap.Int("sections", len(sections)))

	for _, section := range sections {
		for _, chunkText := range ChunkText(section.Content, p.chunkSize, p.overlap) {
			out.chunks = append(out.chunks, Chunk{
				Text:    chunkText,
				Source:  name,
				Section: section.Title,
			})
		}
		out.qaPairs = append(out.qaPairs, GenerateQAPairs(section.Content, section.Title)...)
	}

	return out
}

func (p *Processor) writeArtifact(name string, records any) error {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(p.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// LoadChunks reads the chunk artifact produced by ProcessDirectory and bulk
// adds it to the vector index. Returns the number of chunks indexed.
func (p *Processor) LoadChunks(ctx context.Context, indexer ChunkIndexer) (int, error) {
	data, err := os.ReadFile(filepath.Join(p.outputDir, ChunksFile))
	if err != nil {
		return 0, fmt.Errorf("failed to read chunk artifact: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return 0, fmt.Errorf("failed to unmarshal chunk artifact: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := linq.Map(chunks, func(c Chunk) string { return c.Text })
	metadatas := linq.Map(chunks, func(c Chunk) map[string]string {
		return map[string]string{"source": c.Source, "section": c.Section}
	})

	return indexer.Add(ctx, texts, metadatas, nil)
}
