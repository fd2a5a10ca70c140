package ingestion

import "strings"

const (
	// DefaultChunkSize is the maximum number of characters per chunk.
	DefaultChunkSize = 1000
	// DefaultOverlap is the number of characters shared with the previous chunk.
	DefaultOverlap = 200
)

// Sentence terminators tried in order when looking for a clean cut point.
var sentenceSeparators = []string{". ", ".\n", "! ", "? "}

// ChunkText splits text into overlapping chunks of at most chunkSize
// characters. Cut points prefer the last sentence terminator in the window,
// but only when it lies past the window midpoint so that no tiny chunks are
// produced. Consecutive chunks share overlap characters, approximately so
// when a sentence-boundary adjustment moved the cut.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	// Boundary cuts are only accepted past the window midpoint, so an
	// overlap capped at half the window guarantees forward progress.
	if overlap > chunkSize/2 {
		overlap = chunkSize / 2
	}

	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + chunkSize

		if end < len(text) {
			for _, sep := range sentenceSeparators {
				idx := strings.LastIndex(text[start:end], sep)
				if idx > chunkSize/2 {
					end = start + idx + 1
					break
				}
			}
		}

		sliceEnd := min(end, len(text))
		chunk := strings.TrimSpace(text[start:sliceEnd])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		start = end - overlap
	}

	return chunks
}
