package ingestion

// Section is a titled slice of a source document, produced by the segmenter.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Chunk is a bounded, overlap-preserving slice of a section sized for embedding.
type Chunk struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	Section string `json:"section"`
}

// QAPair is a synthesized instruction/response pair used for supervised tuning.
// It is not part of the retrieval path.
type QAPair struct {
	Instruction string `json:"instruction"`
	Context     string `json:"context"`
	Response    string `json:"response"`
}
