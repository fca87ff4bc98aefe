package models

// Chunk is a bounded-size segment of an extracted document, the unit of
// embedding and retrieval.
type Chunk struct {
	Content        string
	SourceFilename string
	ChunkID        int
}

// Source is the payload stored alongside each vector and returned to
// callers as supporting evidence for an answer.
type Source struct {
	ID       string `json:"id,omitempty"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SearchResult is one scored hit from a similarity search.
type SearchResult struct {
	Score  float32
	Source Source
}

// Answer is the response to a question, with the sources that grounded it.
// Sources is empty for general-knowledge answers. Note marks the fallback
// case where retrieval found nothing above the relevance threshold.
type Answer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Note     string   `json:"note,omitempty"`
}

// FileReport is the per-file outcome of an ingestion batch.
type FileReport struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
