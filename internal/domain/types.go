package domain

// Page is the text of a single PDF page together with its origin.
type Page struct {
	Source string // file name of the PDF the page came from
	Number int    // 1-based page number within that file
	Text   string
}

// Chunk is an overlapping span of a page's text, identified positionally.
type Chunk struct {
	Source string
	Page   int
	Index  int // 0-based position of the chunk within its page
	Text   string
}

// Entry is what the vector store persists for one chunk.
type Entry struct {
	Chunk  Chunk
	Vector []float32
}

// SearchResult is a retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// SourceRef points at the page a retrieved chunk was taken from.
type SourceRef struct {
	Source string
	Page   int
}

// Answer is the result of one question: generated text plus the distinct
// sources of the retrieved context, in retrieval-rank order.
type Answer struct {
	Text    string
	Sources []SourceRef
}

// IngestStats summarizes one init run.
type IngestStats struct {
	Documents int
	Pages     int
	Chunks    int
	Reused    bool // true when an existing store was kept as-is
}
