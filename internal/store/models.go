package store

import "time"

// Chunk is a bounded excerpt of a course document, the unit of retrieval.
// TermFreqs is always populated at indexing time; Embedding is best-effort
// and HasEmbedding reports whether a vector of the configured dimension was
// stored for this chunk.
type Chunk struct {
	ID           int64          `json:"id"`
	DocumentID   string         `json:"document_id"`
	ChunkIndex   int            `json:"chunk_index"`
	Content      string         `json:"content"`
	TermFreqs    map[string]int `json:"-"`
	Embedding    []float32      `json:"-"`
	HasEmbedding bool           `json:"has_embedding"`
}

// Attempt is one graded quiz attempt of a learner in a subject. The
// difficulty selector reads the most recent scores.
type Attempt struct {
	ID           int64     `json:"id"`
	LearnerID    string    `json:"learner_id"`
	Subject      string    `json:"subject"`
	ScorePercent float64   `json:"score_percent"`
	CreatedAt    time.Time `json:"created_at"`
}
