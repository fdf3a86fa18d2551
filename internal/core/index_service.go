package core

import (
	"context"
	"log"

	"github.com/edustack/coursequiz/internal/llm"
	"github.com/edustack/coursequiz/internal/store"
)

// ChunkReplacer is the write side of the chunk store contract: the whole
// chunk set of a document is replaced atomically on reindex.
type ChunkReplacer interface {
	ReplaceChunks(documentID string, chunks []store.Chunk) error
}

// Indexer turns raw document text into the persisted chunk set: split,
// compute term frequencies, attach embeddings best-effort, replace.
type Indexer struct {
	store         ChunkReplacer
	embedder      llm.Embedder // may be nil
	stopwords     map[string]struct{}
	maxChunkChars int
}

func NewIndexer(chunkStore ChunkReplacer, embedder llm.Embedder, stopwords map[string]struct{}, maxChunkChars int) *Indexer {
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}
	return &Indexer{
		store:         chunkStore,
		embedder:      embedder,
		stopwords:     stopwords,
		maxChunkChars: maxChunkChars,
	}
}

// IndexDocument (re)indexes a document and returns the number of chunks
// written. Embedding failures never abort the reindex: the affected chunk is
// stored without a vector and retrieval falls back to lexical search.
func (ix *Indexer) IndexDocument(ctx context.Context, documentID, text string) (int, error) {
	segments, err := SplitChunks(text, ix.maxChunkChars)
	if err != nil {
		return 0, err
	}

	embedAvailable := ix.embedder != nil && ix.embedder.IsAvailable()
	chunks := make([]store.Chunk, 0, len(segments))
	embedded := 0
	for i, segment := range segments {
		chunk := store.Chunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    segment,
			TermFreqs:  TermFrequencies(segment, ix.stopwords),
		}
		if embedAvailable {
			// One synchronous call per chunk; no batch embedding API.
			vector, err := ix.embedder.Embed(ctx, segment)
			if err != nil {
				log.Printf("Embedding failed for chunk %d of %s, indexing without a vector: %v", i, documentID, err)
			} else {
				chunk.Embedding = vector
				chunk.HasEmbedding = true
				embedded++
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := ix.store.ReplaceChunks(documentID, chunks); err != nil {
		return 0, err
	}
	log.Printf("Indexed document %s: %d chunks, %d embedded", documentID, len(chunks), embedded)
	return len(chunks), nil
}
