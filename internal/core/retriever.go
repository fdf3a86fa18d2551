package core

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/edustack/coursequiz/internal/llm"
	"github.com/edustack/coursequiz/internal/store"
	"github.com/edustack/coursequiz/internal/utils"
)

const (
	// MinTopK is the floor applied to the requested hit count.
	MinTopK = 3

	// excerptMaxChars bounds the excerpt carried on each hit.
	excerptMaxChars = 420

	// vectorHitScore is the placeholder similarity reported on the
	// embedding path. Scores on that path are ordinal only: rank is
	// meaningful, the absolute value is not.
	vectorHitScore = 1.0
)

// RetrievalHit is one ranked excerpt. Ephemeral: produced fresh per query,
// never cached or persisted.
type RetrievalHit struct {
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
	Excerpt    string  `json:"excerpt"`
}

// ChunkSearcher is the read side of the chunk store contract.
type ChunkSearcher interface {
	ListChunks(documentID string) ([]store.Chunk, error)
	SearchByVector(documentID string, queryVec []float32, topK int) ([]store.Chunk, error)
	CountEmbedded(documentID string) (int, error)
}

// Retriever answers queries with the most relevant chunks of a document. It
// prefers vector search over stored embeddings and falls back to TF-IDF
// cosine ranking whenever the semantic signal is unavailable or failing; a
// query never fails purely because the embedding backend is down.
type Retriever struct {
	store     ChunkSearcher
	embedder  llm.Embedder // may be nil
	stopwords map[string]struct{}
}

func NewRetriever(chunkStore ChunkSearcher, embedder llm.Embedder, stopwords map[string]struct{}) *Retriever {
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}
	return &Retriever{store: chunkStore, embedder: embedder, stopwords: stopwords}
}

// Search returns up to topK hits for the query, best first. An empty query
// or an unindexed document yields an empty list, not an error.
func (r *Retriever) Search(ctx context.Context, documentID, query string, topK int) ([]RetrievalHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK < MinTopK {
		topK = MinTopK
	}

	if r.embedder != nil && r.embedder.IsAvailable() {
		embedded, err := r.store.CountEmbedded(documentID)
		if err != nil {
			log.Printf("Embedded-chunk count failed for %s, falling back to lexical search: %v", documentID, err)
		} else if embedded > 0 {
			hits, err := r.searchByEmbedding(ctx, documentID, query, topK)
			if err != nil {
				log.Printf("Vector search failed for %s, falling back to lexical search: %v", documentID, err)
			} else {
				return hits, nil
			}
		}
	}

	return r.searchByTFIDF(documentID, query, topK)
}

func (r *Retriever) searchByEmbedding(ctx context.Context, documentID, query string, topK int) ([]RetrievalHit, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	chunks, err := r.store.SearchByVector(documentID, queryVec, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]RetrievalHit, 0, len(chunks))
	for i, chunk := range chunks {
		hits = append(hits, RetrievalHit{
			Rank:       i + 1,
			Score:      vectorHitScore,
			ChunkIndex: chunk.ChunkIndex,
			Excerpt:    makeExcerpt(chunk.Content),
		})
	}
	return hits, nil
}

func (r *Retriever) searchByTFIDF(documentID, query string, topK int) ([]RetrievalHit, error) {
	chunks, err := r.store.ListChunks(documentID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	idf := inverseDocumentFrequencies(chunks)
	queryVec := tfidfVector(TermFrequencies(query, r.stopwords), idf)

	type scored struct {
		chunk      store.Chunk
		similarity float64
	}
	var candidates []scored
	for _, chunk := range chunks {
		chunkVec := tfidfVector(chunk.TermFreqs, idf)
		similarity := utils.DotSparse(queryVec, chunkVec)
		if similarity > 0 {
			candidates = append(candidates, scored{chunk: chunk, similarity: similarity})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if topK > len(candidates) {
		topK = len(candidates)
	}

	hits := make([]RetrievalHit, 0, topK)
	for i, c := range candidates[:topK] {
		hits = append(hits, RetrievalHit{
			Rank:       i + 1,
			Score:      c.similarity,
			ChunkIndex: c.chunk.ChunkIndex,
			Excerpt:    makeExcerpt(c.chunk.Content),
		})
	}
	return hits, nil
}

// inverseDocumentFrequencies computes smoothed IDF weights across the
// document's chunks: idf(t) = ln((N+1)/(df(t)+1)) + 1.
func inverseDocumentFrequencies(chunks []store.Chunk) map[string]float64 {
	df := make(map[string]int)
	for _, chunk := range chunks {
		for term := range chunk.TermFreqs {
			df[term]++
		}
	}
	n := float64(len(chunks))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((n+1)/(float64(count)+1)) + 1
	}
	return idf
}

// tfidfVector builds a unit-normalized sparse vector with sublinear term
// frequency scaling: weight = (1 + ln(tf)) * idf.
func tfidfVector(termFreqs map[string]int, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(termFreqs))
	for term, tf := range termFreqs {
		weight, ok := idf[term]
		if !ok {
			continue
		}
		vec[term] = (1 + math.Log(float64(tf))) * weight
	}
	utils.NormalizeSparse(vec)
	return vec
}

// makeExcerpt collapses the chunk text to single spaces and truncates it to
// the excerpt bound, marking truncation with an ellipsis.
func makeExcerpt(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	runes := []rune(collapsed)
	if len(runes) <= excerptMaxChars {
		return collapsed
	}
	return string(runes[:excerptMaxChars]) + "…"
}
