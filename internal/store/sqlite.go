package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/edustack/coursequiz/internal/utils"
)

type SQLiteStore struct {
	db *sql.DB

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex // serializes reindexing per document
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, docLocks: make(map[string]*sync.Mutex)}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chunks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        document_id TEXT NOT NULL,
        chunk_index INTEGER NOT NULL,
        content TEXT NOT NULL,
        term_freqs_json TEXT NOT NULL,
        embedding_json TEXT, -- JSON string of []float32, NULL when not embedded
        has_embedding BOOLEAN NOT NULL DEFAULT FALSE,
        UNIQUE (document_id, chunk_index)
    );
    CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks (document_id);

    CREATE TABLE IF NOT EXISTS attempts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        learner_id TEXT NOT NULL,
        subject TEXT NOT NULL,
        score_percent REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_attempts_learner ON attempts (learner_id, subject);
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) lockFor(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.docLocks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.docLocks[documentID] = l
	}
	return l
}

// ReplaceChunks atomically swaps the stored chunk set of a document:
// delete-then-insert in a single transaction, serialized per document so
// concurrent readers see either the old set or the new one, never a mix.
func (s *SQLiteStore) ReplaceChunks(documentID string, chunks []Chunk) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reindex transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks for %s: %w", documentID, err)
	}

	for i := range chunks {
		if err := insertChunk(tx, &chunks[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reindex for %s: %w", documentID, err)
	}
	return nil
}

// SaveChunk inserts a single chunk. Reindexing goes through ReplaceChunks;
// this exists for callers appending to a fresh document incrementally.
func (s *SQLiteStore) SaveChunk(chunk *Chunk) error {
	l := s.lockFor(chunk.DocumentID)
	l.Lock()
	defer l.Unlock()
	return insertChunk(s.db, chunk)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertChunk(db execer, chunk *Chunk) error {
	tfBytes, err := json.Marshal(chunk.TermFreqs)
	if err != nil {
		return fmt.Errorf("failed to marshal term frequencies: %w", err)
	}
	var embeddingJSON sql.NullString
	if chunk.HasEmbedding {
		embBytes, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		embeddingJSON = sql.NullString{String: string(embBytes), Valid: true}
	}
	res, err := db.Exec("INSERT INTO chunks (document_id, chunk_index, content, term_freqs_json, embedding_json, has_embedding) VALUES (?, ?, ?, ?, ?, ?)",
		chunk.DocumentID, chunk.ChunkIndex, chunk.Content, string(tfBytes), embeddingJSON, chunk.HasEmbedding)
	if err != nil {
		return fmt.Errorf("failed to insert chunk %d for %s: %w", chunk.ChunkIndex, chunk.DocumentID, err)
	}
	chunk.ID, _ = res.LastInsertId()
	return nil
}

// DeleteAllChunks removes every chunk of a document.
func (s *SQLiteStore) DeleteAllChunks(documentID string) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.db.Exec("DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", documentID, err)
	}
	return nil
}

// ListChunks returns a document's chunks ordered by chunk index.
func (s *SQLiteStore) ListChunks(documentID string) ([]Chunk, error) {
	rows, err := s.db.Query("SELECT id, document_id, chunk_index, content, term_freqs_json, embedding_json, has_embedding FROM chunks WHERE document_id = ? ORDER BY chunk_index ASC", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// CountEmbedded reports how many of a document's chunks carry an embedding.
func (s *SQLiteStore) CountEmbedded(documentID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE document_id = ? AND has_embedding = TRUE", documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embedded chunks: %w", err)
	}
	return count, nil
}

// SearchByVector returns up to topK embedded chunks of a document ordered by
// cosine similarity to the query vector, best first.
func (s *SQLiteStore) SearchByVector(documentID string, queryVec []float32, topK int) ([]Chunk, error) {
	rows, err := s.db.Query("SELECT id, document_id, chunk_index, content, term_freqs_json, embedding_json, has_embedding FROM chunks WHERE document_id = ? AND has_embedding = TRUE", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		chunk      Chunk
		similarity float32
	}
	var candidates []scored
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		similarity, err := utils.CosineSimilarity(queryVec, chunk.Embedding)
		if err != nil {
			log.Printf("Skipping chunk %d of %s in vector search: %v", chunk.ChunkIndex, documentID, err)
			continue
		}
		candidates = append(candidates, scored{chunk: chunk, similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})
	if topK > len(candidates) {
		topK = len(candidates)
	}
	result := make([]Chunk, 0, topK)
	for _, c := range candidates[:topK] {
		result = append(result, c.chunk)
	}
	return result, nil
}

func scanChunk(rows *sql.Rows) (Chunk, error) {
	var chunk Chunk
	var tfJSON string
	var embJSON sql.NullString
	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content, &tfJSON, &embJSON, &chunk.HasEmbedding); err != nil {
		return Chunk{}, fmt.Errorf("failed to scan chunk row: %w", err)
	}
	if err := json.Unmarshal([]byte(tfJSON), &chunk.TermFreqs); err != nil {
		log.Printf("Warning: failed to unmarshal term frequencies for chunk %d: %v", chunk.ID, err)
		chunk.TermFreqs = map[string]int{}
	}
	if embJSON.Valid && embJSON.String != "" {
		if err := json.Unmarshal([]byte(embJSON.String), &chunk.Embedding); err != nil {
			log.Printf("Warning: failed to unmarshal embedding for chunk %d: %v. Treating as not embedded.", chunk.ID, err)
			chunk.Embedding = nil
			chunk.HasEmbedding = false
		}
	}
	return chunk, nil
}

// Attempt methods (for the difficulty selector)

func (s *SQLiteStore) SaveAttempt(attempt *Attempt) error {
	res, err := s.db.Exec("INSERT INTO attempts (learner_id, subject, score_percent) VALUES (?, ?, ?)",
		attempt.LearnerID, attempt.Subject, attempt.ScorePercent)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	attempt.ID, _ = res.LastInsertId()
	return nil
}

// RecentAttemptScores returns up to n most recent attempt scores of a learner
// in a subject, newest first.
func (s *SQLiteStore) RecentAttemptScores(learnerID, subject string, n int) ([]float64, error) {
	rows, err := s.db.Query("SELECT score_percent FROM attempts WHERE learner_id = ? AND subject = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		learnerID, subject, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
