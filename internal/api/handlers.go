package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/edustack/coursequiz/internal/config"
	"github.com/edustack/coursequiz/internal/core"
	"github.com/edustack/coursequiz/internal/store"
)

type APIHandler struct {
	indexer     *core.Indexer
	retriever   *core.Retriever
	quizService *core.QuizService
	grader      *core.Grader
	dbStore     *store.SQLiteStore
}

func NewAPIHandler(indexer *core.Indexer, retriever *core.Retriever, quizService *core.QuizService, grader *core.Grader, dbStore *store.SQLiteStore) *APIHandler {
	return &APIHandler{
		indexer:     indexer,
		retriever:   retriever,
		quizService: quizService,
		grader:      grader,
		dbStore:     dbStore,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type IndexDocumentRequest struct {
	Text string `json:"text"`
}

func (h *APIHandler) IndexDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	count, err := h.indexer.IndexDocument(r.Context(), documentID, req.Text)
	if err != nil {
		if errors.Is(err, core.ErrEmptyDocument) {
			writeError(w, http.StatusUnprocessableEntity, "Document text is empty; nothing to index")
			return
		}
		log.Printf("Error indexing document %s: %v", documentID, err)
		writeError(w, http.StatusInternalServerError, "Failed to index document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"document_id": documentID, "chunks": count})
}

func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	query := r.URL.Query().Get("q")

	topK := config.AppConfig.RetrievalTopK
	if kParam := r.URL.Query().Get("k"); kParam != "" {
		k, err := strconv.Atoi(kParam)
		if err != nil || k < 1 {
			writeError(w, http.StatusBadRequest, "Parameter k must be a positive integer")
			return
		}
		topK = k
	}

	hits, err := h.retriever.Search(r.Context(), documentID, query, topK)
	if err != nil {
		log.Printf("Error searching document %s: %v", documentID, err)
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	if hits == nil {
		hits = []core.RetrievalHit{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"document_id": documentID, "query": query, "hits": hits})
}

type GenerateQuizRequest struct {
	Query     string `json:"query"`
	LearnerID string `json:"learner_id"`
	Subject   string `json:"subject"`
	MCQCount  int    `json:"mcq_count"`
	OpenCount int    `json:"open_count"`
}

func (h *APIHandler) GenerateQuizHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	var req GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	difficulty, mcqCount, openCount := h.resolveQuizShape(&req)

	questions, err := h.quizService.GenerateQuiz(r.Context(), documentID, req.Query, difficulty, mcqCount, openCount)
	if err != nil {
		if errors.Is(err, core.ErrNoRetrievableContent) {
			writeError(w, http.StatusUnprocessableEntity, "No indexed content for this document; index the material first")
			return
		}
		log.Printf("Error generating quiz for document %s: %v", documentID, err)
		writeError(w, http.StatusInternalServerError, "Failed to generate quiz")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quiz_id":     uuid.NewString(),
		"document_id": documentID,
		"difficulty":  difficulty.String(),
		"questions":   questions,
	})
}

// resolveQuizShape derives the question counts from attempt history when the
// request did not pin them. Roughly a quarter of an adaptive quiz is
// open-ended.
func (h *APIHandler) resolveQuizShape(req *GenerateQuizRequest) (core.Difficulty, int, int) {
	if req.MCQCount > 0 || req.OpenCount > 0 {
		return core.SelectDifficulty(h.recentScores(req)), req.MCQCount, req.OpenCount
	}

	difficulty := core.SelectDifficulty(h.recentScores(req))
	total := core.QuestionCount(difficulty, config.AppConfig.QuizMinCount, config.AppConfig.QuizMaxCount)
	openCount := total / 4
	return difficulty, total - openCount, openCount
}

func (h *APIHandler) recentScores(req *GenerateQuizRequest) []float64 {
	if req.LearnerID == "" {
		return nil
	}
	scores, err := h.dbStore.RecentAttemptScores(req.LearnerID, req.Subject, core.DefaultAttemptWindow)
	if err != nil {
		log.Printf("Error loading attempt history for learner %s: %v. Defaulting to easy.", req.LearnerID, err)
		return nil
	}
	return scores
}

type GradeAnswerRequest struct {
	Question        string `json:"question"`
	ExpectedAnswer  string `json:"expected_answer"`
	GradingCriteria string `json:"grading_criteria"`
	StudentAnswer   string `json:"student_answer"`
}

func (h *APIHandler) GradeAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req GradeAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" || req.StudentAnswer == "" {
		writeError(w, http.StatusBadRequest, "Question and student answer are required")
		return
	}

	result := h.grader.Grade(r.Context(), req.Question, req.ExpectedAnswer, req.GradingCriteria, req.StudentAnswer)
	writeJSON(w, http.StatusOK, result)
}

type RecordAttemptRequest struct {
	LearnerID    string  `json:"learner_id"`
	Subject      string  `json:"subject"`
	ScorePercent float64 `json:"score_percent"`
}

func (h *APIHandler) RecordAttemptHandler(w http.ResponseWriter, r *http.Request) {
	var req RecordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.LearnerID == "" || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "Learner ID and subject are required")
		return
	}
	if req.ScorePercent < 0 || req.ScorePercent > 100 {
		writeError(w, http.StatusBadRequest, "Score percent must be in [0, 100]")
		return
	}

	attempt := store.Attempt{
		LearnerID:    req.LearnerID,
		Subject:      req.Subject,
		ScorePercent: req.ScorePercent,
	}
	if err := h.dbStore.SaveAttempt(&attempt); err != nil {
		log.Printf("Error saving attempt for learner %s: %v", req.LearnerID, err)
		writeError(w, http.StatusInternalServerError, "Failed to record attempt")
		return
	}

	writeJSON(w, http.StatusCreated, attempt)
}
