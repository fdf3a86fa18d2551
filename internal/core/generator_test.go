package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/coursequiz/internal/llm"
)

// scriptedGenerator returns a fixed output or error on every call.
type scriptedGenerator struct {
	output string
	err    error
	calls  int
}

func (s *scriptedGenerator) GenerateJSON(context.Context, string, string) (string, error) {
	s.calls++
	return s.output, s.err
}

func (s *scriptedGenerator) GenerateWithImage(context.Context, string, string, string, string) (string, error) {
	return "", llm.ErrImageUnsupported
}

// fakeSearcher serves canned hits and records the query it was asked.
type fakeSearcher struct {
	hits      []RetrievalHit
	err       error
	lastQuery string
}

func (f *fakeSearcher) Search(_ context.Context, _, query string, _ int) ([]RetrievalHit, error) {
	f.lastQuery = query
	return f.hits, f.err
}

func someHits() []RetrievalHit {
	return []RetrievalHit{
		{Rank: 1, Score: 0.9, ChunkIndex: 2, Excerpt: "Photosynthesis converts sunlight into glucose."},
		{Rank: 2, Score: 0.4, ChunkIndex: 0, Excerpt: "The water cycle moves moisture through evaporation."},
	}
}

func TestGenerateQuizRequiresGroundingContext(t *testing.T) {
	svc := NewQuizService(&fakeSearcher{}, nil, llm.NewMockGenerator(), 5)

	_, err := svc.GenerateQuiz(context.Background(), "doc-1", "anything", DifficultyEasy, 3, 1)
	assert.ErrorIs(t, err, ErrNoRetrievableContent)
}

func TestGenerateQuizUsesDefaultQueryWhenBlank(t *testing.T) {
	searcher := &fakeSearcher{hits: someHits()}
	svc := NewQuizService(searcher, nil, llm.NewMockGenerator(), 5)

	_, err := svc.GenerateQuiz(context.Background(), "doc-1", "  ", DifficultyEasy, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultQuery, searcher.lastQuery)
}

func TestGenerateQuizUsesLiveOutputWhenValid(t *testing.T) {
	live := &scriptedGenerator{output: validBatch}
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, live, llm.NewMockGenerator(), 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyMedium, 1, 1)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "What produces glucose?", questions[0].Text)
	assert.Equal(t, 1, live.calls)
}

func TestGenerateQuizFallsBackToMockOnTransportError(t *testing.T) {
	live := &scriptedGenerator{err: errors.New("deadline exceeded")}
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, live, llm.NewMockGenerator(), 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyEasy, 3, 2)
	require.NoError(t, err, "transport failures must never surface")
	assert.Len(t, questions, 5, "the mock yields exactly the requested count")
	assertQuestionInvariants(t, questions)
}

func TestGenerateQuizFallsBackToMockOnGarbageOutput(t *testing.T) {
	live := &scriptedGenerator{output: "I'm sorry, I can't do that."}
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, live, llm.NewMockGenerator(), 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyEasy, 4, 0)
	require.NoError(t, err)
	assert.Len(t, questions, 4)
	assertQuestionInvariants(t, questions)
}

func TestGenerateQuizSynthesizesWhenEveryStageFails(t *testing.T) {
	live := &scriptedGenerator{err: errors.New("down")}
	mock := &scriptedGenerator{output: "{not json at all"}
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, live, mock, 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyEasy, 2, 1)
	require.NoError(t, err, "the terminal synthesis stage cannot fail")
	require.Len(t, questions, 3)
	assertQuestionInvariants(t, questions)
	assert.Contains(t, questions[0].Text, "generated by default")
}

func TestGenerateQuizCapsAtRequestedCount(t *testing.T) {
	oversized := `{"questions": [
		{"question": "One?", "choices": {"A": "a", "B": "b", "C": "c", "D": "d"}, "correct": "A"},
		{"question": "Two?", "choices": {"A": "a", "B": "b", "C": "c", "D": "d"}, "correct": "B"},
		{"question": "Three?", "choices": {"A": "a", "B": "b", "C": "c", "D": "d"}, "correct": "C"}
	]}`
	live := &scriptedGenerator{output: oversized}
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, live, llm.NewMockGenerator(), 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyEasy, 1, 1)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerateQuizWithNilLiveBackend(t *testing.T) {
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, nil, llm.NewMockGenerator(), 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyHard, 2, 2)
	require.NoError(t, err)
	assert.Len(t, questions, 4)
	assertQuestionInvariants(t, questions)
}

func TestGenerateQuizZeroCountsDefaultToOneItem(t *testing.T) {
	svc := NewQuizService(&fakeSearcher{hits: someHits()}, nil, llm.NewMockGenerator(), 5)

	questions, err := svc.GenerateQuiz(context.Background(), "doc-1", "glucose", DifficultyEasy, 0, 0)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

// assertQuestionInvariants checks the structural contract on every returned
// item: MCQ items carry four A-D choices with a valid correct label,
// open-ended items carry positive max points.
func assertQuestionInvariants(t *testing.T, questions []Question) {
	t.Helper()
	for i, q := range questions {
		assert.NotEmpty(t, q.Text, "question %d has empty text", i)
		switch q.Kind {
		case QuestionMCQ:
			require.NotNil(t, q.MCQ, "question %d is MCQ without payload", i)
			assert.Nil(t, q.Open, "question %d mixes variants", i)
			assert.Len(t, q.MCQ.Choices, 4)
			assert.Contains(t, ChoiceLabels, q.MCQ.Correct)
			assert.Contains(t, q.MCQ.Choices, q.MCQ.Correct)
		case QuestionOpenEnded:
			require.NotNil(t, q.Open, "question %d is open-ended without payload", i)
			assert.Nil(t, q.MCQ, "question %d mixes variants", i)
			assert.Positive(t, q.Open.MaxPoints)
		default:
			t.Fatalf("question %d has unknown kind %q", i, q.Kind)
		}
	}
}
