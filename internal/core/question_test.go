package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBatch = `{"questions": [
	{"type": "MCQ", "question": "What produces glucose?",
	 "choices": {"A": "Photosynthesis", "B": "Respiration", "C": "Osmosis", "D": "Diffusion"},
	 "correct": "A", "explanation": "Chloroplasts produce glucose."},
	{"type": "OPEN_ENDED", "question": "Explain the water cycle.",
	 "expectedAnswer": "Evaporation, condensation, precipitation.",
	 "gradingCriteria": "One point per stage.", "maxPoints": 6, "explanation": "Covers all three stages."}
]}`

func TestParseQuestionBatchValid(t *testing.T) {
	questions, err := ParseQuestionBatch(validBatch)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	mcq := questions[0]
	assert.Equal(t, QuestionMCQ, mcq.Kind)
	require.NotNil(t, mcq.MCQ)
	assert.Nil(t, mcq.Open)
	assert.Equal(t, "A", mcq.MCQ.Correct)
	assert.Len(t, mcq.MCQ.Choices, 4)

	open := questions[1]
	assert.Equal(t, QuestionOpenEnded, open.Kind)
	require.NotNil(t, open.Open)
	assert.Nil(t, open.MCQ)
	assert.Equal(t, 6, open.Open.MaxPoints)
}

func TestParseQuestionBatchStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validBatch + "\n```"
	questions, err := ParseQuestionBatch(fenced)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseQuestionBatchExtractsObjectFromProse(t *testing.T) {
	wrapped := "Here are your questions:\n" + validBatch + "\nHope this helps!"
	questions, err := ParseQuestionBatch(wrapped)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseQuestionBatchSkipsInvalidCorrectLabel(t *testing.T) {
	batch := `{"questions": [
		{"type": "MCQ", "question": "Bad label?",
		 "choices": {"A": "x", "B": "y", "C": "z", "D": "w"}, "correct": "E"},
		{"type": "MCQ", "question": "Good label?",
		 "choices": {"A": "x", "B": "y", "C": "z", "D": "w"}, "correct": "B"}
	]}`
	questions, err := ParseQuestionBatch(batch)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Good label?", questions[0].Text)
}

func TestParseQuestionBatchSkipsIncompleteItems(t *testing.T) {
	batch := `{"questions": [
		{"type": "MCQ", "question": "Missing choices", "correct": "A"},
		{"type": "OPEN_ENDED", "question": "Missing expected answer"},
		{"type": "MCQ", "question": "",
		 "choices": {"A": "x", "B": "y", "C": "z", "D": "w"}, "correct": "A"}
	]}`
	questions, err := ParseQuestionBatch(batch)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestParseQuestionBatchUntypedDefaultsToMCQ(t *testing.T) {
	batch := `{"questions": [
		{"question": "Untyped item?",
		 "choices": {"A": "x", "B": "y", "C": "z", "D": "w"}, "correct": "d"}
	]}`
	questions, err := ParseQuestionBatch(batch)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, QuestionMCQ, questions[0].Kind)
	assert.Equal(t, "D", questions[0].MCQ.Correct, "label is normalized to upper case")
}

func TestParseQuestionBatchDefaultsMaxPoints(t *testing.T) {
	batch := `{"questions": [
		{"type": "OPEN_ENDED", "question": "No points given.",
		 "expectedAnswer": "Something."}
	]}`
	questions, err := ParseQuestionBatch(batch)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, DefaultMaxPoints, questions[0].Open.MaxPoints)
}

func TestParseQuestionBatchGarbage(t *testing.T) {
	_, err := ParseQuestionBatch("I cannot answer that.")
	assert.Error(t, err)

	_, err = ParseQuestionBatch(`{"answer": 42}`)
	assert.Error(t, err, "payload without a questions array is rejected")

	_, err = ParseQuestionBatch(`{"questions": [`)
	assert.Error(t, err)
}

func TestQuestionMarshalWireFormat(t *testing.T) {
	questions, err := ParseQuestionBatch(validBatch)
	require.NoError(t, err)

	data, err := json.Marshal(questions[0])
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "MCQ", wire["type"])
	assert.Equal(t, "A", wire["correct"])
	assert.NotContains(t, wire, "expectedAnswer")

	data, err = json.Marshal(questions[1])
	require.NoError(t, err)
	wire = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "OPEN_ENDED", wire["type"])
	assert.Equal(t, float64(6), wire["maxPoints"])
	assert.NotContains(t, wire, "choices")
	assert.NotContains(t, wire, "correct")
}
