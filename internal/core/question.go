package core

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// QuestionKind tags the two generated-question variants.
type QuestionKind string

const (
	QuestionMCQ       QuestionKind = "MCQ"
	QuestionOpenEnded QuestionKind = "OPEN_ENDED"
)

// ChoiceLabels is the fixed label set for multiple-choice options. A model
// answer outside this set invalidates the item.
var ChoiceLabels = []string{"A", "B", "C", "D"}

// DefaultMaxPoints is assigned to open-ended items whose payload did not
// specify a positive point value.
const DefaultMaxPoints = 10

// MCQData is the multiple-choice payload: four labeled options and the label
// of the single correct one.
type MCQData struct {
	Choices map[string]string
	Correct string
}

// OpenEndedData is the free-text payload: expected-answer guidance, a
// grading rubric and the maximum points awardable.
type OpenEndedData struct {
	ExpectedAnswer  string
	GradingCriteria string
	MaxPoints       int
}

// Question is a tagged variant: exactly one of MCQ and Open is set,
// according to Kind.
type Question struct {
	Kind        QuestionKind
	Text        string
	Explanation string
	MCQ         *MCQData
	Open        *OpenEndedData
}

// wireQuestion mirrors the JSON schema the generation backend is instructed
// to produce. Both variants share one shape on the wire.
type wireQuestion struct {
	Type            string            `json:"type,omitempty"`
	Question        string            `json:"question"`
	Choices         map[string]string `json:"choices,omitempty"`
	Correct         string            `json:"correct,omitempty"`
	ExpectedAnswer  string            `json:"expectedAnswer,omitempty"`
	GradingCriteria string            `json:"gradingCriteria,omitempty"`
	MaxPoints       int               `json:"maxPoints,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
}

type wireBatch struct {
	Questions []json.RawMessage `json:"questions"`
}

// MarshalJSON emits the wire format of the variant.
func (q Question) MarshalJSON() ([]byte, error) {
	wire := wireQuestion{
		Type:        string(q.Kind),
		Question:    q.Text,
		Explanation: q.Explanation,
	}
	switch q.Kind {
	case QuestionMCQ:
		if q.MCQ == nil {
			return nil, fmt.Errorf("MCQ question %q has no choice payload", q.Text)
		}
		wire.Choices = q.MCQ.Choices
		wire.Correct = q.MCQ.Correct
	case QuestionOpenEnded:
		if q.Open == nil {
			return nil, fmt.Errorf("open-ended question %q has no payload", q.Text)
		}
		wire.ExpectedAnswer = q.Open.ExpectedAnswer
		wire.GradingCriteria = q.Open.GradingCriteria
		wire.MaxPoints = q.Open.MaxPoints
	default:
		return nil, fmt.Errorf("unknown question kind %q", q.Kind)
	}
	return json.Marshal(wire)
}

// ParseQuestionBatch extracts and validates the question set from raw model
// output. Individually malformed items are skipped and logged; the batch
// only fails when the payload itself cannot be parsed or holds no questions
// array.
func ParseQuestionBatch(raw string) ([]Question, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var batch wireBatch
	if err := json.Unmarshal([]byte(payload), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse generation output (prefix %q): %w", prefix(raw, 120), err)
	}
	if batch.Questions == nil {
		return nil, fmt.Errorf("generation output has no questions array (prefix %q)", prefix(raw, 120))
	}

	questions := make([]Question, 0, len(batch.Questions))
	for i, item := range batch.Questions {
		var wire wireQuestion
		if err := json.Unmarshal(item, &wire); err != nil {
			log.Printf("Skipping question %d: malformed item: %v", i, err)
			continue
		}
		question, err := questionFromWire(wire)
		if err != nil {
			log.Printf("Skipping question %d: %v", i, err)
			continue
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// questionFromWire validates one item for its declared type. Untyped items
// default to multiple-choice.
func questionFromWire(wire wireQuestion) (Question, error) {
	if strings.TrimSpace(wire.Question) == "" {
		return Question{}, fmt.Errorf("empty question text")
	}

	kind := QuestionKind(strings.ToUpper(strings.TrimSpace(wire.Type)))
	if kind == "" {
		kind = QuestionMCQ
	}

	switch kind {
	case QuestionMCQ:
		if len(wire.Choices) != len(ChoiceLabels) {
			return Question{}, fmt.Errorf("expected %d choices, got %d", len(ChoiceLabels), len(wire.Choices))
		}
		for _, label := range ChoiceLabels {
			if strings.TrimSpace(wire.Choices[label]) == "" {
				return Question{}, fmt.Errorf("missing or empty choice %q", label)
			}
		}
		correct := strings.ToUpper(strings.TrimSpace(wire.Correct))
		if _, ok := wire.Choices[correct]; !ok || !isChoiceLabel(correct) {
			return Question{}, fmt.Errorf("correct label %q is not one of the allowed labels", wire.Correct)
		}
		return Question{
			Kind:        QuestionMCQ,
			Text:        wire.Question,
			Explanation: wire.Explanation,
			MCQ:         &MCQData{Choices: wire.Choices, Correct: correct},
		}, nil

	case QuestionOpenEnded:
		if strings.TrimSpace(wire.ExpectedAnswer) == "" {
			return Question{}, fmt.Errorf("open-ended item has no expected answer")
		}
		maxPoints := wire.MaxPoints
		if maxPoints <= 0 {
			maxPoints = DefaultMaxPoints
		}
		return Question{
			Kind:        QuestionOpenEnded,
			Text:        wire.Question,
			Explanation: wire.Explanation,
			Open: &OpenEndedData{
				ExpectedAnswer:  wire.ExpectedAnswer,
				GradingCriteria: wire.GradingCriteria,
				MaxPoints:       maxPoints,
			},
		}, nil

	default:
		return Question{}, fmt.Errorf("unknown question type %q", wire.Type)
	}
}

func isChoiceLabel(label string) bool {
	for _, l := range ChoiceLabels {
		if l == label {
			return true
		}
	}
	return false
}

// extractJSONObject strips Markdown code fences and returns the substring
// between the first '{' and the last '}'.
func extractJSONObject(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in generation output (prefix %q)", prefix(raw, 120))
	}
	return cleaned[start : end+1], nil
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
