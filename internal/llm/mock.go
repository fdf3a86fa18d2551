package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	mcqCountPattern  = regexp.MustCompile(`(\d+)\s+multiple-choice`)
	openCountPattern = regexp.MustCompile(`(\d+)\s+open-ended`)
)

// MockGenerator fabricates schema-valid JSON from the prompt content alone.
// It needs no configuration or network and is the drop-in fallback target
// whenever the live backend is unselected, unconfigured, or failing.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) GenerateJSON(_ context.Context, systemInstruction, userPrompt string) (string, error) {
	if strings.Contains(systemInstruction, `"score"`) {
		return m.gradingPayload(userPrompt), nil
	}
	return m.quizPayload(userPrompt), nil
}

func (m *MockGenerator) GenerateWithImage(context.Context, string, string, string, string) (string, error) {
	return "", ErrImageUnsupported
}

func (m *MockGenerator) quizPayload(userPrompt string) string {
	mcqCount := extractCount(mcqCountPattern, userPrompt, 1)
	openCount := extractCount(openCountPattern, userPrompt, 0)

	questions := make([]map[string]any, 0, mcqCount+openCount)
	for i := 1; i <= mcqCount; i++ {
		questions = append(questions, map[string]any{
			"type":     "MCQ",
			"question": fmt.Sprintf("Question %d (generated by default): which statement best reflects the provided course material?", i),
			"choices": map[string]string{
				"A": "A statement supported by the supplied excerpts.",
				"B": "A statement contradicting the supplied excerpts.",
				"C": "A statement unrelated to the supplied excerpts.",
				"D": "A statement not covered by the supplied excerpts.",
			},
			"correct":     "A",
			"explanation": "Placeholder item produced by the offline generator; review against the source material.",
		})
	}
	for i := 1; i <= openCount; i++ {
		questions = append(questions, map[string]any{
			"type":            "OPEN_ENDED",
			"question":        fmt.Sprintf("Question %d (generated by default): summarize the key points of the provided course material.", mcqCount+i),
			"expectedAnswer":  "A summary grounded in the supplied excerpts.",
			"gradingCriteria": "Award points for coverage of the main ideas present in the supplied excerpts.",
			"maxPoints":       10,
			"explanation":     "Placeholder item produced by the offline generator; review against the source material.",
		})
	}

	payload, _ := json.Marshal(map[string]any{"questions": questions})
	return string(payload)
}

func (m *MockGenerator) gradingPayload(string) string {
	payload, _ := json.Marshal(map[string]any{
		"score":    60,
		"feedback": "Automatically generated evaluation (offline mode). A reviewer should verify this grade against the rubric.",
	})
	return string(payload)
}

func extractCount(pattern *regexp.Regexp, prompt string, fallback int) int {
	match := pattern.FindStringSubmatch(prompt)
	if len(match) < 2 {
		return fallback
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
