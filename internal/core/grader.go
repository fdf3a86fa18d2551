package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/edustack/coursequiz/internal/llm"
)

const gradingSystemInstruction = "You are a strict but fair grader for a learning platform. " +
	"Score the student's answer against the expected answer and rubric on a 0-100 scale: " +
	"90-100 excellent, 75-89 good, 60-74 adequate, 30-59 weak, 0-29 very weak or off-topic. " +
	`Respond with strict JSON only: {"score": <int 0..100>, "feedback": "<text>"}`

const (
	// neutralScore is returned whenever automatic grading fails; the
	// feedback marks the result for human review.
	neutralScore    = 50
	neutralFeedback = "Automatic evaluation failed for this answer; a human reviewer should grade it manually."
)

// GradingResult is the ephemeral outcome of one grading call.
type GradingResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Grader scores free-text answers via the generation backend. It never
// fails: any transport or parse problem degrades to the neutral result.
type Grader struct {
	live llm.Generator // may be nil when unconfigured
	mock llm.Generator
}

func NewGrader(live, mock llm.Generator) *Grader {
	if mock == nil {
		mock = llm.NewMockGenerator()
	}
	return &Grader{live: live, mock: mock}
}

// Grade scores a student's answer in [0, 100]. The score is clamped no
// matter what the backend returns.
func (g *Grader) Grade(ctx context.Context, question, expectedAnswer, rubric, studentAnswer string) GradingResult {
	prompt := buildGradingPrompt(question, expectedAnswer, rubric, studentAnswer)

	for _, stage := range []llm.Generator{g.live, g.mock} {
		if stage == nil {
			continue
		}
		raw, err := stage.GenerateJSON(ctx, gradingSystemInstruction, prompt)
		if err != nil {
			log.Printf("Grading call failed, trying next stage: %v", err)
			continue
		}
		result, err := parseGradingResult(raw)
		if err != nil {
			log.Printf("Grading output rejected, trying next stage: %v", err)
			continue
		}
		return result
	}

	return GradingResult{Score: neutralScore, Feedback: neutralFeedback}
}

func buildGradingPrompt(question, expectedAnswer, rubric, studentAnswer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\nExpected answer:\n%s\n", question, expectedAnswer)
	if strings.TrimSpace(rubric) != "" {
		fmt.Fprintf(&b, "\nGrading rubric:\n%s\n", rubric)
	}
	fmt.Fprintf(&b, "\nStudent answer:\n%s\n", studentAnswer)
	return b.String()
}

func parseGradingResult(raw string) (GradingResult, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return GradingResult{}, err
	}

	var wire struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return GradingResult{}, fmt.Errorf("failed to parse grading output (prefix %q): %w", prefix(raw, 120), err)
	}
	if wire.Score == nil {
		return GradingResult{}, fmt.Errorf("grading output has no score field (prefix %q)", prefix(raw, 120))
	}
	if strings.TrimSpace(wire.Feedback) == "" {
		return GradingResult{}, fmt.Errorf("grading output has no feedback (prefix %q)", prefix(raw, 120))
	}

	score := int(math.Round(*wire.Score))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return GradingResult{Score: score, Feedback: wire.Feedback}, nil
}
