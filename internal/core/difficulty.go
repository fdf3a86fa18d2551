package core

// Difficulty is the ordinal tier driving how many and how hard the next
// generated questions should be. It is derived from attempt history and
// never stored on its own.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyMedium:
		return "MEDIUM"
	case DifficultyHard:
		return "HARD"
	default:
		return "EASY"
	}
}

const (
	// DefaultAttemptWindow is how many recent attempts the selector inspects.
	DefaultAttemptWindow = 20

	hardMeanThreshold   = 85
	mediumMeanThreshold = 60
	mediumTargetCount   = 8
)

// SelectDifficulty derives a tier from the learner's most recent attempt
// scores. No history means the learner starts easy.
func SelectDifficulty(recentScores []float64) Difficulty {
	if len(recentScores) == 0 {
		return DifficultyEasy
	}
	var sum float64
	for _, score := range recentScores {
		sum += score
	}
	mean := sum / float64(len(recentScores))
	switch {
	case mean >= hardMeanThreshold:
		return DifficultyHard
	case mean >= mediumMeanThreshold:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// QuestionCount maps a tier onto the configured [min, max] question range.
func QuestionCount(tier Difficulty, min, max int) int {
	switch tier {
	case DifficultyHard:
		return max
	case DifficultyMedium:
		return clamp(mediumTargetCount, min, max)
	default:
		return min
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
