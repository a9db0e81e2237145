// Package trophy computes the end-of-session summary: bounded creativity
// scoring, derived counters, and the printable certificate.
package trophy

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kidcreatives/kidcreatives/internal/prompt"
)

// Score bounds. Raw scores are rescaled into [MinScore, MaxScore] so
// every child receives an encouraging result; the floor is a product
// decision, not a defect.
const (
	MinScore = 80
	MaxScore = 100
)

// Stats is the derived, immutable snapshot shown on the trophy view and
// persisted with a gallery item.
type Stats struct {
	TotalQuestions  int      `json:"totalQuestions"`
	TotalEdits      int      `json:"totalEdits"`
	TimeSpent       int      `json:"timeSpent"` // seconds, clamped >= 0
	VariablesUsed   []string `json:"variablesUsed"`
	CreativityScore int      `json:"creativityScore"` // always in [80, 100]
	PromptLength    int      `json:"promptLength"`
}

// Extract computes the trophy snapshot from a completed prompt state and
// the refinement edit count.
//
// timeSpent is the whole-second span between the start and completion
// timestamps, but only when both are set and ordered; an inverted pair
// (clock skew) silently clamps to zero rather than reporting a negative
// duration.
func Extract(s *prompt.State, editCount int) Stats {
	timeSpent := 0
	if s.CompletedAt != nil && *s.CompletedAt >= s.StartedAt && s.StartedAt > 0 {
		timeSpent = int((*s.CompletedAt - s.StartedAt) / 1000)
	}

	variablesUsed := make([]string, len(s.Variables))
	for i, v := range s.Variables {
		variablesUsed[i] = string(v.Variable)
	}

	promptLength := 0
	if s.SynthesizedPrompt != nil {
		promptLength = utf8.RuneCountInString(*s.SynthesizedPrompt)
	}

	return Stats{
		TotalQuestions:  len(s.Variables),
		TotalEdits:      editCount,
		TimeSpent:       timeSpent,
		VariablesUsed:   variablesUsed,
		CreativityScore: CreativityScore(s.Variables),
		PromptLength:    promptLength,
	}
}

// CreativityScore rates answer quality on a [80, 100] scale.
//
// Raw scoring (0-100):
//   - 20 points for completing questions at all
//   - up to 30 for detailed answers (1 point per 2 chars of average length)
//   - up to 30 for vocabulary richness (2 points per unique word)
//   - up to 20 for descriptiveness (5 points per answer over two words)
//
// The raw score is then rescaled to 80-100. An empty variable list
// returns the floor.
func CreativityScore(entries []prompt.Entry) int {
	if len(entries) == 0 {
		return MinScore
	}

	raw := 20

	totalLength := 0
	for _, e := range entries {
		totalLength += utf8.RuneCountInString(e.Answer)
	}
	avgLength := float64(totalLength) / float64(len(entries))
	raw += min(30, int(math.Floor(avgLength/2)))

	unique := make(map[string]struct{})
	for _, e := range entries {
		for _, w := range strings.Fields(strings.ToLower(e.Answer)) {
			unique[w] = struct{}{}
		}
	}
	raw += min(30, 2*len(unique))

	descriptive := 0
	for _, e := range entries {
		if len(strings.Fields(e.Answer)) > 2 {
			descriptive++
		}
	}
	raw += min(20, 5*descriptive)

	scaled := int(math.Round(float64(MinScore) + float64(raw)*0.2))
	return min(MaxScore, max(MinScore, scaled))
}

// FormatTimeSpent renders a second count as "42s" or "3m 17s".
func FormatTimeSpent(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
