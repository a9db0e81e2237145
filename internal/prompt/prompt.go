// Package prompt holds the prompt-building core of the creative workflow:
// the append-only variable store collected through guided questions, the
// deterministic synthesis of narrative and style-aggressive prompts, and
// the fixed question template catalog.
//
// Everything in this package is pure: no I/O, no clocks, no randomness.
// Timestamps are supplied by callers so the functions stay deterministic
// and trivially testable.
package prompt

import "time"

// Variable identifies a creative attribute the child defines through Q&A.
type Variable string

// Known variable tags. A category may repeat across different question
// instances, but each answered question carries exactly one tag.
const (
	VariableSubject       Variable = "subject"
	VariableSubjectAction Variable = "subject-action"
	VariableTexture       Variable = "texture"
	VariableMaterial      Variable = "material"
	VariableStyle         Variable = "style"
	VariableLighting      Variable = "lighting"
	VariableBackground    Variable = "background"
	VariableEra           Variable = "era"
	VariableMood          Variable = "mood"
	VariableColorPalette  Variable = "color-palette"
)

// ColorCategory is a presentation-grouping tag, independent of the
// variable's semantic name. It buckets entries during text synthesis and
// drives UI styling.
type ColorCategory string

const (
	CategorySubject  ColorCategory = "subject"
	CategoryVariable ColorCategory = "variable"
	CategoryContext  ColorCategory = "context"
)

// MaxAnswerLength bounds a single answer. Enforced at the input surface;
// the store itself accepts what it is given.
const MaxAnswerLength = 100

// Entry is one answered question. Entries are append-only within a
// session: never mutated or deleted once added.
type Entry struct {
	Variable      Variable      `json:"variable"`
	Question      string        `json:"question"`
	Answer        string        `json:"answer"`
	Timestamp     int64         `json:"timestamp"` // epoch milliseconds
	ColorCategory ColorCategory `json:"colorCategory"`
}

// State aggregates one creative session's prompt decisions.
// It is created when the handshake completes, mutated only by AddAnswer
// while questions are being answered, and read-only afterwards.
type State struct {
	IntentStatement      string   `json:"intentStatement"`
	VisionAnalysis       string   `json:"visionAnalysis"`
	Variables            []Entry  `json:"variables"`
	StartedAt            int64    `json:"startedAt"` // epoch milliseconds
	CompletedAt          *int64   `json:"completedAt"`
	CurrentQuestionIndex int      `json:"currentQuestionIndex"`
	TotalQuestions       int      `json:"totalQuestions"`
	SynthesizedPrompt    *string  `json:"synthesizedPrompt"`
	AppliedStyle         string   `json:"appliedStyle,omitempty"`
}

// New creates a fresh State for one session. totalQuestions is fixed at
// session start and never mutated afterward.
func New(intent, analysis string, totalQuestions int, startedAt time.Time) *State {
	return &State{
		IntentStatement: intent,
		VisionAnalysis:  analysis,
		Variables:       []Entry{},
		StartedAt:       startedAt.UnixMilli(),
		TotalQuestions:  totalQuestions,
	}
}

// AddAnswer appends an answered question and advances the question index.
// When the index reaches TotalQuestions, CompletedAt is set once; it is
// never decreased or cleared by later appends.
func (s *State) AddAnswer(v Variable, question, answer string, cat ColorCategory, at time.Time) {
	s.Variables = append(s.Variables, Entry{
		Variable:      v,
		Question:      question,
		Answer:        answer,
		Timestamp:     at.UnixMilli(),
		ColorCategory: cat,
	})
	s.CurrentQuestionIndex++

	if s.CompletedAt == nil && s.CurrentQuestionIndex >= s.TotalQuestions {
		done := at.UnixMilli()
		s.CompletedAt = &done
	}
}

// Complete reports whether every question has been answered.
func (s *State) Complete() bool {
	return s.CurrentQuestionIndex >= s.TotalQuestions
}

// Progress returns completion as a percentage in [0, 100].
func (s *State) Progress() float64 {
	if s.TotalQuestions <= 0 {
		return 0
	}
	return float64(s.CurrentQuestionIndex) / float64(s.TotalQuestions) * 100
}

// SetSynthesizedPrompt caches the most recent synthesis output.
func (s *State) SetSynthesizedPrompt(p string) {
	s.SynthesizedPrompt = &p
}
