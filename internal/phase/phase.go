// Package phase implements the five-step creative workflow state
// machine. Phases advance linearly, each phase may step back to its
// immediate predecessor, and entering a phase requires its data
// dependencies to be present.
package phase

import (
	"fmt"

	"github.com/kidcreatives/kidcreatives/internal/prompt"
)

// Phase identifies one step of the workflow. The declaration order is
// the progression order.
type Phase string

const (
	Handshake     Phase = "handshake"
	PromptBuilder Phase = "prompt-builder"
	Generation    Phase = "generation"
	Refinement    Phase = "refinement"
	Trophy        Phase = "trophy"
)

// order maps each phase to its position for progress display and the
// back-transition target.
var order = []Phase{Handshake, PromptBuilder, Generation, Refinement, Trophy}

// Index returns the zero-based position of p in the progression, or -1
// for an unknown phase.
func (p Phase) Index() int {
	for i, q := range order {
		if q == p {
			return i
		}
	}
	return -1
}

// ErrInvalidTransition is returned when a completion action is invoked
// from a phase it does not belong to.
var ErrInvalidTransition = fmt.Errorf("phase: invalid transition")

// Data is everything accumulated across the phases of one session.
type Data struct {
	OriginalImage   []byte
	ImageMIMEType   string
	IntentStatement string
	VisionAnalysis  string
	PromptState     *prompt.State
	GeneratedImage  []byte
	RefinedImage    []byte
	EditCount       int
}

// Machine gates phase progression for a single session. It is not safe
// for concurrent use; callers serialize access per session.
type Machine struct {
	current Phase
	data    Data
}

// NewMachine starts a fresh session at the handshake phase.
func NewMachine() *Machine {
	return &Machine{current: Handshake}
}

// Current reports the active phase.
func (m *Machine) Current() Phase { return m.current }

// Data exposes the accumulated session data. Callers treat the returned
// pointer as read-only outside the machine's own transitions, with the
// exception of PromptState which the prompt builder mutates in place.
func (m *Machine) Data() *Data { return &m.data }

// CompleteHandshake stores the uploaded drawing, the child's intent and
// the vision analysis, then advances to the prompt builder.
func (m *Machine) CompleteHandshake(image []byte, mimeType, intent, analysis string) error {
	if m.current != Handshake {
		return fmt.Errorf("%w: complete handshake from %q", ErrInvalidTransition, m.current)
	}
	m.data.OriginalImage = image
	m.data.ImageMIMEType = mimeType
	m.data.IntentStatement = intent
	m.data.VisionAnalysis = analysis
	m.current = PromptBuilder
	return nil
}

// CompletePromptBuilder stores the finished prompt state and advances to
// generation.
func (m *Machine) CompletePromptBuilder(s *prompt.State) error {
	if m.current != PromptBuilder {
		return fmt.Errorf("%w: complete prompt builder from %q", ErrInvalidTransition, m.current)
	}
	m.data.PromptState = s
	m.current = Generation
	return nil
}

// CompleteGeneration stores the generated artwork. With skipRefinement
// the generated image doubles as the final one, the edit count resets to
// zero and the session jumps straight to the trophy; otherwise the
// refinement loop begins.
func (m *Machine) CompleteGeneration(image []byte, skipRefinement bool) error {
	if m.current != Generation {
		return fmt.Errorf("%w: complete generation from %q", ErrInvalidTransition, m.current)
	}
	m.data.GeneratedImage = image
	if skipRefinement {
		m.data.RefinedImage = image
		m.data.EditCount = 0
		m.current = Trophy
		return nil
	}
	m.current = Refinement
	return nil
}

// CompleteRefinement stores the final image and how many edits produced
// it, then advances to the trophy.
func (m *Machine) CompleteRefinement(image []byte, editCount int) error {
	if m.current != Refinement {
		return fmt.Errorf("%w: complete refinement from %q", ErrInvalidTransition, m.current)
	}
	m.data.RefinedImage = image
	m.data.EditCount = editCount
	m.current = Trophy
	return nil
}

// CompleteTrophy is "create another": a full reset to an empty handshake.
func (m *Machine) CompleteTrophy() error {
	if m.current != Trophy {
		return fmt.Errorf("%w: complete trophy from %q", ErrInvalidTransition, m.current)
	}
	m.data = Data{}
	m.current = Handshake
	return nil
}

// Back steps to the immediate predecessor phase. Handshake has no
// predecessor and stays put. Accumulated data is kept so the user can
// move forward again without re-entering it.
func (m *Machine) Back() Phase {
	if i := m.current.Index(); i > 0 {
		m.current = order[i-1]
	}
	return m.current
}

// Evaluate checks the active phase's entry preconditions and silently
// redirects to the handshake when any is missing. Availability wins over
// strict error signaling here: a half-torn session restarts rather than
// wedging.
func (m *Machine) Evaluate() Phase {
	if !m.preconditionsMet() {
		m.current = Handshake
	}
	return m.current
}

func (m *Machine) preconditionsMet() bool {
	switch m.current {
	case PromptBuilder:
		return len(m.data.OriginalImage) > 0 && m.data.VisionAnalysis != ""
	case Generation:
		return len(m.data.OriginalImage) > 0 && m.data.PromptState != nil
	case Refinement:
		return len(m.data.OriginalImage) > 0 && len(m.data.GeneratedImage) > 0
	case Trophy:
		return len(m.data.OriginalImage) > 0 && len(m.data.RefinedImage) > 0 && m.data.PromptState != nil
	default:
		return true
	}
}
