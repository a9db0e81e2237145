package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kidcreatives/kidcreatives/internal/phase"
	"github.com/kidcreatives/kidcreatives/internal/prompt"
	"github.com/kidcreatives/kidcreatives/internal/trophy"
)

// MaxUploadBytes caps drawing uploads at 5 MB.
const MaxUploadBytes = 5 * 1024 * 1024

// Validation and flow errors surfaced to the API layer.
var (
	ErrUploadTooLarge   = errors.New("workflow: image exceeds 5 MB limit")
	ErrUnsupportedImage = errors.New("workflow: unsupported image type")
	ErrEmptyIntent      = errors.New("workflow: intent statement is required")
	ErrEmptyAnswer      = errors.New("workflow: answer is required")
	ErrAnswerTooLong    = errors.New("workflow: answer exceeds length limit")
	ErrWrongPhase       = errors.New("workflow: action not available in current phase")
	ErrNoGeneratedImage = errors.New("workflow: no generated image yet")
)

// Generator is the slice of the Gemini client the workflow consumes.
// Tests substitute a fake.
type Generator interface {
	AnalyzeDrawing(ctx context.Context, image []byte, mimeType, intent string) (string, error)
	GenerateQuestion(ctx context.Context, intent, analysis string, q prompt.Question) string
	GenerateImage(ctx context.Context, promptText string, reference []byte, refMIMEType string) ([]byte, string, error)
	EditImage(ctx context.Context, image []byte, mimeType, editPrompt, appliedStyle string) ([]byte, string, error)
}

// Service drives sessions through the phase machine.
type Service struct {
	registry       *Registry
	gen            Generator
	totalQuestions int
	logger         *slog.Logger
	now            func() time.Time
}

// NewService builds the workflow service. totalQuestions is how many
// guided questions each session asks.
func NewService(registry *Registry, gen Generator, totalQuestions int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:       registry,
		gen:            gen,
		totalQuestions: totalQuestions,
		logger:         logger,
		now:            time.Now,
	}
}

// Status is the phase snapshot returned by most operations.
type Status struct {
	Phase             phase.Phase `json:"phase"`
	Progress          float64     `json:"progress"`
	QuestionIndex     int         `json:"currentQuestionIndex"`
	TotalQuestions    int         `json:"totalQuestions"`
	EditCount         int         `json:"editCount"`
	VisionAnalysis    string      `json:"visionAnalysis,omitempty"`
	SynthesizedPrompt string      `json:"synthesizedPrompt,omitempty"`
	HasGenerated      bool        `json:"hasGenerated"`
}

// QuestionView is one personalized question presented to the child.
type QuestionView struct {
	Index          int                  `json:"index"`
	Variable       prompt.Variable      `json:"variable"`
	Question       string               `json:"question"`
	ExampleAnswers []string             `json:"exampleAnswers"`
	ColorCategory  prompt.ColorCategory `json:"colorCategory"`
}

// Image is generated or edited artwork handed back to the API layer.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Handshake validates the uploaded drawing, runs vision analysis and
// opens the prompt builder. The MIME type comes from content sniffing,
// never from the client.
func (s *Service) Handshake(ctx context.Context, owner uuid.UUID, image []byte, intent string) (*Status, error) {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return nil, ErrEmptyIntent
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	if len(image) > MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	mimeType := http.DetectContentType(image)
	if !allowedImageTypes[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}

	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Current() != phase.Handshake {
		return nil, fmt.Errorf("%w: handshake from %q", ErrWrongPhase, sess.machine.Current())
	}

	analysis, err := s.gen.AnalyzeDrawing(ctx, image, mimeType, intent)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	if err := sess.machine.CompleteHandshake(image, mimeType, intent, analysis); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	sess.state = prompt.New(intent, analysis, s.totalQuestions, s.now())

	s.logger.Info("handshake complete", "owner", owner, "mime", mimeType)
	return s.status(sess), nil
}

// Questions returns the session's personalized question list. Model
// personalization failures fall back to the plain templates inside the
// generator, so this never fails once the prompt builder is open.
func (s *Service) Questions(ctx context.Context, owner uuid.UUID) ([]QuestionView, error) {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Evaluate() != phase.PromptBuilder || sess.state == nil {
		return nil, fmt.Errorf("%w: questions from %q", ErrWrongPhase, sess.machine.Current())
	}

	data := sess.machine.Data()
	selected := prompt.SelectQuestions(data.IntentStatement, data.VisionAnalysis, s.totalQuestions)
	views := make([]QuestionView, len(selected))
	for i, q := range selected {
		views[i] = QuestionView{
			Index:          i,
			Variable:       q.Variable,
			Question:       s.gen.GenerateQuestion(ctx, data.IntentStatement, data.VisionAnalysis, q),
			ExampleAnswers: q.ExampleAnswers,
			ColorCategory:  q.ColorCategory,
		}
	}
	return views, nil
}

// Answer appends one answer to the prompt state. Completing the final
// answer synthesizes the prompt, records the applied style and advances
// to generation.
func (s *Service) Answer(ctx context.Context, owner uuid.UUID, variable prompt.Variable, question, answer string, category prompt.ColorCategory) (*Status, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrEmptyAnswer
	}
	if utf8.RuneCountInString(answer) > prompt.MaxAnswerLength {
		return nil, fmt.Errorf("%w: %d > %d characters", ErrAnswerTooLong, utf8.RuneCountInString(answer), prompt.MaxAnswerLength)
	}
	if category == "" {
		category = prompt.ColorCategoryFor(variable)
	}

	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Evaluate() != phase.PromptBuilder || sess.state == nil {
		return nil, fmt.Errorf("%w: answer from %q", ErrWrongPhase, sess.machine.Current())
	}

	sess.state.AddAnswer(variable, question, answer, category, s.now())

	if sess.state.Complete() {
		sess.state.SetSynthesizedPrompt(prompt.Synthesize(sess.state))
		sess.state.AppliedStyle = styleAnswer(sess.state)
		if err := sess.machine.CompletePromptBuilder(sess.state); err != nil {
			return nil, fmt.Errorf("answer: %w", err)
		}
		s.logger.Info("prompt complete", "owner", owner,
			"answers", len(sess.state.Variables))
	}
	return s.status(sess), nil
}

// Generate produces artwork from the style-aggressive prompt, using the
// original drawing as reference. The session stays in the generation
// phase so the child can regenerate; edits or finalize move it on.
func (s *Service) Generate(ctx context.Context, owner uuid.UUID) (*Image, error) {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Evaluate() != phase.Generation {
		return nil, fmt.Errorf("%w: generate from %q", ErrWrongPhase, sess.machine.Current())
	}

	data := sess.machine.Data()
	promptText := prompt.SynthesizeCreative(data.PromptState)
	img, mimeType, err := s.gen.GenerateImage(ctx, promptText, data.OriginalImage, data.ImageMIMEType)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	sess.generatedImage = img
	sess.generatedMIME = mimeType
	s.logger.Info("generated artwork", "owner", owner, "bytes", len(img))
	return &Image{Data: img, MIMEType: mimeType}, nil
}

// EditResult is an applied edit plus the running history.
type EditResult struct {
	Image   Image  `json:"image"`
	History []Edit `json:"history"`
}

// Edit applies a conversational edit to the latest artwork. The first
// edit moves a generated session into the refinement phase. History is
// append-only; every edit builds on the previous output.
func (s *Service) Edit(ctx context.Context, owner uuid.UUID, instruction string) (*EditResult, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: empty edit instruction", ErrEmptyAnswer)
	}

	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Evaluate() == phase.Generation {
		if len(sess.generatedImage) == 0 {
			return nil, ErrNoGeneratedImage
		}
		if err := sess.machine.CompleteGeneration(sess.generatedImage, false); err != nil {
			return nil, fmt.Errorf("edit: %w", err)
		}
	}
	if sess.machine.Current() != phase.Refinement {
		return nil, fmt.Errorf("%w: edit from %q", ErrWrongPhase, sess.machine.Current())
	}

	base, baseMIME := sess.latestImage()
	appliedStyle := ""
	if state := sess.machine.Data().PromptState; state != nil {
		appliedStyle = state.AppliedStyle
	}

	img, mimeType, err := s.gen.EditImage(ctx, base, baseMIME, instruction, appliedStyle)
	if err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}

	sess.edits = append(sess.edits, Edit{
		Instruction: instruction,
		Timestamp:   s.now().UnixMilli(),
		image:       img,
		mimeType:    mimeType,
	})
	s.logger.Info("applied edit", "owner", owner, "edits", len(sess.edits))

	return &EditResult{
		Image:   Image{Data: img, MIMEType: mimeType},
		History: append([]Edit(nil), sess.edits...),
	}, nil
}

// Finalize closes the creative loop and computes trophy stats. From the
// generation phase skipRefinement jumps straight to the trophy; from the
// refinement phase the latest edit becomes the final artwork.
func (s *Service) Finalize(ctx context.Context, owner uuid.UUID, skipRefinement bool) (*trophy.Stats, error) {
	_ = ctx

	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.machine.Evaluate() {
	case phase.Generation:
		if len(sess.generatedImage) == 0 {
			return nil, ErrNoGeneratedImage
		}
		if err := sess.machine.CompleteGeneration(sess.generatedImage, skipRefinement); err != nil {
			return nil, fmt.Errorf("finalize: %w", err)
		}
		if !skipRefinement {
			// No edits were made; the generated image is final.
			if err := sess.machine.CompleteRefinement(sess.generatedImage, 0); err != nil {
				return nil, fmt.Errorf("finalize: %w", err)
			}
		}
	case phase.Refinement:
		final, _ := sess.latestImage()
		if err := sess.machine.CompleteRefinement(final, len(sess.edits)); err != nil {
			return nil, fmt.Errorf("finalize: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: finalize from %q", ErrWrongPhase, sess.machine.Current())
	}

	data := sess.machine.Data()
	stats := trophy.Extract(data.PromptState, data.EditCount)
	s.logger.Info("session finalized", "owner", owner,
		"edits", data.EditCount, "score", stats.CreativityScore)
	return &stats, nil
}

// TrophyData exposes the finished session for gallery saving. Only valid
// in the trophy phase.
func (s *Service) TrophyData(owner uuid.UUID) (*phase.Data, *trophy.Stats, error) {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Evaluate() != phase.Trophy {
		return nil, nil, fmt.Errorf("%w: save from %q", ErrWrongPhase, sess.machine.Current())
	}
	data := sess.machine.Data()
	stats := trophy.Extract(data.PromptState, data.EditCount)
	return data, &stats, nil
}

// Back steps the session to the previous phase.
func (s *Service) Back(owner uuid.UUID) *Status {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.machine.Back()
	return s.status(sess)
}

// Reset is "create another": the session restarts from an empty
// handshake regardless of where it was.
func (s *Service) Reset(owner uuid.UUID) *Status {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Current() == phase.Trophy {
		_ = sess.machine.CompleteTrophy()
	}
	sess.reset()
	s.logger.Info("session reset", "owner", owner)
	return s.status(sess)
}

// CurrentStatus evaluates phase guards and reports the session snapshot.
func (s *Service) CurrentStatus(owner uuid.UUID) *Status {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.machine.Evaluate()
	return s.status(sess)
}

// FinalImages returns the original and final artwork of a trophy-phase
// session, for preview endpoints.
func (s *Service) FinalImages(owner uuid.UUID) (original, refined *Image, err error) {
	sess := s.registry.Get(owner)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.machine.Evaluate() != phase.Trophy {
		return nil, nil, fmt.Errorf("%w: final images from %q", ErrWrongPhase, sess.machine.Current())
	}
	data := sess.machine.Data()
	refinedMIME := sess.generatedMIME
	if n := len(sess.edits); n > 0 {
		refinedMIME = sess.edits[n-1].mimeType
	}
	return &Image{Data: data.OriginalImage, MIMEType: data.ImageMIMEType},
		&Image{Data: data.RefinedImage, MIMEType: refinedMIME}, nil
}

func (s *Service) status(sess *Session) *Status {
	st := &Status{
		Phase:          sess.machine.Current(),
		TotalQuestions: s.totalQuestions,
		EditCount:      len(sess.edits),
		HasGenerated:   len(sess.generatedImage) > 0,
		VisionAnalysis: sess.machine.Data().VisionAnalysis,
	}
	if sess.state != nil {
		st.Progress = sess.state.Progress()
		st.QuestionIndex = sess.state.CurrentQuestionIndex
		st.TotalQuestions = sess.state.TotalQuestions
		if sess.state.SynthesizedPrompt != nil {
			st.SynthesizedPrompt = *sess.state.SynthesizedPrompt
		}
	}
	return st
}

// styleAnswer finds the style variable's answer across the full entry
// list, empty when the style question was never asked.
func styleAnswer(state *prompt.State) string {
	for _, v := range state.Variables {
		if v.Variable == prompt.VariableStyle {
			return v.Answer
		}
	}
	return ""
}
