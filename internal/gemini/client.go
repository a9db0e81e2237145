// Package gemini wraps the Google GenAI SDK behind the four operations
// the creative workflow needs: drawing analysis, question generation,
// image generation and image editing.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/kidcreatives/kidcreatives/internal/config"
	"github.com/kidcreatives/kidcreatives/internal/prompt"
)

// ErrNoImage is returned when a generation response carries no inline
// image payload.
var ErrNoImage = errors.New("gemini: no image data in response")

// Client talks to the Gemini API. Text operations use the text model,
// image operations the image model; both come from configuration.
type Client struct {
	genai      *genai.Client
	textModel  string
	imageModel string
	logger     *slog.Logger
}

// New builds a client from configuration. The API key is validated
// upstream by config.Validate.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		genai:      gc,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		logger:     logger,
	}, nil
}

// AnalyzeDrawing asks the vision model for Sparky's warm, child-facing
// description of the uploaded drawing.
func (c *Client) AnalyzeDrawing(ctx context.Context, image []byte, mimeType, intent string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(visionPrompt(intent)),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.textModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("vision analysis failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("vision analysis failed: empty response")
	}
	return text, nil
}

// GenerateQuestion personalizes one guided-question template against the
// child's intent and the vision analysis. Model failures degrade to the
// plain template with the default subject so the workflow never stalls
// on a flaky text call.
func (c *Client) GenerateQuestion(ctx context.Context, intent, analysis string, q prompt.Question) string {
	contents := []*genai.Content{
		genai.NewContentFromText(questionPrompt(intent, analysis, string(q.Variable), q.Template), genai.RoleUser),
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.textModel, contents, nil)
	if err != nil {
		c.logger.Warn("question generation failed, using template",
			"variable", q.Variable, "error", err)
		return fallbackQuestion(q.Template)
	}

	question := strings.TrimSpace(resp.Text())
	if question == "" {
		return fallbackQuestion(q.Template)
	}
	return question
}

// GenerateImage renders artwork from a synthesized prompt. When a
// reference drawing is supplied it is sent alongside the text so the
// model transforms rather than invents. Returns raw image bytes and
// their MIME type.
func (c *Client) GenerateImage(ctx context.Context, promptText string, reference []byte, refMIMEType string) ([]byte, string, error) {
	parts := []*genai.Part{genai.NewPartFromText(Sanitize(promptText))}
	if len(reference) > 0 {
		parts = append(parts, genai.NewPartFromBytes(reference, refMIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.genai.Models.GenerateContent(ctx, c.imageModel, contents, imageConfig())
	if err != nil {
		return nil, "", fmt.Errorf("image generation failed: %w", err)
	}

	data, mimeType, err := extractImage(resp)
	if err != nil {
		return nil, "", fmt.Errorf("image generation failed: %w", err)
	}
	return data, mimeType, nil
}

// EditImage applies a natural-language edit to an existing image,
// keeping the applied style when one is known.
func (c *Client) EditImage(ctx context.Context, image []byte, mimeType, editPrompt, appliedStyle string) ([]byte, string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(editInstruction(editPrompt, appliedStyle)),
		}, genai.RoleUser),
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.imageModel, contents, imageConfig())
	if err != nil {
		return nil, "", fmt.Errorf("image editing failed: %w", err)
	}

	data, outMIME, err := extractImage(resp)
	if err != nil {
		return nil, "", fmt.Errorf("image editing failed: %w", err)
	}
	return data, outMIME, nil
}

func imageConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
}

// extractImage pulls the first inline image payload out of a response,
// defaulting the MIME type to PNG when the model omits it.
func extractImage(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, "", ErrNoImage
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, "", ErrNoImage
	}
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return part.InlineData.Data, mimeType, nil
		}
	}
	return nil, "", ErrNoImage
}
