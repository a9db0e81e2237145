package gemini

import (
	"fmt"
	"strings"
)

// Prompt builders are kept as pure functions so the exact text handed to
// the model can be asserted in tests without a live client.

func visionPrompt(intent string) string {
	return fmt.Sprintf(`You are Sparky, a friendly AI coach for children aged 7-10.
A child has uploaded a drawing and says: %q

Analyze the image and respond in a warm, encouraging way that:
1. Confirms what you see in the drawing
2. Asks about any unclear or ambiguous parts
3. Shows excitement about their creativity
4. Uses simple, age-appropriate language

Keep your response under 100 words and be specific about what you observe.`, Sanitize(intent))
}

// fallbackQuestion fills a question template with the neutral default
// subject. Used when personalization fails; the child always gets a
// well-formed question about their "creation".
func fallbackQuestion(template string) string {
	return strings.ReplaceAll(template, "{subject}", "creation")
}

func questionPrompt(intent, analysis, variable, template string) string {
	return fmt.Sprintf(`You are Sparky, a friendly AI coach for children aged 7-10.

Context:
- The child drew: %q
- I analyzed their drawing and said: %q

Now I need to ask them about: %s

Base question template: %q

Generate a personalized, encouraging question that:
1. References their specific drawing
2. Uses simple, age-appropriate language
3. Makes them excited to answer
4. Keeps the core meaning of the template
5. Is under 100 characters

Return ONLY the question text, nothing else.`, Sanitize(intent), Sanitize(analysis), variable, template)
}

// editInstruction wraps an edit request so the model keeps the art style
// chosen during generation. Without a style the sanitized request is sent
// as-is.
func editInstruction(editPrompt, appliedStyle string) string {
	sanitized := Sanitize(editPrompt)
	if appliedStyle == "" {
		return sanitized
	}
	return fmt.Sprintf(`Current image style: Professional %s artwork

Edit request: %s

Apply this edit while maintaining:
- Current art style (%s)
- Lighting and atmosphere
- Quality and polish level
- Consistency with existing elements

Make the edit look like it was always part of this %s artwork.`,
		appliedStyle, sanitized, appliedStyle, appliedStyle)
}
