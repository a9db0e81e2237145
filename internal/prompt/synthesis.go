package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// FallbackPrompt is returned by Synthesize when the intent statement is
// empty: there is nothing to narrate, but the caller still needs a
// usable generation prompt.
const FallbackPrompt = "A creative artwork"

var (
	extraSpaces  = regexp.MustCompile(`\s+`)
	doubleCommas = regexp.MustCompile(`,\s*,`)
)

// Synthesize turns a State into a short narrative prompt for image
// generation.
//
// Format: [subject + action] + [variables] + [context] + [style].
// Example: "A robot doing a backflip, with smooth metallic texture,
// in bright sunny lighting, feeling playful, in a vibrant cartoon style"
//
// The style variable is appended twice when its entry is bucketed under
// the "variable" color category: once through the bucket join and once
// through the unconditional trailing style clause. That double
// appearance is long-standing observed behavior that downstream prompt
// displays rely on; do not fold the two appends together.
func Synthesize(s *State) string {
	if strings.TrimSpace(s.IntentStatement) == "" {
		return FallbackPrompt
	}
	if len(s.Variables) == 0 {
		return s.IntentStatement
	}

	var b strings.Builder
	b.WriteString(s.IntentStatement)

	byCategory := groupByCategory(s.Variables)

	// Texture/material style descriptors read naturally as a single
	// "with ..." clause.
	if vars := byCategory[CategoryVariable]; len(vars) > 0 {
		answers := make([]string, len(vars))
		for i, v := range vars {
			answers[i] = v.Answer
		}
		fmt.Fprintf(&b, ", with %s", strings.Join(answers, ", "))
	}

	// Context entries keep their insertion order; the phrasing depends on
	// the semantic tag, and unrecognized tags are skipped.
	for _, v := range byCategory[CategoryContext] {
		switch v.Variable {
		case VariableLighting:
			fmt.Fprintf(&b, ", in %s lighting", v.Answer)
		case VariableBackground:
			fmt.Fprintf(&b, ", %s", v.Answer)
		case VariableEra:
			fmt.Fprintf(&b, ", set in %s", v.Answer)
		case VariableMood:
			fmt.Fprintf(&b, ", feeling %s", v.Answer)
		}
	}

	// Style goes last, searched across the full list regardless of how the
	// entry was bucketed.
	for _, v := range s.Variables {
		if v.Variable == VariableStyle {
			fmt.Fprintf(&b, ", in a %s style", v.Answer)
			break
		}
	}

	out := b.String()
	out = extraSpaces.ReplaceAllString(out, " ")
	out = doubleCommas.ReplaceAllString(out, ",")
	return strings.TrimSpace(out)
}

// groupByCategory buckets entries by their color category, preserving
// insertion order within each bucket.
func groupByCategory(entries []Entry) map[ColorCategory][]Entry {
	grouped := make(map[ColorCategory][]Entry)
	for _, e := range entries {
		grouped[e.ColorCategory] = append(grouped[e.ColorCategory], e)
	}
	return grouped
}

// drawableNouns is the closed vocabulary scanned against the vision
// analysis to anchor which drawn elements the transformation must keep.
var drawableNouns = []string{
	"robot", "cat", "dog", "monster", "dragon", "dinosaur", "person",
	"house", "castle", "tree", "forest", "sun", "moon", "star", "rainbow",
	"flower", "car", "rocket", "boat", "bird", "fish", "animal", "unicorn",
	"butterfly", "heart", "cloud", "mountain",
}

// elementsFallback stands in when no vocabulary noun appears in the
// vision analysis.
const elementsFallback = "the drawing elements"

// DetectElements scans the vision-analysis text for known drawable nouns
// and returns the matches in vocabulary order. An empty result means the
// caller should fall back to a generic placeholder.
func DetectElements(visionAnalysis string) []string {
	lower := strings.ToLower(visionAnalysis)
	var found []string
	for _, noun := range drawableNouns {
		if strings.Contains(lower, noun) {
			found = append(found, noun)
		}
	}
	return found
}

// SynthesizeCreative builds the longer, style-aggressive instruction
// block used for the primary image-generation call. Unlike Synthesize,
// the output is structured for a model that will repaint the drawing:
// it pins down what to keep before telling the model to restyle
// everything else.
func SynthesizeCreative(s *State) string {
	elements := DetectElements(s.VisionAnalysis)
	elementsLine := elementsFallback
	if len(elements) > 0 {
		elementsLine = strings.Join(elements, ", ")
	}

	intent := strings.TrimSpace(s.IntentStatement)
	if intent == "" {
		intent = FallbackPrompt
	}

	style := "professional artwork"
	for _, v := range s.Variables {
		if v.Variable == VariableStyle && strings.TrimSpace(v.Answer) != "" {
			style = v.Answer
			break
		}
	}

	var b strings.Builder
	b.WriteString("Transform this child's drawing into polished artwork.\n\n")

	b.WriteString("PRESERVE:\n")
	fmt.Fprintf(&b, "- Drawing elements: %s\n", elementsLine)
	fmt.Fprintf(&b, "- Original intent: %q\n", intent)
	b.WriteString("- Keep the spatial composition and emotional tone of the original drawing\n\n")

	b.WriteString("TRANSFORM AGGRESSIVELY:\n")
	fmt.Fprintf(&b, "- Re-render the entire image in a %s style\n", style)
	for _, v := range s.Variables {
		switch v.Variable {
		case VariableTexture:
			fmt.Fprintf(&b, "- Texture: %s\n", v.Answer)
		case VariableLighting:
			fmt.Fprintf(&b, "- Lighting: %s\n", v.Answer)
		case VariableMood:
			fmt.Fprintf(&b, "- Mood: %s\n", v.Answer)
		case VariableBackground:
			fmt.Fprintf(&b, "- Background: %s\n", v.Answer)
		}
	}
	b.WriteString("\n")

	b.WriteString("CREATIVE ENHANCEMENTS:\n")
	fmt.Fprintf(&b, "- Elevate every element to professional %s quality\n", style)
	fmt.Fprintf(&b, "- Add depth, rich color, and a finished look consistent with the %s style", style)

	return b.String()
}

// ExtractSubject pulls the main subject words from an intent statement
// for fallback scenarios: up to three content words longer than two
// characters, skipping common stop words. Defaults to "creation".
func ExtractSubject(intentStatement string) string {
	stopWords := map[string]bool{
		"a": true, "an": true, "the": true, "is": true,
		"doing": true, "in": true, "on": true, "at": true,
	}

	var meaningful []string
	for _, word := range strings.Fields(strings.ToLower(intentStatement)) {
		if len(word) > 2 && !stopWords[word] {
			meaningful = append(meaningful, word)
			if len(meaningful) == 3 {
				break
			}
		}
	}

	if len(meaningful) == 0 {
		return "creation"
	}
	return strings.Join(meaningful, " ")
}
