package prompt

import "strings"

// Question is a guided-question template for one prompt variable.
type Question struct {
	Variable       Variable      `json:"variable"`
	Template       string        `json:"questionTemplate"`
	ExampleAnswers []string      `json:"exampleAnswers"`
	ColorCategory  ColorCategory `json:"colorCategory"`
}

// Templates is the fixed, ordered question catalog. The workflow asks the
// first N of these per session.
var Templates = []Question{
	{
		Variable:       VariableTexture,
		Template:       "How does your {subject} feel if you touch it? Is it smooth, rough, fluffy, or something else?",
		ExampleAnswers: []string{"Fluffy like a cloud", "Smooth and shiny", "Rough like sandpaper", "Soft like a pillow"},
		ColorCategory:  CategoryVariable,
	},
	{
		Variable:       VariableLighting,
		Template:       "What kind of light is shining on your {subject}? Is it sunny, dark, glowing, or magical?",
		ExampleAnswers: []string{"Bright sunny day", "Dark with moonlight", "Neon lights", "Magical sparkles"},
		ColorCategory:  CategoryContext,
	},
	{
		Variable:       VariableMood,
		Template:       "What feeling does your {subject} have? Happy, mysterious, exciting, or something else?",
		ExampleAnswers: []string{"Super happy and playful", "Mysterious and curious", "Exciting and adventurous", "Calm and peaceful"},
		ColorCategory:  CategoryContext,
	},
	{
		Variable:       VariableBackground,
		Template:       "Where is your {subject}? In space, a forest, a city, or somewhere else?",
		ExampleAnswers: []string{"Floating in space", "Deep in a forest", "Busy city street", "On a mountain top"},
		ColorCategory:  CategoryContext,
	},
	{
		Variable:       VariableStyle,
		Template:       "What art style should we use? Cartoon, realistic, pixel art, or something else?",
		ExampleAnswers: []string{"Cartoon like a comic book", "Realistic like a photo", "Pixel art like a video game", "Watercolor painting"},
		ColorCategory:  CategoryVariable,
	},
}

// SelectQuestions returns the first count templates. The intent and
// vision analysis are accepted for a future adaptive selection policy
// but do not influence the current fixed slice.
func SelectQuestions(_ string, _ string, count int) []Question {
	if count > len(Templates) {
		count = len(Templates)
	}
	if count < 0 {
		count = 0
	}
	return Templates[:count]
}

// personalizeStopWords are skipped when hunting for the subject word.
var personalizeStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true,
}

// PersonalizeQuestion replaces the {subject} placeholder in a template
// with the first content word of the intent statement (longer than two
// characters, not a stop word), defaulting to "creation".
func PersonalizeQuestion(template, intentStatement string) string {
	subject := "creation"
	for _, w := range strings.Fields(strings.ToLower(intentStatement)) {
		if len(w) > 2 && !personalizeStopWords[w] {
			subject = w
			break
		}
	}
	return strings.ReplaceAll(template, "{subject}", subject)
}

// ColorCategoryFor looks up the color category a variable's template
// declares, defaulting to the "variable" bucket for tags without a
// template.
func ColorCategoryFor(v Variable) ColorCategory {
	for _, q := range Templates {
		if q.Variable == v {
			return q.ColorCategory
		}
	}
	return CategoryVariable
}
