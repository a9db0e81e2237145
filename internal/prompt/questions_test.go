package prompt

import (
	"strings"
	"testing"
)

func TestSelectQuestions_FixedSlice(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		wantLen   int
		wantFirst Variable
	}{
		{"default four", 4, 4, VariableTexture},
		{"all five", 5, 5, VariableTexture},
		{"over catalog size clamps", 10, len(Templates), VariableTexture},
		{"one", 1, 1, VariableTexture},
		{"negative clamps to zero", -1, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectQuestions("a robot", "vision text", tt.count)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Variable != tt.wantFirst {
				t.Errorf("first variable = %q, want %q", got[0].Variable, tt.wantFirst)
			}
		})
	}
}

func TestSelectQuestions_IgnoresIntentAndAnalysis(t *testing.T) {
	// Selection is a fixed slice: different inputs yield the same set.
	a := SelectQuestions("a robot", "robots everywhere", 4)
	b := SelectQuestions("a flower garden", "flowers and bees", 4)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Variable != b[i].Variable {
			t.Errorf("question %d differs: %q vs %q", i, a[i].Variable, b[i].Variable)
		}
	}
}

func TestTemplates_Order(t *testing.T) {
	want := []Variable{VariableTexture, VariableLighting, VariableMood, VariableBackground, VariableStyle}
	if len(Templates) != len(want) {
		t.Fatalf("len(Templates) = %d, want %d", len(Templates), len(want))
	}
	for i, v := range want {
		if Templates[i].Variable != v {
			t.Errorf("Templates[%d].Variable = %q, want %q", i, Templates[i].Variable, v)
		}
	}
}

func TestPersonalizeQuestion(t *testing.T) {
	tests := []struct {
		name     string
		template string
		intent   string
		want     string
	}{
		{
			name:     "subject substituted",
			template: "How does your {subject} feel?",
			intent:   "a robot doing a backflip",
			want:     "How does your robot feel?",
		},
		{
			name:     "stop words skipped",
			template: "Where is your {subject}?",
			intent:   "the of with dragon",
			want:     "Where is your dragon?",
		},
		{
			name:     "default when no content word",
			template: "Where is your {subject}?",
			intent:   "a an in",
			want:     "Where is your creation?",
		},
		{
			name:     "multiple placeholders all replaced",
			template: "{subject} and {subject} again",
			intent:   "happy monster",
			want:     "happy and happy again",
		},
		{
			name:     "short words skipped",
			template: "Your {subject}!",
			intent:   "my big cat",
			want:     "Your big!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PersonalizeQuestion(tt.template, tt.intent); got != tt.want {
				t.Errorf("PersonalizeQuestion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColorCategoryFor(t *testing.T) {
	tests := []struct {
		v    Variable
		want ColorCategory
	}{
		{VariableTexture, CategoryVariable},
		{VariableLighting, CategoryContext},
		{VariableMood, CategoryContext},
		{VariableBackground, CategoryContext},
		{VariableStyle, CategoryVariable},
		{VariableEra, CategoryVariable}, // no template, falls back
	}

	for _, tt := range tests {
		t.Run(string(tt.v), func(t *testing.T) {
			if got := ColorCategoryFor(tt.v); got != tt.want {
				t.Errorf("ColorCategoryFor(%q) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestTemplates_AllHavePlaceholderAndExamples(t *testing.T) {
	for _, q := range Templates {
		if q.Variable == VariableStyle {
			// The style question addresses the artwork, not the subject.
			continue
		}
		if !strings.Contains(q.Template, "{subject}") {
			t.Errorf("template for %q lacks {subject} placeholder: %q", q.Variable, q.Template)
		}
	}
	for _, q := range Templates {
		if len(q.ExampleAnswers) == 0 {
			t.Errorf("template for %q has no example answers", q.Variable)
		}
	}
}
