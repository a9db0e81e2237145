package trophy

import (
	"testing"
	"time"

	"github.com/kidcreatives/kidcreatives/internal/prompt"
)

func entries(answers ...string) []prompt.Entry {
	out := make([]prompt.Entry, len(answers))
	for i, a := range answers {
		out[i] = prompt.Entry{
			Variable:      prompt.VariableTexture,
			Answer:        a,
			ColorCategory: prompt.CategoryVariable,
		}
	}
	return out
}

func TestCreativityScore_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
	}{
		{"no answers", nil},
		{"single short answer", []string{"ok"}},
		{"typical answers", []string{"cartoon", "bright sunny", "super happy and playful"}},
		{"very long rich answers", []string{
			"a magnificent shimmering robot with golden gears and glowing circuits everywhere",
			"mysterious purple twilight with dancing shadows and sparkling fireflies around",
			"an enormous enchanted forest filled with singing birds and rainbow waterfalls",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreativityScore(entries(tt.answers...))
			if got < MinScore || got > MaxScore {
				t.Errorf("CreativityScore() = %d, want within [%d, %d]", got, MinScore, MaxScore)
			}
		})
	}
}

func TestCreativityScore_EmptyIsFloor(t *testing.T) {
	if got := CreativityScore(nil); got != MinScore {
		t.Errorf("CreativityScore(nil) = %d, want %d", got, MinScore)
	}
}

func TestCreativityScore_KnownValues(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    int
	}{
		// raw = 20 + floor(avg/2) + 2*unique + 5*descriptive, scaled 80 + raw/5
		{
			name:    "two short answers",
			answers: []string{"cartoon", "bright sunny"},
			// avg 9.5 -> 4, unique 3 -> 6, descriptive 0; raw 30 -> 86
			want: 86,
		},
		{
			name:    "one descriptive answer",
			answers: []string{"super happy and playful"},
			// avg 23 -> 11, unique 4 -> 8, descriptive 1 -> 5; raw 44 -> 89
			want: 89,
		},
		{
			name:    "maximal answers hit ceiling",
			answers: []string{
				"a wonderfully detailed magical glowing castle with seventeen sparkling towers",
				"an incredibly vivid enchanted rainbow bridge crossing a shimmering river",
				"a gloriously bright celebration with confetti balloons fireworks and music",
				"a mysteriously deep midnight ocean full of luminous friendly creatures",
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CreativityScore(entries(tt.answers...)); got != tt.want {
				t.Errorf("CreativityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	s := prompt.New("a robot doing a backflip", "I see a robot!", 2, start)
	s.AddAnswer(prompt.VariableStyle, "What style?", "cartoon", prompt.CategoryVariable, start.Add(30*time.Second))
	s.AddAnswer(prompt.VariableLighting, "What light?", "bright sunny", prompt.CategoryContext, start.Add(95*time.Second))
	s.SetSynthesizedPrompt(prompt.Synthesize(s))

	got := Extract(s, 3)

	if got.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", got.TotalQuestions)
	}
	if got.TotalEdits != 3 {
		t.Errorf("TotalEdits = %d, want 3", got.TotalEdits)
	}
	if got.TimeSpent != 95 {
		t.Errorf("TimeSpent = %d, want 95", got.TimeSpent)
	}
	wantVars := []string{"style", "lighting"}
	if len(got.VariablesUsed) != len(wantVars) {
		t.Fatalf("VariablesUsed = %v, want %v", got.VariablesUsed, wantVars)
	}
	for i, v := range wantVars {
		if got.VariablesUsed[i] != v {
			t.Errorf("VariablesUsed[%d] = %q, want %q", i, got.VariablesUsed[i], v)
		}
	}
	if got.PromptLength == 0 {
		t.Error("PromptLength = 0, want length of synthesized prompt")
	}
	if got.CreativityScore < MinScore || got.CreativityScore > MaxScore {
		t.Errorf("CreativityScore = %d, want within [%d, %d]", got.CreativityScore, MinScore, MaxScore)
	}
}

func TestExtract_TimeSpentClamps(t *testing.T) {
	start := time.UnixMilli(1700000000000)

	t.Run("incomplete session", func(t *testing.T) {
		s := prompt.New("a cat", "", 4, start)
		if got := Extract(s, 0); got.TimeSpent != 0 {
			t.Errorf("TimeSpent = %d, want 0 when CompletedAt unset", got.TimeSpent)
		}
	})

	t.Run("inverted timestamps", func(t *testing.T) {
		s := prompt.New("a cat", "", 1, start)
		earlier := start.Add(-time.Minute).UnixMilli()
		s.CompletedAt = &earlier
		if got := Extract(s, 0); got.TimeSpent != 0 {
			t.Errorf("TimeSpent = %d, want 0 when completion precedes start", got.TimeSpent)
		}
	})
}

func TestFormatTimeSpent(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{42, "42s"},
		{59, "59s"},
		{60, "1m 0s"},
		{197, "3m 17s"},
		{3600, "60m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTimeSpent(tt.seconds); got != tt.want {
				t.Errorf("FormatTimeSpent(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}
