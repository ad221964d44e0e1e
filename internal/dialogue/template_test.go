package dialogue

import (
	"context"
	"strings"
	"testing"

	"github.com/nidhogg/ensemble/internal/character"
)

func moodState(mood character.Emotion, intensity float64) character.EmotionalState {
	state := character.NewEmotionalState()
	state[mood] = intensity
	return state
}

func TestRenderNeverEmpty(t *testing.T) {
	tmpl := NewTemplates()
	kinds := []string{"greeting", "chat", "discussion", "debate", "collaboration", "emotional_support", "conflict"}
	states := map[string]character.EmotionalState{
		"positive": moodState(character.EmotionJoy, 0.8),
		"neutral":  character.NewEmotionalState(),
		"negative": moodState(character.EmotionAnger, 0.8),
	}

	for _, kind := range kinds {
		for mood, state := range states {
			pc := &PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: kind, TargetEmotions: state}
			line := tmpl.Render(pc)
			if line == "" {
				t.Errorf("%s/%s: empty line", kind, mood)
			}
			if !strings.Contains(line, "Mira") {
				t.Errorf("%s/%s: line %q does not name the speaker", kind, mood, line)
			}
		}
	}
}

func TestRenderMoodSelection(t *testing.T) {
	tmpl := NewTemplates()

	angry := tmpl.Render(&PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: "greeting", TargetEmotions: moodState(character.EmotionAnger, 0.8)})
	happy := tmpl.Render(&PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: "greeting", TargetEmotions: moodState(character.EmotionJoy, 0.8)})
	if angry == happy {
		t.Errorf("mood should change the line: %q", angry)
	}

	// Faint emotion reads as neutral.
	faint := tmpl.Render(&PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: "greeting", TargetEmotions: moodState(character.EmotionJoy, 0.05)})
	neutral := tmpl.Render(&PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: "greeting", TargetEmotions: character.NewEmotionalState()})
	if faint != neutral {
		t.Errorf("faint mood should render neutral: %q vs %q", faint, neutral)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	tmpl := NewTemplates()
	line := tmpl.Render(&PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: "interrogation", TargetEmotions: character.NewEmotionalState()})
	if line == "" {
		t.Error("unknown kind must still produce a line")
	}
}

func TestGenerateMatchesRender(t *testing.T) {
	tmpl := NewTemplates()
	pc := &PromptContext{TargetName: "Mira", InitiatorName: "Joss", Kind: "chat", TargetEmotions: character.NewEmotionalState()}
	generated, err := tmpl.Generate(context.Background(), pc)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generated != tmpl.Render(pc) {
		t.Errorf("Generate and Render disagree: %q vs %q", generated, tmpl.Render(pc))
	}
}
