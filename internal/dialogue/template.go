package dialogue

import (
	"context"
	"fmt"

	"github.com/nidhogg/ensemble/internal/character"
)

// templates are the deterministic fallbacks keyed by interaction type
// and mood bucket. Intentionally bland; their job is to keep the
// conversation alive when the generator is down, not to be clever.
var templates = map[string]map[string]string{
	"greeting": {
		"positive": "%s smiles. \"Good to see you, %s.\"",
		"neutral":  "%s nods. \"Hello, %s.\"",
		"negative": "%s glances up briefly. \"Oh. It's you, %s.\"",
	},
	"chat": {
		"positive": "%s brightens. \"I was hoping we'd talk, %s.\"",
		"neutral":  "%s shrugs lightly. \"Sure, %s, what's on your mind?\"",
		"negative": "%s sighs. \"If we must, %s.\"",
	},
	"discussion": {
		"positive": "%s leans in. \"That's a fair point, %s. Go on.\"",
		"neutral":  "%s considers it. \"Interesting. Tell me more, %s.\"",
		"negative": "%s frowns. \"I'm not convinced, %s.\"",
	},
	"debate": {
		"positive": "%s grins. \"A worthy argument, %s, but hear mine.\"",
		"neutral":  "%s folds their arms. \"I see it differently, %s.\"",
		"negative": "%s snaps. \"You're wrong, %s, and you know it.\"",
	},
	"collaboration": {
		"positive": "%s rolls up their sleeves. \"Together, then, %s.\"",
		"neutral":  "%s nods slowly. \"Alright, %s, let's try it your way.\"",
		"negative": "%s hesitates. \"Fine, %s. But I'm watching you.\"",
	},
	"emotional_support": {
		"positive": "%s rests a hand on %s's shoulder. \"I'm here. You're not alone.\"",
		"neutral":  "%s listens quietly. \"That sounds hard, %s.\"",
		"negative": "%s looks away. \"I... don't know what to say, %s.\"",
	},
	"conflict": {
		"positive": "%s holds their ground but softens. \"Let's not do this, %s.\"",
		"neutral":  "%s stiffens. \"Careful, %s.\"",
		"negative": "%s glares. \"Enough, %s. I won't forget this.\"",
	},
}

// moodBucket coarsens a dominant emotion into a template key.
func moodBucket(state character.EmotionalState) string {
	mood, intensity := state.Dominant()
	if intensity < 0.15 {
		return "neutral"
	}
	switch mood {
	case character.EmotionJoy, character.EmotionTrust, character.EmotionAnticipation:
		return "positive"
	case character.EmotionSadness, character.EmotionAnger, character.EmotionFear, character.EmotionDisgust:
		return "negative"
	default:
		return "neutral"
	}
}

// Templates is the deterministic fallback generator.
type Templates struct{}

// NewTemplates returns the fallback generator.
func NewTemplates() *Templates {
	return &Templates{}
}

// Generate renders a canned line for the interaction type and the
// target's mood. Never returns empty text; unknown types get a generic
// line.
func (t *Templates) Generate(_ context.Context, pc *PromptContext) (string, error) {
	return t.Render(pc), nil
}

// Render picks and fills the template for the prompt context.
func (t *Templates) Render(pc *PromptContext) string {
	byMood, ok := templates[pc.Kind]
	if !ok {
		return fmt.Sprintf("%s regards %s in silence for a moment.", pc.TargetName, pc.InitiatorName)
	}
	tmpl, ok := byMood[moodBucket(pc.TargetEmotions)]
	if !ok {
		tmpl = byMood["neutral"]
	}
	return fmt.Sprintf(tmpl, pc.TargetName, pc.InitiatorName)
}
