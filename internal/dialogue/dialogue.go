// Package dialogue produces in-character response text. The primary
// generator is an OpenAI-compatible chat endpoint; a deterministic
// template set covers outages so an interaction never returns empty
// text.
package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/nidhogg/ensemble/internal/character"
)

// HistoryTurn is one prior exchange between the pair, oldest first.
type HistoryTurn struct {
	Speaker string
	Text    string
}

// PromptContext carries everything the generator needs to speak as the
// target character: who they are, how they feel after this interaction,
// where the relationship stands, and what was said recently.
type PromptContext struct {
	TargetName      string
	InitiatorName   string
	TargetProfile   character.PersonalityProfile
	TargetEmotions  character.EmotionalState
	Kind            string
	Content         string
	Scene           string
	Strength        float64
	Trust           float64
	Familiarity     float64
	History         []HistoryTurn
	RelatedMemories []string
}

// Generator turns a prompt context into response text.
type Generator interface {
	Generate(ctx context.Context, pc *PromptContext) (string, error)
}

// BuildSystemPrompt renders the persona instructions for the chat
// model.
func BuildSystemPrompt(pc *PromptContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a fictional character. Stay in character.\n\n", pc.TargetName)
	fmt.Fprintf(&b, "Personality (0-1 scale): openness %.2f, conscientiousness %.2f, extraversion %.2f, agreeableness %.2f, neuroticism %.2f.\n",
		pc.TargetProfile.Openness, pc.TargetProfile.Conscientiousness,
		pc.TargetProfile.Extraversion, pc.TargetProfile.Agreeableness,
		pc.TargetProfile.Neuroticism)

	mood, intensity := pc.TargetEmotions.Dominant()
	fmt.Fprintf(&b, "Current mood: %s (intensity %.2f).\n", mood, intensity)
	fmt.Fprintf(&b, "Relationship with %s: strength %.2f, trust %.2f, familiarity %.2f.\n",
		pc.InitiatorName, pc.Strength, pc.Trust, pc.Familiarity)

	if pc.Scene != "" {
		fmt.Fprintf(&b, "Scene: %s\n", pc.Scene)
	}
	if len(pc.RelatedMemories) > 0 {
		b.WriteString("\nMemories of similar past moments:\n")
		for _, m := range pc.RelatedMemories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	fmt.Fprintf(&b, "\nRespond to a %s in one or two sentences, reflecting your mood and the state of the relationship.", pc.Kind)
	return b.String()
}
