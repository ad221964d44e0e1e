// Package sentiment scores the emotional polarity of interaction
// content on a [-1,1] scale. The processor treats every scorer as
// unreliable: errors and timeouts degrade to the lexicon fallback and
// then to neutral, never failing the interaction.
package sentiment

import "context"

// Scorer produces a polarity score in [-1,1] for a piece of text.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}
