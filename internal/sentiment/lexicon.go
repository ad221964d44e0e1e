package sentiment

import (
	"context"
	"strings"
)

// polarity holds the built-in word list. Small on purpose: the lexicon
// is a degradation fallback, not a competitor to the external scorer.
var polarity = map[string]float64{
	// positive
	"good": 0.6, "great": 0.8, "wonderful": 0.9, "love": 0.9,
	"like": 0.5, "happy": 0.7, "glad": 0.6, "thanks": 0.5,
	"thank": 0.5, "agree": 0.4, "yes": 0.3, "friend": 0.5,
	"help": 0.4, "together": 0.4, "trust": 0.6, "amazing": 0.8,
	"beautiful": 0.7, "excellent": 0.8, "welcome": 0.4, "kind": 0.5,
	"brilliant": 0.7, "appreciate": 0.6, "enjoy": 0.6, "hope": 0.4,

	// negative
	"bad": -0.6, "terrible": -0.8, "awful": -0.8, "hate": -0.9,
	"dislike": -0.5, "angry": -0.7, "sad": -0.6, "no": -0.2,
	"never": -0.3, "disagree": -0.4, "wrong": -0.4, "enemy": -0.7,
	"stupid": -0.7, "fool": -0.6, "liar": -0.8, "betray": -0.9,
	"fear": -0.5, "afraid": -0.5, "worst": -0.8, "annoying": -0.5,
	"disgusting": -0.8, "cruel": -0.8, "fight": -0.5, "leave": -0.3,
}

// Lexicon is a deterministic in-process scorer averaging the polarity
// of recognized words. It never errors and requires no services, which
// makes it the fallback of last resort before neutral.
type Lexicon struct{}

// NewLexicon returns the built-in lexicon scorer.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

// Score averages word polarities over recognized words. Text with no
// recognized words scores neutral.
func (l *Lexicon) Score(_ context.Context, text string) (float64, error) {
	var sum float64
	var hits int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if v, ok := polarity[w]; ok {
			sum += v
			hits++
		}
	}
	if hits == 0 {
		return 0, nil
	}
	score := sum / float64(hits)
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, nil
}
