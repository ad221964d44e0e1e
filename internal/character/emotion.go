package character

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ErrInvalidInteractionType indicates an interaction type with no
// registered base emotion vector.
var ErrInvalidInteractionType = errors.New("invalid interaction type")

// Emotion is one of the eight primary emotions.
type Emotion string

const (
	EmotionJoy          Emotion = "joy"
	EmotionSadness      Emotion = "sadness"
	EmotionAnger        Emotion = "anger"
	EmotionFear         Emotion = "fear"
	EmotionSurprise     Emotion = "surprise"
	EmotionDisgust      Emotion = "disgust"
	EmotionAnticipation Emotion = "anticipation"
	EmotionTrust        Emotion = "trust"
)

// Emotions lists all primary emotions in a stable order.
var Emotions = []Emotion{
	EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear,
	EmotionSurprise, EmotionDisgust, EmotionAnticipation, EmotionTrust,
}

// negativeEmotions are amplified by neuroticism.
var negativeEmotions = map[Emotion]bool{
	EmotionSadness: true,
	EmotionAnger:   true,
	EmotionFear:    true,
	EmotionDisgust: true,
}

// EmotionalState maps each primary emotion to an intensity in [0,1].
// Intensities are independent; blended states need not sum to 1.
type EmotionalState map[Emotion]float64

// NewEmotionalState returns a neutral state (all intensities zero).
func NewEmotionalState() EmotionalState {
	s := make(EmotionalState, len(Emotions))
	for _, e := range Emotions {
		s[e] = 0
	}
	return s
}

// Clone returns a copy of the state.
func (s EmotionalState) Clone() EmotionalState {
	cp := make(EmotionalState, len(s))
	for e, v := range s {
		cp[e] = v
	}
	return cp
}

// Dominant returns the emotion with the highest intensity. A fully
// neutral state reports zero intensity.
func (s EmotionalState) Dominant() (Emotion, float64) {
	best := EmotionTrust
	bestV := -1.0
	for _, e := range Emotions {
		if v := s[e]; v > bestV {
			best, bestV = e, v
		}
	}
	if bestV < 0 {
		bestV = 0
	}
	return best, bestV
}

// EmotionTuning holds the adjustable constants of the emotion model.
// Values are configuration, not contracts; the bounds and monotonicity
// properties hold for any sane setting.
type EmotionTuning struct {
	// DecayFactor is the memory of the exponential blend:
	// new = current*decay + delta*(1-decay).
	DecayFactor float64 `json:"decay_factor"`
	// NeuroticismAmplification scales negative-emotion deltas by
	// 1 + neuroticism*amplification.
	NeuroticismAmplification float64 `json:"neuroticism_amplification"`
	// ExpressivenessSpan controls how much extraversion widens or
	// narrows overall emotional response magnitude.
	ExpressivenessSpan float64 `json:"expressiveness_span"`
	// AgreeablenessAngerDamp scales anger down by agreeableness.
	AgreeablenessAngerDamp float64 `json:"agreeableness_anger_damp"`
}

// DefaultEmotionTuning returns the stock tuning.
func DefaultEmotionTuning() EmotionTuning {
	return EmotionTuning{
		DecayFactor:              0.6,
		NeuroticismAmplification: 0.8,
		ExpressivenessSpan:       0.5,
		AgreeablenessAngerDamp:   0.6,
	}
}

// baseVectors maps interaction types to their characteristic emotional
// stimulus before sentiment scaling and personality modulation.
var baseVectors = map[string]EmotionalState{
	"greeting":          {EmotionJoy: 0.3, EmotionTrust: 0.2, EmotionAnticipation: 0.2},
	"chat":              {EmotionJoy: 0.3, EmotionTrust: 0.2, EmotionAnticipation: 0.1},
	"discussion":        {EmotionAnticipation: 0.4, EmotionTrust: 0.2, EmotionSurprise: 0.1},
	"debate":            {EmotionAnticipation: 0.4, EmotionAnger: 0.2, EmotionSurprise: 0.2},
	"collaboration":     {EmotionTrust: 0.5, EmotionJoy: 0.4, EmotionAnticipation: 0.3},
	"emotional_support": {EmotionTrust: 0.6, EmotionJoy: 0.3, EmotionSadness: 0.1},
	"conflict":          {EmotionAnger: 0.6, EmotionFear: 0.3, EmotionDisgust: 0.3, EmotionSadness: 0.2},
}

// KnownInteractionType reports whether the emotion model has a base
// vector for the given interaction type.
func KnownInteractionType(kind string) bool {
	_, ok := baseVectors[kind]
	return ok
}

// EmotionEngine turns an interaction's sentiment and type into a
// bounded emotional-state update for one participant.
type EmotionEngine struct {
	tuning EmotionTuning
	logger *zap.Logger
}

// NewEmotionEngine creates an engine with the given tuning.
func NewEmotionEngine(tuning EmotionTuning, logger *zap.Logger) *EmotionEngine {
	return &EmotionEngine{tuning: tuning, logger: logger}
}

// Response computes the participant's next emotional state.
//
// The interaction type's base vector is scaled by |sentiment|; negative
// sentiment reroutes the joy and trust components into sadness and
// anger. Neuroticism amplifies negative emotions, extraversion scales
// overall magnitude, agreeableness dampens anger. The resulting delta
// is blended with the current state via exponential decay, so a
// zero-magnitude interaction still drifts the state toward neutral.
// Sentiment outside [-1,1] is clamped, never rejected.
func (e *EmotionEngine) Response(profile PersonalityProfile, current EmotionalState, kind string, sentiment float64) (EmotionalState, error) {
	base, ok := baseVectors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInteractionType, kind)
	}

	if sentiment > 1 {
		sentiment = 1
	} else if sentiment < -1 {
		sentiment = -1
	}

	delta := make(EmotionalState, len(Emotions))
	magnitude := math.Abs(sentiment)
	if sentiment >= 0 {
		for em, v := range base {
			delta[em] += v * magnitude
		}
	} else {
		// Negative sentiment inverts the affiliative components.
		for em, v := range base {
			switch em {
			case EmotionJoy:
				delta[EmotionSadness] += v * magnitude
			case EmotionTrust:
				delta[EmotionAnger] += v * magnitude
			default:
				delta[em] += v * magnitude
			}
		}
	}

	expressiveness := 1 + (profile.Extraversion-0.5)*e.tuning.ExpressivenessSpan
	negativeAmp := 1 + profile.Neuroticism*e.tuning.NeuroticismAmplification
	angerDamp := 1 - profile.Agreeableness*e.tuning.AgreeablenessAngerDamp

	for em := range delta {
		v := delta[em] * expressiveness
		if negativeEmotions[em] {
			v *= negativeAmp
		}
		if em == EmotionAnger {
			v *= angerDamp
		}
		delta[em] = clamp01(v)
	}

	decay := e.tuning.DecayFactor
	next := make(EmotionalState, len(Emotions))
	for _, em := range Emotions {
		next[em] = clamp01(current[em]*decay + delta[em]*(1-decay))
	}
	return next, nil
}
