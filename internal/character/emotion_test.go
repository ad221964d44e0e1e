package character

import (
	"errors"
	"math/rand"
	"testing"

	"go.uber.org/zap"
)

func neutralProfile() PersonalityProfile {
	return PersonalityProfile{Openness: 0.5, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.5, Neuroticism: 0.5}
}

func TestResponseBoundsUnderAbuseSentiment(t *testing.T) {
	engine := NewEmotionEngine(DefaultEmotionTuning(), zap.NewNop())
	r := rand.New(rand.NewSource(7))

	for _, sentiment := range []float64{-5, -1, -0.5, 0, 0.5, 1, 5} {
		state := NewEmotionalState()
		for i := 0; i < 100; i++ {
			kind := []string{"greeting", "chat", "discussion", "debate", "collaboration", "emotional_support", "conflict"}[r.Intn(7)]
			next, err := engine.Response(validProfile(r), state, kind, sentiment)
			if err != nil {
				t.Fatalf("response: %v", err)
			}
			for _, em := range Emotions {
				if v := next[em]; v < 0 || v > 1 {
					t.Fatalf("sentiment %v: %s = %v out of [0,1]", sentiment, em, v)
				}
			}
			state = next
		}
	}
}

func TestResponseZeroMagnitudeDecaysTowardNeutral(t *testing.T) {
	engine := NewEmotionEngine(DefaultEmotionTuning(), zap.NewNop())
	state := NewEmotionalState()
	state[EmotionAnger] = 0.8
	state[EmotionJoy] = 0.4

	// Conflict carries an anger base vector, but zero sentiment means
	// zero delta: only decay applies.
	next, err := engine.Response(neutralProfile(), state, "conflict", 0)
	if err != nil {
		t.Fatalf("response: %v", err)
	}
	if next[EmotionAnger] >= state[EmotionAnger] {
		t.Errorf("anger should decay: %v -> %v", state[EmotionAnger], next[EmotionAnger])
	}
	if next[EmotionJoy] >= state[EmotionJoy] {
		t.Errorf("joy should decay: %v -> %v", state[EmotionJoy], next[EmotionJoy])
	}
}

func TestResponseNegativeSentimentInvertsAffiliative(t *testing.T) {
	engine := NewEmotionEngine(DefaultEmotionTuning(), zap.NewNop())

	positive, err := engine.Response(neutralProfile(), NewEmotionalState(), "chat", 0.8)
	if err != nil {
		t.Fatalf("response: %v", err)
	}
	negative, err := engine.Response(neutralProfile(), NewEmotionalState(), "chat", -0.8)
	if err != nil {
		t.Fatalf("response: %v", err)
	}

	if positive[EmotionJoy] <= negative[EmotionJoy] {
		t.Errorf("positive chat should carry more joy: %v vs %v", positive[EmotionJoy], negative[EmotionJoy])
	}
	if negative[EmotionSadness] <= positive[EmotionSadness] {
		t.Errorf("negative chat should carry more sadness: %v vs %v", negative[EmotionSadness], positive[EmotionSadness])
	}
	if negative[EmotionAnger] <= positive[EmotionAnger] {
		t.Errorf("negative chat should carry more anger: %v vs %v", negative[EmotionAnger], positive[EmotionAnger])
	}
}

func TestResponseNeuroticismAmplifiesNegative(t *testing.T) {
	engine := NewEmotionEngine(DefaultEmotionTuning(), zap.NewNop())

	calm := neutralProfile()
	calm.Neuroticism = 0.1
	anxious := neutralProfile()
	anxious.Neuroticism = 0.9

	calmState, _ := engine.Response(calm, NewEmotionalState(), "conflict", -0.6)
	anxiousState, _ := engine.Response(anxious, NewEmotionalState(), "conflict", -0.6)

	if anxiousState[EmotionFear] <= calmState[EmotionFear] {
		t.Errorf("high neuroticism should amplify fear: %v vs %v", anxiousState[EmotionFear], calmState[EmotionFear])
	}
}

func TestResponseAgreeablenessDampensAnger(t *testing.T) {
	engine := NewEmotionEngine(DefaultEmotionTuning(), zap.NewNop())

	gentle := neutralProfile()
	gentle.Agreeableness = 0.9
	harsh := neutralProfile()
	harsh.Agreeableness = 0.1

	gentleState, _ := engine.Response(gentle, NewEmotionalState(), "conflict", -0.6)
	harshState, _ := engine.Response(harsh, NewEmotionalState(), "conflict", -0.6)

	if gentleState[EmotionAnger] >= harshState[EmotionAnger] {
		t.Errorf("high agreeableness should dampen anger: %v vs %v", gentleState[EmotionAnger], harshState[EmotionAnger])
	}
}

func TestResponseUnknownType(t *testing.T) {
	engine := NewEmotionEngine(DefaultEmotionTuning(), zap.NewNop())
	_, err := engine.Response(neutralProfile(), NewEmotionalState(), "interpretive_dance", 0.5)
	if !errors.Is(err, ErrInvalidInteractionType) {
		t.Errorf("expected ErrInvalidInteractionType, got %v", err)
	}
}

func TestDominant(t *testing.T) {
	state := NewEmotionalState()
	if mood, intensity := state.Dominant(); intensity != 0 {
		t.Errorf("neutral state dominant = %s/%v, want zero intensity", mood, intensity)
	}
	state[EmotionSurprise] = 0.7
	state[EmotionJoy] = 0.3
	if mood, _ := state.Dominant(); mood != EmotionSurprise {
		t.Errorf("dominant = %s, want surprise", mood)
	}
}
