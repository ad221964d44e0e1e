package character

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProfile indicates a trait outside the [0,1] range.
var ErrInvalidProfile = errors.New("invalid personality profile")

// PersonalityProfile is a Big-Five trait vector. All traits are
// normalized to [0,1]. Profiles are immutable at interaction time.
type PersonalityProfile struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Validate checks that every trait is within [0,1].
func (p PersonalityProfile) Validate() error {
	traits := map[string]float64{
		"openness":          p.Openness,
		"conscientiousness": p.Conscientiousness,
		"extraversion":      p.Extraversion,
		"agreeableness":     p.Agreeableness,
		"neuroticism":       p.Neuroticism,
	}
	for name, v := range traits {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidProfile, name, v)
		}
	}
	return nil
}

// CompatibilityScore breaks pairwise compatibility into potentials.
// All scores are in [0,1].
type CompatibilityScore struct {
	Overall    float64 `json:"overall"`
	Friendship float64 `json:"friendship"`
	Romance    float64 `json:"romance"`
	Rivalry    float64 `json:"rivalry"`
}

// Compatibility tuning. The romance curve peaks when the extraversion
// gap equals idealExtraversionGap, modeling that a moderate difference
// in expressiveness works better than a perfect match.
const (
	idealExtraversionGap = 0.3
	romanceCurveWidth    = 0.18
)

// Compatibility scores how well two personalities mesh.
//
// Friendship rewards similarity on agreeableness and openness. Romance
// is a bell curve on the extraversion gap centered on the ideal gap.
// Rivalry grows with conscientiousness divergence, sharpened by the
// higher of the two neuroticism scores; identical profiles always score
// zero rivalry and maximal friendship.
func Compatibility(a, b PersonalityProfile) (CompatibilityScore, error) {
	if err := a.Validate(); err != nil {
		return CompatibilityScore{}, err
	}
	if err := b.Validate(); err != nil {
		return CompatibilityScore{}, err
	}

	friendship := 1 - (math.Abs(a.Agreeableness-b.Agreeableness)+math.Abs(a.Openness-b.Openness))/2

	extraGap := math.Abs(a.Extraversion - b.Extraversion)
	romance := math.Exp(-math.Pow(extraGap-idealExtraversionGap, 2) / (2 * romanceCurveWidth * romanceCurveWidth))

	conscGap := math.Abs(a.Conscientiousness - b.Conscientiousness)
	rivalry := conscGap * (0.4 + 0.6*math.Max(a.Neuroticism, b.Neuroticism))

	score := CompatibilityScore{
		Friendship: clamp01(friendship),
		Romance:    clamp01(romance),
		Rivalry:    clamp01(rivalry),
	}
	score.Overall = clamp01(0.5*score.Friendship + 0.3*score.Romance + 0.2*(1-score.Rivalry))
	return score, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
