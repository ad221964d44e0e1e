package relationship

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// TypeWeight shapes how an interaction type converts sentiment into a
// strength delta. Scale multiplies sentiment; Bias shifts the result,
// which lets hostile types lean negative even at neutral sentiment.
type TypeWeight struct {
	Scale float64 `json:"scale"`
	Bias  float64 `json:"bias"`
	// EnergyCost is deducted from each participant's social energy.
	EnergyCost float64 `json:"energy_cost"`
}

// Tuning holds the adjustable constants of the ledger update rule.
// The bounds, diminishing-returns, trust-asymmetry and rebuild-damping
// properties must hold for any setting; only magnitudes are tunable.
type Tuning struct {
	TypeWeights map[string]TypeWeight `json:"type_weights"`
	// TrustGainRate applies to positive sentiment; TrustLossRate to
	// negative. Loss must exceed gain: trust is hard to build and easy
	// to lose.
	TrustGainRate float64 `json:"trust_gain_rate"`
	TrustLossRate float64 `json:"trust_loss_rate"`
	// LowTrustThreshold marks the broken-trust regime. Positive trust
	// deltas below it are damped toward RebuildFloor the lower trust
	// currently sits.
	LowTrustThreshold float64 `json:"low_trust_threshold"`
	RebuildFloor      float64 `json:"rebuild_floor"`
	// FamiliarityStep is the constant familiarity gain per interaction.
	FamiliarityStep float64 `json:"familiarity_step"`
}

// DefaultTuning returns the stock ledger constants.
func DefaultTuning() Tuning {
	return Tuning{
		TypeWeights: map[string]TypeWeight{
			"greeting":          {Scale: 0.05, EnergyCost: 0.05},
			"chat":              {Scale: 0.10, EnergyCost: 0.08},
			"discussion":        {Scale: 0.15, EnergyCost: 0.12},
			"debate":            {Scale: 0.12, EnergyCost: 0.15},
			"collaboration":     {Scale: 0.25, EnergyCost: 0.15},
			"emotional_support": {Scale: 0.30, EnergyCost: 0.18},
			"conflict":          {Scale: 0.30, Bias: -0.12, EnergyCost: 0.25},
		},
		TrustGainRate:     0.05,
		TrustLossRate:     0.12,
		LowTrustThreshold: 0.3,
		RebuildFloor:      0.2,
		FamiliarityStep:   0.02,
	}
}

// Delta reports what one ledger update changed.
type Delta struct {
	StrengthDelta    float64 `json:"strength_delta"`
	TrustDelta       float64 `json:"trust_delta"`
	FamiliarityDelta float64 `json:"familiarity_delta"`
	NewStrength      float64 `json:"new_strength"`
	NewTrust         float64 `json:"new_trust"`
	NewFamiliarity   float64 `json:"new_familiarity"`
}

// Ledger owns the strength/trust/familiarity update rule.
type Ledger struct {
	tuning Tuning
	logger *zap.Logger
}

// NewLedger creates a ledger with the given tuning.
func NewLedger(tuning Tuning, logger *zap.Logger) *Ledger {
	return &Ledger{tuning: tuning, logger: logger}
}

// EnergyCost returns the social energy price of an interaction type.
func (l *Ledger) EnergyCost(kind string) float64 {
	return l.tuning.TypeWeights[kind].EnergyCost
}

// KnownType reports whether the ledger has a weight for the type.
func (l *Ledger) KnownType(kind string) bool {
	_, ok := l.tuning.TypeWeights[kind]
	return ok
}

// Update applies one interaction to the relationship in place and
// returns the applied deltas.
//
// Strength: base = sentiment*scale + bias, scaled by (1-|strength|) so
// bonds near either extreme move slower than neutral ones, then
// clamped to [-1,1].
//
// Trust: asymmetric rates (loss outweighs gain), with positive deltas
// further damped while trust sits below the low-trust threshold —
// broken trust rebuilds slower than trust that was never broken.
//
// Familiarity only ever increases, saturating at 1.
func (l *Ledger) Update(rel *Relationship, kind string, sentiment float64, now time.Time) (Delta, error) {
	w, ok := l.tuning.TypeWeights[kind]
	if !ok {
		return Delta{}, fmt.Errorf("no type weight for %q", kind)
	}
	if sentiment > 1 {
		sentiment = 1
	} else if sentiment < -1 {
		sentiment = -1
	}

	base := sentiment*w.Scale + w.Bias
	strengthDelta := base * (1 - math.Abs(rel.Strength))
	newStrength := clamp(rel.Strength+strengthDelta, -1, 1)
	strengthDelta = newStrength - rel.Strength

	var trustDelta float64
	if sentiment >= 0 {
		trustDelta = l.tuning.TrustGainRate * sentiment
		if rel.Trust < l.tuning.LowTrustThreshold {
			damp := l.tuning.RebuildFloor + (1-l.tuning.RebuildFloor)*(rel.Trust/l.tuning.LowTrustThreshold)
			trustDelta *= damp
		}
	} else {
		trustDelta = l.tuning.TrustLossRate * sentiment
	}
	newTrust := clamp(rel.Trust+trustDelta, 0, 1)
	trustDelta = newTrust - rel.Trust

	newFamiliarity := clamp(rel.Familiarity+l.tuning.FamiliarityStep, 0, 1)
	familiarityDelta := newFamiliarity - rel.Familiarity

	rel.Strength = newStrength
	rel.Trust = newTrust
	rel.Familiarity = newFamiliarity
	rel.InteractionCount++
	rel.LastInteraction = now

	if l.logger != nil {
		l.logger.Debug("relationship updated",
			zap.String("pair", rel.CharA+"/"+rel.CharB),
			zap.String("kind", kind),
			zap.Float64("strength", newStrength),
			zap.Float64("trust", newTrust))
	}

	return Delta{
		StrengthDelta:    strengthDelta,
		TrustDelta:       trustDelta,
		FamiliarityDelta: familiarityDelta,
		NewStrength:      newStrength,
		NewTrust:         newTrust,
		NewFamiliarity:   newFamiliarity,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
