package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/dialogue"
	"github.com/nidhogg/ensemble/internal/notify"
	"github.com/nidhogg/ensemble/internal/relationship"
	"github.com/nidhogg/ensemble/internal/sentiment"
	"github.com/nidhogg/ensemble/internal/store"
)

// fixedScorer returns a constant sentiment.
type fixedScorer struct{ score float64 }

func (s fixedScorer) Score(context.Context, string) (float64, error) { return s.score, nil }

// failingScorer always errors, exercising the lexicon fallback.
type failingScorer struct{}

func (failingScorer) Score(context.Context, string) (float64, error) {
	return 0, errors.New("sentiment service down")
}

// slowGenerator sleeps before answering, for concurrency timing.
type slowGenerator struct {
	delay time.Duration
	text  string
}

func (g slowGenerator) Generate(ctx context.Context, _ *dialogue.PromptContext) (string, error) {
	select {
	case <-time.After(g.delay):
		return g.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// failingGenerator always errors, exercising the template fallback.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, *dialogue.PromptContext) (string, error) {
	return "", errors.New("generator timeout")
}

// captureNotifier records events on a channel.
type captureNotifier struct{ events chan *notify.Event }

func (n *captureNotifier) Notify(_ context.Context, _ string, ev *notify.Event) error {
	n.events <- ev
	return nil
}

func seedCharacter(t *testing.T, st store.Store, id, name string, profile character.PersonalityProfile, energy float64) {
	t.Helper()
	err := st.SaveCharacter(context.Background(), &character.Character{
		ID:           id,
		Name:         name,
		EcosystemID:  "eco-1",
		Profile:      profile,
		Emotions:     character.NewEmotionalState(),
		SocialEnergy: energy,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func agreeable() character.PersonalityProfile {
	return character.PersonalityProfile{Openness: 0.6, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.9, Neuroticism: 0.2}
}

func prickly() character.PersonalityProfile {
	return character.PersonalityProfile{Openness: 0.4, Conscientiousness: 0.5, Extraversion: 0.5, Agreeableness: 0.3, Neuroticism: 0.8}
}

func newTestProcessor(t *testing.T, st store.Store, scorer sentiment.Scorer, gen dialogue.Generator, notifier notify.Notifier, cfg Config) *Processor {
	t.Helper()
	logger := zap.NewNop()
	engine := character.NewEmotionEngine(character.DefaultEmotionTuning(), logger)
	ledger := relationship.NewLedger(relationship.DefaultTuning(), logger)
	return NewProcessor(st, scorer, gen, notifier, nil, nil, engine, ledger, cfg, logger)
}

func TestFirstGreetingCreatesRelationship(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	events := &captureNotifier{events: make(chan *notify.Event, 1)}
	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "Hello there."}, events, DefaultConfig())

	result, err := p.Process(context.Background(), &Request{
		InitiatorID: "alice", TargetID: "bob", Kind: KindGreeting, Content: "hello friend",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.FailureReason)
	}
	if result.Relationship.StrengthDelta <= 0 {
		t.Errorf("positive greeting should build strength, got %v", result.Relationship.StrengthDelta)
	}
	if result.Relationship.TrustDelta <= 0 || result.Relationship.TrustDelta > 0.05 {
		t.Errorf("first-contact trust delta should be small and positive, got %v", result.Relationship.TrustDelta)
	}
	if result.Relationship.NewFamiliarity <= 0 {
		t.Errorf("familiarity should rise from zero, got %v", result.Relationship.NewFamiliarity)
	}
	if len(result.EmotionalStates) != 2 {
		t.Errorf("expected emotional states for both participants, got %d", len(result.EmotionalStates))
	}

	rel, err := st.GetRelationship(context.Background(), "eco-1", "alice", "bob")
	if err != nil || rel == nil {
		t.Fatalf("relationship not created: %v", err)
	}
	if rel.InteractionCount != 1 {
		t.Errorf("interaction count = %d, want 1", rel.InteractionCount)
	}

	select {
	case ev := <-events.events:
		if ev.Kind != "greeting" || ev.InitiatorID != "alice" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Error("no event emitted")
	}
}

func TestSaturatedStrengthBarelyMoves(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	rel := relationship.New("eco-1", "alice", "bob")
	rel.Strength = 0.95
	if err := st.SaveRelationship(context.Background(), rel); err != nil {
		t.Fatalf("seed relationship: %v", err)
	}

	p := newTestProcessor(t, st, fixedScorer{1.0}, slowGenerator{0, "Always a pleasure."}, nil, DefaultConfig())
	result, err := p.Process(context.Background(), &Request{
		InitiatorID: "alice", TargetID: "bob", Kind: KindCollaboration, Content: "we make a great team",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Relationship.StrengthDelta <= 0 || result.Relationship.StrengthDelta > 0.02 {
		t.Errorf("near-saturated delta should be tiny and positive, got %v", result.Relationship.StrengthDelta)
	}
	if result.Relationship.NewStrength > 1.0 {
		t.Errorf("strength exceeded 1: %v", result.Relationship.NewStrength)
	}
}

func TestInsufficientEnergyIsAResultNotAnError(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 0.05)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.9}, slowGenerator{0, "hi"}, nil, DefaultConfig())
	result, err := p.Process(context.Background(), &Request{
		InitiatorID: "alice", TargetID: "bob", Kind: KindChat, Content: "talk to me",
	})
	if err != nil {
		t.Fatalf("feasibility failure must not be an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected success=false")
	}
	if result.FailureReason == "" {
		t.Error("expected a failure reason")
	}

	// Nothing may have changed.
	alice, _ := st.GetCharacter(context.Background(), "alice")
	if alice.InteractionCount != 0 || alice.SocialEnergy != 0.05 {
		t.Errorf("alice mutated: %+v", alice)
	}
	if rel, _ := st.GetRelationship(context.Background(), "eco-1", "alice", "bob"); rel != nil {
		t.Error("relationship should not have been created")
	}
}

func TestGeneratorOutageFallsBackToTemplate(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, failingGenerator{}, nil, DefaultConfig())
	result, err := p.Process(context.Background(), &Request{
		InitiatorID: "alice", TargetID: "bob", Kind: KindGreeting, Content: "hello",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Success {
		t.Fatalf("generator outage must not fail the interaction: %s", result.FailureReason)
	}
	if result.ResponseText == "" {
		t.Error("fallback response must not be empty")
	}
	if result.Relationship == nil || result.Relationship.StrengthDelta <= 0 {
		t.Error("relationship update should still apply")
	}
}

func TestSentimentOutageFallsBackToLexicon(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	p := newTestProcessor(t, st, failingScorer{}, slowGenerator{0, "ok"}, nil, DefaultConfig())
	result, err := p.Process(context.Background(), &Request{
		InitiatorID: "alice", TargetID: "bob", Kind: KindChat, Content: "I love this wonderful plan",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Success {
		t.Fatalf("sentiment outage must not fail the interaction: %s", result.FailureReason)
	}
	if result.Sentiment <= 0 {
		t.Errorf("lexicon should score clearly positive text above zero, got %v", result.Sentiment)
	}
}

func TestInvalidParticipantsIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, DefaultConfig())
	req := &Request{InitiatorID: "alice", TargetID: "ghost", Kind: KindChat, Content: "anyone there?"}

	for i := 0; i < 2; i++ {
		_, err := p.Process(context.Background(), req)
		if !errors.Is(err, ErrInvalidParticipants) {
			t.Fatalf("call %d: expected ErrInvalidParticipants, got %v", i, err)
		}
	}
	alice, _ := st.GetCharacter(context.Background(), "alice")
	if alice.InteractionCount != 0 || alice.SocialEnergy != 1.0 {
		t.Errorf("alice mutated by failed validation: %+v", alice)
	}
}

func TestSelfInteractionRejected(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, DefaultConfig())
	_, err := p.Process(context.Background(), &Request{InitiatorID: "alice", TargetID: "alice", Kind: KindChat, Content: "hi me"})
	if !errors.Is(err, ErrInvalidParticipants) {
		t.Errorf("expected ErrInvalidParticipants for self-interaction, got %v", err)
	}
}

func TestUnknownKindRejected(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, DefaultConfig())
	_, err := p.Process(context.Background(), &Request{InitiatorID: "alice", TargetID: "bob", Kind: "staring_contest", Content: "..."})
	if !errors.Is(err, character.ErrInvalidInteractionType) {
		t.Errorf("expected ErrInvalidInteractionType, got %v", err)
	}
}

func TestDifferentEcosystemsIsAFeasibilityFailure(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	if err := st.SaveCharacter(context.Background(), &character.Character{
		ID: "zed", Name: "Zed", EcosystemID: "eco-2",
		Profile: prickly(), Emotions: character.NewEmotionalState(), SocialEnergy: 1.0,
	}); err != nil {
		t.Fatalf("seed zed: %v", err)
	}

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, DefaultConfig())
	result, err := p.Process(context.Background(), &Request{InitiatorID: "alice", TargetID: "zed", Kind: KindChat, Content: "hi"})
	if err != nil {
		t.Fatalf("cross-ecosystem should be a result, not an error: %v", err)
	}
	if result.Success {
		t.Error("expected success=false for cross-ecosystem pair")
	}
}

func TestBusyPairTimesOut(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	cfg := DefaultConfig()
	cfg.LockWait = 50 * time.Millisecond
	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, cfg)

	if !p.locks.acquire("alice", time.Second) {
		t.Fatal("could not take alice's lock")
	}
	defer p.locks.release("alice")

	_, err := p.Process(context.Background(), &Request{InitiatorID: "bob", TargetID: "alice", Kind: KindChat, Content: "hi"})
	if !errors.Is(err, ErrInteractionBusy) {
		t.Errorf("expected ErrInteractionBusy, got %v", err)
	}
}

func TestDisjointPairsRunInParallel(t *testing.T) {
	st := store.NewMemory()
	for i, name := range []string{"Ada", "Ben", "Cleo", "Dan"} {
		seedCharacter(t, st, fmt.Sprintf("c%d", i), name, agreeable(), 1.0)
	}

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{150 * time.Millisecond, "..."}, nil, DefaultConfig())

	start := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{"c0", "c1"}, {"c2", "c3"}} {
		wg.Add(1)
		go func(i int, a, b string) {
			defer wg.Done()
			_, errs[i] = p.Process(context.Background(), &Request{InitiatorID: a, TargetID: b, Kind: KindChat, Content: "hi"})
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("pair %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 280*time.Millisecond {
		t.Errorf("disjoint pairs blocked each other: took %v", elapsed)
	}
}

func TestOverlappingPairsSerialize(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)
	seedCharacter(t, st, "cleo", "Cleo", agreeable(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{100 * time.Millisecond, "..."}, nil, DefaultConfig())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{"alice", "bob"}, {"bob", "cleo"}} {
		wg.Add(1)
		go func(i int, a, b string) {
			defer wg.Done()
			_, errs[i] = p.Process(context.Background(), &Request{InitiatorID: a, TargetID: b, Kind: KindChat, Content: "hi"})
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("interaction %d: %v", i, err)
		}
	}
	// Bob took part in both; the second call must have seen the
	// first's completed write.
	bob, err := st.GetCharacter(context.Background(), "bob")
	if err != nil {
		t.Fatalf("get bob: %v", err)
	}
	if bob.InteractionCount != 2 {
		t.Errorf("bob's interaction count = %d, want 2", bob.InteractionCount)
	}
}

func TestEnergyDeduction(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, DefaultConfig())
	if _, err := p.Process(context.Background(), &Request{InitiatorID: "alice", TargetID: "bob", Kind: KindConflict, Content: "you betrayed me"}); err != nil {
		t.Fatalf("process: %v", err)
	}

	alice, _ := st.GetCharacter(context.Background(), "alice")
	bob, _ := st.GetCharacter(context.Background(), "bob")
	if alice.SocialEnergy >= 1.0 || bob.SocialEnergy >= 1.0 {
		t.Errorf("energy not deducted: alice %v, bob %v", alice.SocialEnergy, bob.SocialEnergy)
	}
	if alice.SocialEnergy != bob.SocialEnergy {
		t.Errorf("both participants pay the same cost: alice %v, bob %v", alice.SocialEnergy, bob.SocialEnergy)
	}
}

func TestProcessorCompatibility(t *testing.T) {
	st := store.NewMemory()
	seedCharacter(t, st, "alice", "Alice", agreeable(), 1.0)
	seedCharacter(t, st, "bob", "Bob", prickly(), 1.0)

	p := newTestProcessor(t, st, fixedScorer{0.5}, slowGenerator{0, "x"}, nil, DefaultConfig())
	score, err := p.Compatibility(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("compatibility: %v", err)
	}
	if score.Overall < 0 || score.Overall > 1 {
		t.Errorf("overall out of bounds: %v", score.Overall)
	}
	if _, err := p.Compatibility(context.Background(), "alice", "alice"); !errors.Is(err, ErrInvalidParticipants) {
		t.Errorf("expected ErrInvalidParticipants for self-compat, got %v", err)
	}
}
