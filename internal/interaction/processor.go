package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/dialogue"
	"github.com/nidhogg/ensemble/internal/graph"
	"github.com/nidhogg/ensemble/internal/notify"
	"github.com/nidhogg/ensemble/internal/recall"
	"github.com/nidhogg/ensemble/internal/relationship"
	"github.com/nidhogg/ensemble/internal/sentiment"
	"github.com/nidhogg/ensemble/internal/store"
)

// Config holds the processor's operational knobs.
type Config struct {
	// MinSocialEnergy gates feasibility: both participants must have
	// at least this much energy.
	MinSocialEnergy float64 `json:"min_social_energy"`
	// LockWait bounds how long a contended interaction waits for the
	// characters' locks before failing with ErrInteractionBusy.
	LockWait time.Duration `json:"lock_wait"`
	// SentimentTimeout bounds the external sentiment call.
	SentimentTimeout time.Duration `json:"sentiment_timeout"`
	// GeneratorTimeout bounds the dialogue generation call, the
	// dominant latency source.
	GeneratorTimeout time.Duration `json:"generator_timeout"`
	// HistoryWindow is how many prior turns feed the prompt.
	HistoryWindow int `json:"history_window"`
}

// DefaultConfig returns the stock processor settings.
func DefaultConfig() Config {
	return Config{
		MinSocialEnergy:  0.1,
		LockWait:         3 * time.Second,
		SentimentTimeout: 2 * time.Second,
		GeneratorTimeout: 8 * time.Second,
		HistoryWindow:    8,
	}
}

// Processor orchestrates one interaction end to end. It is the only
// component with side effects beyond pure computation, and it is
// constructed once with all of its collaborators — no global state.
type Processor struct {
	store     store.Store
	scorer    sentiment.Scorer
	fallback  *sentiment.Lexicon
	generator dialogue.Generator
	templates *dialogue.Templates
	notifier  notify.Notifier
	projector *graph.Projector // optional
	memories  *recall.Index    // optional
	emotions  *character.EmotionEngine
	ledger    *relationship.Ledger
	locks     *lockTable
	cfg       Config
	logger    *zap.Logger
}

// NewProcessor wires a processor. projector and memories may be nil;
// scorer may be nil to run on the lexicon alone.
func NewProcessor(
	st store.Store,
	scorer sentiment.Scorer,
	generator dialogue.Generator,
	notifier notify.Notifier,
	projector *graph.Projector,
	memories *recall.Index,
	emotions *character.EmotionEngine,
	ledger *relationship.Ledger,
	cfg Config,
	logger *zap.Logger,
) *Processor {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Processor{
		store:     st,
		scorer:    scorer,
		fallback:  sentiment.NewLexicon(),
		generator: generator,
		templates: dialogue.NewTemplates(),
		notifier:  notifier,
		projector: projector,
		memories:  memories,
		emotions:  emotions,
		ledger:    ledger,
		locks:     newLockTable(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Process runs one interaction: validate, lock, gate on energy, score
// sentiment, update both emotional states and the relationship ledger,
// generate dialogue, deduct energy, persist, notify.
//
// Validation errors and lock contention surface as errors before any
// mutation. Feasibility failures return Success=false results.
// Collaborator outages (sentiment, generator, notifier, projector,
// recall) degrade gracefully and never fail the interaction.
func (p *Processor) Process(ctx context.Context, req *Request) (*Result, error) {
	if req.InitiatorID == "" || req.TargetID == "" || req.InitiatorID == req.TargetID {
		return nil, fmt.Errorf("%w: initiator=%q target=%q", ErrInvalidParticipants, req.InitiatorID, req.TargetID)
	}
	if !character.KnownInteractionType(string(req.Kind)) || !p.ledger.KnownType(string(req.Kind)) {
		return nil, fmt.Errorf("%w: %q", character.ErrInvalidInteractionType, req.Kind)
	}

	if !p.locks.acquirePair(req.InitiatorID, req.TargetID, p.cfg.LockWait) {
		return nil, fmt.Errorf("%w: %s/%s", ErrInteractionBusy, req.InitiatorID, req.TargetID)
	}
	defer p.locks.releasePair(req.InitiatorID, req.TargetID)

	initiator, err := p.loadParticipant(ctx, req.InitiatorID)
	if err != nil {
		return nil, err
	}
	target, err := p.loadParticipant(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	if initiator.EcosystemID != target.EcosystemID {
		return &Result{
			Success:       false,
			FailureReason: fmt.Sprintf("characters belong to different ecosystems (%s vs %s)", initiator.EcosystemID, target.EcosystemID),
		}, nil
	}
	for _, c := range []*character.Character{initiator, target} {
		if c.SocialEnergy < p.cfg.MinSocialEnergy {
			return &Result{
				Success:       false,
				FailureReason: fmt.Sprintf("insufficient social energy: %s has %.2f, needs %.2f", c.Name, c.SocialEnergy, p.cfg.MinSocialEnergy),
			}, nil
		}
	}

	score := p.scoreSentiment(ctx, req.Content)

	initiatorState, err := p.emotions.Response(initiator.Profile, initiator.Emotions, string(req.Kind), score)
	if err != nil {
		return nil, err
	}
	targetState, err := p.emotions.Response(target.Profile, target.Emotions, string(req.Kind), score)
	if err != nil {
		return nil, err
	}

	rel, err := p.store.GetRelationship(ctx, initiator.EcosystemID, req.InitiatorID, req.TargetID)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		rel = relationship.New(initiator.EcosystemID, req.InitiatorID, req.TargetID)
		p.logger.Debug("relationship created",
			zap.String("pair", rel.CharA+"/"+rel.CharB),
			zap.String("ecosystem", rel.EcosystemID))
	}
	now := time.Now()
	delta, err := p.ledger.Update(rel, string(req.Kind), score, now)
	if err != nil {
		return nil, err
	}

	// Dialogue generation runs after both state updates so the model
	// sees the post-interaction mood.
	response := p.generateDialogue(ctx, req, initiator, target, targetState, rel)

	cost := p.ledger.EnergyCost(string(req.Kind))
	for _, pair := range []struct {
		c     *character.Character
		state character.EmotionalState
	}{{initiator, initiatorState}, {target, targetState}} {
		pair.c.Emotions = pair.state
		pair.c.SocialEnergy = clamp01(pair.c.SocialEnergy - cost)
		pair.c.InteractionCount++
		pair.c.UpdatedAt = now
	}

	rec := &store.InteractionRecord{
		ID:            uuid.NewString(),
		EcosystemID:   initiator.EcosystemID,
		InitiatorID:   initiator.ID,
		TargetID:      target.ID,
		Kind:          string(req.Kind),
		Content:       req.Content,
		Response:      response,
		Sentiment:     score,
		StrengthDelta: delta.StrengthDelta,
		TrustDelta:    delta.TrustDelta,
		CreatedAt:     now,
	}

	if err := p.persist(ctx, initiator, target, rel, rec); err != nil {
		return nil, err
	}

	if p.projector != nil {
		p.projector.Sync(ctx, rel)
	}
	p.remember(rec)
	p.announce(initiator, target, rec, delta)

	return &Result{
		ID:           rec.ID,
		Success:      true,
		ResponseText: response,
		Sentiment:    score,
		Relationship: &delta,
		EmotionalStates: map[string]character.EmotionalState{
			initiator.ID: initiatorState,
			target.ID:    targetState,
		},
	}, nil
}

// Compatibility loads both characters and scores their personality
// compatibility without mutating anything.
func (p *Processor) Compatibility(ctx context.Context, aID, bID string) (character.CompatibilityScore, error) {
	if aID == "" || bID == "" || aID == bID {
		return character.CompatibilityScore{}, fmt.Errorf("%w: %q/%q", ErrInvalidParticipants, aID, bID)
	}
	a, err := p.loadParticipant(ctx, aID)
	if err != nil {
		return character.CompatibilityScore{}, err
	}
	b, err := p.loadParticipant(ctx, bID)
	if err != nil {
		return character.CompatibilityScore{}, err
	}
	return character.Compatibility(a.Profile, b.Profile)
}

func (p *Processor) loadParticipant(ctx context.Context, id string) (*character.Character, error) {
	c, err := p.store.GetCharacter(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParticipants, id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// scoreSentiment asks the external scorer, degrades to the lexicon,
// and bottoms out at neutral. Never fails the interaction.
func (p *Processor) scoreSentiment(ctx context.Context, content string) float64 {
	if p.scorer != nil {
		sctx, cancel := context.WithTimeout(ctx, p.cfg.SentimentTimeout)
		defer cancel()
		score, err := p.scorer.Score(sctx, content)
		if err == nil {
			return score
		}
		p.logger.Warn("sentiment scorer unavailable, falling back to lexicon", zap.Error(err))
	}
	score, _ := p.fallback.Score(ctx, content)
	return score
}

// generateDialogue asks the generator under a timeout and falls back
// to a deterministic template on any failure. Never returns empty
// text.
func (p *Processor) generateDialogue(ctx context.Context, req *Request, initiator, target *character.Character, targetState character.EmotionalState, rel *relationship.Relationship) string {
	pc := &dialogue.PromptContext{
		TargetName:     target.Name,
		InitiatorName:  initiator.Name,
		TargetProfile:  target.Profile,
		TargetEmotions: targetState,
		Kind:           string(req.Kind),
		Content:        req.Content,
		Strength:       rel.Strength,
		Trust:          rel.Trust,
		Familiarity:    rel.Familiarity,
	}
	if scene, ok := req.Context["scene"].(string); ok {
		pc.Scene = scene
	}

	if history, err := p.store.RecentInteractions(ctx, target.EcosystemID, initiator.ID, target.ID, p.cfg.HistoryWindow); err != nil {
		p.logger.Warn("history window unavailable", zap.Error(err))
	} else {
		// Newest first in storage; the prompt wants oldest first.
		for i := len(history) - 1; i >= 0; i-- {
			h := history[i]
			pc.History = append(pc.History,
				dialogue.HistoryTurn{Speaker: nameFor(h.InitiatorID, initiator, target), Text: h.Content},
				dialogue.HistoryTurn{Speaker: nameFor(h.TargetID, initiator, target), Text: h.Response},
			)
		}
	}

	if p.memories != nil {
		mctx, cancel := context.WithTimeout(ctx, p.cfg.SentimentTimeout)
		related, err := p.memories.Related(mctx, target.EcosystemID, initiator.ID, target.ID, req.Content)
		cancel()
		if err != nil {
			p.logger.Warn("recall unavailable", zap.Error(err))
		} else {
			pc.RelatedMemories = related
		}
	}

	if p.generator != nil {
		gctx, cancel := context.WithTimeout(ctx, p.cfg.GeneratorTimeout)
		defer cancel()
		text, err := p.generator.Generate(gctx, pc)
		if err == nil && text != "" {
			return text
		}
		p.logger.Warn("dialogue generator unavailable, using template",
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
	}
	return p.templates.Render(pc)
}

func (p *Processor) persist(ctx context.Context, initiator, target *character.Character, rel *relationship.Relationship, rec *store.InteractionRecord) error {
	if err := p.store.SaveCharacter(ctx, initiator); err != nil {
		return err
	}
	if err := p.store.SaveCharacter(ctx, target); err != nil {
		return err
	}
	if err := p.store.SaveRelationship(ctx, rel); err != nil {
		return err
	}
	if err := p.store.SaveInteraction(ctx, rec); err != nil {
		return err
	}
	return nil
}

// remember indexes the interaction into semantic memory, best effort.
func (p *Processor) remember(rec *store.InteractionRecord) {
	if p.memories == nil {
		return
	}
	summary := fmt.Sprintf("%s (%s): %q — %q", rec.InitiatorID, rec.Kind, rec.Content, rec.Response)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p.memories.Remember(ctx, rec.ID, rec.EcosystemID, rec.InitiatorID, rec.TargetID, summary)
	}()
}

// announce emits the interaction event, fire and forget.
func (p *Processor) announce(initiator, target *character.Character, rec *store.InteractionRecord, delta relationship.Delta) {
	ev := &notify.Event{
		ID:            rec.ID,
		EcosystemID:   rec.EcosystemID,
		Type:          "interaction",
		InitiatorID:   initiator.ID,
		InitiatorName: initiator.Name,
		TargetID:      target.ID,
		TargetName:    target.Name,
		Kind:          rec.Kind,
		Sentiment:     rec.Sentiment,
		StrengthDelta: delta.StrengthDelta,
		TrustDelta:    delta.TrustDelta,
		NewStrength:   delta.NewStrength,
		NewTrust:      delta.NewTrust,
		Response:      rec.Response,
		OccurredAt:    rec.CreatedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.notifier.Notify(ctx, ev.EcosystemID, ev); err != nil {
			p.logger.Warn("notify failed", zap.String("event", ev.ID), zap.Error(err))
		}
	}()
}

func nameFor(id string, initiator, target *character.Character) string {
	if id == initiator.ID {
		return initiator.Name
	}
	return target.Name
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
