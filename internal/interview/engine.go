// Package interview implements the interview conversation engine: the
// phase state machine, exhibit rationing, grounding instruction
// construction and completion decision for one candidate turn.
package interview

import (
	"context"
	"log/slog"
	"time"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/generation"
)

// StepResult is everything one processed candidate turn produced. Session
// carries the post-step field values; the caller commits them together with
// the assistant turn, or discards everything on failure.
type StepResult struct {
	Reply          string
	Session        models.InterviewSession
	GrantedExhibit *models.Exhibit
	// Instruction is the rendered grounding instruction, empty when the
	// reply was deterministic (exhibit grant, closing utterance).
	Instruction string
}

// Engine evaluates one candidate turn against the transition table. It
// never touches storage and never mutates its inputs: on any error the
// session the caller holds is exactly what it was before the attempt.
type Engine struct {
	policy      TransitionPolicy
	classifier  ExhibitClassifier
	provider    generation.Provider
	timeout     time.Duration
	maxExhibits int
	now         func() time.Time
	logger      *slog.Logger
}

// NewEngine creates an engine with the default policy and classifier.
func NewEngine(provider generation.Provider, timeout time.Duration, maxExhibits int, logger *slog.Logger) *Engine {
	return &Engine{
		policy:      NewKeywordPolicy(),
		classifier:  NewKeywordExhibitClassifier(),
		provider:    provider,
		timeout:     timeout,
		maxExhibits: maxExhibits,
		now:         time.Now,
		logger:      logger,
	}
}

// WithPolicy replaces the transition policy.
func (e *Engine) WithPolicy(p TransitionPolicy) *Engine {
	e.policy = p
	return e
}

// WithClassifier replaces the exhibit request classifier.
func (e *Engine) WithClassifier(c ExhibitClassifier) *Engine {
	e.classifier = c
	return e
}

// WithClock replaces the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Step processes one candidate utterance. Transition priority, evaluated
// once per turn:
//
//  1. conclusion phase with at least one exchange -> terminal transition,
//     fixed closing utterance, no generation call
//  2. exhibit request -> grant next exhibit in order, or generate with the
//     exhaustion directive once the budget is spent
//  3. mode/phase heuristics -> advance to the next phase, or stay
//
// history is the recent conversation (oldest first) including the current
// utterance as its last entry.
func (e *Engine) Step(ctx context.Context, session *models.InterviewSession, c *models.Case, utterance string, history []generation.Message) (*StepResult, error) {
	if session.Completed() {
		return nil, &domain.ValidationError{Message: domain.ErrSessionCompleted.Error()}
	}

	// Work on a copy; nothing below mutates the caller's session.
	next := *session
	next.TurnCount++
	next.PhaseTurnCount++

	if next.Status == models.StatusNotStarted {
		started := e.now()
		next.Status = models.StatusInProgress
		next.StartedAt = &started
	}

	// 1. Deterministic termination out of conclusion.
	if next.Phase == models.PhaseConclusion && next.PhaseTurnCount >= 1 {
		completed := e.now()
		next.Phase = models.PhaseCompleted
		next.Status = models.StatusCompleted
		next.CompletedAt = &completed
		next.PhaseTurnCount = 0

		e.logger.Info("interview completed",
			"session_id", session.ID,
			"turn_count", next.TurnCount,
		)

		return &StepResult{Reply: ClosingUtterance, Session: next}, nil
	}

	effectiveMax := min(len(c.Exhibits), e.maxExhibits)

	// 2. Exhibit request handling.
	if e.classifier.IsExhibitRequest(utterance) {
		if len(c.Exhibits) == 0 {
			return &StepResult{
				Reply:   "I don't have any additional exhibits for this case.",
				Session: next,
			}, nil
		}

		if next.ExhibitsReleased < effectiveMax {
			granted := c.Exhibits[next.ExhibitsReleased]
			next.ExhibitsReleased++

			reply := FormatExhibit(granted, next.ExhibitsReleased, effectiveMax)

			// Releasing the final exhibit nudges the interview forward
			// unless a keyword transition already fires this turn.
			if next.ExhibitsReleased == effectiveMax &&
				next.Phase != models.PhaseConclusion &&
				!e.policy.Advance(next.Phase, utterance, next.PhaseTurnCount) {
				next.Phase = models.NextPhase(next.Phase)
				next.PhaseTurnCount = 0
			}

			e.logger.Info("exhibit released",
				"session_id", session.ID,
				"exhibit", granted.Title,
				"released", next.ExhibitsReleased,
				"max", effectiveMax,
			)

			return &StepResult{Reply: reply, Session: next, GrantedExhibit: &granted}, nil
		}

		// Budget spent: the reply is generated, but the instruction
		// carries the exhaustion directive so the persona refuses to
		// invent data.
		return e.generate(ctx, &next, c, utterance, history, effectiveMax, true)
	}

	// 3. Phase heuristics and a normal generated reply.
	return e.generate(ctx, &next, c, utterance, history, effectiveMax, false)
}

// generate evaluates the transition policy, renders the grounding
// instruction and calls the provider. The phase transition is applied to
// the result only after generation succeeds.
func (e *Engine) generate(ctx context.Context, next *models.InterviewSession, c *models.Case, utterance string, history []generation.Message, effectiveMax int, exhausted bool) (*StepResult, error) {
	advance := e.policy.Advance(next.Phase, utterance, next.PhaseTurnCount)
	nextPhase := models.NextPhase(next.Phase)

	instruction := Instruction{
		Case:             c,
		Mode:             next.Mode,
		Phase:            next.Phase,
		ReleasedExhibits: c.Exhibits[:next.ExhibitsReleased],
		MaxExhibits:      effectiveMax,
		Transitioning:    advance,
		NextPhase:        nextPhase,
		Exhausted:        exhausted,
	}
	rendered := instruction.Render()

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.provider.Generate(genCtx, &generation.Request{
		Instruction: rendered,
		History:     history,
	})
	if err != nil {
		e.logger.Warn("generation failed, session state unchanged",
			"session_id", next.ID,
			"phase", next.Phase,
			"error", err,
		)
		return nil, err
	}

	if advance {
		e.logger.Info("phase transition",
			"session_id", next.ID,
			"from", next.Phase,
			"to", nextPhase,
		)
		next.Phase = nextPhase
		next.PhaseTurnCount = 0
	}

	return &StepResult{Reply: resp.Text, Session: *next, Instruction: rendered}, nil
}
