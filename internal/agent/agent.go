package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"agon/internal/model"
	"agon/internal/payoff"
)

// DecisionContext is everything a provider may consult for one round. Games
// fill in the fields that apply; the rest stay zero.
type DecisionContext struct {
	GameType model.GameType
	Round    int // 1-based
	Opponent string
	Peers    []string
	Matrix   *payoff.RewardMatrix

	// Public goods parameters.
	Endowment  float64
	Multiplier float64
	Players    int

	// Knowledge sharing parameters.
	KnowledgeValue float64
	SharingCost    float64
}

// DecisionProvider produces one decision per round. Implementations must
// honor ctx cancellation; the caller enforces a deadline and falls back on
// its own when a provider overruns.
type DecisionProvider interface {
	Decide(ctx context.Context, dc DecisionContext, opponentHistory []model.Action) (model.Decision, error)
}

// OutcomeObserver is implemented by providers that learn from results.
type OutcomeObserver interface {
	ObserveOutcome(mine, theirs model.Action, roundPayoff float64)
}

// Resetter is implemented by providers with per-match memory.
type Resetter interface {
	Reset()
}

// Agent binds a name, accumulated state, and a decision provider. Its mutex
// guarantees at most one in-flight decision or state update per agent even
// when a game fans rounds out across goroutines.
type Agent struct {
	Name     string
	Strategy string

	mu       sync.Mutex
	state    *State
	provider DecisionProvider
}

func New(name, strategy string, provider DecisionProvider) *Agent {
	return &Agent{
		Name:     name,
		Strategy: strategy,
		state:    NewState(),
		provider: provider,
	}
}

// SafeDecide asks the provider for a decision under a deadline. A provider
// error or timeout never aborts the round: the agent plays the fallback
// action with zero confidence and the incident is logged.
func (a *Agent) SafeDecide(ctx context.Context, dc DecisionContext, opponentHistory []model.Action, fallback model.Action, timeout time.Duration, logger *slog.Logger) model.Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		decision model.Decision
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		d, err := a.provider.Decide(ctx, dc, opponentHistory)
		done <- outcome{d, err}
	}()

	var result outcome
	select {
	case result = <-done:
	case <-ctx.Done():
		result = outcome{err: ctx.Err()}
	}

	if result.err != nil {
		if logger != nil {
			logger.Warn("decision failed, using fallback",
				"agent", a.Name,
				"game", string(dc.GameType),
				"round", dc.Round,
				"fallback", string(fallback),
				"error", result.err)
		}
		return model.Decision{
			Action:     fallback,
			Reasoning:  fmt.Sprintf("fallback after decision failure: %v", result.err),
			Confidence: 0,
		}
	}
	if !result.decision.Action.Valid() {
		if logger != nil {
			logger.Warn("provider returned invalid action, using fallback",
				"agent", a.Name,
				"action", string(result.decision.Action),
				"fallback", string(fallback))
		}
		result.decision.Action = fallback
		result.decision.Confidence = 0
	}
	return result.decision
}

// UpdateState records one finished round against a peer and forwards the
// outcome to the provider when it learns from results.
func (a *Agent) UpdateState(peer string, peerAction model.Action, roundPayoff float64, myAction model.Action) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.RecordOutcome(peer, peerAction, roundPayoff)
	if observer, ok := a.provider.(OutcomeObserver); ok {
		observer.ObserveOutcome(myAction, peerAction, roundPayoff)
	}
}

// ReceiveKnowledge adds transferred items to the agent's knowledge base and
// returns how many were new.
func (a *Agent) ReceiveKnowledge(items ...string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.AddKnowledge(items...)
}

func (a *Agent) TrustScore(peer string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.TrustScore(peer)
}

func (a *Agent) PeerActions(peer string) []model.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.PeerActions(peer)
}

func (a *Agent) Knowledge() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Knowledge()
}

// Profile snapshots the agent's accumulated state for persistence and
// reporting.
func (a *Agent) Profile() model.AgentProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.AgentProfile{
		Name:            a.Name,
		Strategy:        a.Strategy,
		TrustScores:     a.state.TrustScores(),
		Reputation:      a.state.Reputation(),
		KnowledgeCount:  a.state.KnowledgeCount(),
		RoundsRecorded:  a.state.RoundsRecorded(),
		AveragePayoff:   a.state.AveragePayoff(),
		CooperationRate: a.state.CooperationRate(""),
	}
}

// Reset clears accumulated state and the provider's per-match memory.
// Idempotent.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Reset()
	if r, ok := a.provider.(Resetter); ok {
		r.Reset()
	}
}
