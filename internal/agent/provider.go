package agent

import (
	"context"
	"fmt"

	"agon/internal/model"
	"agon/internal/strategy"
)

// StrategyProvider adapts an in-process strategy to the DecisionProvider
// interface. It is the default provider; external providers (scripted or
// model-backed) satisfy the same interface.
type StrategyProvider struct {
	strategy strategy.Strategy
}

func NewStrategyProvider(s strategy.Strategy) *StrategyProvider {
	return &StrategyProvider{strategy: s}
}

// Decide maps the 1-based game round onto the strategy's 0-based round
// numbering and feeds it the opponent's most recent action.
func (p *StrategyProvider) Decide(ctx context.Context, dc DecisionContext, opponentHistory []model.Action) (model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return model.Decision{}, err
	}

	var last model.Action
	if len(opponentHistory) > 0 {
		last = opponentHistory[len(opponentHistory)-1]
	}
	round := dc.Round - 1
	if round < 0 {
		round = 0
	}

	action := p.strategy.Decide(round, last, nil)
	return model.Decision{
		Action:     action,
		Reasoning:  fmt.Sprintf("%s policy, round %d", p.strategy.Name(), dc.Round),
		Confidence: p.confidence(),
	}, nil
}

// confidence reflects how deterministic the policy is, mirroring the
// conventions of the scripted agents this provider replaces.
func (p *StrategyProvider) confidence() float64 {
	switch p.strategy.Name() {
	case strategy.NameAlwaysCooperate, strategy.NameAlwaysDefect, strategy.NameGrudger:
		return 0.9
	case strategy.NameRandom:
		return 0.5
	case strategy.NameAdaptive:
		return 0.6
	default:
		return 0.8
	}
}

func (p *StrategyProvider) ObserveOutcome(mine, theirs model.Action, roundPayoff float64) {
	p.strategy.Observe(mine, theirs, roundPayoff)
}

func (p *StrategyProvider) Reset() {
	p.strategy.Reset()
}

// NewStrategyAgent is the common construction path: build the named strategy
// and wrap it in an agent.
func NewStrategyAgent(name, strategyName string, params strategy.Params) (*Agent, error) {
	s, err := strategy.New(strategyName, params)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}
	return New(name, s.Name(), NewStrategyProvider(s)), nil
}
