package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agon/internal/agent"
	"agon/internal/model"
	"agon/internal/payoff"
)

// PrisonersDilemmaConfig configures a two-player iterated dilemma. A nil
// matrix means the standard (3,3)/(0,5)/(5,0)/(1,1) payoffs.
type PrisonersDilemmaConfig struct {
	Matrix          *payoff.RewardMatrix
	DecisionTimeout time.Duration
	Logger          *slog.Logger
}

// PrisonersDilemma is the iterated two-player dilemma. Either player's
// decision may carry knowledge items, which transfer to the opponent
// unconditionally.
type PrisonersDilemma struct {
	calc    *payoff.Calculator
	timeout time.Duration
	logger  *slog.Logger

	round     int
	completed bool
	history   []payoff.ActionPair
	actions   []model.ActionRecord
	totals    map[string]float64
}

func NewPrisonersDilemma(cfg PrisonersDilemmaConfig) *PrisonersDilemma {
	matrix := payoff.Standard()
	if cfg.Matrix != nil {
		matrix = *cfg.Matrix
	}
	return &PrisonersDilemma{
		calc:    payoff.NewCalculator(matrix),
		timeout: timeoutOrDefault(cfg.DecisionTimeout),
		logger:  loggerOrDefault(cfg.Logger),
	}
}

func (g *PrisonersDilemma) Type() model.GameType { return model.GamePrisonersDilemma }

// Reset clears the match-local round counter and history.
func (g *PrisonersDilemma) Reset() {
	g.round = 0
	g.completed = false
	g.history = nil
	g.actions = nil
	g.totals = nil
}

// PlayRound advances the match one round: both decisions are requested
// concurrently, payoffs applied, and any attached knowledge transferred.
func (g *PrisonersDilemma) PlayRound(ctx context.Context, agents []*agent.Agent) (model.RoundResult, error) {
	if g.completed {
		return model.RoundResult{}, errGameCompleted
	}
	if len(agents) != 2 {
		return model.RoundResult{}, fmt.Errorf("prisoners dilemma requires exactly 2 agents, got %d", len(agents))
	}

	a1, a2 := agents[0], agents[1]
	if g.totals == nil {
		g.totals = map[string]float64{a1.Name: 0, a2.Name: 0}
	}
	g.round++
	round := g.round

	history1 := make([]model.Action, 0, len(g.history))
	history2 := make([]model.Action, 0, len(g.history))
	for _, pair := range g.history {
		history1 = append(history1, pair.Second) // a1 sees a2's actions
		history2 = append(history2, pair.First)
	}

	matrix := g.calc.Matrix
	decisions := decideAll(ctx, []decisionRequest{
		{
			agent:    a1,
			dc:       agent.DecisionContext{GameType: g.Type(), Round: round, Opponent: a2.Name, Matrix: &matrix},
			history:  history1,
			fallback: model.ActionDefect,
		},
		{
			agent:    a2,
			dc:       agent.DecisionContext{GameType: g.Type(), Round: round, Opponent: a1.Name, Matrix: &matrix},
			history:  history2,
			fallback: model.ActionDefect,
		},
	}, g.timeout, g.logger)

	action1, action2 := decisions[0].Action, decisions[1].Action
	p1, p2 := g.calc.RoundPayoffs(action1, action2)

	a1.UpdateState(a2.Name, action2, p1, action1)
	a2.UpdateState(a1.Name, action1, p2, action2)

	transferred := make(map[string][]string)
	if len(decisions[0].KnowledgeToShare) > 0 {
		a2.ReceiveKnowledge(decisions[0].KnowledgeToShare...)
		transferred[a1.Name] = decisions[0].KnowledgeToShare
	}
	if len(decisions[1].KnowledgeToShare) > 0 {
		a1.ReceiveKnowledge(decisions[1].KnowledgeToShare...)
		transferred[a2.Name] = decisions[1].KnowledgeToShare
	}

	g.history = append(g.history, payoff.ActionPair{First: action1, Second: action2})
	g.actions = append(g.actions,
		model.ActionRecord{Agent: a1.Name, Action: action1},
		model.ActionRecord{Agent: a2.Name, Action: action2})
	g.totals[a1.Name] += p1
	g.totals[a2.Name] += p2

	g.logger.Debug("round complete",
		"round", round,
		a1.Name, string(action1), a2.Name, string(action2),
		"payoffs", fmt.Sprintf("%.1f/%.1f", p1, p2))

	return model.RoundResult{
		Round:                round,
		Actions:              map[string]model.Action{a1.Name: action1, a2.Name: action2},
		Payoffs:              map[string]float64{a1.Name: p1, a2.Name: p2},
		Decisions:            map[string]model.Decision{a1.Name: decisions[0], a2.Name: decisions[1]},
		KnowledgeTransferred: transferred,
	}, nil
}

// Play runs a fresh full match and returns the write-once result snapshot.
func (g *PrisonersDilemma) Play(ctx context.Context, agents []*agent.Agent, rounds int) (model.GameResult, error) {
	if len(agents) != 2 {
		return model.GameResult{}, fmt.Errorf("prisoners dilemma requires exactly 2 agents, got %d", len(agents))
	}
	if rounds <= 0 {
		return model.GameResult{}, fmt.Errorf("rounds must be positive, got %d", rounds)
	}

	a1, a2 := agents[0], agents[1]
	g.Reset()
	g.logger.Info("starting prisoners dilemma",
		"agent1", a1.Name, "agent2", a2.Name, "rounds", rounds)

	for round := 1; round <= rounds; round++ {
		if _, err := g.PlayRound(ctx, agents); err != nil {
			return model.GameResult{}, err
		}
	}
	g.completed = true

	actions1 := make([]model.Action, 0, len(g.history))
	actions2 := make([]model.Action, 0, len(g.history))
	for _, pair := range g.history {
		actions1 = append(actions1, pair.First)
		actions2 = append(actions2, pair.Second)
	}

	winner := topScorer(g.totals)
	if g.totals[a1.Name] == g.totals[a2.Name] {
		winner = ""
	}

	result := model.GameResult{
		GameType:       g.Type(),
		Participants:   agentNames(agents),
		Rounds:         rounds,
		ActionsHistory: g.actions,
		Payoffs:        g.totals,
		CooperationRates: map[string]float64{
			a1.Name: payoff.CooperationRate(actions1),
			a2.Name: payoff.CooperationRate(actions2),
		},
		Winner:            winner,
		AdditionalMetrics: g.calc.Analyze(g.history, a1.Name, a2.Name),
	}

	g.logger.Info("prisoners dilemma finished",
		"winner", winnerLabel(winner),
		a1.Name, g.totals[a1.Name], a2.Name, g.totals[a2.Name])
	return result, nil
}

func winnerLabel(winner string) string {
	if winner == "" {
		return "tie"
	}
	return winner
}
