package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agon/internal/agent"
	"agon/internal/model"
)

const (
	defaultEndowment  = 10.0
	defaultMultiplier = 2.0

	// Cooperators contribute most of the endowment, defectors a token
	// amount. A contribution above half the endowment reads as cooperative
	// to the other players.
	coopContributionShare   = 0.8
	defectContributionShare = 0.2
)

type PublicGoodsConfig struct {
	Endowment       float64
	Multiplier      float64
	DecisionTimeout time.Duration
	Logger          *slog.Logger
}

// PublicGoods is the n-player contribution game: every player keeps what it
// does not contribute, the pool is multiplied and split evenly, so
// free-riding beats contributing while full cooperation beats full
// defection.
type PublicGoods struct {
	endowment  float64
	multiplier float64
	timeout    time.Duration
	logger     *slog.Logger

	round               int
	completed           bool
	totals              map[string]float64
	contributionSums    map[string]float64
	actions             []model.ActionRecord
	contributionHistory []map[string]float64
}

func NewPublicGoods(cfg PublicGoodsConfig) *PublicGoods {
	endowment := cfg.Endowment
	if endowment <= 0 {
		endowment = defaultEndowment
	}
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = defaultMultiplier
	}
	return &PublicGoods{
		endowment:  endowment,
		multiplier: multiplier,
		timeout:    timeoutOrDefault(cfg.DecisionTimeout),
		logger:     loggerOrDefault(cfg.Logger),
	}
}

func (g *PublicGoods) Type() model.GameType { return model.GamePublicGoods }

func (g *PublicGoods) Reset() {
	g.round = 0
	g.completed = false
	g.totals = nil
	g.contributionSums = nil
	g.actions = nil
	g.contributionHistory = nil
}

// PlayRound collects concurrent contribution decisions, multiplies and
// splits the pool, and scores each agent's trust against the aggregate
// "public" peer.
func (g *PublicGoods) PlayRound(ctx context.Context, agents []*agent.Agent) (model.RoundResult, error) {
	if g.completed {
		return model.RoundResult{}, errGameCompleted
	}
	if len(agents) < 2 {
		return model.RoundResult{}, fmt.Errorf("public goods requires at least 2 agents, got %d", len(agents))
	}

	if g.totals == nil {
		g.totals = make(map[string]float64, len(agents))
		g.contributionSums = make(map[string]float64, len(agents))
	}
	g.round++
	round := g.round

	reqs := make([]decisionRequest, len(agents))
	for i, a := range agents {
		reqs[i] = decisionRequest{
			agent: a,
			dc: agent.DecisionContext{
				GameType:   g.Type(),
				Round:      round,
				Peers:      peersOf(agents, a),
				Endowment:  g.endowment,
				Multiplier: g.multiplier,
				Players:    len(agents),
			},
			fallback: model.ActionDefect,
		}
	}
	decisions := decideAll(ctx, reqs, g.timeout, g.logger)

	contributions := make(map[string]float64, len(agents))
	var pool float64
	for i, a := range agents {
		share := defectContributionShare
		if decisions[i].Action.Cooperative() {
			share = coopContributionShare
		}
		contribution := g.endowment * share
		contributions[a.Name] = contribution
		pool += contribution
	}
	equalShare := pool * g.multiplier / float64(len(agents))

	payoffs := make(map[string]float64, len(agents))
	for _, a := range agents {
		payoffs[a.Name] = (g.endowment - contributions[a.Name]) + equalShare
	}

	// Trust has no single counterpart here, so each agent scores the
	// aggregate of the others under the synthetic peer name "public".
	for i, a := range agents {
		cooperators := 0
		for name, contribution := range contributions {
			if name != a.Name && contribution > g.endowment*0.5 {
				cooperators++
			}
		}
		publicAction := model.ActionDefect
		if float64(cooperators)/float64(len(agents)-1) > 0.5 {
			publicAction = model.ActionCooperate
		}
		a.UpdateState("public", publicAction, payoffs[a.Name], decisions[i].Action)
	}

	roundActions := make(map[string]model.Action, len(agents))
	roundDecisions := make(map[string]model.Decision, len(agents))
	for i, a := range agents {
		roundActions[a.Name] = decisions[i].Action
		roundDecisions[a.Name] = decisions[i]
		g.actions = append(g.actions, model.ActionRecord{Agent: a.Name, Action: decisions[i].Action})
		g.totals[a.Name] += payoffs[a.Name]
		g.contributionSums[a.Name] += contributions[a.Name]
	}
	g.contributionHistory = append(g.contributionHistory, contributions)

	g.logger.Debug("round complete", "round", round, "pool", pool, "share", equalShare)

	return model.RoundResult{
		Round:     round,
		Actions:   roundActions,
		Payoffs:   payoffs,
		Decisions: roundDecisions,
	}, nil
}

func (g *PublicGoods) Play(ctx context.Context, agents []*agent.Agent, rounds int) (model.GameResult, error) {
	if len(agents) < 2 {
		return model.GameResult{}, fmt.Errorf("public goods requires at least 2 agents, got %d", len(agents))
	}
	if rounds <= 0 {
		return model.GameResult{}, fmt.Errorf("rounds must be positive, got %d", rounds)
	}

	g.Reset()
	g.logger.Info("starting public goods game",
		"agents", len(agents), "rounds", rounds,
		"endowment", g.endowment, "multiplier", g.multiplier)

	for round := 1; round <= rounds; round++ {
		if _, err := g.PlayRound(ctx, agents); err != nil {
			return model.GameResult{}, err
		}
	}
	g.completed = true

	// Cooperation here means money on the table: the mean contributed
	// fraction of the endowment, not an action count.
	cooperationRates := make(map[string]float64, len(agents))
	var rateSum float64
	for _, a := range agents {
		rate := g.contributionSums[a.Name] / (g.endowment * float64(rounds))
		cooperationRates[a.Name] = rate
		rateSum += rate
	}

	var welfare float64
	for _, total := range g.totals {
		welfare += total
	}

	result := model.GameResult{
		GameType:         g.Type(),
		Participants:     agentNames(agents),
		Rounds:           rounds,
		ActionsHistory:   g.actions,
		Payoffs:          g.totals,
		CooperationRates: cooperationRates,
		Winner:           topScorer(g.totals),
		AdditionalMetrics: map[string]any{
			"total_welfare":             welfare,
			"average_contribution_rate": rateSum / float64(len(agents)),
			"contribution_history":      g.contributionHistory,
		},
	}

	g.logger.Info("public goods finished", "winner", result.Winner, "total_welfare", welfare)
	return result, nil
}
