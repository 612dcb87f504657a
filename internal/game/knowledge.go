package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"agon/internal/agent"
	"agon/internal/model"
)

const (
	defaultKnowledgeValue = 2.0
	defaultSharingCost    = 0.5

	// Transfers only land when the sharer trusts the receiver above this.
	sharingTrustThreshold = 0.3

	// Agents below this knowledge count get seeded a fresh item each round.
	seedKnowledgeFloor = 3

	// A cooperative decision with no explicit items offers this many from
	// the agent's own base.
	defaultShareCount = 3
)

// topicPool is the stock of seedable knowledge topics.
var topicPool = []string{
	"cache eviction tuning",
	"query planning heuristics",
	"replication backoff policy",
	"load shedding thresholds",
	"batch compaction scheme",
	"index pruning schedule",
	"snapshot restore drill",
	"failure triage checklist",
}

type KnowledgeSharingConfig struct {
	KnowledgeValue  float64
	SharingCost     float64
	DecisionTimeout time.Duration
	Logger          *slog.Logger

	// Rand drives topic seeding; nil means a time-seeded source.
	Rand *rand.Rand
}

// KnowledgeSharing is the trust-gated transfer game. Sharing costs the
// sharer per item offered; a receiver only benefits when the sharer's trust
// in that receiver clears the threshold, so early defection starves an agent
// of later transfers.
type KnowledgeSharing struct {
	knowledgeValue float64
	sharingCost    float64
	timeout        time.Duration
	logger         *slog.Logger
	rng            *rand.Rand

	round         int
	completed     bool
	totals        map[string]float64
	sharingRounds map[string]int
	actions       []model.ActionRecord
	totalShared   int
}

func NewKnowledgeSharing(cfg KnowledgeSharingConfig) *KnowledgeSharing {
	value := cfg.KnowledgeValue
	if value <= 0 {
		value = defaultKnowledgeValue
	}
	cost := cfg.SharingCost
	if cost <= 0 {
		cost = defaultSharingCost
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &KnowledgeSharing{
		knowledgeValue: value,
		sharingCost:    cost,
		timeout:        timeoutOrDefault(cfg.DecisionTimeout),
		logger:         loggerOrDefault(cfg.Logger),
		rng:            rng,
	}
}

func (g *KnowledgeSharing) Type() model.GameType { return model.GameKnowledgeSharing }

func (g *KnowledgeSharing) Reset() {
	g.round = 0
	g.completed = false
	g.totals = nil
	g.sharingRounds = nil
	g.actions = nil
	g.totalShared = 0
}

// PlayRound seeds knowledge-poor agents, collects concurrent share/withhold
// decisions, applies costs and trust-gated transfers, and updates per-peer
// agent state.
func (g *KnowledgeSharing) PlayRound(ctx context.Context, agents []*agent.Agent) (model.RoundResult, error) {
	if g.completed {
		return model.RoundResult{}, errGameCompleted
	}
	if len(agents) < 2 {
		return model.RoundResult{}, fmt.Errorf("knowledge sharing requires at least 2 agents, got %d", len(agents))
	}

	if g.totals == nil {
		g.totals = make(map[string]float64, len(agents))
		g.sharingRounds = make(map[string]int, len(agents))
	}
	g.round++
	round := g.round

	for i, a := range agents {
		if len(a.Knowledge()) < seedKnowledgeFloor {
			topic := topicPool[g.rng.Intn(len(topicPool))]
			a.ReceiveKnowledge(fmt.Sprintf("note_%d_%d: %s", round, i, topic))
		}
	}

	reqs := make([]decisionRequest, len(agents))
	for i, a := range agents {
		reqs[i] = decisionRequest{
			agent: a,
			dc: agent.DecisionContext{
				GameType:       g.Type(),
				Round:          round,
				Peers:          peersOf(agents, a),
				KnowledgeValue: g.knowledgeValue,
				SharingCost:    g.sharingCost,
			},
			fallback: model.ActionWithholdKnowledge,
		}
	}
	decisions := decideAll(ctx, reqs, g.timeout, g.logger)

	shared := make(map[string][]string, len(agents))
	for i, a := range agents {
		items := decisions[i].KnowledgeToShare
		if len(items) == 0 && decisions[i].Action.Cooperative() {
			items = a.Knowledge()
			if len(items) > defaultShareCount {
				items = items[:defaultShareCount]
			}
		}
		if !decisions[i].Action.Cooperative() {
			items = nil
		}
		shared[a.Name] = items
	}

	// Sharing costs the sharer per item offered; the benefit only lands
	// where the sharer's trust clears the threshold.
	payoffs := make(map[string]float64, len(agents))
	received := make(map[string][]string, len(agents))
	for _, a := range agents {
		p := -g.sharingCost * float64(len(shared[a.Name]))
		for _, other := range agents {
			if other == a || len(shared[other.Name]) == 0 {
				continue
			}
			if other.TrustScore(a.Name) > sharingTrustThreshold {
				received[a.Name] = append(received[a.Name], shared[other.Name]...)
				p += g.knowledgeValue * float64(len(shared[other.Name]))
			}
		}
		payoffs[a.Name] = p
	}

	for _, a := range agents {
		if len(received[a.Name]) > 0 {
			a.ReceiveKnowledge(received[a.Name]...)
		}
	}

	for i, a := range agents {
		for _, other := range agents {
			if other == a {
				continue
			}
			peerAction := model.ActionWithholdKnowledge
			if len(shared[other.Name]) > 0 {
				peerAction = model.ActionShareKnowledge
			}
			a.UpdateState(other.Name, peerAction, payoffs[a.Name], decisions[i].Action)
		}
	}

	roundActions := make(map[string]model.Action, len(agents))
	roundDecisions := make(map[string]model.Decision, len(agents))
	transferred := make(map[string][]string, len(agents))
	for i, a := range agents {
		action := model.ActionWithholdKnowledge
		if len(shared[a.Name]) > 0 {
			action = model.ActionShareKnowledge
			g.sharingRounds[a.Name]++
			transferred[a.Name] = shared[a.Name]
		}
		roundActions[a.Name] = action
		roundDecisions[a.Name] = decisions[i]
		g.actions = append(g.actions, model.ActionRecord{Agent: a.Name, Action: action})
		g.totals[a.Name] += payoffs[a.Name]
		g.totalShared += len(shared[a.Name])
	}

	g.logger.Debug("round complete", "round", round, "items_shared", g.totalShared)

	return model.RoundResult{
		Round:                round,
		Actions:              roundActions,
		Payoffs:              payoffs,
		Decisions:            roundDecisions,
		KnowledgeTransferred: transferred,
	}, nil
}

func (g *KnowledgeSharing) Play(ctx context.Context, agents []*agent.Agent, rounds int) (model.GameResult, error) {
	if len(agents) < 2 {
		return model.GameResult{}, fmt.Errorf("knowledge sharing requires at least 2 agents, got %d", len(agents))
	}
	if rounds <= 0 {
		return model.GameResult{}, fmt.Errorf("rounds must be positive, got %d", rounds)
	}

	g.Reset()
	g.logger.Info("starting knowledge sharing game",
		"agents", len(agents), "rounds", rounds,
		"knowledge_value", g.knowledgeValue, "sharing_cost", g.sharingCost)

	for round := 1; round <= rounds; round++ {
		if _, err := g.PlayRound(ctx, agents); err != nil {
			return model.GameResult{}, err
		}
	}
	g.completed = true

	cooperationRates := make(map[string]float64, len(agents))
	finalCounts := make(map[string]int, len(agents))
	var rateSum float64
	for _, a := range agents {
		rate := float64(g.sharingRounds[a.Name]) / float64(rounds)
		cooperationRates[a.Name] = rate
		rateSum += rate
		finalCounts[a.Name] = len(a.Knowledge())
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
			"total_knowledge_shared": g.totalShared,
			"final_knowledge_counts": finalCounts,
			"average_sharing_rate":   rateSum / float64(len(agents)),
		},
	}

	g.logger.Info("knowledge sharing finished",
		"winner", result.Winner, "total_knowledge_shared", g.totalShared)
	return result, nil
}
