// Package tournament coordinates matches between registered agents: single
// games, pairwise round-robin tournaments, and multi-game experiments with
// persisted results.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"agon/internal/agent"
	"agon/internal/game"
	"agon/internal/model"
	"agon/internal/payoff"
	"agon/internal/strategy"
)

var (
	ErrAgentExists   = errors.New("agent already registered")
	ErrAgentNotFound = errors.New("agent not found")
)

// Store persists finished experiments. The coordinator only needs the write
// side; nil disables persistence.
type Store interface {
	SaveExperiment(ctx context.Context, record model.ExperimentRecord) error
}

// Config carries the shared game parameters and ambient wiring. Zero values
// defer to each game's defaults.
type Config struct {
	Matrix         *payoff.RewardMatrix
	Endowment      float64
	Multiplier     float64
	KnowledgeValue float64
	SharingCost    float64

	DecisionTimeout time.Duration
	Logger          *slog.Logger
	Store           Store
	Rand            *rand.Rand
}

// ExperimentConfig describes one experiment run: which games, how long, and
// how often each pairing repeats.
type ExperimentConfig struct {
	GameTypes   []model.GameType
	Rounds      int
	Repetitions int
	Description string
	SaveResults bool
}

// Coordinator owns the agent registry and runs games over it. Registration
// order is preserved so tournaments pair agents deterministically.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	agents map[string]*agent.Agent
	order  []string
}

func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cfg:    cfg,
		logger: logger,
		agents: make(map[string]*agent.Agent),
	}
}

// Register adds an agent under its name. Registering a second agent with the
// same name is reported, never silently replaced.
func (c *Coordinator) Register(a *agent.Agent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.agents[a.Name]; ok {
		return fmt.Errorf("%w: %s", ErrAgentExists, a.Name)
	}
	c.agents[a.Name] = a
	c.order = append(c.order, a.Name)
	c.logger.Info("registered agent", "name", a.Name, "strategy", a.Strategy)
	return nil
}

// CreateAgent builds a strategy-backed agent and registers it.
func (c *Coordinator) CreateAgent(name, strategyName string, params strategy.Params) (*agent.Agent, error) {
	if params.Rand == nil && c.cfg.Rand != nil {
		params.Rand = rand.New(rand.NewSource(c.cfg.Rand.Int63()))
	}
	a, err := agent.NewStrategyAgent(name, strategyName, params)
	if err != nil {
		return nil, err
	}
	if err := c.Register(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Agents lists registered agent names in registration order.
func (c *Coordinator) Agents() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Coordinator) lookup(names []string) ([]*agent.Agent, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	agents := make([]*agent.Agent, 0, len(names))
	for _, name := range names {
		a, ok := c.agents[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// newGame builds a fresh game instance so per-match history never leaks
// between runs.
func (c *Coordinator) newGame(gameType model.GameType) (game.Game, error) {
	switch gameType {
	case model.GamePrisonersDilemma:
		return game.NewPrisonersDilemma(game.PrisonersDilemmaConfig{
			Matrix:          c.cfg.Matrix,
			DecisionTimeout: c.cfg.DecisionTimeout,
			Logger:          c.logger,
		}), nil
	case model.GamePublicGoods:
		return game.NewPublicGoods(game.PublicGoodsConfig{
			Endowment:       c.cfg.Endowment,
			Multiplier:      c.cfg.Multiplier,
			DecisionTimeout: c.cfg.DecisionTimeout,
			Logger:          c.logger,
		}), nil
	case model.GameKnowledgeSharing:
		return game.NewKnowledgeSharing(game.KnowledgeSharingConfig{
			KnowledgeValue:  c.cfg.KnowledgeValue,
			SharingCost:     c.cfg.SharingCost,
			DecisionTimeout: c.cfg.DecisionTimeout,
			Logger:          c.logger,
			Rand:            c.cfg.Rand,
		}), nil
	default:
		return nil, fmt.Errorf("unknown game type: %s", gameType)
	}
}

// RunSingleGame plays one match between the named agents.
func (c *Coordinator) RunSingleGame(ctx context.Context, gameType model.GameType, names []string, rounds int) (model.GameResult, error) {
	g, err := c.newGame(gameType)
	if err != nil {
		return model.GameResult{}, err
	}
	agents, err := c.lookup(names)
	if err != nil {
		return model.GameResult{}, err
	}
	if len(agents) < 2 {
		return model.GameResult{}, fmt.Errorf("need at least 2 agents, got %d", len(agents))
	}

	c.logger.Info("starting game", "type", string(gameType), "agents", names, "rounds", rounds)
	result, err := g.Play(ctx, agents, rounds)
	if err != nil {
		return model.GameResult{}, fmt.Errorf("play %s: %w", gameType, err)
	}
	return result, nil
}

// RunTournament plays every unordered pair of registered agents the given
// number of times. A failed match is recorded and the tournament carries on.
func (c *Coordinator) RunTournament(ctx context.Context, gameType model.GameType, rounds, repetitions int) ([]model.GameResult, []model.MatchFailure, error) {
	if repetitions <= 0 {
		repetitions = 1
	}
	names := c.Agents()
	if len(names) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 agents for a tournament, got %d", len(names))
	}

	totalMatches := len(names) * (len(names) - 1) / 2 * repetitions
	c.logger.Info("starting tournament",
		"type", string(gameType), "agents", len(names),
		"rounds", rounds, "repetitions", repetitions, "matches", totalMatches)

	var results []model.GameResult
	var failures []model.MatchFailure
	matchNumber := 0

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			pair := []string{names[i], names[j]}
			for rep := 1; rep <= repetitions; rep++ {
				matchNumber++
				result, err := c.RunSingleGame(ctx, gameType, pair, rounds)
				if err != nil {
					c.logger.Error("match failed",
						"match", matchNumber, "agents", pair, "error", err)
					failures = append(failures, model.MatchFailure{
						GameType:     gameType,
						Participants: pair,
						Repetition:   rep,
						Error:        err.Error(),
					})
					continue
				}

				if result.AdditionalMetrics == nil {
					result.AdditionalMetrics = make(map[string]any)
				}
				result.AdditionalMetrics["tournament_match"] = fmt.Sprintf("%s_vs_%s", names[i], names[j])
				result.AdditionalMetrics["repetition"] = rep
				result.AdditionalMetrics["match_number"] = matchNumber
				result.AdditionalMetrics["total_matches"] = totalMatches
				results = append(results, result)
			}
		}
	}

	c.logger.Info("tournament completed",
		"type", string(gameType), "matches", len(results), "failures", len(failures))
	return results, failures, nil
}

// RunExperiment runs one tournament per configured game type and assembles
// the experiment record. With SaveResults set and a store configured, the
// record is persisted before it is returned.
func (c *Coordinator) RunExperiment(ctx context.Context, expCfg ExperimentConfig) (model.ExperimentRecord, error) {
	if len(expCfg.GameTypes) == 0 {
		return model.ExperimentRecord{}, errors.New("experiment needs at least one game type")
	}

	record := model.ExperimentRecord{
		ID:           uuid.NewString(),
		Description:  expCfg.Description,
		StartedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Agents:       c.agentStrategies(),
		Results:      make(map[model.GameType][]model.GameResult, len(expCfg.GameTypes)),
	}

	c.logger.Info("starting experiment", "id", record.ID, "game_types", len(expCfg.GameTypes))

	for _, gameType := range expCfg.GameTypes {
		results, failures, err := c.RunTournament(ctx, gameType, expCfg.Rounds, expCfg.Repetitions)
		if err != nil {
			return model.ExperimentRecord{}, fmt.Errorf("experiment %s: %w", record.ID, err)
		}
		record.Results[gameType] = results
		record.Failures = append(record.Failures, failures...)
	}

	record.CompletedAtUTC = time.Now().UTC().Format(time.RFC3339)

	if expCfg.SaveResults && c.cfg.Store != nil {
		if err := c.cfg.Store.SaveExperiment(ctx, record); err != nil {
			return model.ExperimentRecord{}, fmt.Errorf("save experiment %s: %w", record.ID, err)
		}
		c.logger.Info("experiment saved", "id", record.ID)
	}

	c.logger.Info("experiment completed", "id", record.ID, "failures", len(record.Failures))
	return record, nil
}

func (c *Coordinator) agentStrategies() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.agents))
	for name, a := range c.agents {
		out[name] = a.Strategy
	}
	return out
}

// AgentStatistics snapshots every registered agent's accumulated state,
// keyed by name.
func (c *Coordinator) AgentStatistics() map[string]model.AgentProfile {
	c.mu.RLock()
	agents := make([]*agent.Agent, 0, len(c.agents))
	for _, a := range c.agents {
		agents = append(agents, a)
	}
	c.mu.RUnlock()

	stats := make(map[string]model.AgentProfile, len(agents))
	for _, a := range agents {
		stats[a.Name] = a.Profile()
	}
	return stats
}

// ResetAllAgents returns every agent to its initial state. Idempotent.
func (c *Coordinator) ResetAllAgents() {
	c.mu.RLock()
	agents := make([]*agent.Agent, 0, len(c.agents))
	for _, a := range c.agents {
		agents = append(agents, a)
	}
	c.mu.RUnlock()

	for _, a := range agents {
		a.Reset()
	}
	c.logger.Info("all agents reset", "count", len(agents))
}
