// Package agon is the embeddable entry point: it wires configuration,
// agents, storage, and artifact writing behind one client so callers do not
// touch the internal packages.
package agon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"agon/internal/config"
	"agon/internal/model"
	"agon/internal/stats"
	"agon/internal/storage"
	"agon/internal/strategy"
	"agon/internal/tournament"
)

type Options struct {
	// ConfigPath points at a YAML experiment config; empty means defaults.
	ConfigPath string

	// StoreKind and DBPath override the configured store backend.
	StoreKind string
	DBPath    string

	// ResultsDir overrides where experiment artifacts land.
	ResultsDir string

	Logger *slog.Logger
}

// Client runs games and experiments over one configured agent roster.
type Client struct {
	cfg         config.Config
	coordinator *tournament.Coordinator
	store       storage.Store
	logger      *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.StoreKind != "" {
		cfg.StoreBackend = opts.StoreKind
	}
	if opts.DBPath != "" {
		cfg.SQLitePath = opts.DBPath
	}
	if opts.ResultsDir != "" {
		cfg.ResultsDir = opts.ResultsDir
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.NewStore(cfg.StoreBackend, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tcfg := tournament.Config{
		Endowment:      cfg.Endowment,
		Multiplier:     cfg.Multiplier,
		KnowledgeValue: cfg.KnowledgeValue,
		SharingCost:    cfg.SharingCost,
		Logger:         logger,
		Store:          store,
		Rand:           rand.New(rand.NewSource(seed)),
	}
	if cfg.RewardMatrix != nil {
		matrix := cfg.RewardMatrix.RewardMatrix()
		tcfg.Matrix = &matrix
	}

	coordinator := tournament.New(tcfg)
	for _, spec := range cfg.Agents {
		if _, err := coordinator.CreateAgent(spec.Name, spec.Strategy, spec.StrategyParams()); err != nil {
			_ = storage.CloseIfSupported(store)
			return nil, err
		}
	}

	return &Client{
		cfg:         cfg,
		coordinator: coordinator,
		store:       store,
		logger:      logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Agents lists the configured agent names in registration order.
func (c *Client) Agents() []string {
	return c.coordinator.Agents()
}

// RunSingleGame plays one match between the named agents.
func (c *Client) RunSingleGame(ctx context.Context, gameType model.GameType, names []string, rounds int) (model.GameResult, error) {
	return c.coordinator.RunSingleGame(ctx, gameType, names, rounds)
}

// RunExperiment runs the configured experiment end to end. When the config
// asks for saved results, the record and a strategy report are written under
// the results directory and agent profiles are persisted to the store.
func (c *Client) RunExperiment(ctx context.Context) (model.ExperimentRecord, error) {
	record, err := c.coordinator.RunExperiment(ctx, tournament.ExperimentConfig{
		GameTypes:   c.cfg.GameTypes(),
		Rounds:      c.cfg.Rounds,
		Repetitions: c.cfg.Repetitions,
		Description: c.cfg.Description,
		SaveResults: c.cfg.SaveResults,
	})
	if err != nil {
		return model.ExperimentRecord{}, err
	}

	if c.cfg.SaveResults {
		if err := stats.WriteExperiment(c.cfg.ResultsDir, record); err != nil {
			return model.ExperimentRecord{}, fmt.Errorf("write experiment artifact: %w", err)
		}
		report := stats.BuildExperimentReport(record)
		path, err := stats.WriteExperimentReport(c.cfg.ResultsDir, report)
		if err != nil {
			return model.ExperimentRecord{}, fmt.Errorf("write report: %w", err)
		}
		if err := c.SaveAgentProfiles(ctx); err != nil {
			return model.ExperimentRecord{}, err
		}
		c.logger.Info("artifacts written", "dir", c.cfg.ResultsDir, "report", path)
	}
	return record, nil
}

// SaveAgentProfiles snapshots every agent's accumulated state to the store.
func (c *Client) SaveAgentProfiles(ctx context.Context) error {
	for name, profile := range c.coordinator.AgentStatistics() {
		if err := c.store.SaveAgentProfile(ctx, profile); err != nil {
			return fmt.Errorf("save profile %s: %w", name, err)
		}
	}
	return nil
}

// AgentProfile reads one persisted agent profile back from the store.
func (c *Client) AgentProfile(ctx context.Context, name string) (model.AgentProfile, bool, error) {
	return c.store.GetAgentProfile(ctx, name)
}

// AgentStatistics snapshots the live (unpersisted) agent state.
func (c *Client) AgentStatistics() map[string]model.AgentProfile {
	return c.coordinator.AgentStatistics()
}

// Experiments lists experiment artifacts from the results directory,
// newest first.
func (c *Client) Experiments() ([]model.ExperimentRecord, error) {
	return stats.ListExperiments(c.cfg.ResultsDir)
}

// Experiment fetches one persisted experiment from the store.
func (c *Client) Experiment(ctx context.Context, id string) (model.ExperimentRecord, bool, error) {
	return c.store.GetExperiment(ctx, id)
}

// ResetAgents returns every agent to its initial state.
func (c *Client) ResetAgents() {
	c.coordinator.ResetAllAgents()
}

// Strategies lists the available strategy names.
func Strategies() []string {
	return strategy.Names()
}
