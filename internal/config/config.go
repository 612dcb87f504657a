// Package config loads experiment configuration from YAML: which agents to
// field, which games to run, and the game parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"agon/internal/model"
	"agon/internal/payoff"
	"agon/internal/strategy"
)

// StrategyParams are the tunables of the stochastic and adaptive strategies.
// Omitted keys defer to each strategy's defaults; an explicit 0 is honored.
type StrategyParams struct {
	CooperationProbability *float64 `yaml:"cooperation_probability"`
	ForgivenessProbability *float64 `yaml:"forgiveness_probability"`
	WinThreshold           *float64 `yaml:"win_threshold"`
	LearningRate           *float64 `yaml:"learning_rate"`
	ExplorationRate        *float64 `yaml:"exploration_rate"`
}

type AgentSpec struct {
	Name     string         `yaml:"name"`
	Strategy string         `yaml:"strategy"`
	Params   StrategyParams `yaml:"params"`
}

// MatrixSpec mirrors payoff.RewardMatrix with YAML field names.
type MatrixSpec struct {
	CooperateCooperate [2]float64 `yaml:"cooperate_cooperate"`
	CooperateDefect    [2]float64 `yaml:"cooperate_defect"`
	DefectCooperate    [2]float64 `yaml:"defect_cooperate"`
	DefectDefect       [2]float64 `yaml:"defect_defect"`
}

func (m MatrixSpec) RewardMatrix() payoff.RewardMatrix {
	return payoff.RewardMatrix{
		CooperateCooperate: payoff.Pair(m.CooperateCooperate),
		CooperateDefect:    payoff.Pair(m.CooperateDefect),
		DefectCooperate:    payoff.Pair(m.DefectCooperate),
		DefectDefect:       payoff.Pair(m.DefectDefect),
	}
}

type Config struct {
	Description string   `yaml:"description"`
	Games       []string `yaml:"games"`
	Rounds      int      `yaml:"rounds"`
	Repetitions int      `yaml:"repetitions"`
	Seed        int64    `yaml:"seed"`

	Endowment      float64 `yaml:"endowment"`
	Multiplier     float64 `yaml:"multiplier"`
	KnowledgeValue float64 `yaml:"knowledge_value"`
	SharingCost    float64 `yaml:"sharing_cost"`

	RewardMatrix *MatrixSpec `yaml:"reward_matrix"`
	Agents       []AgentSpec `yaml:"agents"`

	SaveResults  bool   `yaml:"save_results"`
	ResultsDir   string `yaml:"results_dir"`
	StoreBackend string `yaml:"store_backend"`
	SQLitePath   string `yaml:"sqlite_path"`
	LogLevel     string `yaml:"log_level"`
}

// Default is the configuration used when no file is given: the full strategy
// roster over all three games.
func Default() Config {
	return Config{
		Description: "baseline round-robin across all games",
		Games: []string{
			string(model.GamePrisonersDilemma),
			string(model.GamePublicGoods),
			string(model.GameKnowledgeSharing),
		},
		Rounds:      10,
		Repetitions: 1,
		Agents: []AgentSpec{
			{Name: "alice", Strategy: strategy.NameAlwaysCooperate},
			{Name: "bob", Strategy: strategy.NameAlwaysDefect},
			{Name: "carol", Strategy: strategy.NameTitForTat},
			{Name: "dave", Strategy: strategy.NameAdaptive},
			{Name: "eve", Strategy: strategy.NameRandom},
		},
		SaveResults:  true,
		ResultsDir:   "results",
		StoreBackend: "memory",
		LogLevel:     "info",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Rounds == 0 {
		c.Rounds = 10
	}
	if c.Repetitions == 0 {
		c.Repetitions = 1
	}
	if c.ResultsDir == "" {
		c.ResultsDir = "results"
	}
	if c.StoreBackend == "" {
		c.StoreBackend = "memory"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.Repetitions <= 0 {
		return fmt.Errorf("repetitions must be positive, got %d", c.Repetitions)
	}
	if len(c.Games) == 0 {
		return fmt.Errorf("at least one game is required")
	}
	for _, name := range c.Games {
		if !model.GameType(name).Valid() {
			return fmt.Errorf("unknown game type: %s", name)
		}
	}
	if len(c.Agents) < 2 {
		return fmt.Errorf("at least 2 agents are required, got %d", len(c.Agents))
	}
	seen := make(map[string]bool, len(c.Agents))
	for i, spec := range c.Agents {
		if spec.Name == "" {
			return fmt.Errorf("agents[%d]: name is required", i)
		}
		if seen[spec.Name] {
			return fmt.Errorf("agents[%d]: duplicate name %s", i, spec.Name)
		}
		seen[spec.Name] = true
		if spec.Strategy == "" {
			return fmt.Errorf("agents[%d]: strategy is required", i)
		}
	}
	return nil
}

// GameTypes converts the configured game names.
func (c *Config) GameTypes() []model.GameType {
	types := make([]model.GameType, len(c.Games))
	for i, name := range c.Games {
		types[i] = model.GameType(name)
	}
	return types
}

// StrategyParams converts the configured tunables for the strategy factory.
func (s AgentSpec) StrategyParams() strategy.Params {
	return strategy.Params{
		CooperationProbability: s.Params.CooperationProbability,
		ForgivenessProbability: s.Params.ForgivenessProbability,
		WinThreshold:           s.Params.WinThreshold,
		LearningRate:           s.Params.LearningRate,
		ExplorationRate:        s.Params.ExplorationRate,
	}
}
