package storage

import (
	"context"

	"agon/internal/model"
)

// Store defines persistence for experiments, agent profiles, and per-game
// tournament results. Lookups return (value, found, error); a missing record
// is not an error.
type Store interface {
	Init(ctx context.Context) error
	SaveExperiment(ctx context.Context, record model.ExperimentRecord) error
	GetExperiment(ctx context.Context, id string) (model.ExperimentRecord, bool, error)
	ListExperiments(ctx context.Context) ([]string, error)
	SaveAgentProfile(ctx context.Context, profile model.AgentProfile) error
	GetAgentProfile(ctx context.Context, name string) (model.AgentProfile, bool, error)
	SaveGameResults(ctx context.Context, experimentID string, gameType model.GameType, results []model.GameResult) error
	GetGameResults(ctx context.Context, experimentID string, gameType model.GameType) ([]model.GameResult, bool, error)
}
