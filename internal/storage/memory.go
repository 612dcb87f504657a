package storage

import (
	"context"
	"sort"
	"sync"

	"agon/internal/model"
)

// MemoryStore keeps records as encoded payloads so callers can never alias
// stored data. It is the default backend.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	experiments map[string][]byte
	profiles    map[string][]byte
	results     map[resultKey][]byte
}

type resultKey struct {
	experimentID string
	gameType     model.GameType
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.experiments = make(map[string][]byte)
	s.profiles = make(map[string][]byte)
	s.results = make(map[resultKey][]byte)
	return nil
}

func (s *MemoryStore) SaveExperiment(_ context.Context, record model.ExperimentRecord) error {
	payload, err := EncodeExperiment(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.experiments[record.ID] = payload
	return nil
}

func (s *MemoryStore) GetExperiment(_ context.Context, id string) (model.ExperimentRecord, bool, error) {
	s.mu.RLock()
	payload, ok := s.experiments[id]
	s.mu.RUnlock()

	if !ok {
		return model.ExperimentRecord{}, false, nil
	}
	record, err := DecodeExperiment(payload)
	if err != nil {
		return model.ExperimentRecord{}, false, err
	}
	return record, true, nil
}

func (s *MemoryStore) ListExperiments(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.experiments))
	for id := range s.experiments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) SaveAgentProfile(_ context.Context, profile model.AgentProfile) error {
	payload, err := EncodeAgentProfile(profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Name] = payload
	return nil
}

func (s *MemoryStore) GetAgentProfile(_ context.Context, name string) (model.AgentProfile, bool, error) {
	s.mu.RLock()
	payload, ok := s.profiles[name]
	s.mu.RUnlock()

	if !ok {
		return model.AgentProfile{}, false, nil
	}
	profile, err := DecodeAgentProfile(payload)
	if err != nil {
		return model.AgentProfile{}, false, err
	}
	return profile, true, nil
}

func (s *MemoryStore) SaveGameResults(_ context.Context, experimentID string, gameType model.GameType, results []model.GameResult) error {
	payload, err := EncodeGameResults(results)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[resultKey{experimentID, gameType}] = payload
	return nil
}

func (s *MemoryStore) GetGameResults(_ context.Context, experimentID string, gameType model.GameType) ([]model.GameResult, bool, error) {
	s.mu.RLock()
	payload, ok := s.results[resultKey{experimentID, gameType}]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	results, err := DecodeGameResults(payload)
	if err != nil {
		return nil, false, err
	}
	return results, true, nil
}

// Reset drops everything the store holds.
func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}
