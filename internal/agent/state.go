// Package agent holds the per-agent accumulated state and the decision
// plumbing that games call into. State methods are not safe for concurrent
// use on their own; Agent serializes access with its own mutex.
package agent

import (
	"agon/internal/model"
)

const (
	defaultTrust    = 0.5
	trustGain       = 0.1
	trustPenalty    = 0.2
	trustDecayRate  = 0.1
	reputationSpan  = 10
	reputationScale = 5.0
)

// Interaction is one remembered encounter: which peer acted, and how.
type Interaction struct {
	Peer   string
	Action model.Action
}

// State is an agent's memory across rounds and games: who it trusts, what it
// knows, and how it has fared.
type State struct {
	trust        map[string]float64
	knowledge    []string
	interactions []Interaction
	payoffs      []float64
	reputation   float64
}

func NewState() *State {
	return &State{
		trust:      make(map[string]float64),
		reputation: defaultTrust,
	}
}

// TrustScore returns the trust in a peer, 0.5 for one never met.
func (s *State) TrustScore(peer string) float64 {
	if score, ok := s.trust[peer]; ok {
		return score
	}
	return defaultTrust
}

// TrustScores returns a copy of all established trust scores.
func (s *State) TrustScores() map[string]float64 {
	out := make(map[string]float64, len(s.trust))
	for peer, score := range s.trust {
		out[peer] = score
	}
	return out
}

// UpdateTrust adjusts trust in one peer from a single observed action:
// cooperation earns a small gain, defection a larger penalty, both clamped
// to [0,1]. Every other known peer's score decays toward zero, so trust has
// to be re-earned through contact.
func (s *State) UpdateTrust(peer string, cooperative bool) {
	score, ok := s.trust[peer]
	if !ok {
		score = defaultTrust
	}
	if cooperative {
		score += trustGain
		if score > 1 {
			score = 1
		}
	} else {
		score -= trustPenalty
		if score < 0 {
			score = 0
		}
	}
	s.trust[peer] = score

	for other := range s.trust {
		if other != peer {
			s.trust[other] *= 1 - trustDecayRate
		}
	}
}

// RecordOutcome folds one finished round into the state: trust moves on the
// peer's action, the interaction and payoff are appended, and reputation is
// recomputed as the trailing-window mean payoff normalized to [0,1].
func (s *State) RecordOutcome(peer string, peerAction model.Action, payoff float64) {
	s.UpdateTrust(peer, peerAction.Cooperative())
	s.interactions = append(s.interactions, Interaction{Peer: peer, Action: peerAction})
	s.payoffs = append(s.payoffs, payoff)

	start := len(s.payoffs) - reputationSpan
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, p := range s.payoffs[start:] {
		sum += p
	}
	rep := sum / float64(len(s.payoffs)-start) / reputationScale
	if rep < 0 {
		rep = 0
	}
	if rep > 1 {
		rep = 1
	}
	s.reputation = rep
}

func (s *State) Reputation() float64 { return s.reputation }

// CooperationRate reports how often the named peer has acted cooperatively
// toward this agent; an empty peer name aggregates over everyone. With no
// matching interactions the rate is the neutral prior 0.5.
func (s *State) CooperationRate(peer string) float64 {
	matched, cooperative := 0, 0
	for _, it := range s.interactions {
		if peer != "" && it.Peer != peer {
			continue
		}
		matched++
		if it.Action.Cooperative() {
			cooperative++
		}
	}
	if matched == 0 {
		return defaultTrust
	}
	return float64(cooperative) / float64(matched)
}

// PeerActions returns the actions the named peer has taken toward this
// agent, oldest first.
func (s *State) PeerActions(peer string) []model.Action {
	var actions []model.Action
	for _, it := range s.interactions {
		if it.Peer == peer {
			actions = append(actions, it.Action)
		}
	}
	return actions
}

// AddKnowledge appends items the agent has not seen before, preserving the
// order of first receipt.
func (s *State) AddKnowledge(items ...string) int {
	added := 0
	for _, item := range items {
		if !s.HasKnowledge(item) {
			s.knowledge = append(s.knowledge, item)
			added++
		}
	}
	return added
}

func (s *State) HasKnowledge(item string) bool {
	for _, known := range s.knowledge {
		if known == item {
			return true
		}
	}
	return false
}

// Knowledge returns a copy of the knowledge base in receipt order.
func (s *State) Knowledge() []string {
	out := make([]string, len(s.knowledge))
	copy(out, s.knowledge)
	return out
}

func (s *State) KnowledgeCount() int { return len(s.knowledge) }

func (s *State) RoundsRecorded() int { return len(s.payoffs) }

// AveragePayoff is the lifetime mean payoff, 0 before any round completes.
func (s *State) AveragePayoff() float64 {
	if len(s.payoffs) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s.payoffs {
		sum += p
	}
	return sum / float64(len(s.payoffs))
}

// Reset returns the state to its initial condition. Idempotent.
func (s *State) Reset() {
	s.trust = make(map[string]float64)
	s.knowledge = nil
	s.interactions = nil
	s.payoffs = nil
	s.reputation = defaultTrust
}
