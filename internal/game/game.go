// Package game implements the playable game state machines. Each game runs
// rounds strictly in sequence; within a round every participant's decision
// is requested concurrently, and a slow or failing decision provider is
// replaced by the game's fallback action rather than aborting the round.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"agon/internal/agent"
	"agon/internal/model"
)

const defaultDecisionTimeout = 10 * time.Second

// Game is a match played round by round. PlayRound advances the game one
// round and emits the round record; Play drives a fresh match over a fixed
// number of rounds and returns the terminal snapshot. Reset clears only the
// game's own counters and history, never agent state. A completed game does
// not resume; Reset it first.
type Game interface {
	Type() model.GameType
	PlayRound(ctx context.Context, agents []*agent.Agent) (model.RoundResult, error)
	Play(ctx context.Context, agents []*agent.Agent, rounds int) (model.GameResult, error)
	Reset()
}

var errGameCompleted = fmt.Errorf("game already completed; reset before replaying")

type decisionRequest struct {
	agent    *agent.Agent
	dc       agent.DecisionContext
	history  []model.Action
	fallback model.Action
}

// decideAll fans one round's decision requests out across goroutines and
// waits for all of them. SafeDecide guarantees each slot is filled.
func decideAll(ctx context.Context, reqs []decisionRequest, timeout time.Duration, logger *slog.Logger) []model.Decision {
	decisions := make([]model.Decision, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req decisionRequest) {
			defer wg.Done()
			decisions[i] = req.agent.SafeDecide(ctx, req.dc, req.history, req.fallback, timeout, logger)
		}(i, req)
	}
	wg.Wait()
	return decisions
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultDecisionTimeout
	}
	return d
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// topScorer returns the name with the highest total payoff, breaking exact
// ties lexicographically so repeated runs agree.
func topScorer(payoffs map[string]float64) string {
	names := make([]string, 0, len(payoffs))
	for name := range payoffs {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	for _, name := range names {
		if best == "" || payoffs[name] > payoffs[best] {
			best = name
		}
	}
	return best
}

func agentNames(agents []*agent.Agent) []string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	return names
}

func peersOf(agents []*agent.Agent, self *agent.Agent) []string {
	peers := make([]string, 0, len(agents)-1)
	for _, a := range agents {
		if a != self {
			peers = append(peers, a.Name)
		}
	}
	return peers
}
