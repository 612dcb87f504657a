// Package strategy implements the closed set of decision policies used by
// in-process agents. Strategies receive only the opponent's single most
// recent action from the caller; any deeper memory is internal, fed through
// Observe and cleared by Reset.
package strategy

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"agon/internal/model"
)

const (
	NameAlwaysCooperate   = "always_cooperate"
	NameAlwaysDefect      = "always_defect"
	NameTitForTat         = "tit_for_tat"
	NameGenerousTitForTat = "generous_tit_for_tat"
	NamePavlov            = "pavlov"
	NameGrudger           = "grudger"
	NameAdaptive          = "adaptive"
	NameRandom            = "random"
)

// Context carries optional game-specific hints; all built-in strategies
// decide from round number, opponent action, and internal history alone.
type Context map[string]any

// Strategy is one decision policy. Round numbering is zero-based: round 0,
// or an empty opponent action, is the bootstrap case.
type Strategy interface {
	Name() string
	Decide(round int, opponentLast model.Action, ctx Context) model.Action
	Observe(mine, theirs model.Action, payoff float64)
	Reset()
}

// Params configures the stochastic and adaptive variants. Nil fields fall
// back to the documented defaults; a pointer to zero is honored, so extremes
// like a never-cooperating Random or a never-forgiving GenerousTitForTat
// stay reachable.
type Params struct {
	CooperationProbability *float64
	ForgivenessProbability *float64
	WinThreshold           *float64
	LearningRate           *float64
	ExplorationRate        *float64

	// Rand supplies determinism for tests; nil means a time-seeded source.
	Rand *rand.Rand
}

// Float64 is a convenience for filling Params fields.
func Float64(v float64) *float64 { return &v }

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func (p Params) rng() *rand.Rand {
	if p.Rand != nil {
		return p.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// New builds a strategy by name. Unknown names are a configuration error.
func New(name string, p Params) (Strategy, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case NameAlwaysCooperate, "cooperative":
		return &constant{name: NameAlwaysCooperate, action: model.ActionCooperate}, nil
	case NameAlwaysDefect, "competitive":
		return &constant{name: NameAlwaysDefect, action: model.ActionDefect}, nil
	case NameTitForTat:
		return &titForTat{}, nil
	case NameGenerousTitForTat:
		return &generousTitForTat{
			forgiveness: orDefault(p.ForgivenessProbability, 0.1),
			rng:         p.rng(),
		}, nil
	case NamePavlov:
		return &pavlov{
			winThreshold: orDefault(p.WinThreshold, 2.5),
			lastAction:   model.ActionCooperate,
		}, nil
	case NameGrudger:
		return &grudger{}, nil
	case NameAdaptive:
		return &adaptive{
			learningRate:    orDefault(p.LearningRate, 0.1),
			explorationRate: orDefault(p.ExplorationRate, 0.1),
			coopProbability: 0.5,
			rng:             p.rng(),
		}, nil
	case NameRandom:
		return &randomChoice{
			coopProbability: orDefault(p.CooperationProbability, 0.5),
			rng:             p.rng(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	names := []string{
		NameAlwaysCooperate,
		NameAlwaysDefect,
		NameTitForTat,
		NameGenerousTitForTat,
		NamePavlov,
		NameGrudger,
		NameAdaptive,
		NameRandom,
	}
	sort.Strings(names)
	return names
}

// history is the shared internal memory of a strategy.
type history struct {
	mine    []model.Action
	theirs  []model.Action
	payoffs []float64
}

func (h *history) Observe(mine, theirs model.Action, payoff float64) {
	h.mine = append(h.mine, mine)
	h.theirs = append(h.theirs, theirs)
	h.payoffs = append(h.payoffs, payoff)
}

func (h *history) Reset() {
	h.mine = nil
	h.theirs = nil
	h.payoffs = nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
