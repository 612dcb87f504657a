package payoff

import (
	"encoding/json"
	"fmt"

	"agon/internal/model"
)

// Pair holds the payoffs for both players at one matrix cell, first player
// first.
type Pair [2]float64

// RewardMatrix maps the four action-class combinations of a two-player game
// to payoff pairs. The classical ordering (temptation > reward > punishment
// > sucker) is conventional and deliberately not enforced.
type RewardMatrix struct {
	CooperateCooperate Pair `json:"cooperate_cooperate"`
	CooperateDefect    Pair `json:"cooperate_defect"`
	DefectCooperate    Pair `json:"defect_cooperate"`
	DefectDefect       Pair `json:"defect_defect"`
}

// Standard returns the canonical prisoner's dilemma matrix
// (3,3)/(0,5)/(5,0)/(1,1).
func Standard() RewardMatrix {
	return RewardMatrix{
		CooperateCooperate: Pair{3, 3},
		CooperateDefect:    Pair{0, 5},
		DefectCooperate:    Pair{5, 0},
		DefectDefect:       Pair{1, 1},
	}
}

// FromJSON decodes a reward matrix from its JSON object form.
func FromJSON(data []byte) (RewardMatrix, error) {
	var m RewardMatrix
	if err := json.Unmarshal(data, &m); err != nil {
		return RewardMatrix{}, fmt.Errorf("decode reward matrix: %w", err)
	}
	return m, nil
}

// Payoffs classifies both actions and looks up the matching cell. Swapping
// the argument order swaps the returned pair.
func (m RewardMatrix) Payoffs(a, b model.Action) (float64, float64) {
	switch {
	case a.Cooperative() && b.Cooperative():
		return m.CooperateCooperate[0], m.CooperateCooperate[1]
	case a.Cooperative():
		return m.CooperateDefect[0], m.CooperateDefect[1]
	case b.Cooperative():
		return m.DefectCooperate[0], m.DefectCooperate[1]
	default:
		return m.DefectDefect[0], m.DefectDefect[1]
	}
}
