package payoff

import (
	"agon/internal/model"
)

// ActionPair is one round of a two-player history, first player first.
type ActionPair struct {
	First  model.Action
	Second model.Action
}

// Calculator derives payoffs and analytics from a reward matrix and an
// action-pair history. All methods are pure; empty input yields zero values,
// never an error.
type Calculator struct {
	Matrix RewardMatrix
}

func NewCalculator(m RewardMatrix) *Calculator {
	return &Calculator{Matrix: m}
}

// RoundPayoffs returns the payoffs for a single round.
func (c *Calculator) RoundPayoffs(a, b model.Action) (float64, float64) {
	return c.Matrix.Payoffs(a, b)
}

// CumulativePayoffs sums both players' payoffs over a history.
func (c *Calculator) CumulativePayoffs(history []ActionPair) (float64, float64) {
	var total1, total2 float64
	for _, pair := range history {
		p1, p2 := c.Matrix.Payoffs(pair.First, pair.Second)
		total1 += p1
		total2 += p2
	}
	return total1, total2
}

// AveragePayoffs returns per-round means, 0 for an empty history.
func (c *Calculator) AveragePayoffs(history []ActionPair) (float64, float64) {
	if len(history) == 0 {
		return 0, 0
	}
	total1, total2 := c.CumulativePayoffs(history)
	n := float64(len(history))
	return total1 / n, total2 / n
}

// CooperationRate is the fraction of cooperative-class actions. An agent
// with no recorded actions yet has a rate of 0.
func CooperationRate(actions []model.Action) float64 {
	if len(actions) == 0 {
		return 0
	}
	cooperative := 0
	for _, action := range actions {
		if action.Cooperative() {
			cooperative++
		}
	}
	return float64(cooperative) / float64(len(actions))
}

// MutualCooperationRate is the fraction of rounds where both players played
// a cooperative-class action.
func MutualCooperationRate(history []ActionPair) float64 {
	if len(history) == 0 {
		return 0
	}
	mutual := 0
	for _, pair := range history {
		if pair.First.Cooperative() && pair.Second.Cooperative() {
			mutual++
		}
	}
	return float64(mutual) / float64(len(history))
}

// ExploitationRate is the fraction of rounds in which the given player
// (1 or 2) defected while the other cooperated.
func ExploitationRate(history []ActionPair, player int) float64 {
	if len(history) == 0 {
		return 0
	}
	exploited := 0
	for _, pair := range history {
		mine, theirs := pair.First, pair.Second
		if player == 2 {
			mine, theirs = pair.Second, pair.First
		}
		if !mine.Cooperative() && theirs.Cooperative() {
			exploited++
		}
	}
	return float64(exploited) / float64(len(history))
}

// ParetoEfficiency is the fraction of rounds landing on the
// mutual-cooperation cell.
func ParetoEfficiency(history []ActionPair) float64 {
	return MutualCooperationRate(history)
}

// Analyze produces the full outcome summary for a two-player history as
// string-keyed primitives, suitable for direct serialization.
func (c *Calculator) Analyze(history []ActionPair, name1, name2 string) map[string]any {
	if len(history) == 0 {
		return map[string]any{"error": "no game history"}
	}

	total1, total2 := c.CumulativePayoffs(history)
	avg1, avg2 := c.AveragePayoffs(history)

	actions1 := make([]model.Action, 0, len(history))
	actions2 := make([]model.Action, 0, len(history))
	for _, pair := range history {
		actions1 = append(actions1, pair.First)
		actions2 = append(actions2, pair.Second)
	}

	winner := "tie"
	switch {
	case total1 > total2:
		winner = name1
	case total2 > total1:
		winner = name2
	}

	return map[string]any{
		"game_summary": map[string]any{
			"total_rounds":            len(history),
			"mutual_cooperation_rate": MutualCooperationRate(history),
			"pareto_efficiency":       ParetoEfficiency(history),
		},
		name1: map[string]any{
			"total_payoff":      total1,
			"average_payoff":    avg1,
			"cooperation_rate":  CooperationRate(actions1),
			"exploitation_rate": ExploitationRate(history, 1),
		},
		name2: map[string]any{
			"total_payoff":      total2,
			"average_payoff":    avg2,
			"cooperation_rate":  CooperationRate(actions2),
			"exploitation_rate": ExploitationRate(history, 2),
		},
		"comparative_analysis": map[string]any{
			"payoff_difference":      total1 - total2,
			"cooperation_difference": CooperationRate(actions1) - CooperationRate(actions2),
			"winner":                 winner,
		},
	}
}
