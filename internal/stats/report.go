package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"agon/internal/model"
)

// StrategyReport aggregates one strategy's performance across every match
// of an experiment.
type StrategyReport struct {
	Strategy               string  `json:"strategy"`
	Matches                int     `json:"matches"`
	Wins                   int     `json:"wins"`
	WinRate                float64 `json:"win_rate"`
	TotalPayoff            float64 `json:"total_payoff"`
	AveragePayoff          float64 `json:"average_payoff"`
	AverageCooperationRate float64 `json:"average_cooperation_rate"`
}

type ExperimentReport struct {
	ExperimentID   string           `json:"experiment_id"`
	GeneratedAtUTC string           `json:"generated_at_utc"`
	GameTypes      int              `json:"game_types"`
	Matches        int              `json:"matches"`
	Failures       int              `json:"failures"`
	Strategies     []StrategyReport `json:"strategies"`
}

// BuildExperimentReport folds every match of the record into per-strategy
// aggregates, ordered by average payoff descending (ties on name).
func BuildExperimentReport(record model.ExperimentRecord) ExperimentReport {
	type tally struct {
		matches  int
		wins     int
		payoff   float64
		coopRate float64
	}
	tallies := make(map[string]*tally)
	strategyOf := record.Agents

	matches := 0
	for _, results := range record.Results {
		for _, result := range results {
			matches++
			for _, name := range result.Participants {
				strategyName, ok := strategyOf[name]
				if !ok {
					strategyName = "unknown"
				}
				agg := tallies[strategyName]
				if agg == nil {
					agg = &tally{}
					tallies[strategyName] = agg
				}
				agg.matches++
				agg.payoff += result.Payoffs[name]
				agg.coopRate += result.CooperationRates[name]
				if result.Winner == name {
					agg.wins++
				}
			}
		}
	}

	strategies := make([]StrategyReport, 0, len(tallies))
	for name, agg := range tallies {
		report := StrategyReport{
			Strategy:    name,
			Matches:     agg.matches,
			Wins:        agg.wins,
			TotalPayoff: agg.payoff,
		}
		if agg.matches > 0 {
			report.WinRate = float64(agg.wins) / float64(agg.matches)
			report.AveragePayoff = agg.payoff / float64(agg.matches)
			report.AverageCooperationRate = agg.coopRate / float64(agg.matches)
		}
		strategies = append(strategies, report)
	}
	sort.Slice(strategies, func(i, j int) bool {
		if strategies[i].AveragePayoff == strategies[j].AveragePayoff {
			return strategies[i].Strategy < strategies[j].Strategy
		}
		return strategies[i].AveragePayoff > strategies[j].AveragePayoff
	})

	return ExperimentReport{
		ExperimentID:   record.ID,
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		GameTypes:      len(record.Results),
		Matches:        matches,
		Failures:       len(record.Failures),
		Strategies:     strategies,
	}
}

// WriteExperimentReport stores the report next to the experiment artifact
// and returns the written path.
func WriteExperimentReport(baseDir string, report ExperimentReport) (string, error) {
	if report.ExperimentID == "" {
		return "", fmt.Errorf("report experiment id is required")
	}
	dir := filepath.Join(baseDir, experimentsDir, report.ExperimentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "report.json")
	if err := writeJSON(path, report); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
