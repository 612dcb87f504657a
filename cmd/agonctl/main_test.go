package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"agon/internal/stats"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"conquer"}); err == nil {
		t.Fatal("expected usage error")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error for missing command")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" alice, bob ,,carol")
	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if splitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestExperimentCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "experiment.yaml")
	resultsDir := filepath.Join(dir, "results")

	configYAML := `
description: end to end smoke
games: [prisoners_dilemma]
rounds: 5
repetitions: 1
seed: 7
save_results: true
results_dir: ` + resultsDir + `
agents:
  - {name: alice, strategy: always_cooperate}
  - {name: bob, strategy: tit_for_tat}
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	err := run(context.Background(), []string{
		"experiment", "-config", configPath, "-log-level", "error",
	})
	if err != nil {
		t.Fatalf("experiment command: %v", err)
	}

	records, err := stats.ListExperiments(resultsDir)
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(records))
	}
	record := records[0]
	if len(record.Results) != 1 {
		t.Fatalf("expected results for 1 game type, got %+v", record.Results)
	}

	reportPath := filepath.Join(resultsDir, "experiments", record.ID, "report.json")
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("expected report artifact: %v", err)
	}
}

func TestGameCommandValidatesAgents(t *testing.T) {
	err := run(context.Background(), []string{
		"game", "-agents", "alice,ghost", "-log-level", "error",
	})
	if err == nil {
		t.Fatal("expected error for unregistered agent")
	}
}
