package stats

import (
	"testing"

	"agon/internal/model"
)

func sampleRecord(id, startedAt string) model.ExperimentRecord {
	return model.ExperimentRecord{
		ID:           id,
		StartedAtUTC: startedAt,
		Agents: map[string]string{
			"alice": "always_cooperate",
			"bob":   "always_defect",
		},
		Results: map[model.GameType][]model.GameResult{
			model.GamePrisonersDilemma: {{
				GameType:         model.GamePrisonersDilemma,
				Participants:     []string{"alice", "bob"},
				Rounds:           10,
				Payoffs:          map[string]float64{"alice": 0, "bob": 50},
				CooperationRates: map[string]float64{"alice": 1, "bob": 0},
				Winner:           "bob",
			}},
		},
	}
}

func TestWriteReadExperimentRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	record := sampleRecord("exp-1", "2026-08-24T10:00:00Z")

	if err := WriteExperiment(baseDir, record); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok, err := ReadExperiment(baseDir, "exp-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !ok {
		t.Fatal("expected experiment to exist")
	}
	if got.ID != "exp-1" || got.Agents["bob"] != "always_defect" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, ok, err := ReadExperiment(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestWriteExperimentRequiresID(t *testing.T) {
	if err := WriteExperiment(t.TempDir(), model.ExperimentRecord{}); err == nil {
		t.Fatal("expected error for missing experiment id")
	}
}

func TestListExperimentsNewestFirst(t *testing.T) {
	baseDir := t.TempDir()
	for _, exp := range []struct{ id, started string }{
		{"exp-old", "2026-08-20T00:00:00Z"},
		{"exp-new", "2026-08-24T00:00:00Z"},
		{"exp-undated", ""},
	} {
		if err := WriteExperiment(baseDir, sampleRecord(exp.id, exp.started)); err != nil {
			t.Fatalf("write %s: %v", exp.id, err)
		}
	}

	records, err := ListExperiments(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"exp-new", "exp-old", "exp-undated"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i].ID != want[i] {
			t.Fatalf("expected order %v, got %s at %d", want, records[i].ID, i)
		}
	}
}

func TestListExperimentsEmptyBaseDir(t *testing.T) {
	records, err := ListExperiments(t.TempDir())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestBuildExperimentReportAggregatesByStrategy(t *testing.T) {
	record := sampleRecord("exp-1", "2026-08-24T10:00:00Z")
	report := BuildExperimentReport(record)

	if report.ExperimentID != "exp-1" || report.Matches != 1 || report.GameTypes != 1 {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if len(report.Strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %+v", report.Strategies)
	}

	// Ordered by average payoff: the defector's 50 beats the cooperator's 0.
	top := report.Strategies[0]
	if top.Strategy != "always_defect" || top.Wins != 1 || top.WinRate != 1 {
		t.Fatalf("unexpected top strategy: %+v", top)
	}
	bottom := report.Strategies[1]
	if bottom.Strategy != "always_cooperate" || bottom.AveragePayoff != 0 || bottom.AverageCooperationRate != 1 {
		t.Fatalf("unexpected bottom strategy: %+v", bottom)
	}
}

func TestWriteExperimentReport(t *testing.T) {
	baseDir := t.TempDir()
	report := BuildExperimentReport(sampleRecord("exp-1", "2026-08-24T10:00:00Z"))

	path, err := WriteExperimentReport(baseDir, report)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if path == "" {
		t.Fatal("expected written path")
	}

	if _, err := WriteExperimentReport(baseDir, ExperimentReport{}); err == nil {
		t.Fatal("expected error for missing experiment id")
	}
}
