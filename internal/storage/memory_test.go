package storage

import (
	"context"
	"testing"

	"agon/internal/model"
)

func sampleExperiment(id string) model.ExperimentRecord {
	return model.ExperimentRecord{
		ID:           id,
		Description:  "pairwise baseline",
		StartedAtUTC: "2026-08-24T10:00:00Z",
		Agents:       map[string]string{"alice": "tit_for_tat", "bob": "always_defect"},
		Results: map[model.GameType][]model.GameResult{
			model.GamePrisonersDilemma: {{
				GameType:     model.GamePrisonersDilemma,
				Participants: []string{"alice", "bob"},
				Rounds:       10,
				Payoffs:      map[string]float64{"alice": 9, "bob": 14},
				Winner:       "bob",
			}},
		},
	}
}

func TestMemoryStoreExperimentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveExperiment(ctx, sampleExperiment("exp-1")); err != nil {
		t.Fatalf("save experiment: %v", err)
	}

	record, ok, err := store.GetExperiment(ctx, "exp-1")
	if err != nil {
		t.Fatalf("get experiment: %v", err)
	}
	if !ok {
		t.Fatal("expected experiment to be found")
	}
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		t.Fatalf("expected stamped versions, got %+v", record.VersionedRecord)
	}
	results := record.Results[model.GamePrisonersDilemma]
	if len(results) != 1 || results[0].Winner != "bob" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("expected nested results stamped, got %+v", results[0].VersionedRecord)
	}

	if _, ok, err := store.GetExperiment(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListExperimentsSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, id := range []string{"exp-c", "exp-a", "exp-b"} {
		if err := store.SaveExperiment(ctx, sampleExperiment(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	ids, err := store.ListExperiments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"exp-a", "exp-b", "exp-c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestMemoryStoreAgentProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	profile := model.AgentProfile{
		Name:            "alice",
		Strategy:        "tit_for_tat",
		TrustScores:     map[string]float64{"bob": 0.6},
		Reputation:      0.8,
		KnowledgeCount:  3,
		RoundsRecorded:  20,
		AveragePayoff:   2.4,
		CooperationRate: 0.75,
	}
	if err := store.SaveAgentProfile(ctx, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	got, ok, err := store.GetAgentProfile(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("get profile: ok=%v err=%v", ok, err)
	}
	if got.Reputation != 0.8 || got.TrustScores["bob"] != 0.6 {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("expected stamped profile, got %+v", got.VersionedRecord)
	}
}

func TestMemoryStoreGameResultsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	results := sampleExperiment("exp-1").Results[model.GamePrisonersDilemma]
	if err := store.SaveGameResults(ctx, "exp-1", model.GamePrisonersDilemma, results); err != nil {
		t.Fatalf("save results: %v", err)
	}

	got, ok, err := store.GetGameResults(ctx, "exp-1", model.GamePrisonersDilemma)
	if err != nil || !ok {
		t.Fatalf("get results: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Payoffs["alice"] != 9 {
		t.Fatalf("unexpected results: %+v", got)
	}

	if _, ok, err := store.GetGameResults(ctx, "exp-1", model.GamePublicGoods); err != nil || ok {
		t.Fatalf("expected clean miss for other game type, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveExperiment(ctx, sampleExperiment("exp-1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := store.GetExperiment(ctx, "exp-1"); ok {
		t.Fatal("expected store to be empty after reset")
	}
}
