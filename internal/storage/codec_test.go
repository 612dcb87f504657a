package storage

import (
	"errors"
	"testing"

	"agon/internal/model"
)

func TestEncodeExperimentStampsVersions(t *testing.T) {
	payload, err := EncodeExperiment(sampleExperiment("exp-1"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	record, err := DecodeExperiment(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		t.Fatalf("expected stamped versions, got %+v", record.VersionedRecord)
	}
	for _, results := range record.Results {
		for _, result := range results {
			if result.SchemaVersion != CurrentSchemaVersion {
				t.Fatalf("nested result not stamped: %+v", result.VersionedRecord)
			}
		}
	}
}

func TestDecodeExperimentRejectsVersionMismatch(t *testing.T) {
	payload := []byte(`{"schema_version": 99, "codec_version": 1, "id": "exp-x", "agents": {}, "results": {}}`)
	if _, err := DecodeExperiment(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeAgentProfileRejectsVersionMismatch(t *testing.T) {
	payload := []byte(`{"schema_version": 1, "codec_version": 2, "name": "alice", "strategy": "random"}`)
	if _, err := DecodeAgentProfile(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestEncodeGameResultsDoesNotMutateInput(t *testing.T) {
	results := []model.GameResult{{GameType: model.GamePrisonersDilemma, Rounds: 5}}
	if _, err := EncodeGameResults(results); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if results[0].SchemaVersion != 0 {
		t.Fatalf("encode mutated caller's slice: %+v", results[0].VersionedRecord)
	}
}
