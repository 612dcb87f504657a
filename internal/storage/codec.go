package storage

import (
	"encoding/json"
	"errors"

	"agon/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeExperiment stamps the current versions onto the record and its
// nested game results before marshalling.
func EncodeExperiment(record model.ExperimentRecord) ([]byte, error) {
	record.VersionedRecord = currentVersions()
	stamped := make(map[model.GameType][]model.GameResult, len(record.Results))
	for gameType, results := range record.Results {
		stamped[gameType] = stampResults(results)
	}
	record.Results = stamped
	return json.Marshal(record)
}

func DecodeExperiment(data []byte) (model.ExperimentRecord, error) {
	var record model.ExperimentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.ExperimentRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.ExperimentRecord{}, err
	}
	return record, nil
}

func EncodeAgentProfile(profile model.AgentProfile) ([]byte, error) {
	profile.VersionedRecord = currentVersions()
	return json.Marshal(profile)
}

func DecodeAgentProfile(data []byte) (model.AgentProfile, error) {
	var profile model.AgentProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return model.AgentProfile{}, err
	}
	if err := checkVersion(profile.VersionedRecord); err != nil {
		return model.AgentProfile{}, err
	}
	return profile, nil
}

func EncodeGameResults(results []model.GameResult) ([]byte, error) {
	return json.Marshal(stampResults(results))
}

func DecodeGameResults(data []byte) ([]model.GameResult, error) {
	var results []model.GameResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	for _, result := range results {
		if err := checkVersion(result.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func stampResults(results []model.GameResult) []model.GameResult {
	stamped := make([]model.GameResult, len(results))
	copy(stamped, results)
	for i := range stamped {
		stamped[i].VersionedRecord = currentVersions()
	}
	return stamped
}

func currentVersions() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
