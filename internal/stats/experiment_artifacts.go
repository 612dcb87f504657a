// Package stats writes experiment artifacts to disk and aggregates
// per-strategy performance out of finished experiment records.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"agon/internal/model"
)

const experimentsDir = "experiments"

// WriteExperiment stores the record as
// baseDir/experiments/<id>/experiment.json.
func WriteExperiment(baseDir string, record model.ExperimentRecord) error {
	if record.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	path := experimentPath(baseDir, record.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func ReadExperiment(baseDir, id string) (model.ExperimentRecord, bool, error) {
	if id == "" {
		return model.ExperimentRecord{}, false, fmt.Errorf("experiment id is required")
	}
	path := experimentPath(baseDir, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ExperimentRecord{}, false, nil
		}
		return model.ExperimentRecord{}, false, err
	}
	var record model.ExperimentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.ExperimentRecord{}, false, err
	}
	return record, true, nil
}

// ListExperiments returns all stored experiments, newest start time first;
// records without a start time sort last, ties break on ID.
func ListExperiments(baseDir string) ([]model.ExperimentRecord, error) {
	root := filepath.Join(baseDir, experimentsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ExperimentRecord{}, nil
		}
		return nil, err
	}

	records := make([]model.ExperimentRecord, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, ok, err := ReadExperiment(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		switch {
		case records[i].StartedAtUTC == records[j].StartedAtUTC:
			return records[i].ID < records[j].ID
		case records[i].StartedAtUTC == "":
			return false
		case records[j].StartedAtUTC == "":
			return true
		default:
			return records[i].StartedAtUTC > records[j].StartedAtUTC
		}
	})
	return records, nil
}

func experimentPath(baseDir, id string) string {
	return filepath.Join(baseDir, experimentsDir, id, "experiment.json")
}
