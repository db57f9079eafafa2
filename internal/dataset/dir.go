package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"crewopt/internal/history"
	"crewopt/internal/workforce"

	"github.com/rs/zerolog/log"
)

const (
	WorkersFile = "workers.json"
	TasksFile   = "tasks.json"
)

// Dir is a directory holding workers.json, tasks.json and the JSONL
// histories kept by the history package.
type Dir struct {
	Path string
}

func (d Dir) Load(ctx context.Context) (workforce.Dataset, error) {
	var ds workforce.Dataset

	if err := readJSON(filepath.Join(d.Path, WorkersFile), &ds.Workers); err != nil {
		return ds, err
	}
	if err := readJSON(filepath.Join(d.Path, TasksFile), &ds.Tasks); err != nil {
		return ds, err
	}
	if len(ds.Workers) == 0 || len(ds.Tasks) == 0 {
		return ds, fmt.Errorf("%w: %s", ErrNotFound, d.Path)
	}
	if err := ctx.Err(); err != nil {
		return ds, err
	}

	store := history.NewStore()
	if err := store.Load(d.Path); err != nil {
		return ds, err
	}
	ds.Performance = store.Performance.Records()
	ds.Durations = store.Durations.Records()

	if err := ds.Validate(); err != nil {
		return ds, err
	}

	log.Info().
		Str("path", d.Path).
		Int("workers", len(ds.Workers)).
		Int("tasks", len(ds.Tasks)).
		Int("performance", len(ds.Performance)).
		Int("durations", len(ds.Durations)).
		Msg("Dataset loaded")
	return ds, nil
}

// Save writes ds into the directory, creating it when needed.
func (d Dir) Save(ds workforce.Dataset) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create dataset dir: %w", err)
	}
	if err := writeJSON(filepath.Join(d.Path, WorkersFile), ds.Workers); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(d.Path, TasksFile), ds.Tasks); err != nil {
		return err
	}

	store := history.NewStore()
	store.Performance.Append(ds.Performance...)
	store.Durations.Append(ds.Durations...)
	return store.Save(d.Path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}
