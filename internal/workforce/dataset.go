package workforce

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var (
	ErrDuplicateWorker = errors.New("duplicate worker id")
	ErrDuplicateTask   = errors.New("duplicate task code")
	ErrUnknownWorker   = errors.New("unknown worker id")
	ErrUnknownTask     = errors.New("unknown task code")
)

// Dataset is an in-memory snapshot handed to the engines.
type Dataset struct {
	Workers     []Worker            `json:"workers" validate:"dive"`
	Tasks       []TaskType          `json:"tasks" validate:"dive"`
	Performance []PerformanceRecord `json:"performance" validate:"dive"`
	Durations   []DurationRecord    `json:"durations" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints, identifier uniqueness and that every
// history record names a known worker and task.
func (d *Dataset) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}

	seen := make(map[string]bool, len(d.Workers))
	for _, w := range d.Workers {
		if seen[w.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateWorker, w.ID)
		}
		seen[w.ID] = true
	}

	codes := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if codes[t.Code] {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Code)
		}
		codes[t.Code] = true
	}

	for _, r := range d.Performance {
		switch {
		case !seen[r.WorkerID]:
			return fmt.Errorf("%w: %s in performance record for %s", ErrUnknownWorker, r.WorkerID, r.TaskCode)
		case !codes[r.TaskCode]:
			return fmt.Errorf("%w: %s in performance record of %s", ErrUnknownTask, r.TaskCode, r.WorkerID)
		}
	}
	for _, r := range d.Durations {
		if !codes[r.TaskCode] {
			return fmt.Errorf("%w: %s in duration record %d", ErrUnknownTask, r.TaskCode, r.Index)
		}
	}
	return nil
}

// WorkerByID looks up a worker.
func (d *Dataset) WorkerByID(id string) (Worker, bool) {
	for _, w := range d.Workers {
		if w.ID == id {
			return w, true
		}
	}
	return Worker{}, false
}

// TaskByCode looks up a task type.
func (d *Dataset) TaskByCode(code string) (TaskType, bool) {
	for _, t := range d.Tasks {
		if t.Code == code {
			return t, true
		}
	}
	return TaskType{}, false
}

// DurationsByTask groups timing samples per task code, each group ordered by Index.
func DurationsByTask(records []DurationRecord) map[string][]float64 {
	grouped := make(map[string][]DurationRecord)
	for _, r := range records {
		grouped[r.TaskCode] = append(grouped[r.TaskCode], r)
	}

	out := make(map[string][]float64, len(grouped))
	for code, recs := range grouped {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Index < recs[j].Index })
		vals := make([]float64, len(recs))
		for i, r := range recs {
			vals[i] = r.Duration
		}
		out[code] = vals
	}
	return out
}

// WorkersByTier partitions workers by their own tier, preserving input order.
func WorkersByTier(workers []Worker) map[SkillTier][]Worker {
	out := make(map[SkillTier][]Worker, 3)
	for _, w := range workers {
		out[w.Tier] = append(out[w.Tier], w)
	}
	return out
}
