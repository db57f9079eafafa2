package history

import (
	"fmt"
	"path/filepath"

	"crewopt/internal/workforce"
)

const (
	PerformanceFile = "performance.jsonl"
	DurationFile    = "durations.jsonl"
)

// Store holds both record kinds of a dataset directory.
type Store struct {
	Performance *Log[workforce.PerformanceRecord]
	Durations   *Log[workforce.DurationRecord]
}

func NewStore() *Store {
	return &Store{
		Performance: newLog("performance",
			func(r workforce.PerformanceRecord) string {
				return fmt.Sprintf("%s|%s|%d", r.TaskCode, r.WorkerID, r.ProjectIndex)
			},
			func(a, b workforce.PerformanceRecord) bool {
				if a.WorkerID != b.WorkerID {
					return a.WorkerID < b.WorkerID
				}
				if a.TaskCode != b.TaskCode {
					return a.TaskCode < b.TaskCode
				}
				return a.ProjectIndex < b.ProjectIndex
			}),
		Durations: newLog("duration",
			func(r workforce.DurationRecord) string {
				return fmt.Sprintf("%s|%d", r.TaskCode, r.Index)
			},
			func(a, b workforce.DurationRecord) bool {
				if a.TaskCode != b.TaskCode {
					return a.TaskCode < b.TaskCode
				}
				return a.Index < b.Index
			}),
	}
}

// Load reads both files from dir.
func (s *Store) Load(dir string) error {
	if err := s.Performance.Load(filepath.Join(dir, PerformanceFile)); err != nil {
		return err
	}
	return s.Durations.Load(filepath.Join(dir, DurationFile))
}

// Save writes both files into dir.
func (s *Store) Save(dir string) error {
	if err := s.Performance.Save(filepath.Join(dir, PerformanceFile)); err != nil {
		return err
	}
	return s.Durations.Save(filepath.Join(dir, DurationFile))
}

// ForWorker returns one worker's performance records.
func (s *Store) ForWorker(workerID string) []workforce.PerformanceRecord {
	return s.Performance.Filter(func(r workforce.PerformanceRecord) bool {
		return r.WorkerID == workerID
	})
}

// NextProjectIndex returns the index a new record for (task, worker) should use.
func (s *Store) NextProjectIndex(taskCode, workerID string) int {
	next := 0
	for _, r := range s.ForWorker(workerID) {
		if r.TaskCode == taskCode && r.ProjectIndex >= next {
			next = r.ProjectIndex + 1
		}
	}
	return next
}
