// Package history keeps performance and duration records in JSONL files.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Log is a thread-safe, ordered, deduplicated record sequence.
type Log[T any] struct {
	mu      sync.RWMutex
	name    string
	records []T
	keys    map[string]bool
	key     func(T) string
	less    func(a, b T) bool
}

func newLog[T any](name string, key func(T) string, less func(a, b T) bool) *Log[T] {
	return &Log[T]{
		name: name,
		keys: make(map[string]bool),
		key:  key,
		less: less,
	}
}

// Append adds records whose identity is not present yet and returns how many were new.
func (l *Log[T]) Append(records ...T) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, r := range records {
		k := l.key(r)
		if l.keys[k] {
			continue
		}
		l.keys[k] = true
		l.records = append(l.records, r)
		added++
	}

	if added > 0 {
		sort.SliceStable(l.records, func(i, j int) bool {
			return l.less(l.records[i], l.records[j])
		})
	}
	return added
}

// Records returns a copy in storage order.
func (l *Log[T]) Records() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.records))
	copy(out, l.records)
	return out
}

// Filter returns a copy of the records matching fn.
func (l *Log[T]) Filter(fn func(T) bool) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []T
	for _, r := range l.records {
		if fn(r) {
			out = append(out, r)
		}
	}
	return out
}

func (l *Log[T]) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Load reads a JSONL file. A missing file is not an error; malformed lines
// are skipped with a warning.
func (l *Log[T]) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s history: %w", l.name, err)
	}
	defer file.Close()

	var records []T
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r T
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("history", l.name).Int("line", line).Msg("Skipping invalid JSON line")
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s history: %w", l.name, err)
	}

	added := l.Append(records...)
	log.Debug().Str("history", l.name).Int("read", len(records)).Int("added", added).Msg("Loaded history")
	return nil
}

// Save writes all records to path through a temp file and an atomic rename.
func (l *Log[T]) Save(path string) error {
	records := l.Records()
	if len(records) == 0 {
		return nil
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode %s record: %w", l.name, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	log.Info().Str("history", l.name).Int("count", len(records)).Msg("History saved")
	return nil
}
