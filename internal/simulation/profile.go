package simulation

import (
	"sort"

	"crewopt/internal/stats"
	"crewopt/internal/workforce"
)

// Profile is the derived performance aggregate of one worker on one task type.
type Profile struct {
	TaskCode     string    `json:"task_code"`
	Observations []float64 `json:"-"`
	Count        int       `json:"count"`
	Baseline     float64   `json:"baseline"`
	Trend        float64   `json:"trend"`
	Variance     float64   `json:"variance"`
}

// Center is the mean of the simulated draw distribution.
func (p Profile) Center() float64 {
	return p.Baseline + p.Trend
}

// historyIndex groups records by worker then task code, each series ordered by project index.
type historyIndex map[string]map[string][]workforce.PerformanceRecord

func indexHistory(history []workforce.PerformanceRecord) historyIndex {
	idx := make(historyIndex)
	for _, r := range history {
		byTask, ok := idx[r.WorkerID]
		if !ok {
			byTask = make(map[string][]workforce.PerformanceRecord)
			idx[r.WorkerID] = byTask
		}
		byTask[r.TaskCode] = append(byTask[r.TaskCode], r)
	}
	for _, byTask := range idx {
		for _, recs := range byTask {
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].ProjectIndex < recs[j].ProjectIndex })
		}
	}
	return idx
}

func (idx historyIndex) profiles(workerID string, cfg Config) []Profile {
	byTask := idx[workerID]
	if len(byTask) == 0 {
		return nil
	}

	codes := make([]string, 0, len(byTask))
	for code := range byTask {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]Profile, 0, len(codes))
	for _, code := range codes {
		recs := byTask[code]
		obs := make([]float64, len(recs))
		for i, r := range recs {
			obs[i] = r.Score
		}
		out = append(out, Profile{
			TaskCode:     code,
			Observations: obs,
			Count:        len(obs),
			Baseline:     stats.WeightedBaseline(obs, cfg.RecentWindow, cfg.RecentWeight),
			Trend:        stats.LinearTrend(obs),
			Variance:     stats.Variance(obs),
		})
	}
	return out
}

// BuildProfiles derives per-task profiles for one worker, sorted by task code.
// It returns nil when the worker has no history.
func BuildProfiles(history []workforce.PerformanceRecord, workerID string, cfg Config) []Profile {
	return indexHistory(history).profiles(workerID, cfg)
}
