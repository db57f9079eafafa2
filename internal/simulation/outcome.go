package simulation

import "sort"

// TaskOutcome aggregates the draws of a single task type.
type TaskOutcome struct {
	TaskCode         string  `json:"task_code"`
	Mean             float64 `json:"mean"`
	Risk             float64 `json:"risk"`
	DelayProbability float64 `json:"delay_probability"`
}

// Distribution summarizes the pooled draws of one worker.
type Distribution struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Std float64 `json:"std"`
	Q25 float64 `json:"q25"`
	Q75 float64 `json:"q75"`
	P50 float64 `json:"median"`
}

// Outcome is the forecast for one worker.
type Outcome struct {
	WorkerID         string        `json:"worker_id"`
	MeanPerformance  float64       `json:"mean_performance"`
	RiskScore        float64       `json:"risk_score"`
	DelayProbability float64       `json:"delay_probability"`
	Stability        float64       `json:"stability"`
	Tasks            []TaskOutcome `json:"tasks"`
	Distribution     Distribution  `json:"distribution"`
	Profiles         []Profile     `json:"profiles,omitempty"`
}

// Outcomes maps worker IDs to forecasts. Workers without history are absent.
type Outcomes map[string]Outcome

// Get returns the forecast for a worker. A missing entry means "unknown", not "zero risk".
func (o Outcomes) Get(workerID string) (*Outcome, bool) {
	out, ok := o[workerID]
	if !ok {
		return nil, false
	}
	return &out, true
}

// WorkerIDs returns the simulated worker IDs in sorted order.
func (o Outcomes) WorkerIDs() []string {
	ids := make([]string, 0, len(o))
	for id := range o {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
