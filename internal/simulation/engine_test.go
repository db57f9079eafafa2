package simulation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"crewopt/internal/workforce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(workerID, task string, scores ...float64) []workforce.PerformanceRecord {
	out := make([]workforce.PerformanceRecord, len(scores))
	for i, s := range scores {
		out[i] = workforce.PerformanceRecord{TaskCode: task, WorkerID: workerID, ProjectIndex: i, Score: s}
	}
	return out
}

func seededEngine(seed int64) *Engine {
	e := NewEngine(DefaultConfig())
	e.SetSeed(seed)
	return e
}

func TestSimulate_ZeroVarianceHistory(t *testing.T) {
	history := series("W1", "T1", 0.9, 0.9, 0.9, 0.9, 0.9)
	workers := []workforce.Worker{{ID: "W1", Tier: workforce.TierQualified}}

	out, err := seededEngine(1).Simulate(context.Background(), history, workers, 10000)
	require.NoError(t, err)

	o, ok := out.Get("W1")
	require.True(t, ok)

	// Floor variance 0.01 puts the risk threshold four standard deviations below
	// the center; the tail is about 3e-5, so a few draws may still land there.
	assert.Less(t, o.RiskScore, 0.001)
	assert.InDelta(t, 0, o.DelayProbability, 1e-9)
	assert.InDelta(t, 0.89, o.MeanPerformance, 0.01)
	assert.Equal(t, 0.0, o.Profiles[0].Trend)
	assert.Equal(t, 0.0, o.Profiles[0].Variance)
}

func TestSimulate_WorkerWithoutHistoryIsAbsent(t *testing.T) {
	history := series("W1", "T1", 0.7, 0.8)
	workers := []workforce.Worker{{ID: "W1"}, {ID: "W2"}}

	out, err := seededEngine(7).Simulate(context.Background(), history, workers, 500)
	require.NoError(t, err)

	_, ok := out.Get("W2")
	assert.False(t, ok, "worker with no history must not get a zero-filled entry")
	assert.Equal(t, []string{"W1"}, out.WorkerIDs())
}

func TestSimulate_Boundedness(t *testing.T) {
	var history []workforce.PerformanceRecord
	history = append(history, series("W1", "T1", 0.1, 0.9, 0.2, 0.95, 0.05)...)
	history = append(history, series("W1", "T2", 0.4, 0.45, 0.5, 0.55)...)
	history = append(history, series("W2", "T1", 0.99, 1, 1)...)
	workers := []workforce.Worker{{ID: "W1"}, {ID: "W2"}}

	out, err := seededEngine(42).Simulate(context.Background(), history, workers, 2000)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, id := range out.WorkerIDs() {
		o := out[id]
		t.Run(id, func(t *testing.T) {
			assert.GreaterOrEqual(t, o.Distribution.Min, 0.0)
			assert.LessOrEqual(t, o.Distribution.Max, 1.0)
			assert.True(t, o.RiskScore >= 0 && o.RiskScore <= 1)
			assert.True(t, o.DelayProbability >= 0 && o.DelayProbability <= 1)
			assert.LessOrEqual(t, o.DelayProbability, o.RiskScore)
			assert.True(t, o.Stability >= 0 && o.Stability <= 1)
			for _, task := range o.Tasks {
				assert.LessOrEqual(t, task.DelayProbability, task.Risk, task.TaskCode)
			}
		})
	}

	assert.Len(t, out["W1"].Tasks, 2)
	assert.Equal(t, "T1", out["W1"].Tasks[0].TaskCode)
}

func TestSimulate_SeedReproducible(t *testing.T) {
	var history []workforce.PerformanceRecord
	var workers []workforce.Worker
	for i := range 12 {
		id := fmt.Sprintf("W%02d", i)
		workers = append(workers, workforce.Worker{ID: id})
		history = append(history, series(id, "T1", 0.5, 0.6, 0.55, 0.7)...)
	}

	a, err := seededEngine(99).Simulate(context.Background(), history, workers, 1000)
	require.NoError(t, err)
	b, err := seededEngine(99).Simulate(context.Background(), history, workers, 1000)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSimulate_Errors(t *testing.T) {
	e := seededEngine(1)
	history := series("W1", "T1", 0.5)
	workers := []workforce.Worker{{ID: "W1"}}

	_, err := e.Simulate(context.Background(), history, nil, 10)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = e.Simulate(context.Background(), nil, workers, 10)
	assert.ErrorIs(t, err, ErrNoHistory)

	_, err = e.Simulate(context.Background(), history, workers, -1)
	assert.ErrorIs(t, err, ErrInvalidIterations)
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seededEngine(1).Simulate(ctx, series("W1", "T1", 0.5, 0.6), []workforce.Worker{{ID: "W1"}}, 10)
	assert.True(t, errors.Is(err, context.Canceled))
}
