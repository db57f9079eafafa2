package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ObserveRun(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.ObserveRun("genetic", 20*time.Millisecond, nil)
	m.ObserveRun("genetic", 10*time.Millisecond, errors.New("boom"))
	m.ObserveRun("simulation", time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("genetic", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("genetic", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("simulation", "ok")))
}

func TestManager_TeamAndDurations(t *testing.T) {
	m := NewManager()

	m.ObserveTeam("T1", "critical", 182.5, 1)
	m.ObserveTrials("orthogonal_L9", 9)
	m.ObserveTrials("orthogonal_L9", 9)
	m.ObserveImprovement("T1", 12.5)
	m.SetSimulatedWorkers(4)
	m.ObserveWorkerRisk("W1", 0.25)

	assert.Equal(t, 182.5, testutil.ToFloat64(m.teamFitness.WithLabelValues("T1", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.teamShortfall.WithLabelValues("T1", "critical")))
	assert.Equal(t, 18.0, testutil.ToFloat64(m.trials.WithLabelValues("orthogonal_L9")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.improvement.WithLabelValues("T1")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.workers))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.workerRisk.WithLabelValues("W1")))
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.ObserveRun("genetic", time.Second, nil)
		m.ObserveTeam("T", "normal", 1, 0)
		m.ObserveTrials("random_sampling", 1)
		m.ObserveImprovement("T", 1)
		m.SetSimulatedWorkers(1)
		m.ObserveWorkerRisk("W", 1)
	})
	assert.NoError(t, m.WriteTextfile(""))
	assert.Nil(t, m.Registry())
}

func TestManager_WriteTextfile(t *testing.T) {
	m := NewManager()
	m.ObserveRun("duration", time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "crewopt.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "crewopt_engine_runs_total"))

	assert.ErrorIs(t, m.WriteTextfile(""), ErrNoTextfilePath)
}
