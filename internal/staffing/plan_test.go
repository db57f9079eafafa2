package staffing

import (
	"testing"

	"crewopt/internal/genetic"
	"crewopt/internal/workforce"

	"github.com/stretchr/testify/assert"
)

func result() genetic.Result {
	return genetic.Result{
		TaskCode: "T1",
		Scenario: genetic.ScenarioNormal,
		Assigned: []genetic.Assignment{
			{WorkerID: "L1", Role: workforce.RoleLead, Tier: workforce.TierLead, Score: 90},
			{WorkerID: "Q1", Role: workforce.RoleQualified, Tier: workforce.TierQualified, Score: 80},
			{WorkerID: "Q2", Role: workforce.RoleQualified, Tier: workforce.TierQualified, Score: 75},
		},
		Alternates: []genetic.Assignment{
			{WorkerID: "Q3", Role: workforce.RoleQualified, Tier: workforce.TierQualified, Score: 85},
			{WorkerID: "L2", Role: workforce.RoleLead, Tier: workforce.TierLead, Score: 70},
			{WorkerID: "A1", Role: workforce.RoleApprentice, Tier: workforce.TierApprentice, Score: 40},
		},
	}
}

func ids(as []genetic.Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.WorkerID
	}
	return out
}

func TestBuild_FillsByScoreAcrossAssignedAndAlternates(t *testing.T) {
	req := workforce.Requirement{Lead: 1, Qualified: 2}
	p := Build(result(), req, nil, false)

	assert.Equal(t, []string{"L1"}, ids(p.Members[workforce.RoleLead]))
	assert.Equal(t, []string{"Q3", "Q1"}, ids(p.Members[workforce.RoleQualified]))
	assert.Equal(t, 0, p.TotalShortfall)
	assert.NoError(t, p.Err())
}

func TestBuild_SkipsBusyWorkers(t *testing.T) {
	req := workforce.Requirement{Lead: 1, Qualified: 2, Apprentice: 2}
	p := Build(result(), req, NewBusy("L1", "Q3", "Q1"), false)

	assert.Equal(t, []string{"L2"}, ids(p.Members[workforce.RoleLead]))
	assert.Equal(t, []string{"Q2"}, ids(p.Members[workforce.RoleQualified]))
	assert.Equal(t, 1, p.Shortfall[workforce.RoleQualified])
	assert.Equal(t, 1, p.Shortfall[workforce.RoleApprentice])
	assert.Equal(t, 2, p.TotalShortfall)
	assert.ErrorIs(t, p.Err(), ErrUnderstaffed)
}

func TestBuild_Subcontract(t *testing.T) {
	req := workforce.Requirement{Lead: 3}
	p := Build(result(), req, nil, true)

	assert.True(t, p.Subcontracted)
	assert.Equal(t, map[workforce.Role]int{workforce.RoleLead: 1}, p.Subcontract)
	assert.NoError(t, p.Err())
}

func TestBusy_Commit(t *testing.T) {
	busy := NewBusy()
	req := workforce.Requirement{Lead: 1, Qualified: 1}
	first := Build(result(), req, busy, false)
	busy.Commit(first)

	second := Build(result(), req, busy, false)
	assert.Equal(t, []string{"L2"}, ids(second.Members[workforce.RoleLead]))
	assert.Equal(t, []string{"Q1"}, ids(second.Members[workforce.RoleQualified]))
}
