package fitness

import (
	"testing"

	"crewopt/internal/simulation"
	"crewopt/internal/workforce"

	"github.com/stretchr/testify/assert"
)

func TestSkillMatch(t *testing.T) {
	all := workforce.Requirement{Lead: 1, Qualified: 1, Apprentice: 1}
	tests := []struct {
		name string
		tier workforce.SkillTier
		req  workforce.Requirement
		want float64
	}{
		{"LeadInLeadRole", workforce.TierLead, all, 1.0},
		{"QualifiedBestRole", workforce.TierQualified, all, 0.9},
		{"ApprenticeBestRole", workforce.TierApprentice, all, 0.8},
		{"LeadDiscountedAsQualified", workforce.TierLead, workforce.Requirement{Qualified: 2}, 0.8},
		{"LeadDiscountedAsApprentice", workforce.TierLead, workforce.Requirement{Apprentice: 2}, 0.7},
		{"ApprenticeIneligibleForLead", workforce.TierApprentice, workforce.Requirement{Lead: 1}, 0.1},
		{"NoRolesRequested", workforce.TierLead, workforce.Requirement{}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SkillMatch(tt.tier, tt.req, 0.1), 1e-12)
		})
	}
}

func TestScore_Weighting(t *testing.T) {
	m := DefaultModel()
	task := workforce.TaskType{Code: "T", Requirement: workforce.Requirement{Lead: 1}}
	w := workforce.Worker{ID: "W", Tier: workforce.TierLead, Experience: 7.5, Efficiency: 0.5}

	// skill 1.0, experience 0.5, efficiency 0.5
	assert.InDelta(t, (0.40*1+0.20*0.5+0.40*0.5)*100, m.Score(w, task, nil, false), 1e-9)
	assert.InDelta(t, (0.30*1+0.40*0.5+0.30*0.5)*100, m.Score(w, task, nil, true), 1e-9)

	outcome := &simulation.Outcome{RiskScore: 0.2, MeanPerformance: 0.6}
	b := m.Breakdown(w, task, outcome, true)
	assert.InDelta(t, (0.8*0.7+0.6*0.3)*20, b.Bonus, 1e-9)
	assert.InDelta(t, b.Base+b.Bonus, b.Total, 1e-9)
}

func TestScore_Bounds(t *testing.T) {
	m := DefaultModel()
	outcomes := []*simulation.Outcome{
		nil,
		{RiskScore: 0, MeanPerformance: 1},
		{RiskScore: 1, MeanPerformance: 0},
	}
	reqs := []workforce.Requirement{{}, {Lead: 1}, {Qualified: 3}, {Lead: 1, Qualified: 2, Apprentice: 4}}

	for tier := workforce.TierLead; tier <= workforce.TierApprentice; tier++ {
		for _, exp := range []float64{0, 3, 15, 40} {
			for _, eff := range []float64{0, 0.5, 1, 1.7} {
				for _, req := range reqs {
					for _, o := range outcomes {
						for _, critical := range []bool{false, true} {
							w := workforce.Worker{Tier: tier, Experience: exp, Efficiency: eff}
							s := m.Score(w, workforce.TaskType{Requirement: req}, o, critical)
							assert.True(t, s >= 0 && s <= 100, "score %v out of range for %+v", s, w)
						}
					}
				}
			}
		}
	}
}

func TestScore_PerfectWorkerIsCapped(t *testing.T) {
	m := DefaultModel()
	w := workforce.Worker{Tier: workforce.TierLead, Experience: 30, Efficiency: 1}
	task := workforce.TaskType{Requirement: workforce.Requirement{Lead: 1}}
	o := &simulation.Outcome{RiskScore: 0, MeanPerformance: 1}

	assert.Equal(t, 100.0, m.Score(w, task, o, false))
}
