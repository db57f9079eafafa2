// Package fitness scores how well a single worker suits a single task.
package fitness

import (
	"crewopt/internal/simulation"
	"crewopt/internal/stats"
	"crewopt/internal/workforce"
)

// Weights blend the score terms for one scenario.
type Weights struct {
	Skill       float64 `json:"skill" koanf:"skill"`
	Experience  float64 `json:"experience" koanf:"experience"`
	Efficiency  float64 `json:"efficiency" koanf:"efficiency"`
	Risk        float64 `json:"risk" koanf:"risk"`
	Performance float64 `json:"performance" koanf:"performance"`
}

// Model holds the weighting table. The zero value is not usable; start from DefaultModel.
type Model struct {
	ExperienceCap float64 `koanf:"experience_cap" validate:"gt=0"`
	BonusCap      float64 `koanf:"bonus_cap" validate:"gte=0"`
	SkillFloor    float64 `koanf:"skill_floor" validate:"gte=0,lte=1"`
	Normal        Weights `koanf:"normal"`
	Critical      Weights `koanf:"critical"`
}

func DefaultModel() Model {
	return Model{
		ExperienceCap: 15,
		BonusCap:      20,
		SkillFloor:    0.1,
		Normal:        Weights{Skill: 0.40, Experience: 0.20, Efficiency: 0.40, Risk: 0.3, Performance: 0.7},
		Critical:      Weights{Skill: 0.30, Experience: 0.40, Efficiency: 0.30, Risk: 0.7, Performance: 0.3},
	}
}

// Breakdown exposes the individual terms of a score.
type Breakdown struct {
	Skill      float64 `json:"skill"`
	Experience float64 `json:"experience"`
	Efficiency float64 `json:"efficiency"`
	Base       float64 `json:"base"`
	Bonus      float64 `json:"bonus"`
	Total      float64 `json:"total"`
}

// Score returns a value in [0,100]. outcome may be nil when the worker has no forecast.
func (m Model) Score(w workforce.Worker, task workforce.TaskType, outcome *simulation.Outcome, critical bool) float64 {
	return m.Breakdown(w, task, outcome, critical).Total
}

func (m Model) Breakdown(w workforce.Worker, task workforce.TaskType, outcome *simulation.Outcome, critical bool) Breakdown {
	wt := m.Normal
	if critical {
		wt = m.Critical
	}

	b := Breakdown{
		Skill:      SkillMatch(w.Tier, task.Requirement, m.SkillFloor),
		Experience: stats.Clamp(w.Experience/m.ExperienceCap, 0, 1),
		Efficiency: stats.Clamp(w.Efficiency, 0, 1),
	}
	b.Base = (b.Skill*wt.Skill + b.Experience*wt.Experience + b.Efficiency*wt.Efficiency) * 100

	if outcome != nil {
		b.Bonus = ((1-outcome.RiskScore)*wt.Risk + outcome.MeanPerformance*wt.Performance) * m.BonusCap
	}

	b.Total = stats.Clamp(b.Base+b.Bonus, 0, 100)
	return b
}

// SkillMatch is the best eligibility score over the roles the task requests.
// A lead fills lower roles at a discount; ineligible workers get floor.
func SkillMatch(tier workforce.SkillTier, req workforce.Requirement, floor float64) float64 {
	best := floor
	if req.Lead > 0 && tier == workforce.TierLead {
		best = max(best, 1.0)
	}
	if req.Qualified > 0 && tier <= workforce.TierQualified {
		if tier == workforce.TierQualified {
			best = max(best, 0.9)
		} else {
			best = max(best, 0.8)
		}
	}
	if req.Apprentice > 0 && tier <= workforce.TierApprentice {
		if tier == workforce.TierApprentice {
			best = max(best, 0.8)
		} else {
			best = max(best, 0.7)
		}
	}
	return best
}
