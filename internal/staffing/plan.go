// Package staffing turns a team optimization into concrete role fills,
// skipping workers already committed elsewhere.
package staffing

import (
	"errors"
	"sort"

	"crewopt/internal/genetic"
	"crewopt/internal/workforce"
)

// ErrUnderstaffed is returned by Plan.Err when slots remain and subcontracting is not allowed.
var ErrUnderstaffed = errors.New("staffing: not enough available workers")

// Busy is the set of worker IDs unavailable for new work.
type Busy map[string]bool

// NewBusy builds a set from IDs.
func NewBusy(ids ...string) Busy {
	b := make(Busy, len(ids))
	for _, id := range ids {
		b[id] = true
	}
	return b
}

// Commit marks every worker of a plan as busy.
func (b Busy) Commit(p Plan) {
	for _, role := range workforce.AllRoles {
		for _, a := range p.Members[role] {
			b[a.WorkerID] = true
		}
	}
}

// Plan is the staffing decision for one task.
type Plan struct {
	TaskCode       string                                  `json:"task_code"`
	Scenario       genetic.Scenario                        `json:"scenario"`
	Members        map[workforce.Role][]genetic.Assignment `json:"members"`
	Shortfall      map[workforce.Role]int                  `json:"shortfall"`
	TotalShortfall int                                     `json:"total_shortfall"`
	Subcontract    map[workforce.Role]int                  `json:"subcontract,omitempty"`
	Subcontracted  bool                                    `json:"subcontracted"`
}

// Err reports whether the plan can be committed as is.
func (p Plan) Err() error {
	if p.TotalShortfall > 0 && !p.Subcontracted {
		return ErrUnderstaffed
	}
	return nil
}

// Build fills each required role from the ranked candidates of res whose own
// tier matches the role. Busy and already placed workers are skipped. When
// allowSubcontract is set, every shortfall is covered by external staff.
func Build(res genetic.Result, req workforce.Requirement, busy Busy, allowSubcontract bool) Plan {
	candidates := make([]genetic.Assignment, 0, len(res.Assigned)+len(res.Alternates))
	candidates = append(candidates, res.Assigned...)
	candidates = append(candidates, res.Alternates...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	p := Plan{
		TaskCode:  res.TaskCode,
		Scenario:  res.Scenario,
		Members:   make(map[workforce.Role][]genetic.Assignment),
		Shortfall: make(map[workforce.Role]int),
	}
	used := make(map[string]bool)

	for _, role := range workforce.AllRoles {
		need := req.Count(role)
		if need == 0 {
			continue
		}
		for _, c := range candidates {
			if len(p.Members[role]) == need {
				break
			}
			if c.Role != role || busy[c.WorkerID] || used[c.WorkerID] {
				continue
			}
			p.Members[role] = append(p.Members[role], c)
			used[c.WorkerID] = true
		}
		missing := need - len(p.Members[role])
		p.Shortfall[role] = missing
		p.TotalShortfall += missing
	}

	if allowSubcontract && p.TotalShortfall > 0 {
		p.Subcontracted = true
		p.Subcontract = make(map[workforce.Role]int)
		for role, n := range p.Shortfall {
			if n > 0 {
				p.Subcontract[role] = n
			}
		}
	}
	return p
}
