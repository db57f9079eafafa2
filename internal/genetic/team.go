package genetic

import (
	"slices"

	"crewopt/internal/workforce"
)

// Team maps each role to the ordered worker IDs filling it.
// Only roles the task requires are present.
type Team map[workforce.Role][]string

// Clone returns a deep copy.
func (t Team) Clone() Team {
	out := make(Team, len(t))
	for role, ids := range t {
		out[role] = slices.Clone(ids)
	}
	return out
}

// Roles returns the roles present, in canonical order.
func (t Team) Roles() []workforce.Role {
	out := make([]workforce.Role, 0, len(t))
	for _, role := range workforce.AllRoles {
		if _, ok := t[role]; ok {
			out = append(out, role)
		}
	}
	return out
}

// WorkerIDs lists every member in canonical role order.
func (t Team) WorkerIDs() []string {
	var out []string
	for _, role := range workforce.AllRoles {
		out = append(out, t[role]...)
	}
	return out
}

// Size is the total headcount.
func (t Team) Size() int {
	n := 0
	for _, ids := range t {
		n += len(ids)
	}
	return n
}

// Contains reports whether id is assigned to any role.
func (t Team) Contains(id string) bool {
	for _, ids := range t {
		if slices.Contains(ids, id) {
			return true
		}
	}
	return false
}

// Shortfall reports unfilled slots per required role.
func (t Team) Shortfall(req workforce.Requirement) (map[workforce.Role]int, int) {
	out := make(map[workforce.Role]int)
	total := 0
	for _, role := range workforce.AllRoles {
		need := req.Count(role)
		if need == 0 {
			continue
		}
		missing := max(0, need-len(t[role]))
		out[role] = missing
		total += missing
	}
	return out, total
}

// TeamFitness sums member scores, then multiplies by 0.5·(assigned/required)
// for every under-filled role.
func TeamFitness(t Team, req workforce.Requirement, scores map[string]float64) float64 {
	total := 0.0
	for _, role := range workforce.AllRoles {
		for _, id := range t[role] {
			total += scores[id]
		}
	}
	for _, role := range workforce.AllRoles {
		need := req.Count(role)
		got := len(t[role])
		if need > 0 && got < need {
			total *= 0.5 * float64(got) / float64(need)
		}
	}
	return total
}
