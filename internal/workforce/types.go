package workforce

import "fmt"

// SkillTier is a worker's competency class. Lower numbers mean higher skill.
type SkillTier int

const (
	TierLead       SkillTier = 1
	TierQualified  SkillTier = 2
	TierApprentice SkillTier = 3
)

// Valid reports whether t is one of the three known tiers.
func (t SkillTier) Valid() bool {
	return t >= TierLead && t <= TierApprentice
}

// Role returns the role a worker of this tier fills at full score.
func (t SkillTier) Role() Role {
	switch t {
	case TierLead:
		return RoleLead
	case TierQualified:
		return RoleQualified
	default:
		return RoleApprentice
	}
}

func (t SkillTier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return string(t.Role())
}

// Role is a slot on a team. Each role maps to exactly one tier.
type Role string

const (
	RoleLead       Role = "lead"
	RoleQualified  Role = "qualified"
	RoleApprentice Role = "apprentice"
)

// AllRoles fixes the iteration order used everywhere results depend on it.
var AllRoles = []Role{RoleLead, RoleQualified, RoleApprentice}

// Tier returns the tier whose workers populate this role.
func (r Role) Tier() SkillTier {
	switch r {
	case RoleLead:
		return TierLead
	case RoleQualified:
		return TierQualified
	default:
		return TierApprentice
	}
}

// Worker is a single member of the workforce.
type Worker struct {
	ID         string    `json:"id" yaml:"id" validate:"required"`
	Name       string    `json:"name" yaml:"name"`
	Tier       SkillTier `json:"tier" yaml:"tier" validate:"min=1,max=3"`
	Experience float64   `json:"experience_years" yaml:"experience_years" validate:"gte=0"`
	Efficiency float64   `json:"efficiency" yaml:"efficiency" validate:"gte=0,lte=1"`
}

// Requirement is the headcount a task needs per role.
type Requirement struct {
	Lead       int `json:"lead" yaml:"lead" validate:"gte=0"`
	Qualified  int `json:"qualified" yaml:"qualified" validate:"gte=0"`
	Apprentice int `json:"apprentice" yaml:"apprentice" validate:"gte=0"`
}

// Count returns the required headcount for a role.
func (r Requirement) Count(role Role) int {
	switch role {
	case RoleLead:
		return r.Lead
	case RoleQualified:
		return r.Qualified
	case RoleApprentice:
		return r.Apprentice
	}
	return 0
}

// Total returns the headcount across all roles.
func (r Requirement) Total() int {
	return r.Lead + r.Qualified + r.Apprentice
}

// TaskType is reference data for one kind of production task.
type TaskType struct {
	Code              string      `json:"code" yaml:"code" validate:"required"`
	ProductName       string      `json:"product_name" yaml:"product_name"`
	EstimatedDuration float64     `json:"estimated_duration" yaml:"estimated_duration" validate:"gt=0"`
	Requirement       Requirement `json:"requirement" yaml:"requirement"`
	Department        string      `json:"department,omitempty" yaml:"department,omitempty"`
	Difficulty        int         `json:"difficulty,omitempty" yaml:"difficulty,omitempty" validate:"gte=0"`
}

// PerformanceRecord is one historical productivity observation.
type PerformanceRecord struct {
	TaskCode     string  `json:"task_code" validate:"required"`
	WorkerID     string  `json:"worker_id" validate:"required"`
	ProjectIndex int     `json:"project_index" validate:"gte=0"`
	Score        float64 `json:"score" validate:"gte=0,lte=1"`
}

// DurationRecord is one historical timing sample for a task type.
type DurationRecord struct {
	TaskCode   string  `json:"task_code" validate:"required"`
	Department string  `json:"department,omitempty"`
	Index      int     `json:"index" validate:"gte=0"`
	Duration   float64 `json:"duration" validate:"gt=0"`
}
