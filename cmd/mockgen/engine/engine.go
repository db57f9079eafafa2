package engine

import (
	"fmt"
	"math"
	"math/rand"

	"crewopt/internal/stats"
	"crewopt/internal/workforce"
)

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Workers      int
	Tasks        int
	Projects     int // history length per task
	Seed         int64
}

var departments = []string{"assembly", "welding", "finishing", "inspection"}

// Generate builds a dataset whose history follows the scenario:
// mild is steady, chaos adds black-swan projects, drift degrades the second half.
func Generate(cfg GeneratorConfig) workforce.Dataset {
	rng := rand.New(rand.NewSource(cfg.Seed))
	var ds workforce.Dataset

	for i := 0; i < cfg.Workers; i++ {
		// Roughly 1 lead : 2 qualified : 2 apprentices
		tier := workforce.TierApprentice
		switch {
		case i%5 == 0:
			tier = workforce.TierLead
		case i%5 <= 2:
			tier = workforce.TierQualified
		}
		exp := map[workforce.SkillTier]float64{
			workforce.TierLead:       8 + rng.Float64()*12,
			workforce.TierQualified:  3 + rng.Float64()*8,
			workforce.TierApprentice: rng.Float64() * 3,
		}[tier]
		ds.Workers = append(ds.Workers, workforce.Worker{
			ID:         fmt.Sprintf("W%03d", i+1),
			Name:       fmt.Sprintf("Worker %d", i+1),
			Tier:       tier,
			Experience: math.Round(exp*10) / 10,
			Efficiency: math.Round(stats.Clamp(0.5+rng.Float64()*0.45, 0, 1)*100) / 100,
		})
	}

	for i := 0; i < cfg.Tasks; i++ {
		req := workforce.Requirement{
			Lead:       1,
			Qualified:  rng.Intn(3),
			Apprentice: rng.Intn(3),
		}
		base := 4 + rng.Float64()*8
		task := workforce.TaskType{
			Code:              fmt.Sprintf("T%02d", i+1),
			ProductName:       fmt.Sprintf("Product %c", 'A'+rune(i%26)),
			EstimatedDuration: math.Round(base*10) / 10,
			Requirement:       req,
			Department:        departments[i%len(departments)],
			Difficulty:        1 + rng.Intn(5),
		}
		ds.Tasks = append(ds.Tasks, task)

		for p := 0; p < cfg.Projects; p++ {
			ds.Durations = append(ds.Durations, workforce.DurationRecord{
				TaskCode:   task.Code,
				Department: task.Department,
				Index:      p,
				Duration:   math.Round(sampleDuration(rng, cfg, base, p)*100) / 100,
			})
		}
	}

	for _, w := range ds.Workers {
		ability := 0.45 + 0.4*w.Efficiency - 0.05*float64(w.Tier-1)
		for _, task := range ds.Tasks {
			if rng.Float64() < 0.4 {
				continue
			}
			for p := 0; p < cfg.Projects; p++ {
				ds.Performance = append(ds.Performance, workforce.PerformanceRecord{
					TaskCode:     task.Code,
					WorkerID:     w.ID,
					ProjectIndex: p,
					Score:        math.Round(sampleScore(rng, cfg, ability, p)*1000) / 1000,
				})
			}
		}
	}

	return ds
}

func sampleDuration(rng *rand.Rand, cfg GeneratorConfig, base float64, project int) float64 {
	var d float64
	if cfg.Distribution == "weibull" {
		k, lambda := 2.5, base*1.1
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
		case "drift":
			ratio := float64(project) / float64(cfg.Projects)
			k = 2.5 - 1.7*ratio
		}
		d = weibullSample(rng, k, lambda)
	} else {
		d = base * (0.8 + rng.Float64()*0.4)
		if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
			d += base * (1 + rng.Float64()*1.5) // black swan
		}
	}
	if cfg.Scenario == "drift" && project > cfg.Projects/2 {
		d *= 1.5
	}
	return math.Max(d, 0.1)
}

func sampleScore(rng *rand.Rand, cfg GeneratorConfig, ability float64, project int) float64 {
	noise := 0.05
	switch cfg.Scenario {
	case "chaos":
		noise = 0.2
	case "drift":
		ability -= 0.3 * float64(project) / float64(cfg.Projects)
	}
	return stats.Clamp(ability+rng.NormFloat64()*noise, 0, 1)
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}
