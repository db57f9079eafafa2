package simulation

import "errors"

var (
	ErrNoWorkers         = errors.New("simulation: no workers supplied")
	ErrNoHistory         = errors.New("simulation: no performance history supplied")
	ErrInvalidIterations = errors.New("simulation: iterations must be positive")
)
