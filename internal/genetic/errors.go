package genetic

import "errors"

var (
	ErrNoWorkers      = errors.New("genetic: no workers supplied")
	ErrInvalidOptions = errors.New("genetic: invalid options")
)
