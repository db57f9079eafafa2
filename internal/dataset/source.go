// Package dataset loads and stores workforce datasets.
package dataset

import (
	"context"
	"errors"

	"crewopt/internal/workforce"
)

// ErrNotFound is returned when a source holds no workers or no tasks.
var ErrNotFound = errors.New("dataset not found")

// Source produces a validated dataset snapshot.
type Source interface {
	Load(ctx context.Context) (workforce.Dataset, error)
}
