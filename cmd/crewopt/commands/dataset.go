package commands

import (
	"context"

	"crewopt/internal/workforce"
)

func loadDataset(ctx context.Context) (workforce.Dataset, error) {
	source, closeSource, err := openSource(ctx)
	if err != nil {
		return workforce.Dataset{}, err
	}
	defer closeSource()
	return source.Load(ctx)
}
