package dataset

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a disposable database named by CREWOPT_TEST_DSN.
func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv("CREWOPT_TEST_DSN")
	if dsn == "" {
		t.Skip("CREWOPT_TEST_DSN not set")
	}

	cfg := DefaultPostgresConfig()
	cfg.DSN = dsn

	ctx := context.Background()
	pg, err := OpenPostgres(ctx, cfg)
	require.NoError(t, err)
	defer pg.Close()

	require.NoError(t, pg.EnsureSchema(ctx))
	require.NoError(t, pg.Save(ctx, sample()))
	require.NoError(t, pg.Save(ctx, sample()), "saving twice must be idempotent")

	ds, err := pg.Load(ctx)
	require.NoError(t, err)

	w, ok := ds.WorkerByID("W1")
	require.True(t, ok)
	assert.Equal(t, "Ada", w.Name)
	assert.GreaterOrEqual(t, len(ds.Durations), 2)
}

func TestOpenPostgres_Unreachable(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.DSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable"
	cfg.ConnectTimeout = 1

	_, err := OpenPostgres(context.Background(), cfg)
	assert.Error(t, err)
}
