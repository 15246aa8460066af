package triallog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	log, err := Open(ctx, dir, "demo", false)
	require.NoError(t, err)

	require.NoError(t, log.Append(ctx, Record{
		ID:     "t1",
		Params: map[string]float64{"head/learning_rate": 0.01},
		Score:  0.42,
		Epochs: 3,
	}))
	require.NoError(t, log.Append(ctx, Record{
		ID:     "t2",
		Params: map[string]float64{"head/learning_rate": 0.1},
		Score:  0.37,
		Epochs: 3,
	}))
	require.NoError(t, log.Close())

	// Reopen without overwrite: records survive, in insertion order.
	log, err = Open(ctx, dir, "demo", false)
	require.NoError(t, err)
	defer log.Close()

	records, err := log.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[0].ID)
	assert.Equal(t, 0.37, records[1].Score)
	assert.Equal(t, 0.1, records[1].Params["head/learning_rate"])
}

func TestOverwriteDiscardsOldRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	log, err := Open(ctx, dir, "demo", false)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, Record{ID: "old", Params: map[string]float64{}, Score: 1}))
	require.NoError(t, log.Close())

	log, err = Open(ctx, dir, "demo", true)
	require.NoError(t, err)
	defer log.Close()

	records, err := log.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOpenRequiresDirectory(t *testing.T) {
	_, err := Open(context.Background(), "", "demo", false)
	assert.Error(t, err)
}
