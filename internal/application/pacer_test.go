package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerFirstWaitIsImmediate(t *testing.T) {
	p := NewPacer(time.Second)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestPacerSpacesConsecutiveWaits(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, p.Wait(ctx))

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacerZeroIntervalNeverBlocks(t *testing.T) {
	p := NewPacer(0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerHonorsCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Wait(ctx))

	cancel()
	assert.Error(t, p.Wait(ctx))
}
