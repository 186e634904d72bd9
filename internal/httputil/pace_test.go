// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_FirstWaitImmediate(t *testing.T) {
	p := NewPacer(500 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_EnforcesInterval(t *testing.T) {
	interval := 50 * time.Millisecond
	p := NewPacer(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	elapsed := time.Since(start)

	// First call is free, the next two each wait one interval.
	assert.GreaterOrEqual(t, elapsed, 2*interval)
}

func TestPacer_ContextCancelled(t *testing.T) {
	p := NewPacer(10 * time.Second)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPacer_NilNoOp(t *testing.T) {
	var p *Pacer
	require.NoError(t, p.Wait(context.Background()))
}

func TestPacer_ZeroIntervalNoOp(t *testing.T) {
	p := NewPacer(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
