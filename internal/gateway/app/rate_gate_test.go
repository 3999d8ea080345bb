package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateGatePerRecipientGap(t *testing.T) {
	gate := NewRateGate(PacingConfig{PerJIDGapMS: 1500}, newMemLastSend(), testLogger())

	clock := time.Unix(1_700_000_000, 0)
	gate.now = func() time.Time { return clock }

	var slept []time.Duration
	gate.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}

	require.NoError(t, gate.Acquire(context.Background(), "27820000001@s.whatsapp.net"))
	require.NoError(t, gate.Acquire(context.Background(), "27820000001@s.whatsapp.net"))

	require.Len(t, slept, 2)
	assert.Equal(t, time.Duration(0), slept[0])
	assert.Equal(t, 1500*time.Millisecond, slept[1])
}

func TestRateGateDifferentRecipientsIgnorePerJIDGap(t *testing.T) {
	gate := NewRateGate(PacingConfig{PerJIDGapMS: 1500}, newMemLastSend(), testLogger())

	clock := time.Unix(1_700_000_000, 0)
	gate.now = func() time.Time { return clock }
	gate.sleep = func(ctx context.Context, d time.Duration) error {
		assert.Equal(t, time.Duration(0), d)
		clock = clock.Add(d)
		return nil
	}

	require.NoError(t, gate.Acquire(context.Background(), "a@s.whatsapp.net"))
	require.NoError(t, gate.Acquire(context.Background(), "b@s.whatsapp.net"))
}

func TestRateGateGlobalMinGap(t *testing.T) {
	gate := NewRateGate(PacingConfig{GlobalMinGapMS: 400}, newMemLastSend(), testLogger())

	clock := time.Unix(1_700_000_000, 0)
	gate.now = func() time.Time { return clock }

	var slept []time.Duration
	gate.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}

	require.NoError(t, gate.Acquire(context.Background(), "a@s.whatsapp.net"))
	require.NoError(t, gate.Acquire(context.Background(), "b@s.whatsapp.net"))

	require.Len(t, slept, 2)
	assert.Equal(t, 400*time.Millisecond, slept[1])
}

func TestRateGateAcquireHonorsContext(t *testing.T) {
	gate := NewRateGate(PacingConfig{PerJIDGapMS: 60_000}, newMemLastSend(), testLogger())

	ctx := context.Background()
	require.NoError(t, gate.Acquire(ctx, "a@s.whatsapp.net"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := gate.Acquire(cancelled, "a@s.whatsapp.net")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateGateAcquireSurvivesStampFailure(t *testing.T) {
	repo := &failingLastSend{setErr: errors.New("disk full")}
	gate := NewRateGate(PacingConfig{PerJIDGapMS: 1500}, repo, testLogger())
	gate.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	// The send must proceed even when the timestamp cannot be persisted.
	require.NoError(t, gate.Acquire(context.Background(), "a@s.whatsapp.net"))
	require.NoError(t, gate.Acquire(context.Background(), "a@s.whatsapp.net"))
}

func TestPostSendDelayWithinBounds(t *testing.T) {
	gate := NewRateGate(PacingConfig{BaseDelayMS: 900, JitterMS: 600}, newMemLastSend(), testLogger())

	for i := 0; i < 50; i++ {
		d := gate.PostSendDelay()
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.Less(t, d, 1500*time.Millisecond)
	}
}
