package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftquantum/qubitlab/internal/qubit"
)

func TestSampleCircuitShotConservation(t *testing.T) {
	counts := SampleCircuit(qubit.NewSeededSource(1), 3, 1000)
	total := 0
	for bits, n := range counts {
		assert.Len(t, bits, 3)
		total += n
	}
	assert.Equal(t, 1000, total)
}

func TestSampleCircuitZeroShots(t *testing.T) {
	counts := SampleCircuit(qubit.NewSeededSource(1), 2, 0)
	assert.Empty(t, counts)
	counts = SampleCircuit(qubit.NewSeededSource(1), 2, -5)
	assert.Empty(t, counts)
}

func TestSampleCircuitClampsQubitCount(t *testing.T) {
	counts := SampleCircuit(qubit.NewSeededSource(1), 0, 10)
	for bits := range counts {
		assert.Len(t, bits, 1)
	}
	counts = SampleCircuit(qubit.NewSeededSource(1), 50, 10)
	for bits := range counts {
		assert.Len(t, bits, 8)
	}
}

func TestSampleCircuitRoughlyUniform(t *testing.T) {
	counts := SampleCircuit(qubit.NewSeededSource(7), 2, 4000)
	require.Len(t, counts, 4)
	for bits, n := range counts {
		// 4000 shots across 4 states; allow a generous band.
		assert.InDelta(t, 1000, n, 150, bits)
	}
}

func TestRunnerRecordsHistory(t *testing.T) {
	r := NewRunner(nil, qubit.NewSeededSource(1), time.Hour)
	rec := r.Run("bell_pair", 2, 100)
	assert.Equal(t, "bell_pair", rec.Template)
	assert.Equal(t, 100, rec.Shots)
	assert.NotEmpty(t, rec.ID)

	recent := r.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, rec.ID, recent[0].ID)
}

func TestRunnerStartStop(t *testing.T) {
	r := NewRunner(nil, qubit.NewSeededSource(1), 5*time.Millisecond)
	r.Run("ghz", 3, 50)

	r.Start()
	assert.True(t, r.Running())
	r.Start() // second start is a no-op

	assert.Eventually(t, func() bool {
		return len(r.Recent()) >= 2
	}, time.Second, time.Millisecond)

	r.Stop()
	assert.False(t, r.Running())
	r.Stop() // idempotent
}

func TestRunnerIdleTickDoesNothing(t *testing.T) {
	r := NewRunner(nil, qubit.NewSeededSource(1), time.Millisecond)
	r.Start()
	defer r.Stop()
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, r.Recent(), "no template configured yet")
}
