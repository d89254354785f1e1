package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftquantum/qubitlab/internal/qubit"
)

func newTestManager(seed int64) *StateManager {
	return NewStateManager(qubit.NewSeededSource(seed), nil)
}

func TestManagerStartsInZeroState(t *testing.T) {
	snap := newTestManager(1).Snapshot()
	assert.Equal(t, 1.0, snap.Probability0)
	assert.Equal(t, 0.0, snap.Phase)
	assert.Equal(t, "|0⟩", snap.Ket)
	assert.Equal(t, 0, snap.Counts.Total())
}

func TestApplyGateUpdatesSnapshot(t *testing.T) {
	m := newTestManager(1)
	snap := m.ApplyGate(GateHadamard)
	assert.InDelta(t, 0.5, snap.Probability0, 1e-9)
	assert.InDelta(t, 1.0, snap.Entropy, 1e-9)
	assert.InDelta(t, 1.0, snap.BlochX, 1e-9)
	assert.InDelta(t, 0.0, snap.BlochZ, 1e-9)
}

func TestUnknownGateLeavesStateAlone(t *testing.T) {
	m := newTestManager(1)
	before := m.Snapshot()
	after := m.ApplyGate(Gate("T"))
	assert.Equal(t, before, after)
}

func TestSingleMeasurementCollapses(t *testing.T) {
	m := newTestManager(3)
	m.ApplyGate(GateHadamard)
	outcome, snap := m.Measure()

	if outcome == 0 {
		assert.Equal(t, 1.0, snap.Probability0)
	} else {
		assert.Equal(t, 0.0, snap.Probability0)
	}
	assert.Equal(t, 1, snap.Counts.Total())
}

func TestBatchMeasurementDoesNotCollapse(t *testing.T) {
	m := newTestManager(42)
	m.ApplyGate(GateHadamard)
	counts, snap := m.MeasureBatch(1000)

	require.Equal(t, 1000, counts.Total())
	assert.InDelta(t, 0.5, snap.Probability0, 1e-9, "live state must stay in superposition")
	assert.InDelta(t, 500, counts.Zero, 5*math.Sqrt(1000*0.25))
	assert.Equal(t, counts, snap.Counts)
}

func TestBatchMeasurementZeroShots(t *testing.T) {
	m := newTestManager(1)
	counts, snap := m.MeasureBatch(0)
	assert.Equal(t, 0, counts.Total())
	assert.Equal(t, 0.0, snap.Frequency0)
	assert.Equal(t, 0.0, snap.Frequency1)
}

func TestFrequenciesSumToOne(t *testing.T) {
	m := newTestManager(11)
	m.UpdateState(0.3, 0)
	_, snap := m.MeasureBatch(500)
	assert.InDelta(t, 1.0, snap.Frequency0+snap.Frequency1, 1e-9)
}

func TestClearStatsKeepsState(t *testing.T) {
	m := newTestManager(5)
	m.UpdateState(0.3, 1.2)
	m.MeasureBatch(100)
	snap := m.ClearStats()
	assert.Equal(t, 0, snap.Counts.Total())
	assert.InDelta(t, 0.3, snap.Probability0, 1e-9)
	assert.InDelta(t, 1.2, snap.Phase, 1e-9)
}

func TestResetKeepsStats(t *testing.T) {
	m := newTestManager(5)
	m.ApplyGate(GateHadamard)
	m.MeasureBatch(10)
	snap := m.Reset()
	assert.Equal(t, 1.0, snap.Probability0)
	assert.Equal(t, 10, snap.Counts.Total())
}

func TestSubscribersAreNotified(t *testing.T) {
	m := newTestManager(1)
	var got []Snapshot
	unsubscribe := m.Subscribe(func(s Snapshot) { got = append(got, s) })

	m.ApplyGate(GatePauliX)
	m.UpdateState(0.5, 0)
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0].Probability0)
	assert.InDelta(t, 0.5, got[1].Probability0, 1e-9)

	unsubscribe()
	m.Reset()
	assert.Len(t, got, 2)
}

func TestUpdateStateClamps(t *testing.T) {
	m := newTestManager(1)
	snap := m.UpdateState(2.5, 0)
	assert.Equal(t, 1.0, snap.Probability0)
	snap = m.UpdateState(-1, 0)
	assert.Equal(t, 0.0, snap.Probability0)
}
