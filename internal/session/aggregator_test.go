package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swiftquantum/qubitlab/internal/qubit"
)

func TestAggregatorEmptyTotalIsZeroNotPanic(t *testing.T) {
	var a MeasurementAggregator
	assert.Equal(t, 0, a.Total())
	assert.Equal(t, 0.0, a.Frequency(0))
	assert.Equal(t, 0.0, a.Frequency(1))
}

func TestAggregatorRunningCounts(t *testing.T) {
	var a MeasurementAggregator
	a.Record(0)
	a.Record(0)
	a.Record(1)
	a.RecordCounts(qubit.Counts{Zero: 3, One: 4})

	assert.Equal(t, qubit.Counts{Zero: 5, One: 5}, a.Counts())
	assert.Equal(t, 10, a.Total())
	assert.InDelta(t, 0.5, a.Frequency(0), 1e-9)
}

func TestAggregatorClear(t *testing.T) {
	var a MeasurementAggregator
	a.RecordCounts(qubit.Counts{Zero: 2, One: 8})
	assert.InDelta(t, 0.8, a.Frequency(1), 1e-9)
	a.Clear()
	assert.Equal(t, 0, a.Total())
}

func TestRunHistoryEvictsOldestAtCapacity(t *testing.T) {
	h := NewRunHistory(HistoryCapacity)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		h.Add(NewCircuitRunRecord(name, 100, map[string]int{"0": 100}))
	}

	assert.Equal(t, HistoryCapacity, h.Len())
	recent := h.Recent()
	assert.Equal(t, "g", recent[0].Template)
	assert.Equal(t, "c", recent[len(recent)-1].Template)

	latest, ok := h.Latest()
	assert.True(t, ok)
	assert.Equal(t, "g", latest.Template)
}

func TestRunHistoryEmptyLatest(t *testing.T) {
	h := NewRunHistory(0)
	_, ok := h.Latest()
	assert.False(t, ok)
	assert.Empty(t, h.Recent())
}
