package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/swiftquantum/qubitlab/internal/models"
	"github.com/swiftquantum/qubitlab/internal/qubit"
)

type fakeRunStore struct {
	runs []models.CircuitRun
}

func (f *fakeRunStore) Create(ctx context.Context, run *models.CircuitRun) error {
	if run.ID == "" {
		run.ID = "run-1"
	}
	run.CreatedAt = time.Now().UTC()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRunStore) RecentByUser(ctx context.Context, userID uint, limit int) ([]models.CircuitRun, error) {
	out := make([]models.CircuitRun, 0, len(f.runs))
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.runs[i])
	}
	return out, nil
}

func (f *fakeRunStore) GetByID(ctx context.Context, userID uint, id string) (*models.CircuitRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeRecorder struct {
	experiments int
	qpuMinutes  float64
}

func (f *fakeRecorder) RecordExperiment(ctx context.Context, userID uint, qpuMinutes float64) error {
	f.experiments++
	f.qpuMinutes += qpuMinutes
	return nil
}

func newRunsHandler(store *fakeRunStore, rec *fakeRecorder) *RunsHandler {
	return NewRunsHandler(zap.NewNop(), store, rec, qubit.NewSeededSource(1))
}

func TestCreateRunWithClientCounts(t *testing.T) {
	store := &fakeRunStore{}
	rec := &fakeRecorder{}
	h := newRunsHandler(store, rec)

	w := doJSON(t, authed(h.CreateRun), http.MethodPost, "/x",
		`{"template": "bell_pair", "qubits": 2, "shots": 100, "counts": {"00": 52, "11": 48}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "bell_pair", got.Template)
	assert.Equal(t, map[string]int{"00": 52, "11": 48}, got.Counts)
	assert.Equal(t, 1, rec.experiments)
	require.Len(t, store.runs, 1)
}

func TestCreateRunSamplesServerSide(t *testing.T) {
	store := &fakeRunStore{}
	h := newRunsHandler(store, &fakeRecorder{})

	w := doJSON(t, authed(h.CreateRun), http.MethodPost, "/x",
		`{"template": "random", "qubits": 2, "shots": 200}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	total := 0
	for _, n := range got.Counts {
		total += n
	}
	assert.Equal(t, 200, total)
}

func TestCreateRunRequiresTemplate(t *testing.T) {
	h := newRunsHandler(&fakeRunStore{}, &fakeRecorder{})
	w := doJSON(t, authed(h.CreateRun), http.MethodPost, "/x", `{"shots": 10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := &fakeRunStore{}
	h := newRunsHandler(store, &fakeRecorder{})

	counts, _ := models.EncodeCounts(map[string]int{"0": 10})
	for _, template := range []string{"a", "b", "c"} {
		store.Create(context.Background(), &models.CircuitRun{
			ID: template, UserID: 1, Template: template, Shots: 10, Counts: counts,
		})
	}

	w := doJSON(t, authed(h.ListRuns), http.MethodGet, "/x", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Runs []runResponse `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Runs, 3)
	assert.Equal(t, "c", got.Runs[0].Template)
	assert.Equal(t, "a", got.Runs[2].Template)
}

func TestRunChart(t *testing.T) {
	store := &fakeRunStore{}
	counts, _ := models.EncodeCounts(map[string]int{"00": 480, "11": 520})
	store.Create(context.Background(), &models.CircuitRun{
		ID: "run-1", UserID: 1, Template: "bell_pair", Shots: 1000, Counts: counts,
	})
	h := newRunsHandler(store, &fakeRecorder{})

	w := doJSON(t, authed(h.RunChart), http.MethodGet, "/x/run-1/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Measurement Outcomes")
}

func TestRunChartNotFound(t *testing.T) {
	h := newRunsHandler(&fakeRunStore{}, &fakeRecorder{})
	w := doJSON(t, authed(h.RunChart), http.MethodGet, "/x/missing/chart", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
