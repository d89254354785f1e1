package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/swiftquantum/qubitlab/internal/demo"
	"github.com/swiftquantum/qubitlab/internal/models"
	"github.com/swiftquantum/qubitlab/internal/qubit"
	"github.com/swiftquantum/qubitlab/internal/repository"
)

// Rough QPU-minute cost attributed to one demo shot.
const qpuMinutesPerShot = 0.0001

// RunStore is the slice of the run repository the handlers need.
type RunStore interface {
	Create(ctx context.Context, run *models.CircuitRun) error
	RecentByUser(ctx context.Context, userID uint, limit int) ([]models.CircuitRun, error)
	GetByID(ctx context.Context, userID uint, id string) (*models.CircuitRun, error)
}

// ExperimentRecorder bumps a user's experiment counters after a run.
type ExperimentRecorder interface {
	RecordExperiment(ctx context.Context, userID uint, qpuMinutes float64) error
}

type RunsHandler struct {
	log         *zap.Logger
	runs        RunStore
	experiments ExperimentRecorder
	src         qubit.Source
}

func NewRunsHandler(log *zap.Logger, runs RunStore, experiments ExperimentRecorder, src qubit.Source) *RunsHandler {
	if src == nil {
		src = qubit.NewSource()
	}
	return &RunsHandler{log: log, runs: runs, experiments: experiments, src: src}
}

type createRunRequest struct {
	Template string         `json:"template" binding:"required"`
	Qubits   int            `json:"qubits"`
	Shots    int            `json:"shots"`
	Counts   map[string]int `json:"counts"`
}

type runResponse struct {
	ID        string         `json:"id"`
	Template  string         `json:"template"`
	Qubits    int            `json:"qubits"`
	Shots     int            `json:"shots"`
	Counts    map[string]int `json:"counts"`
	Timestamp time.Time      `json:"timestamp"`
}

// CreateRun serves POST /api/v1/runs. Clients that executed the demo locally
// send their counts; otherwise the toy sampler runs server-side.
func (h *RunsHandler) CreateRun(c *gin.Context) {
	userID := MustUserID(c)
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind run request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	counts := req.Counts
	if len(counts) == 0 {
		counts = demo.SampleCircuit(h.src, req.Qubits, req.Shots)
	}
	encoded, err := models.EncodeCounts(counts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid counts"})
		return
	}

	run := &models.CircuitRun{
		UserID:   userID,
		Template: req.Template,
		Qubits:   req.Qubits,
		Shots:    req.Shots,
		Counts:   encoded,
	}
	if err := h.runs.Create(c.Request.Context(), run); err != nil {
		h.log.Error("Failed to record run", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record run"})
		return
	}

	if err := h.experiments.RecordExperiment(c.Request.Context(), userID, float64(req.Shots)*qpuMinutesPerShot); err != nil {
		// Counter drift is tolerable; the run itself is already stored.
		h.log.Warn("Failed to bump experiment counters", zap.Error(err), zap.Uint("userID", userID))
	}

	c.JSON(http.StatusCreated, runResponse{
		ID:        run.ID,
		Template:  run.Template,
		Qubits:    run.Qubits,
		Shots:     run.Shots,
		Counts:    counts,
		Timestamp: run.CreatedAt,
	})
}

// ListRuns serves GET /api/v1/runs: the user's recent runs, newest first.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	userID := MustUserID(c)
	runs, err := h.runs.RecentByUser(c.Request.Context(), userID, repository.RunRetention)
	if err != nil {
		h.log.Error("Failed to list runs", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		counts, err := run.DecodeCounts()
		if err != nil {
			h.log.Warn("Skipping run with corrupt counts", zap.String("runID", run.ID), zap.Error(err))
			continue
		}
		out = append(out, runResponse{
			ID:        run.ID,
			Template:  run.Template,
			Qubits:    run.Qubits,
			Shots:     run.Shots,
			Counts:    counts,
			Timestamp: run.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// RunChart serves GET /api/v1/runs/:id/chart as an HTML bar histogram of the
// run's outcome frequencies.
func (h *RunsHandler) RunChart(c *gin.Context) {
	userID := MustUserID(c)
	runID := c.Param("id")

	run, err := h.runs.GetByID(c.Request.Context(), userID, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		h.log.Error("Failed to load run", zap.Error(err), zap.String("runID", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}

	counts, err := run.DecodeCounts()
	if err != nil {
		h.log.Error("Corrupt counts on run", zap.Error(err), zap.String("runID", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}

	chart := generateOutcomeChart(run, counts)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render chart", zap.Error(err), zap.String("runID", runID))
	}
}

func generateOutcomeChart(run *models.CircuitRun, counts map[string]int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Measurement Outcomes",
			Subtitle: run.Template,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	labels := sortedBitstrings(counts)
	items := make([]opts.BarData, 0, len(labels))
	for _, bits := range labels {
		items = append(items, opts.BarData{Value: counts[bits]})
	}

	bar.SetXAxis(labels).AddSeries("shots", items)
	return bar
}

func sortedBitstrings(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	for bits := range counts {
		labels = append(labels, bits)
	}
	sort.Strings(labels)
	return labels
}
