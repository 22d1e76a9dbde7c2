package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/ipo-schedule/internal/pipeline"
)

// RunReporter exposes the outcome of the most recent pipeline run.
type RunReporter interface {
	LastRun() (*pipeline.RunStatus, int)
}

// NextRunReporter exposes the next scheduled run.
type NextRunReporter interface {
	NextRun() (time.Time, bool)
}

// Trigger starts a pipeline run in the background. It reports false when nothing was started.
type Trigger interface {
	TriggerNow() bool
}

// ==========================
// Status Handler
// ==========================
type StatusHandler struct {
	Runner    RunReporter
	Repo      ScheduleStore
	Scheduler NextRunReporter
}

type statusResponse struct {
	Runs            int                 `json:"runs"`
	LastRun         *pipeline.RunStatus `json:"last_run,omitempty"`
	SnapshotRecords int                 `json:"snapshot_records"`
	NextRun         *time.Time          `json:"next_run,omitempty"`
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	last, runs := h.Runner.LastRun()
	count, err := h.Repo.Count(r.Context())
	if err != nil {
		slog.Error("status: count schedules", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	resp := statusResponse{Runs: runs, LastRun: last, SnapshotRecords: count}
	if h.Scheduler != nil {
		if next, ok := h.Scheduler.NextRun(); ok {
			resp.NextRun = &next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ==========================
// Admin Handler
// ==========================
type AdminHandler struct {
	Trigger Trigger
}

// Refresh queues an immediate scrape and returns 202 without waiting for it.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.Trigger == nil || !h.Trigger.TriggerNow() {
		JSONError(w, "scheduler not running", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}
