// Package pipeline runs one fetch, extract and replace pass over the listing page.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/ipo-schedule/internal/metrics"
	"github.com/crucial707/ipo-schedule/internal/models"
	"github.com/crucial707/ipo-schedule/internal/scraper"
)

// Stage names the step a run failed in.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageStore   Stage = "store"
	StagePanic   Stage = "panic"
)

// Error is the single failure value a run returns.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher returns the decoded listing page.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Extractor turns the page into schedule records.
type Extractor interface {
	Extract(html string) ([]models.IPOSchedule, error)
}

// Store replaces the persisted snapshot.
type Store interface {
	Replace(ctx context.Context, records []models.IPOSchedule) error
}

// Outcome describes a successful run.
type Outcome struct {
	Records    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunStatus is the last finished run, successful or not.
type RunStatus struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    int       `json:"records"`
	Stage      Stage     `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Runner wires the three steps together. It is safe for concurrent use; overlapping
// runs each replace the snapshot in their own transaction.
type Runner struct {
	Fetcher   Fetcher
	Extractor Extractor
	Store     Store
	Logger    *slog.Logger

	now func() time.Time

	mu   sync.RWMutex
	last *RunStatus
	runs int
}

// NewRunner returns a Runner. A nil logger uses slog.Default().
func NewRunner(f Fetcher, e Extractor, s Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Fetcher:   f,
		Extractor: e,
		Store:     s,
		Logger:    logger.With("component", "pipeline"),
		now:       time.Now,
	}
}

// Run executes fetch -> extract -> replace once. Errors and panics from any step come back
// as *Error; nothing escapes past the caller. The store is only written when extraction succeeded.
func (r *Runner) Run(ctx context.Context) (out Outcome, err error) {
	out.StartedAt = r.now()
	defer func() {
		if rec := recover(); rec != nil {
			err = &Error{Stage: StagePanic, Err: fmt.Errorf("%v", rec)}
		}
		out.FinishedAt = r.now()
		r.record(out, err)
	}()

	html, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		return out, &Error{Stage: StageFetch, Err: err}
	}

	records, err := r.Extractor.Extract(html)
	if err != nil {
		return out, &Error{Stage: StageExtract, Err: err}
	}

	if err := r.Store.Replace(ctx, records); err != nil {
		return out, &Error{Stage: StageStore, Err: err}
	}
	out.Records = len(records)
	return out, nil
}

// RunAndLog runs once and logs the result. It is the job the scheduler executes.
func (r *Runner) RunAndLog(ctx context.Context) {
	out, err := r.Run(ctx)
	if err == nil {
		r.Logger.Info("schedules saved",
			"records", out.Records,
			"duration_ms", out.FinishedAt.Sub(out.StartedAt).Milliseconds())
		return
	}

	var perr *Error
	switch {
	case errors.Is(err, scraper.ErrStructureChanged):
		r.Logger.Warn("schedule table not found; the source site structure may have changed", "error", err)
	case errors.As(err, &perr):
		r.Logger.Error("scrape failed", "stage", perr.Stage, "error", perr.Err)
	default:
		r.Logger.Error("scrape failed", "error", err)
	}
}

// LastRun returns the most recent finished run and the total number of runs.
func (r *Runner) LastRun() (*RunStatus, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil, r.runs
	}
	st := *r.last
	return &st, r.runs
}

func (r *Runner) record(out Outcome, err error) {
	st := &RunStatus{
		StartedAt:  out.StartedAt,
		FinishedAt: out.FinishedAt,
		Records:    out.Records,
	}
	result := "success"
	if err != nil {
		st.Error = err.Error()
		result = "error"
		var perr *Error
		if errors.As(err, &perr) {
			st.Stage = perr.Stage
			if errors.Is(err, scraper.ErrStructureChanged) {
				result = "structure_changed"
			}
		}
	}

	r.mu.Lock()
	r.last = st
	r.runs++
	r.mu.Unlock()

	metrics.RecordPipelineRun(result, out.Records, out.FinishedAt.Sub(out.StartedAt).Seconds(), out.FinishedAt)
}
