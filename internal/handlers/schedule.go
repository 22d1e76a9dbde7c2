package handlers

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"

	"github.com/jszwec/csvutil"

	"github.com/crucial707/ipo-schedule/internal/models"
)

// ScheduleStore is the read side of the snapshot.
type ScheduleStore interface {
	Query(ctx context.Context, company string) ([]models.IPOSchedule, error)
	Count(ctx context.Context) (int, error)
}

// ==========================
// Schedule Handler
// ==========================
type ScheduleHandler struct {
	Repo ScheduleStore
}

// scheduleResponse is the public shape of one snapshot row.
type scheduleResponse struct {
	CompanyName string       `json:"company_name" csv:"company_name"`
	StartDate   models.Date  `json:"start_date" csv:"start_date"`
	EndDate     models.Date  `json:"end_date" csv:"end_date"`
	ListingDate *models.Date `json:"listing_date" csv:"listing_date"`
}

func toResponses(items []models.IPOSchedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, scheduleResponse{
			CompanyName: s.CompanyName,
			StartDate:   s.StartDate,
			EndDate:     s.EndDate,
			ListingDate: s.ListingDate,
		})
	}
	return out
}

// ==========================
// Root
// ==========================
func (h *ScheduleHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":  true,
		"msg": "IPO schedule API running. See /schedules",
	})
}

// ==========================
// List Schedules (optional ?company= case-sensitive substring filter)
// ==========================
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	items, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponses(items))
}

// ==========================
// Export CSV
// ==========================
func (h *ScheduleHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	items, ok := h.query(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ipo_schedules.csv"`)

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(scheduleResponse{}); err != nil {
		slog.Error("ExportCSV: header", "error", err)
		return
	}
	for _, row := range toResponses(items) {
		if err := enc.Encode(row); err != nil {
			slog.Error("ExportCSV: encode row", "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("ExportCSV: flush", "error", err)
	}
}

func (h *ScheduleHandler) query(w http.ResponseWriter, r *http.Request) ([]models.IPOSchedule, bool) {
	company := r.URL.Query().Get("company")
	items, err := h.Repo.Query(r.Context(), company)
	if err != nil {
		slog.Error("query schedules", "company", company, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return nil, false
	}
	return items, true
}
