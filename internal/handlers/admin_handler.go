package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/specwork/backend/internal/models"
	"github.com/specwork/backend/internal/repository"
	"github.com/specwork/backend/internal/services"
)

// AdminHandler serves the administrative reporting and sweep endpoints.
// All routes are behind the system-account guard.
type AdminHandler struct {
	AutoRelease *services.AutoReleaseService
	Auditor     *services.BalanceAuditor
	Revenue     *repository.RevenueRepo
	Logger      *slog.Logger
}

// TriggerAutoRelease handles POST /v1/admin/auto-release: runs the escrow
// sweep immediately and returns the per-order report.
func (h *AdminHandler) TriggerAutoRelease(w http.ResponseWriter, r *http.Request) {
	report, err := h.AutoRelease.Sweep(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListRevenue handles GET /v1/admin/revenue?from=&to=&specialist_id=.
func (h *AdminHandler) ListRevenue(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	if raw := r.URL.Query().Get("specialist_id"); raw != "" {
		specialistID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid specialist_id")
			return
		}
		records, err := h.Revenue.ListBySpecialist(r.Context(), specialistID, limit, offset)
		if err != nil {
			writeServiceError(w, h.Logger, err)
			return
		}
		writeRevenue(w, records)
		return
	}

	from, to, err := periodRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.Revenue.ListByPeriod(r.Context(), from, to, limit, offset)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeRevenue(w, records)
}

// Audit handles GET /v1/admin/audit?from=&to=: the read-only reconciliation
// pass.
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	from, to, err := periodRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.Auditor.Audit(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeRevenue(w http.ResponseWriter, records []*models.PlatformRevenueRecord) {
	if records == nil {
		records = []*models.PlatformRevenueRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// periodRange parses from/to query params (RFC 3339), defaulting to the
// last 30 days.
func periodRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	return from, to, nil
}
