package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/middleware"
	"github.com/specwork/backend/internal/models"
	"github.com/specwork/backend/internal/services"
)

// PointsHandler serves the balance and transaction-history endpoints.
type PointsHandler struct {
	DB     services.TxBeginner
	Points *services.PointsService
	Logger *slog.Logger
}

// GetBalance handles GET /v1/balance.
func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.Points.GetBalance(r.Context(), acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// History handles GET /v1/transactions?limit=&offset=.
func (h *PointsHandler) History(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pagination(r)
	entries, err := h.Points.History(r.Context(), acc.ID, limit, offset)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUp handles POST /v1/balance/topup: credits the main balance.
func (h *PointsHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tx, err := h.DB.Begin(r.Context())
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	defer tx.Rollback(r.Context())

	if err := h.Points.Add(r.Context(), tx, acc.ID, req.Amount, models.BalanceKindMain, models.EntryTopUp, "balance top-up", nil, nil); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	balance, err := h.Points.GetBalance(r.Context(), acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
