package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/specwork/backend/internal/middleware"
	"github.com/specwork/backend/internal/models"
)

// OrderEscrow abstracts the escrow state machine for the handler.
type OrderEscrow interface {
	CreateOrder(ctx context.Context, clientID, serviceID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	Pay(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	Start(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	SubmitProof(ctx context.Context, actorID, orderID uuid.UUID, proofURL, proofDescription string) (*models.Order, error)
	Confirm(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	SelfConfirm(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	OpenDispute(ctx context.Context, actorID, orderID uuid.UUID, reason string) (*models.Order, error)
}

// OrderLister reads a party's orders for the list endpoint.
type OrderLister interface {
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListBySpecialist(ctx context.Context, specialistID uuid.UUID, limit, offset int) ([]*models.Order, error)
}

// OrderHandler serves /v1/orders endpoints.
type OrderHandler struct {
	Escrow OrderEscrow
	Orders OrderLister
	Logger *slog.Logger
}

type createOrderRequest struct {
	ServiceID string `json:"service_id"`
}

// CreateOrder handles POST /v1/orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service_id")
		return
	}
	order, err := h.Escrow.CreateOrder(r.Context(), acc.ID, serviceID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListOrders handles GET /v1/orders?limit=&offset=. Specialists see orders
// for their services, everyone else sees the orders they placed.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pagination(r)
	var (
		orders []*models.Order
		err    error
	)
	if acc.Role == models.RoleSpecialist {
		orders, err = h.Orders.ListBySpecialist(r.Context(), acc.ID, limit, offset)
	} else {
		orders, err = h.Orders.ListByClient(r.Context(), acc.ID, limit, offset)
	}
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /v1/orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.Escrow.GetOrder, http.StatusOK)
}

// Pay handles POST /v1/orders/{id}/pay.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.Escrow.Pay, http.StatusOK)
}

// Start handles POST /v1/orders/{id}/start.
func (h *OrderHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.Escrow.Start, http.StatusOK)
}

// Confirm handles POST /v1/orders/{id}/confirm.
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.Escrow.Confirm, http.StatusOK)
}

// SelfConfirm handles POST /v1/orders/{id}/self-confirm.
func (h *OrderHandler) SelfConfirm(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.Escrow.SelfConfirm, http.StatusOK)
}

// Cancel handles POST /v1/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withOrder(w, r, h.Escrow.Cancel, http.StatusOK)
}

type submitProofRequest struct {
	ProofURL    string `json:"proof_url"`
	Description string `json:"description"`
}

// SubmitProof handles POST /v1/orders/{id}/proof. The proof URL comes from
// the file-upload collaborator; only the reference string is stored.
func (h *OrderHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	acc, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	var req submitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ProofURL == "" {
		writeError(w, http.StatusBadRequest, "proof_url is required")
		return
	}
	order, err := h.Escrow.SubmitProof(r.Context(), acc.ID, orderID, req.ProofURL, req.Description)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

// OpenDispute handles POST /v1/orders/{id}/dispute.
func (h *OrderHandler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	acc, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	var req disputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}
	order, err := h.Escrow.OpenDispute(r.Context(), acc.ID, orderID, req.Reason)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) withOrder(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error), status int) {
	acc, orderID, ok := h.actorAndOrder(w, r)
	if !ok {
		return
	}
	order, err := op(r.Context(), acc.ID, orderID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, status, order)
}

func (h *OrderHandler) actorAndOrder(w http.ResponseWriter, r *http.Request) (*models.Account, uuid.UUID, bool) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, uuid.Nil, false
	}
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return nil, uuid.Nil, false
	}
	return acc, orderID, true
}
