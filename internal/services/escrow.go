package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/specwork/backend/internal/models"
)

// autoConfirmGrace is how long a paid order waits for confirmation before
// the auto-release sweep may complete it.
const autoConfirmGrace = 7 * 24 * time.Hour

// orderTransitions is the full set of legal status changes. Anything not in
// this table is rejected with ErrInvalidTransition and zero side effects.
// paid -> completed exists only for the auto-release path.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:           {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:              {models.OrderStatusInProgress, models.OrderStatusPendingCompletion, models.OrderStatusCompleted, models.OrderStatusDisputed},
	models.OrderStatusInProgress:        {models.OrderStatusPendingCompletion},
	models.OrderStatusPendingCompletion: {models.OrderStatusCompleted},
	models.OrderStatusCompleted:         {models.OrderStatusDisputed},
}

func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EscrowOrderRepo is the minimal order repository interface for the escrow
// state machine.
type EscrowOrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Order, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, o *models.Order) error
}

// EscrowCatalog supplies the read-only price and delivery terms used at
// order creation and when work starts.
type EscrowCatalog interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// TxBeginner abstracts transaction creation so tests don't need a
// pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EscrowService governs the order life cycle. Every transition runs inside
// one transaction: the order row is locked first, then any balance work goes
// through the points service within the same tx, so a failure partway leaves
// the order and the ledger exactly as before the attempt.
type EscrowService struct {
	DB         TxBeginner
	Orders     EscrowOrderRepo
	Points     *PointsService
	Commission *CommissionEngine
	Catalog    EscrowCatalog
	Notifier   Notifier
	Logger     *slog.Logger
}

func NewEscrowService(db TxBeginner, orders EscrowOrderRepo, points *PointsService, commission *CommissionEngine, catalog EscrowCatalog, notifier Notifier, logger *slog.Logger) *EscrowService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EscrowService{
		DB:         db,
		Orders:     orders,
		Points:     points,
		Commission: commission,
		Catalog:    catalog,
		Notifier:   notifier,
		Logger:     logger,
	}
}

// CreateOrder creates a pending order priced from the catalog. No funds move
// until Pay.
func (s *EscrowService) CreateOrder(ctx context.Context, clientID, serviceID uuid.UUID) (*models.Order, error) {
	svc, err := s.Catalog.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.SpecialistAccountID == clientID {
		return nil, ErrForbidden
	}
	order := &models.Order{
		ID:                  uuid.New(),
		ServiceID:           svc.ID,
		ClientAccountID:     clientID,
		SpecialistAccountID: svc.SpecialistAccountID,
		Status:              models.OrderStatusPending,
		PointsUsed:          svc.Price,
	}
	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns the order if the actor is a party to it.
func (s *EscrowService) GetOrder(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientAccountID != actorID && order.SpecialistAccountID != actorID {
		return nil, ErrForbidden
	}
	return order, nil
}

// Pay moves a pending order into escrow: the full price is deducted from the
// client (bonus first) and frozen against the order, and the auto-confirm
// clock starts.
func (s *EscrowService) Pay(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientAccountID != actorID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPending || !canTransition(order.Status, models.OrderStatusPaid) {
		return nil, ErrInvalidTransition
	}

	if err := s.Points.Deduct(ctx, tx, order.ClientAccountID, order.PointsUsed, models.EntryEscrowPayment, "escrow payment for order "+order.ID.String(), orderMetadata(order)); err != nil {
		return nil, err
	}

	autoConfirmAt := time.Now().Add(autoConfirmGrace)
	order.Status = models.OrderStatusPaid
	order.PointsFrozen = true
	order.AutoConfirmAt = &autoConfirmAt
	if err := s.Orders.UpdateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notify(func(n Notifier) { n.OrderPaid(order) })
	return order, nil
}

// Start acknowledges the work (paid -> in_progress). Bookkeeping only: sets
// the delivery deadline from the catalog terms the first time, moves no
// funds.
func (s *EscrowService) Start(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SpecialistAccountID != actorID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPaid {
		return nil, ErrInvalidTransition
	}

	if order.Deadline == nil {
		svc, err := s.Catalog.GetServiceByID(ctx, order.ServiceID)
		if err != nil {
			return nil, err
		}
		deadline := time.Now().Add(time.Duration(svc.DeliveryDays) * 24 * time.Hour)
		order.Deadline = &deadline
	}
	order.Status = models.OrderStatusInProgress
	if err := s.Orders.UpdateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// SubmitProof attaches the completion proof reference and moves the order to
// pending_completion. No balance effect.
func (s *EscrowService) SubmitProof(ctx context.Context, actorID, orderID uuid.UUID, proofURL, proofDescription string) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SpecialistAccountID != actorID {
		return nil, ErrForbidden
	}
	if !canTransition(order.Status, models.OrderStatusPendingCompletion) {
		return nil, ErrInvalidTransition
	}

	order.Status = models.OrderStatusPendingCompletion
	order.ProofURL = &proofURL
	order.ProofDescription = &proofDescription
	if err := s.Orders.UpdateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// Confirm is the client accepting delivery: releases escrow with the
// standard completion_credit entry type.
func (s *EscrowService) Confirm(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.confirmCompletion(ctx, actorID, orderID, false)
}

// SelfConfirm lets the specialist release escrow when the client is
// unreachable. Same release path and commission split as Confirm.
func (s *EscrowService) SelfConfirm(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.confirmCompletion(ctx, actorID, orderID, true)
}

func (s *EscrowService) confirmCompletion(ctx context.Context, actorID, orderID uuid.UUID, bySpecialist bool) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if bySpecialist {
		if order.SpecialistAccountID != actorID {
			return nil, ErrForbidden
		}
	} else if order.ClientAccountID != actorID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPendingCompletion || order.DisputeReason != nil {
		return nil, ErrInvalidTransition
	}

	if err := s.release(ctx, tx, order, models.EntryCompletionCredit); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notify(func(n Notifier) { n.OrderCompleted(order) })
	return order, nil
}

// AutoRelease completes one overdue paid order in its own transaction,
// tagging the credit as auto-triggered. The status/frozen re-check under the
// row lock makes a concurrent manual confirmation lose cleanly.
func (s *EscrowService) AutoRelease(ctx context.Context, orderID uuid.UUID, now time.Time) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPaid || !order.PointsFrozen || order.DisputeReason != nil {
		return nil, ErrInvalidTransition
	}
	if order.AutoConfirmAt == nil || order.AutoConfirmAt.After(now) {
		return nil, ErrInvalidTransition
	}

	if err := s.release(ctx, tx, order, models.EntryAutoCompletionCredit); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notify(func(n Notifier) { n.OrderCompleted(order) })
	return order, nil
}

// release applies the single escrow-release path shared by client
// confirmation, specialist self-confirmation, and auto-release.
func (s *EscrowService) release(ctx context.Context, tx pgx.Tx, order *models.Order, entryType string) error {
	if _, err := s.Commission.ReleaseEscrow(ctx, tx, order, entryType); err != nil {
		return err
	}
	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.PointsFrozen = false
	order.EscrowReleased = true
	order.CompletedAt = &now
	return s.Orders.UpdateTx(ctx, tx, order)
}

// Cancel abandons an unpaid order. No funds ever moved.
func (s *EscrowService) Cancel(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientAccountID != actorID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrInvalidTransition
	}

	order.Status = models.OrderStatusCancelled
	if err := s.Orders.UpdateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// OpenDispute short-circuits escrow release. On a paid order the full
// escrowed amount is refunded to the client's main balance. On a completed
// order the funds already left escrow, so only the status changes; any
// clawback is a manual adjudication concern.
func (s *EscrowService) OpenDispute(ctx context.Context, actorID, orderID uuid.UUID, reason string) (*models.Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	order, err := s.Orders.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientAccountID != actorID {
		return nil, ErrForbidden
	}
	if order.DisputeReason != nil {
		return nil, ErrDisputeAlreadyOpen
	}
	if order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusCompleted {
		return nil, ErrInvalidTransition
	}

	if order.Status == models.OrderStatusPaid {
		if err := s.Points.Add(ctx, tx, order.ClientAccountID, order.PointsUsed, models.BalanceKindMain, models.EntryDisputeRefund, "dispute refund for order "+order.ID.String(), orderMetadata(order), nil); err != nil {
			return nil, err
		}
		order.PointsFrozen = false
	}

	now := time.Now()
	order.Status = models.OrderStatusDisputed
	order.DisputeReason = &reason
	order.DisputedAt = &now
	if err := s.Orders.UpdateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notify(func(n Notifier) { n.DisputeOpened(order) })
	return order, nil
}

// notify runs a notification callback fire-and-forget. Delivery failures are
// logged and never surfaced to the caller; by the time this runs the balance
// change is already committed.
func (s *EscrowService) notify(fn func(Notifier)) {
	if s.Notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.Logger.Error("notification panic", "panic", r)
			}
		}()
		fn(s.Notifier)
	}()
}
