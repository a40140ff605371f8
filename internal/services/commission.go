package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/models"
)

// DefaultCommissionRate is the platform's cut of every released escrow.
var DefaultCommissionRate = decimal.NewFromFloat(0.05)

// cashbackBonusTTL is how long promotion cashback stays spendable.
const cashbackBonusTTL = 30 * 24 * time.Hour

// CommissionRevenueRepo is the minimal revenue-record writer interface.
type CommissionRevenueRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, rec *models.PlatformRevenueRecord) error
}

// CommissionAccountRepo resolves and locks the platform account.
type CommissionAccountRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
}

// CommissionEngine computes the specialist/platform/cashback split when
// escrow is released. The specialist is credited PointsUsed - commission to
// main; the platform account is credited the net revenue; any promotion
// cashback goes to the client's bonus balance. One PlatformRevenueRecord is
// written per release.
type CommissionEngine struct {
	Points            *PointsService
	Revenue           CommissionRevenueRepo
	Accounts          CommissionAccountRepo
	PlatformAccountID uuid.UUID
	Rate              decimal.Decimal
	CashbackRate      decimal.Decimal
}

func NewCommissionEngine(points *PointsService, revenue CommissionRevenueRepo, accounts CommissionAccountRepo, platformAccountID uuid.UUID) *CommissionEngine {
	return &CommissionEngine{
		Points:            points,
		Revenue:           revenue,
		Accounts:          accounts,
		PlatformAccountID: platformAccountID,
		Rate:              DefaultCommissionRate,
		CashbackRate:      decimal.Zero,
	}
}

// ReleaseEscrow credits all parties and writes the revenue record inside the
// caller's transaction. entryType distinguishes client-confirmed releases
// (completion_credit) from auto-released ones (auto_completion_credit).
// If the platform account cannot be resolved the release fails closed:
// ErrPlatformAccountMissing, no funds move.
func (e *CommissionEngine) ReleaseEscrow(ctx context.Context, tx pgx.Tx, order *models.Order, entryType string) (*models.PlatformRevenueRecord, error) {
	commission := order.PointsUsed.Mul(e.Rate).Round(2)
	cashback := order.PointsUsed.Mul(e.CashbackRate).Round(2)
	if cashback.GreaterThan(commission) {
		// Cashback is funded out of the commission; it can never exceed it.
		cashback = commission
	}
	payout := order.PointsUsed.Sub(commission)
	netRevenue := commission.Sub(cashback)

	if e.PlatformAccountID == uuid.Nil {
		return nil, ErrPlatformAccountMissing
	}
	if _, err := e.Accounts.GetByIDForUpdate(ctx, tx, e.PlatformAccountID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlatformAccountMissing, err)
	}

	meta := orderMetadata(order)
	desc := fmt.Sprintf("escrow release for order %s", order.ID)

	if err := e.Points.Add(ctx, tx, order.SpecialistAccountID, payout, models.BalanceKindMain, entryType, desc, meta, nil); err != nil {
		return nil, err
	}
	if netRevenue.IsPositive() {
		if err := e.Points.Add(ctx, tx, e.PlatformAccountID, netRevenue, models.BalanceKindMain, models.EntryCommission, desc, meta, nil); err != nil {
			return nil, err
		}
	}
	if cashback.IsPositive() {
		expiry := time.Now().Add(cashbackBonusTTL)
		if err := e.Points.Add(ctx, tx, order.ClientAccountID, cashback, models.BalanceKindBonus, models.EntryCashback, desc, meta, &expiry); err != nil {
			return nil, err
		}
	}

	rec := &models.PlatformRevenueRecord{
		ID:                  uuid.New(),
		OrderID:             order.ID,
		CommissionAmount:    commission,
		CashbackAmount:      cashback,
		NetRevenue:          netRevenue,
		SpecialistAccountID: order.SpecialistAccountID,
		ClientAccountID:     order.ClientAccountID,
		Status:              models.RevenueStatusRecorded,
	}
	if err := e.Revenue.CreateTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// orderMetadata is the structured metadata attached to every ledger entry
// an order produces.
func orderMetadata(order *models.Order) json.RawMessage {
	meta, _ := json.Marshal(map[string]string{
		"order_id":   order.ID.String(),
		"service_id": order.ServiceID.String(),
	})
	return meta
}
