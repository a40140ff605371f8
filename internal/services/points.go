package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/models"
)

// PointsAccountRepo is the minimal account repository interface for the
// points service.
type PointsAccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, id uuid.UUID, main, bonus decimal.Decimal, bonusExpiresAt *time.Time) error
}

// PointsLedgerRepo is the minimal ledger interface for the points service.
type PointsLedgerRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error
	ListByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.LedgerEntry, error)
}

// Balance is the snapshot exposed to account-facing views.
type Balance struct {
	Main  decimal.Decimal `json:"main"`
	Bonus decimal.Decimal `json:"bonus"`
	Total decimal.Decimal `json:"total"`
}

// PointsService is the only component allowed to mutate account balances.
// Every mutation writes matching ledger entries inside the caller's
// transaction, so balances and the ledger can never diverge.
type PointsService struct {
	Accounts PointsAccountRepo
	Ledger   PointsLedgerRepo
}

func NewPointsService(accounts PointsAccountRepo, ledger PointsLedgerRepo) *PointsService {
	return &PointsService{Accounts: accounts, Ledger: ledger}
}

// GetBalance returns the current balance snapshot. Read-only.
func (s *PointsService) GetBalance(ctx context.Context, accountID uuid.UUID) (*Balance, error) {
	acc, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Main:  acc.MainBalance,
		Bonus: acc.BonusBalance,
		Total: acc.AvailableBalance(),
	}, nil
}

// Deduct spends amount from the account, bonus balance first (bonus points
// expire, so they are consumed before they are lost), remainder from main.
// It locks the account row, writes one ledger entry per balance kind touched,
// and returns ErrInsufficientBalance without side effects when main + bonus
// is short. Call within a transaction.
func (s *PointsService) Deduct(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount decimal.Decimal, entryType, description string, metadata json.RawMessage) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	acc, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return err
	}
	if acc.AvailableBalance().LessThan(amount) {
		return ErrInsufficientBalance
	}

	fromBonus := amount
	if acc.BonusBalance.LessThan(amount) {
		fromBonus = acc.BonusBalance
	}
	fromMain := amount.Sub(fromBonus)
	newBonus := acc.BonusBalance.Sub(fromBonus)
	newMain := acc.MainBalance.Sub(fromMain)

	expiry := acc.BonusExpiresAt
	if newBonus.IsZero() {
		expiry = nil
	}
	if err := s.Accounts.UpdateBalances(ctx, tx, accountID, newMain, newBonus, expiry); err != nil {
		return err
	}

	if fromBonus.IsPositive() {
		if err := s.Ledger.CreateTx(ctx, tx, &models.LedgerEntry{
			ID:            uuid.New(),
			AccountID:     accountID,
			EntryType:     entryType,
			Amount:        fromBonus.Neg(),
			BalanceKind:   models.BalanceKindBonus,
			BalanceBefore: acc.BonusBalance,
			BalanceAfter:  newBonus,
			Description:   description,
			Metadata:      metadata,
		}); err != nil {
			return err
		}
	}
	if fromMain.IsPositive() {
		if err := s.Ledger.CreateTx(ctx, tx, &models.LedgerEntry{
			ID:            uuid.New(),
			AccountID:     accountID,
			EntryType:     entryType,
			Amount:        fromMain.Neg(),
			BalanceKind:   models.BalanceKindMain,
			BalanceBefore: acc.MainBalance,
			BalanceAfter:  newMain,
			Description:   description,
			Metadata:      metadata,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Add credits amount to the given balance kind and writes exactly one ledger
// entry. For bonus credits, bonusExpiry extends the account's bonus expiry
// to the later of the current and proposed values; it never shortens it.
// Call within a transaction.
func (s *PointsService) Add(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount decimal.Decimal, balanceKind, entryType, description string, metadata json.RawMessage, bonusExpiry *time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if balanceKind != models.BalanceKindMain && balanceKind != models.BalanceKindBonus {
		return ErrInvalidBalanceKind
	}
	acc, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return err
	}

	newMain := acc.MainBalance
	newBonus := acc.BonusBalance
	expiry := acc.BonusExpiresAt
	var before, after decimal.Decimal
	switch balanceKind {
	case models.BalanceKindMain:
		before = acc.MainBalance
		newMain = acc.MainBalance.Add(amount)
		after = newMain
	case models.BalanceKindBonus:
		before = acc.BonusBalance
		newBonus = acc.BonusBalance.Add(amount)
		after = newBonus
		if bonusExpiry != nil && (expiry == nil || bonusExpiry.After(*expiry)) {
			expiry = bonusExpiry
		}
	}

	if err := s.Accounts.UpdateBalances(ctx, tx, accountID, newMain, newBonus, expiry); err != nil {
		return err
	}
	return s.Ledger.CreateTx(ctx, tx, &models.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     accountID,
		EntryType:     entryType,
		Amount:        amount,
		BalanceKind:   balanceKind,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
		Metadata:      metadata,
	})
}

// ExpireBonus zeroes the account's bonus balance once its expiry has passed,
// writing the offsetting bonus_expired entry. A no-op when nothing is
// expired. Call within a transaction.
func (s *PointsService) ExpireBonus(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, now time.Time) error {
	acc, err := s.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return err
	}
	if !acc.BonusBalance.IsPositive() || acc.BonusExpiresAt == nil || acc.BonusExpiresAt.After(now) {
		return nil
	}
	if err := s.Accounts.UpdateBalances(ctx, tx, accountID, acc.MainBalance, decimal.Zero, nil); err != nil {
		return err
	}
	return s.Ledger.CreateTx(ctx, tx, &models.LedgerEntry{
		ID:            uuid.New(),
		AccountID:     accountID,
		EntryType:     models.EntryBonusExpired,
		Amount:        acc.BonusBalance.Neg(),
		BalanceKind:   models.BalanceKindBonus,
		BalanceBefore: acc.BonusBalance,
		BalanceAfter:  decimal.Zero,
		Description:   "bonus points expired",
	})
}

// History returns the account's ledger entries, newest-first.
func (s *PointsService) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.LedgerEntry, error) {
	return s.Ledger.ListByAccountID(ctx, accountID, limit, offset)
}
