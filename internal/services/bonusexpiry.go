package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// BonusExpiryAccountLister selects accounts holding expired bonus points.
type BonusExpiryAccountLister interface {
	ListWithExpiredBonus(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// ExpiryFailure records one account the expiry pass could not process.
type ExpiryFailure struct {
	AccountID uuid.UUID `json:"account_id"`
	Error     string    `json:"error"`
}

// BonusExpiryReport summarizes one expiry pass.
type BonusExpiryReport struct {
	Eligible int             `json:"eligible"`
	Expired  int             `json:"expired"`
	Failures []ExpiryFailure `json:"failures,omitempty"`
}

// BonusExpiryService zeroes expired bonus balances, one account per
// transaction, writing the offsetting bonus_expired ledger entry through the
// points service.
type BonusExpiryService struct {
	DB       TxBeginner
	Accounts BonusExpiryAccountLister
	Points   *PointsService
	Logger   *slog.Logger
}

func NewBonusExpiryService(db TxBeginner, accounts BonusExpiryAccountLister, points *PointsService, logger *slog.Logger) *BonusExpiryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BonusExpiryService{DB: db, Accounts: accounts, Points: points, Logger: logger}
}

func (s *BonusExpiryService) Sweep(ctx context.Context, now time.Time) (*BonusExpiryReport, error) {
	ids, err := s.Accounts.ListWithExpiredBonus(ctx, now)
	if err != nil {
		return nil, err
	}
	report := &BonusExpiryReport{Eligible: len(ids)}
	for _, id := range ids {
		if err := s.expireOne(ctx, id, now); err != nil {
			s.Logger.Error("bonus expiry failed", "account_id", id, "error", err)
			report.Failures = append(report.Failures, ExpiryFailure{AccountID: id, Error: err.Error()})
			continue
		}
		report.Expired++
	}
	return report, nil
}

func (s *BonusExpiryService) expireOne(ctx context.Context, accountID uuid.UUID, now time.Time) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := s.Points.ExpireBonus(ctx, tx, accountID, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
