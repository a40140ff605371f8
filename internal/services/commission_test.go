package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/specwork/backend/internal/models"
)

// ---------------------------------------------------------------------------
// 1. TestCommissionSplit
//    Table of splits across rates and amounts. Rounding is half-up to two
//    decimal places; cashback is always capped at the commission.
// ---------------------------------------------------------------------------

func TestCommissionSplit(t *testing.T) {
	cases := []struct {
		name         string
		pointsUsed   string
		rate         string
		cashbackRate string
		commission   string
		cashback     string
		payout       string
		net          string
	}{
		{"default 5pct", "200", "0.05", "0", "10", "0", "190", "10"},
		{"fractional payout", "150", "0.05", "0", "7.5", "0", "142.5", "7.5"},
		{"cashback capped at commission", "200", "0.05", "0.10", "10", "10", "190", "0"},
		{"cashback below commission", "200", "0.05", "0.02", "10", "4", "190", "6"},
		{"rounding half up", "333.33", "0.05", "0.02", "16.67", "6.67", "316.66", "10"},
		{"zero rate", "100", "0", "0", "0", "0", "100", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := uuid.New()
			specialist := uuid.New()
			accounts := newMockAccounts(
				acct(client, "0", "0"),
				acct(specialist, "0", "0"),
				acct(models.PlatformAccountID, "0", "0"),
			)
			ledger := &mockLedger{}
			revenue := &mockRevenue{}
			engine := &CommissionEngine{
				Points:            NewPointsService(accounts, ledger),
				Revenue:           revenue,
				Accounts:          accounts,
				PlatformAccountID: models.PlatformAccountID,
				Rate:              dec(tc.rate),
				CashbackRate:      dec(tc.cashbackRate),
			}

			order := &models.Order{
				ID:                  uuid.New(),
				ServiceID:           uuid.New(),
				ClientAccountID:     client,
				SpecialistAccountID: specialist,
				Status:              models.OrderStatusPaid,
				PointsUsed:          dec(tc.pointsUsed),
			}

			rec, err := engine.ReleaseEscrow(context.Background(), nil, order, models.EntryCompletionCredit)
			require.NoError(t, err)

			require.True(t, rec.CommissionAmount.Equal(dec(tc.commission)),
				"commission: got %s, want %s", rec.CommissionAmount, tc.commission)
			require.True(t, rec.CashbackAmount.Equal(dec(tc.cashback)),
				"cashback: got %s, want %s", rec.CashbackAmount, tc.cashback)
			require.True(t, rec.NetRevenue.Equal(dec(tc.net)),
				"net revenue: got %s, want %s", rec.NetRevenue, tc.net)

			require.True(t, accounts.main(specialist).Equal(dec(tc.payout)),
				"specialist balance: got %s, want %s", accounts.main(specialist), tc.payout)
			require.True(t, accounts.main(models.PlatformAccountID).Equal(dec(tc.net)),
				"platform balance: got %s, want %s", accounts.main(models.PlatformAccountID), tc.net)
			require.True(t, accounts.bonus(client).Equal(dec(tc.cashback)),
				"client cashback: got %s, want %s", accounts.bonus(client), tc.cashback)
		})
	}
}

// ---------------------------------------------------------------------------
// 2. TestCashbackCreditsBonusWithExpiry
// ---------------------------------------------------------------------------

func TestCashbackCreditsBonusWithExpiry(t *testing.T) {
	client := uuid.New()
	specialist := uuid.New()
	accounts := newMockAccounts(
		acct(client, "0", "0"),
		acct(specialist, "0", "0"),
		acct(models.PlatformAccountID, "0", "0"),
	)
	ledger := &mockLedger{}
	engine := &CommissionEngine{
		Points:            NewPointsService(accounts, ledger),
		Revenue:           &mockRevenue{},
		Accounts:          accounts,
		PlatformAccountID: models.PlatformAccountID,
		Rate:              dec("0.05"),
		CashbackRate:      dec("0.02"),
	}

	order := &models.Order{
		ID:                  uuid.New(),
		ServiceID:           uuid.New(),
		ClientAccountID:     client,
		SpecialistAccountID: specialist,
		Status:              models.OrderStatusPaid,
		PointsUsed:          dec("100"),
	}

	_, err := engine.ReleaseEscrow(context.Background(), nil, order, models.EntryCompletionCredit)
	require.NoError(t, err)

	entries := ledger.byType(models.EntryCashback)
	require.Len(t, entries, 1)
	require.Equal(t, client, entries[0].AccountID)
	require.Equal(t, models.BalanceKindBonus, entries[0].BalanceKind)
	require.True(t, entries[0].Amount.Equal(dec("2")))

	accounts.mu.Lock()
	expiry := accounts.accounts[client].BonusExpiresAt
	accounts.mu.Unlock()
	require.NotNil(t, expiry, "cashback must carry a bonus expiry")
	require.WithinDuration(t, time.Now().Add(cashbackBonusTTL), *expiry, time.Minute)
}

// ---------------------------------------------------------------------------
// 3. TestReleaseRequiresPlatformAccount
// ---------------------------------------------------------------------------

func TestReleaseRequiresPlatformAccount(t *testing.T) {
	client := uuid.New()
	specialist := uuid.New()
	accounts := newMockAccounts(acct(client, "0", "0"), acct(specialist, "0", "0"))
	ledger := &mockLedger{}
	engine := &CommissionEngine{
		Points:            NewPointsService(accounts, ledger),
		Revenue:           &mockRevenue{},
		Accounts:          accounts,
		PlatformAccountID: uuid.Nil,
		Rate:              DefaultCommissionRate,
		CashbackRate:      decimal.Zero,
	}

	order := &models.Order{
		ID:                  uuid.New(),
		ClientAccountID:     client,
		SpecialistAccountID: specialist,
		PointsUsed:          dec("100"),
	}

	_, err := engine.ReleaseEscrow(context.Background(), nil, order, models.EntryCompletionCredit)
	require.ErrorIs(t, err, ErrPlatformAccountMissing)
	require.Zero(t, ledger.count(), "no entries may be written when the release fails closed")
}
