package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/models"
)

// Audit violation kinds.
const (
	ViolationNetRevenueMismatch        = "net_revenue_mismatch"
	ViolationCashbackExceedsCommission = "cashback_exceeds_commission"
	ViolationPlatformBalanceDrift      = "platform_balance_drift"
	ViolationLedgerBalanceMismatch     = "ledger_balance_mismatch"
)

// driftTolerance absorbs rounding across thousands of records.
var driftTolerance = decimal.NewFromFloat(0.01)

const auditPageSize = 500

// AuditorRevenueRepo is the read-only revenue view the auditor consumes.
type AuditorRevenueRepo interface {
	ListByPeriod(ctx context.Context, from, to time.Time, limit, offset int) ([]*models.PlatformRevenueRecord, error)
	SumNetRevenue(ctx context.Context) (decimal.Decimal, error)
}

// AuditorAccountRepo resolves the platform account's stored balance.
type AuditorAccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AuditorLedgerRepo reads the most recent ledger entry per balance kind.
type AuditorLedgerRepo interface {
	LatestForAccount(ctx context.Context, accountID uuid.UUID, balanceKind string) (*models.LedgerEntry, error)
}

// AuditViolation is one detected inconsistency. The auditor only reports;
// correction is a manual, out-of-band process.
type AuditViolation struct {
	Kind     string     `json:"kind"`
	RecordID *uuid.UUID `json:"record_id,omitempty"`
	OrderID  *uuid.UUID `json:"order_id,omitempty"`
	Detail   string     `json:"detail"`
}

// AuditReport is the result of one reconciliation pass.
type AuditReport struct {
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	CheckedRecords  int              `json:"checked_records"`
	TotalNetRevenue decimal.Decimal  `json:"total_net_revenue"`
	PlatformBalance decimal.Decimal  `json:"platform_balance"`
	Violations      []AuditViolation `json:"violations"`
}

// BalanceAuditor validates ledger/revenue consistency. Strictly read-only.
type BalanceAuditor struct {
	Revenue           AuditorRevenueRepo
	Accounts          AuditorAccountRepo
	Ledger            AuditorLedgerRepo
	PlatformAccountID uuid.UUID
}

func NewBalanceAuditor(revenue AuditorRevenueRepo, accounts AuditorAccountRepo, ledger AuditorLedgerRepo, platformAccountID uuid.UUID) *BalanceAuditor {
	return &BalanceAuditor{Revenue: revenue, Accounts: accounts, Ledger: ledger, PlatformAccountID: platformAccountID}
}

// Audit recomputes every revenue record in [from, to), flags records whose
// stored net revenue diverges from commission - cashback or whose cashback
// exceeds the commission that funds it, and compares the all-time net
// revenue sum against the platform account's main balance.
func (a *BalanceAuditor) Audit(ctx context.Context, from, to time.Time) (*AuditReport, error) {
	report := &AuditReport{From: from, To: to, Violations: []AuditViolation{}}

	for offset := 0; ; offset += auditPageSize {
		records, err := a.Revenue.ListByPeriod(ctx, from, to, auditPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			report.CheckedRecords++
			expected := rec.CommissionAmount.Sub(rec.CashbackAmount)
			if !rec.NetRevenue.Equal(expected) {
				report.Violations = append(report.Violations, AuditViolation{
					Kind:     ViolationNetRevenueMismatch,
					RecordID: ptr(rec.ID),
					OrderID:  ptr(rec.OrderID),
					Detail:   "stored " + rec.NetRevenue.String() + ", recomputed " + expected.String(),
				})
			}
			if rec.CommissionAmount.LessThan(rec.CashbackAmount) {
				report.Violations = append(report.Violations, AuditViolation{
					Kind:     ViolationCashbackExceedsCommission,
					RecordID: ptr(rec.ID),
					OrderID:  ptr(rec.OrderID),
					Detail:   "cashback " + rec.CashbackAmount.String() + " exceeds commission " + rec.CommissionAmount.String(),
				})
			}
		}
		if len(records) < auditPageSize {
			break
		}
	}

	total, err := a.Revenue.SumNetRevenue(ctx)
	if err != nil {
		return nil, err
	}
	report.TotalNetRevenue = total

	platform, err := a.Accounts.GetByID(ctx, a.PlatformAccountID)
	if err != nil {
		return nil, err
	}
	report.PlatformBalance = platform.MainBalance

	if drift := total.Sub(platform.MainBalance).Abs(); drift.GreaterThan(driftTolerance) {
		report.Violations = append(report.Violations, AuditViolation{
			Kind:   ViolationPlatformBalanceDrift,
			Detail: "net revenue total " + total.String() + " vs platform balance " + platform.MainBalance.String(),
		})
	}

	// The latest main-balance ledger entry for the platform account must
	// agree with the stored balance.
	latest, err := a.Ledger.LatestForAccount(ctx, a.PlatformAccountID, models.BalanceKindMain)
	if err != nil {
		return nil, err
	}
	if latest != nil && !latest.BalanceAfter.Equal(platform.MainBalance) {
		report.Violations = append(report.Violations, AuditViolation{
			Kind:   ViolationLedgerBalanceMismatch,
			Detail: "latest ledger balance_after " + latest.BalanceAfter.String() + " vs stored balance " + platform.MainBalance.String(),
		})
	}
	return report, nil
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
