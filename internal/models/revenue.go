package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformRevenueRecord statuses.
const (
	RevenueStatusRecorded = "recorded"
)

// PlatformRevenueRecord is written once per escrow release and never updated.
// NetRevenue is always CommissionAmount - CashbackAmount, recomputed at
// write time rather than supplied by callers.
type PlatformRevenueRecord struct {
	ID                  uuid.UUID       `json:"id"`
	OrderID             uuid.UUID       `json:"order_id"`
	CommissionAmount    decimal.Decimal `json:"commission_amount"`
	CashbackAmount      decimal.Decimal `json:"cashback_amount"`
	NetRevenue          decimal.Decimal `json:"net_revenue"`
	SpecialistAccountID uuid.UUID       `json:"specialist_account_id"`
	ClientAccountID     uuid.UUID       `json:"client_account_id"`
	Status              string          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
}
