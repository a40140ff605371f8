package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformAccountID is the system account that collects commissions.
var PlatformAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Account roles.
const (
	RoleClient     = "client"
	RoleSpecialist = "specialist"
)

// Account holds a user's spendable balances. MainBalance and BonusBalance
// are never negative; BonusExpiresAt is meaningless once BonusBalance is zero.
type Account struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	DisplayName     string          `json:"display_name"`
	Role            string          `json:"role"`
	PasswordHash    string          `json:"-"`
	MainBalance     decimal.Decimal `json:"main_balance"`
	BonusBalance    decimal.Decimal `json:"bonus_balance"`
	BonusExpiresAt  *time.Time      `json:"bonus_expires_at,omitempty"`
	IsSystemAccount bool            `json:"is_system_account"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AvailableBalance is the total the account can spend right now.
func (a *Account) AvailableBalance() decimal.Decimal {
	return a.MainBalance.Add(a.BonusBalance)
}
