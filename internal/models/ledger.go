package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry_type enums. The set is closed: every balance mutation in the
// system carries exactly one of these.
const (
	EntryRegistrationBonus    = "registration_bonus"
	EntryBonusReward          = "bonus_reward"
	EntryBonusExpired         = "bonus_expired"
	EntryPurchase             = "purchase"
	EntryCompletionCredit     = "completion_credit"
	EntryAutoCompletionCredit = "auto_completion_credit"
	EntryEscrowPayment        = "escrow_payment"
	EntryRequestFee           = "request_fee"
	EntryPackagePurchase      = "package_purchase"
	EntryDisputeRefund        = "dispute_refund"
	EntryCashback             = "cashback"
	EntryCommission           = "commission"
	EntryTopUp                = "topup"
)

// Balance kinds a ledger entry can apply to.
const (
	BalanceKindMain  = "main"
	BalanceKindBonus = "bonus"
)

// LedgerEntry is an immutable record of one balance change. Corrections are
// new offsetting entries; rows are never updated or deleted.
// BalanceAfter = BalanceBefore + Amount for the stated BalanceKind.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	EntryType     string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceKind   string          `json:"balance_kind"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
