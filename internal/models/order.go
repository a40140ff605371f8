package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status enums.
const (
	OrderStatusPending           = "pending"
	OrderStatusPaid              = "paid"
	OrderStatusInProgress        = "in_progress"
	OrderStatusPendingCompletion = "pending_completion"
	OrderStatusCompleted         = "completed"
	OrderStatusDisputed          = "disputed"
	OrderStatusCancelled         = "cancelled"
)

// Order is one purchased service instance. PointsUsed is fixed at creation;
// PointsFrozen is true iff that amount is currently held in escrow.
// EscrowReleased and a refund are mutually exclusive and happen at most once.
type Order struct {
	ID                  uuid.UUID       `json:"id"`
	ServiceID           uuid.UUID       `json:"service_id"`
	ClientAccountID     uuid.UUID       `json:"client_account_id"`
	SpecialistAccountID uuid.UUID       `json:"specialist_account_id"`
	Status              string          `json:"status"`
	PointsUsed          decimal.Decimal `json:"points_used"`
	PointsFrozen        bool            `json:"points_frozen"`
	EscrowReleased      bool            `json:"escrow_released"`
	AutoConfirmAt       *time.Time      `json:"auto_confirm_at,omitempty"`
	Deadline            *time.Time      `json:"deadline,omitempty"`
	ProofURL            *string         `json:"proof_url,omitempty"`
	ProofDescription    *string         `json:"proof_description,omitempty"`
	DisputeReason       *string         `json:"dispute_reason,omitempty"`
	DisputedAt          *time.Time      `json:"disputed_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
