package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is the read-only catalog row the escrow engine consumes: price
// fixes PointsUsed at order creation and DeliveryDays sets the work deadline.
type Service struct {
	ID                  uuid.UUID       `json:"id"`
	SpecialistAccountID uuid.UUID       `json:"specialist_account_id"`
	Title               string          `json:"title"`
	Price               decimal.Decimal `json:"price"`
	DeliveryDays        int             `json:"delivery_days"`
	CreatedAt           time.Time       `json:"created_at"`
}
