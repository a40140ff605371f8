package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AutoReleaseOrderLister selects orders whose escrow grace period elapsed.
type AutoReleaseOrderLister interface {
	ListDueForAutoRelease(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// SweepFailure records one order the sweep could not release.
type SweepFailure struct {
	OrderID uuid.UUID `json:"order_id"`
	Error   string    `json:"error"`
}

// SweepReport summarizes one auto-release pass.
type SweepReport struct {
	Eligible int            `json:"eligible"`
	Released []uuid.UUID    `json:"released"`
	Skipped  int            `json:"skipped"`
	Failures []SweepFailure `json:"failures,omitempty"`
}

// AutoReleaseService runs the time-based escrow sweep. Each order is
// processed in its own transaction so one failure neither blocks nor rolls
// back the others. Re-running is always safe: released orders no longer
// match the selection predicate.
type AutoReleaseService struct {
	Orders AutoReleaseOrderLister
	Escrow *EscrowService
	Logger *slog.Logger
}

func NewAutoReleaseService(orders AutoReleaseOrderLister, escrow *EscrowService, logger *slog.Logger) *AutoReleaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoReleaseService{Orders: orders, Escrow: escrow, Logger: logger}
}

// Sweep releases every order due at now and reports per-order outcomes.
func (s *AutoReleaseService) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	ids, err := s.Orders.ListDueForAutoRelease(ctx, now)
	if err != nil {
		return nil, err
	}
	report := &SweepReport{Eligible: len(ids)}
	for _, id := range ids {
		if _, err := s.Escrow.AutoRelease(ctx, id, now); err != nil {
			// A transition raced by a manual confirmation or dispute between
			// selection and locking is a skip, not a failure.
			if errors.Is(err, ErrInvalidTransition) {
				report.Skipped++
				continue
			}
			s.Logger.Error("auto-release failed", "order_id", id, "error", err)
			report.Failures = append(report.Failures, SweepFailure{OrderID: id, Error: err.Error()})
			continue
		}
		report.Released = append(report.Released, id)
	}
	return report, nil
}
