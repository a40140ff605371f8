package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/specwork/backend/internal/services"
)

// AutoReleaseArgs triggers one auto-release sweep over overdue escrows.
type AutoReleaseArgs struct{}

func (AutoReleaseArgs) Kind() string { return "auto_release_sweep" }

// AutoReleaseWorker runs the escrow sweep. Per-order failures are reported
// inside the sweep; only a failure to run the sweep at all is returned to
// River for retry.
type AutoReleaseWorker struct {
	river.WorkerDefaults[AutoReleaseArgs]
	sweep  *services.AutoReleaseService
	logger *slog.Logger
}

func NewAutoReleaseWorker(sweep *services.AutoReleaseService, logger *slog.Logger) *AutoReleaseWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoReleaseWorker{sweep: sweep, logger: logger}
}

func (w *AutoReleaseWorker) Work(ctx context.Context, job *river.Job[AutoReleaseArgs]) error {
	report, err := w.sweep.Sweep(ctx, time.Now())
	if err != nil {
		return err
	}
	w.logger.Info("auto-release sweep finished",
		"eligible", report.Eligible,
		"released", len(report.Released),
		"skipped", report.Skipped,
		"failed", len(report.Failures),
	)
	return nil
}

// BonusExpiryArgs triggers one pass over expired bonus balances.
type BonusExpiryArgs struct{}

func (BonusExpiryArgs) Kind() string { return "bonus_expiry_sweep" }

type BonusExpiryWorker struct {
	river.WorkerDefaults[BonusExpiryArgs]
	sweep  *services.BonusExpiryService
	logger *slog.Logger
}

func NewBonusExpiryWorker(sweep *services.BonusExpiryService, logger *slog.Logger) *BonusExpiryWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BonusExpiryWorker{sweep: sweep, logger: logger}
}

func (w *BonusExpiryWorker) Work(ctx context.Context, job *river.Job[BonusExpiryArgs]) error {
	report, err := w.sweep.Sweep(ctx, time.Now())
	if err != nil {
		return err
	}
	w.logger.Info("bonus expiry sweep finished",
		"eligible", report.Eligible,
		"expired", report.Expired,
		"failed", len(report.Failures),
	)
	return nil
}
