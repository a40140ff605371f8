package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/models"
)

type RevenueRepo struct {
	pool *pgxpool.Pool
}

func NewRevenueRepo(pool *pgxpool.Pool) *RevenueRepo {
	return &RevenueRepo{pool: pool}
}

const revenueColumns = `id, order_id, commission_amount, cashback_amount, net_revenue, specialist_account_id, client_account_id, status, created_at`

// CreateTx writes a revenue record inside the given transaction. NetRevenue
// is recomputed here from commission and cashback, never taken from the
// caller. Records are write-once.
func (r *RevenueRepo) CreateTx(ctx context.Context, tx pgx.Tx, rec *models.PlatformRevenueRecord) error {
	rec.NetRevenue = rec.CommissionAmount.Sub(rec.CashbackAmount)
	return tx.QueryRow(ctx, `
		INSERT INTO platform_revenue_records (id, order_id, commission_amount, cashback_amount, net_revenue, specialist_account_id, client_account_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, rec.ID, rec.OrderID, rec.CommissionAmount, rec.CashbackAmount, rec.NetRevenue, rec.SpecialistAccountID, rec.ClientAccountID, rec.Status).Scan(&rec.CreatedAt)
}

// ListByPeriod returns records created within [from, to), newest-first.
func (r *RevenueRepo) ListByPeriod(ctx context.Context, from, to time.Time, limit, offset int) ([]*models.PlatformRevenueRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+revenueColumns+` FROM platform_revenue_records
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRevenue(rows)
}

func (r *RevenueRepo) ListBySpecialist(ctx context.Context, specialistID uuid.UUID, limit, offset int) ([]*models.PlatformRevenueRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+revenueColumns+` FROM platform_revenue_records
		WHERE specialist_account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, specialistID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRevenue(rows)
}

// SumNetRevenue totals net revenue over all records ever written.
func (r *RevenueRepo) SumNetRevenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(net_revenue), 0) FROM platform_revenue_records
	`).Scan(&sum)
	return sum, err
}

func collectRevenue(rows pgx.Rows) ([]*models.PlatformRevenueRecord, error) {
	var list []*models.PlatformRevenueRecord
	for rows.Next() {
		var rec models.PlatformRevenueRecord
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.CommissionAmount, &rec.CashbackAmount, &rec.NetRevenue, &rec.SpecialistAccountID, &rec.ClientAccountID, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
