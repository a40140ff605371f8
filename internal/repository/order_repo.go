package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specwork/backend/internal/models"
)

// ErrOrderNotFound is returned when no order row matches the given id.
var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, service_id, client_account_id, specialist_account_id, status, points_used, points_frozen, escrow_released, auto_confirm_at, deadline, proof_url, proof_description, dispute_reason, disputed_at, completed_at, created_at, updated_at`

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.ServiceID, &o.ClientAccountID, &o.SpecialistAccountID, &o.Status, &o.PointsUsed, &o.PointsFrozen, &o.EscrowReleased, &o.AutoConfirmAt, &o.Deadline, &o.ProofURL, &o.ProofDescription, &o.DisputeReason, &o.DisputedAt, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO orders (id, service_id, client_account_id, specialist_account_id, status, points_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, o.ID, o.ServiceID, o.ClientAccountID, o.SpecialistAccountID, o.Status, o.PointsUsed).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// GetByIDForUpdate locks the order row for the duration of the transaction
// so concurrent transitions on the same order serialize.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Order, error) {
	return scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

// UpdateTx writes the order's mutable columns inside the given transaction.
func (r *OrderRepo) UpdateTx(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders SET
			status = $2, points_frozen = $3, escrow_released = $4,
			auto_confirm_at = $5, deadline = $6,
			proof_url = $7, proof_description = $8,
			dispute_reason = $9, disputed_at = $10, completed_at = $11,
			updated_at = now()
		WHERE id = $1
	`, o.ID, o.Status, o.PointsFrozen, o.EscrowReleased, o.AutoConfirmAt, o.Deadline, o.ProofURL, o.ProofDescription, o.DisputeReason, o.DisputedAt, o.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	return r.list(ctx, `client_account_id`, clientID, limit, offset)
}

func (r *OrderRepo) ListBySpecialist(ctx context.Context, specialistID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	return r.list(ctx, `specialist_account_id`, specialistID, limit, offset)
}

func (r *OrderRepo) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, id, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListDueForAutoRelease selects the ids of orders whose escrow grace period
// has elapsed. Selecting on points_frozen makes the auto-release sweep
// idempotent: a released order no longer matches.
func (r *OrderRepo) ListDueForAutoRelease(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM orders
		WHERE status = $1 AND points_frozen = TRUE AND auto_confirm_at IS NOT NULL AND auto_confirm_at <= $2
		ORDER BY auto_confirm_at
	`, models.OrderStatusPaid, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	var list []*models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.ServiceID, &o.ClientAccountID, &o.SpecialistAccountID, &o.Status, &o.PointsUsed, &o.PointsFrozen, &o.EscrowReleased, &o.AutoConfirmAt, &o.Deadline, &o.ProofURL, &o.ProofDescription, &o.DisputeReason, &o.DisputedAt, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}
