package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/models"
)

// ErrAccountNotFound is returned when no account row matches the given id.
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, email, display_name, role, password_hash, main_balance, bonus_balance, bonus_expires_at, is_system_account, created_at, updated_at`

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.Role, &a.PasswordHash, &a.MainBalance, &a.BonusBalance, &a.BonusExpiresAt, &a.IsSystemAccount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, display_name, role, password_hash, main_balance, bonus_balance, bonus_expires_at, is_system_account)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.DisplayName, a.Role, a.PasswordHash, a.MainBalance, a.BonusBalance, a.BonusExpiresAt, a.IsSystemAccount).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

// GetByIDForUpdate locks the account row for update. Call within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

// UpdateBalances writes both balance columns and the bonus expiry in one
// statement. Call after GetByIDForUpdate in the same tx; the table's check
// constraints reject negative balances.
func (r *AccountRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, id uuid.UUID, main, bonus decimal.Decimal, bonusExpiresAt *time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE accounts SET main_balance = $2, bonus_balance = $3, bonus_expires_at = $4, updated_at = now()
		WHERE id = $1
	`, id, main, bonus, bonusExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListWithExpiredBonus returns ids of accounts whose bonus balance is
// positive but past its expiry. Used by the bonus-expiry sweep.
func (r *AccountRepo) ListWithExpiredBonus(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM accounts
		WHERE bonus_balance > 0 AND bonus_expires_at IS NOT NULL AND bonus_expires_at <= $1
		ORDER BY bonus_expires_at
	`, now)
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
