package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specwork/backend/internal/models"
)

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

const ledgerColumns = `id, account_id, entry_type, amount, balance_kind, balance_before, balance_after, description, metadata, created_at`

// CreateTx appends a ledger entry inside the given transaction. Entries are
// write-once; there is deliberately no update or delete method on this repo.
func (r *LedgerRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.LedgerEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (id, account_id, entry_type, amount, balance_kind, balance_before, balance_after, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, e.ID, e.AccountID, e.EntryType, e.Amount, e.BalanceKind, e.BalanceBefore, e.BalanceAfter, e.Description, e.Metadata).Scan(&e.CreatedAt)
}

// ListByAccountID returns the account's entries newest-first.
func (r *LedgerRepo) ListByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.EntryType, &e.Amount, &e.BalanceKind, &e.BalanceBefore, &e.BalanceAfter, &e.Description, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// LatestForAccount returns the most recent entry for one balance kind, or
// nil when the account has no entries of that kind yet.
func (r *LedgerRepo) LatestForAccount(ctx context.Context, accountID uuid.UUID, balanceKind string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.pool.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries WHERE account_id = $1 AND balance_kind = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, accountID, balanceKind).Scan(&e.ID, &e.AccountID, &e.EntryType, &e.Amount, &e.BalanceKind, &e.BalanceBefore, &e.BalanceAfter, &e.Description, &e.Metadata, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
