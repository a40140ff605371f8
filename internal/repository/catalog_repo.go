package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specwork/backend/internal/models"
)

// ErrServiceNotFound is returned when no catalog row matches the given id.
var ErrServiceNotFound = errors.New("service not found")

// CatalogRepo is the read-only view of the service catalog the escrow engine
// needs: price and delivery terms. Catalog management lives elsewhere.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, specialist_account_id, title, price, delivery_days, created_at
		FROM services WHERE id = $1
	`, id).Scan(&s.ID, &s.SpecialistAccountID, &s.Title, &s.Price, &s.DeliveryDays, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}
