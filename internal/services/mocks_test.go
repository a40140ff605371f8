package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/specwork/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks for the repository interfaces.
// These let us test the real service logic without a database.
// ---------------------------------------------------------------------------

// fakeTx satisfies pgx.Tx for the mocks, which never touch it beyond
// Commit/Rollback.
type fakeTx struct {
	pgx.Tx
}

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

// ---

type mockAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newMockAccounts(accs ...*models.Account) *mockAccounts {
	m := &mockAccounts{accounts: make(map[uuid.UUID]*models.Account)}
	for _, a := range accs {
		cp := *a
		m.accounts[a.ID] = &cp
	}
	return m
}

func (m *mockAccounts) get(id uuid.UUID) (*models.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockAccounts) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockAccounts) UpdateBalances(_ context.Context, _ pgx.Tx, id uuid.UUID, main, bonus decimal.Decimal, bonusExpiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.MainBalance = main
	a.BonusBalance = bonus
	a.BonusExpiresAt = bonusExpiresAt
	return nil
}

func (m *mockAccounts) ListWithExpiredBonus(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, a := range m.accounts {
		if a.BonusBalance.IsPositive() && a.BonusExpiresAt != nil && !a.BonusExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockAccounts) main(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].MainBalance
}

func (m *mockAccounts) bonus(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].BonusBalance
}

// ---

type mockLedger struct {
	mu      sync.Mutex
	entries []*models.LedgerEntry
}

func (m *mockLedger) CreateTx(_ context.Context, _ pgx.Tx, e *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.CreatedAt = time.Now()
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockLedger) ListByAccountID(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []*models.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			owned = append(owned, m.entries[i])
		}
	}
	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if limit > 0 && limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

func (m *mockLedger) LatestForAccount(_ context.Context, accountID uuid.UUID, balanceKind string) (*models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID && m.entries[i].BalanceKind == balanceKind {
			cp := *m.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockLedger) byType(entryType string) []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range m.entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockLedger) forAccount(accountID uuid.UUID) []*models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ---

type mockOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newMockOrders(orders ...*models.Order) *mockOrders {
	m := &mockOrders{orders: make(map[uuid.UUID]*models.Order)}
	for _, o := range orders {
		cp := *o
		m.orders[o.ID] = &cp
	}
	return m
}

func (m *mockOrders) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrders) get(id uuid.UUID) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s not found", id)
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockOrders) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *mockOrders) UpdateTx(_ context.Context, _ pgx.Tx, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return fmt.Errorf("order %s not found", o.ID)
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrders) ListDueForAutoRelease(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, o := range m.orders {
		if o.Status == models.OrderStatusPaid && o.PointsFrozen && o.AutoConfirmAt != nil && !o.AutoConfirmAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockOrders) status(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

// ---

type mockRevenue struct {
	mu      sync.Mutex
	records []*models.PlatformRevenueRecord
}

func (m *mockRevenue) CreateTx(_ context.Context, _ pgx.Tx, rec *models.PlatformRevenueRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.NetRevenue = rec.CommissionAmount.Sub(rec.CashbackAmount)
	cp := *rec
	cp.CreatedAt = time.Now()
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockRevenue) ListByPeriod(_ context.Context, from, to time.Time, limit, offset int) ([]*models.PlatformRevenueRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PlatformRevenueRecord
	for _, rec := range m.records {
		if !rec.CreatedAt.Before(from) && rec.CreatedAt.Before(to) {
			out = append(out, rec)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRevenue) SumNetRevenue(context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, rec := range m.records {
		sum = sum.Add(rec.NetRevenue)
	}
	return sum, nil
}

func (m *mockRevenue) all() []*models.PlatformRevenueRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.PlatformRevenueRecord, len(m.records))
	copy(out, m.records)
	return out
}

// ---

type mockCatalog struct {
	services map[uuid.UUID]*models.Service
}

func newMockCatalog(svcs ...*models.Service) *mockCatalog {
	m := &mockCatalog{services: make(map[uuid.UUID]*models.Service)}
	for _, s := range svcs {
		cp := *s
		m.services[s.ID] = &cp
	}
	return m
}

func (m *mockCatalog) GetServiceByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("service %s not found", id)
	}
	cp := *s
	return &cp, nil
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func acct(id uuid.UUID, main, bonus string) *models.Account {
	return &models.Account{ID: id, MainBalance: dec(main), BonusBalance: dec(bonus)}
}
