package main

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/specwork/backend/internal/auth"
	"github.com/specwork/backend/internal/handlers"
	"github.com/specwork/backend/internal/middleware"
	"github.com/specwork/backend/internal/repository"
	"github.com/specwork/backend/internal/services"
)

// RegisterV1Routes adds the /v1/ endpoints to the given mux.
// Middleware chain: Authenticate -> (RequireSystem on /v1/admin) -> handler.
func RegisterV1Routes(
	mux *http.ServeMux,
	pool *pgxpool.Pool,
	authSvc auth.Service,
	authHandler *auth.Handler,
	accountRepo *repository.AccountRepo,
	orderRepo *repository.OrderRepo,
	pointsSvc *services.PointsService,
	escrowSvc *services.EscrowService,
	autoRelease *services.AutoReleaseService,
	auditor *services.BalanceAuditor,
	revenueRepo *repository.RevenueRepo,
	logger *slog.Logger,
) {
	ph := &handlers.PointsHandler{DB: pool, Points: pointsSvc, Logger: logger}
	oh := &handlers.OrderHandler{Escrow: escrowSvc, Orders: orderRepo, Logger: logger}
	ah := &handlers.AdminHandler{AutoRelease: autoRelease, Auditor: auditor, Revenue: revenueRepo, Logger: logger}

	authn := middleware.Authenticate(authSvc, accountRepo)
	admin := func(h http.HandlerFunc) http.Handler {
		return authn(middleware.RequireSystem(h))
	}

	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)

	mux.Handle("GET /v1/balance", authn(http.HandlerFunc(ph.GetBalance)))
	mux.Handle("GET /v1/transactions", authn(http.HandlerFunc(ph.History)))
	mux.Handle("POST /v1/balance/topup", authn(http.HandlerFunc(ph.TopUp)))

	mux.Handle("POST /v1/orders", authn(http.HandlerFunc(oh.CreateOrder)))
	mux.Handle("GET /v1/orders", authn(http.HandlerFunc(oh.ListOrders)))
	mux.Handle("GET /v1/orders/{id}", authn(http.HandlerFunc(oh.GetOrder)))
	mux.Handle("POST /v1/orders/{id}/pay", authn(http.HandlerFunc(oh.Pay)))
	mux.Handle("POST /v1/orders/{id}/start", authn(http.HandlerFunc(oh.Start)))
	mux.Handle("POST /v1/orders/{id}/proof", authn(http.HandlerFunc(oh.SubmitProof)))
	mux.Handle("POST /v1/orders/{id}/confirm", authn(http.HandlerFunc(oh.Confirm)))
	mux.Handle("POST /v1/orders/{id}/self-confirm", authn(http.HandlerFunc(oh.SelfConfirm)))
	mux.Handle("POST /v1/orders/{id}/dispute", authn(http.HandlerFunc(oh.OpenDispute)))
	mux.Handle("POST /v1/orders/{id}/cancel", authn(http.HandlerFunc(oh.Cancel)))

	mux.Handle("POST /v1/admin/auto-release", admin(ah.TriggerAutoRelease))
	mux.Handle("GET /v1/admin/revenue", admin(ah.ListRevenue))
	mux.Handle("GET /v1/admin/audit", admin(ah.Audit))
}
