package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/erazemk/menjalnica/internal/store"
	"github.com/erazemk/menjalnica/internal/trading"
)

// NewRouter creates the API router with all endpoints registered. The
// trading components are wired here: the coordinator drives transactions,
// the rule engine feeds the access gate and the alert aggregator.
func NewRouter(db *sql.DB, jwtSecret string) (http.Handler, error) {
	settings, err := store.AllSettings(context.Background(), db)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	coordinator := trading.NewCoordinator(db)
	negotiator := trading.NewNegotiator(db, settings)
	rules := trading.NewRuleEngine(db, coordinator, settings)
	gate := trading.NewAccessGate(db, rules)
	alerts := trading.NewAlertAggregator(db, rules)

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db, Gate: gate}
	itemsHandler := &ItemsHandler{DB: db, Gate: gate}
	transactionsHandler := &TransactionsHandler{DB: db, Coordinator: coordinator, Gate: gate}
	meetingsHandler := &MeetingsHandler{DB: db, Negotiator: negotiator, Coordinator: coordinator}
	adminHandler := &AdminHandler{DB: db, Alerts: alerts, Negotiator: negotiator, Rules: rules}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireAdmin(gate)

	mux := http.NewServeMux()

	// Public: register and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Self-service.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/me/permissions", authMW(http.HandlerFunc(usersHandler.Permissions)))
	mux.Handle("POST /api/me/request-unfreeze", authMW(http.HandlerFunc(usersHandler.RequestUnfreeze)))

	// Items and wishlists.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/approve", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Approve))))
	mux.Handle("PUT /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.UploadPhoto)))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))
	mux.Handle("PUT /api/wishlist/{id}", authMW(http.HandlerFunc(itemsHandler.AddWish)))
	mux.Handle("DELETE /api/wishlist/{id}", authMW(http.HandlerFunc(itemsHandler.RemoveWish)))

	// Transactions and meetings.
	mux.Handle("POST /api/transactions", authMW(http.HandlerFunc(transactionsHandler.Create)))
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(transactionsHandler.List)))
	mux.Handle("GET /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Get)))
	mux.Handle("GET /api/partners", authMW(http.HandlerFunc(transactionsHandler.Partners)))
	mux.Handle("PUT /api/meetings/{id}", authMW(http.HandlerFunc(meetingsHandler.Edit)))
	mux.Handle("POST /api/meetings/{id}/agree", authMW(http.HandlerFunc(meetingsHandler.Agree)))
	mux.Handle("POST /api/meetings/{id}/conducted", authMW(http.HandlerFunc(meetingsHandler.Conducted)))

	// Administration.
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("GET /api/admin/alerts", authMW(requireAdmin(http.HandlerFunc(adminHandler.GetAlerts))))
	mux.Handle("POST /api/admin/users/{id}/freeze", authMW(requireAdmin(http.HandlerFunc(adminHandler.FreezeUser))))
	mux.Handle("POST /api/admin/users/{id}/unfreeze", authMW(requireAdmin(http.HandlerFunc(adminHandler.UnfreezeUser))))
	mux.Handle("POST /api/admin/users/{id}/promote", authMW(requireAdmin(http.HandlerFunc(adminHandler.PromoteUser))))
	mux.Handle("GET /api/admin/config", authMW(requireAdmin(http.HandlerFunc(adminHandler.GetConfig))))
	mux.Handle("PUT /api/admin/config", authMW(requireAdmin(http.HandlerFunc(adminHandler.UpdateConfig))))

	return mux, nil
}
