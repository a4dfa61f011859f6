// Package httpapi wires the REST surface: routing, request decoding, error
// mapping and instrumentation. All domain behavior lives in the service
// layer.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitshare/internal/auth"
	"github.com/mmynk/splitshare/internal/middleware"
	"github.com/mmynk/splitshare/internal/realtime"
	"github.com/mmynk/splitshare/internal/service"
)

// Config carries the collaborators the router needs.
type Config struct {
	Auth        *service.AuthService
	Groups      *service.GroupService
	Expenses    *service.ExpenseService
	Hub         *realtime.Hub
	JWTManager  *auth.JWTManager
	CORSOrigins []string
}

// NewRouter builds the full HTTP handler. Every /api route other than
// /api/auth/* requires a valid bearer token. The websocket endpoint and
// /metrics sit outside the API middleware chain: the former hijacks the
// connection, the latter is scraped by infrastructure.
func NewRouter(cfg Config) http.Handler {
	authH := &authHandlers{auth: cfg.Auth}
	groupH := &groupHandlers{groups: cfg.Groups}
	expenseH := &expenseHandlers{expenses: cfg.Expenses}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Use(Metrics)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.Logging)
			r.Post("/register", authH.register)
			r.Post("/login", authH.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTManager))
			r.Use(middleware.Logging)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", groupH.create)
				r.Get("/", groupH.list)
				r.Get("/{id}", groupH.detail)
				r.Delete("/{id}", groupH.delete)
				r.Post("/{id}/members", groupH.addMember)
				r.Delete("/{id}/members/{email}", groupH.removeMember)
				r.Delete("/{id}/invites/{email}", groupH.cancelInvite)
				r.Post("/{id}/leave", groupH.leave)
				r.Post("/{id}/messages", groupH.postMessage)
				r.Get("/{id}/messages", groupH.listMessages)
			})

			r.Post("/expenses/{groupId}", expenseH.record)
		})
	})

	r.Handle("/ws", cfg.Hub.Handler())
	r.Handle("/metrics", promhttp.Handler())

	return r
}
