package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/minhopark/store-portal/internal/audit"
	"github.com/minhopark/store-portal/internal/auth"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/disposal"
	"github.com/minhopark/store-portal/internal/inventory"
	"github.com/minhopark/store-portal/internal/transport/middleware"
	"github.com/minhopark/store-portal/internal/transport/swagger"
	"github.com/minhopark/store-portal/internal/user"
)

type Handlers struct {
	Auth          *auth.Handler
	Authorization *auth.Authorization
	User          *user.Handler
	Inventory     *inventory.Handler
	Disposal      *disposal.Handler
	Audit         *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Registration is open; the account stays pending until approved.
		r.Post("/users", h.User.Register)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{userID}", h.User.GetUser)

				ur.Group(func(ar chi.Router) {
					ar.Use(h.Authorization.Require(authz.RequireAdmin(authz.CapabilityAccountApproval)))
					ar.Patch("/{userID}/approve", h.User.ApproveAccount)
					ar.Patch("/{userID}/reject", h.User.RejectAccount)
				})

				ur.Group(func(mr chi.Router) {
					mr.Use(h.Authorization.Require(authz.RequireAdmin(authz.CapabilityManageRoles)))
					mr.Patch("/{userID}/deactivate", h.User.Deactivate)
					mr.Patch("/{userID}/reactivate", h.User.Reactivate)
					mr.Put("/{userID}/permissions", h.User.UpdatePermissions)
				})
			})

			pr.Route("/inventory-sheets", func(ir chi.Router) {
				ir.Use(h.Authorization.Require(authz.RequireMenu(authz.ActionAny, inventory.MenuKey)))

				ir.Post("/", h.Inventory.CreateSheet)
				ir.Get("/", h.Inventory.ListSheets)
				ir.Get("/{sheetID}", h.Inventory.GetSheet)
				ir.Put("/{sheetID}/lines", h.Inventory.UpdateLines)
				ir.Post("/{sheetID}/request-approval", h.Inventory.RequestApproval)

				ir.Group(func(ar chi.Router) {
					ar.Use(h.Authorization.Require(authz.RequireMenu(authz.ActionApprove, inventory.MenuKey)))
					ar.Post("/{sheetID}/approve", h.Inventory.Approve)
					ar.Post("/{sheetID}/reject", h.Inventory.Reject)
				})
			})

			pr.Route("/disposals", func(dr chi.Router) {
				dr.Use(h.Authorization.Require(authz.RequireMenu(authz.ActionAny, disposal.MenuKey)))

				dr.Post("/", h.Disposal.CreateRequest)
				dr.Get("/", h.Disposal.ListRequests)
				dr.Get("/{disposalID}", h.Disposal.GetRequest)
				dr.Put("/{disposalID}", h.Disposal.UpdateRequest)
				dr.Post("/{disposalID}/request-approval", h.Disposal.RequestApproval)

				dr.Group(func(ar chi.Router) {
					ar.Use(h.Authorization.Require(authz.RequireMenu(authz.ActionApprove, disposal.MenuKey)))
					ar.Post("/{disposalID}/approve", h.Disposal.Approve)
					ar.Post("/{disposalID}/reject", h.Disposal.Reject)
				})
			})

			pr.Group(func(lr chi.Router) {
				lr.Use(h.Authorization.Require(authz.RequireAdmin(authz.CapabilityViewAuditLog)))
				lr.Get("/permission-logs", h.Audit.ListLogs)
			})
		})
	})
}
