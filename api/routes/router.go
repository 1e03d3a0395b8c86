package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itqan-platform/itqan-backend/api/controllers"
	"github.com/itqan-platform/itqan-backend/api/middleware"
	"github.com/itqan-platform/itqan-backend/internal/badges"
	"github.com/itqan-platform/itqan-backend/internal/favorites"
	"github.com/itqan-platform/itqan-backend/internal/invoices"
	"github.com/itqan-platform/itqan-backend/internal/ledger"
	"github.com/itqan-platform/itqan-backend/internal/profiles"
	"github.com/itqan-platform/itqan-backend/pkg/config"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
	"github.com/itqan-platform/itqan-backend/pkg/logger"
	"github.com/itqan-platform/itqan-backend/pkg/metrics"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Ledger    ledger.Service
	Invoices  invoices.Service
	Favorites favorites.Service
	Badges    badges.Service
	Profiles  profiles.Service
}

// Dependencies groups the infrastructure the router checks or exposes.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics
}

// NewRouter mounts health checks, metrics and the authenticated /api/v1 tree.
func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTP),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletGet(svc.Ledger, logg))
			r.Get("/entries", controllers.WalletEntries(svc.Ledger, logg))
			r.Post("/spend", controllers.WalletSpend(svc.Ledger, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.InvoiceIssue(svc.Invoices, svc.Ledger, logg))
			r.Get("/{invoiceId}", controllers.InvoiceGet(svc.Invoices, svc.Ledger, logg))
			r.Post("/{invoiceId}/void", controllers.InvoiceVoid(svc.Invoices, svc.Ledger, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(svc.Favorites, logg))
			r.Get("/status", controllers.FavoriteStatus(svc.Favorites, logg))
			r.Post("/toggle", controllers.FavoriteToggle(svc.Favorites, logg))
		})

		r.Get("/badges/{subjectId}", controllers.BadgesList(svc.Badges, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, enums.UserRoleBilling, enums.UserRoleAdmin))
			r.Post("/accounts/{userId}/purchases", controllers.BillingPurchase(svc.Ledger, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Post("/badges", controllers.AdminBadgeGrant(svc.Badges, logg))
			r.Delete("/badges/{subjectId}/{type}", controllers.AdminBadgeRevoke(svc.Badges, logg))
			r.Post("/badges/{subjectId}/recompute", controllers.AdminBadgeRecompute(svc.Badges, logg))
			r.Post("/profiles/{subjectId}/metrics", controllers.AdminProfileMetrics(svc.Profiles, logg))
			r.Get("/wallet/{accountId}/reconcile", controllers.AdminWalletReconcile(svc.Ledger, logg))
		})
	})

	return r
}
