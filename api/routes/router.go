package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cheikhbeye/oleashop-backend/api/controllers"
	"github.com/cheikhbeye/oleashop-backend/api/middleware"
	"github.com/cheikhbeye/oleashop-backend/internal/catalog"
	"github.com/cheikhbeye/oleashop-backend/internal/importer"
	"github.com/cheikhbeye/oleashop-backend/internal/orders"
	promo "github.com/cheikhbeye/oleashop-backend/internal/promos"
	"github.com/cheikhbeye/oleashop-backend/internal/shipping"
	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	"github.com/cheikhbeye/oleashop-backend/pkg/db"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
	pkgredis "github.com/cheikhbeye/oleashop-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Redis and
// Idempotency are usually the same client.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           pkgredis.Pinger
	Idempotency     pkgredis.IdempotencyStore
	MetricsRegistry *prometheus.Registry
	Catalog         catalog.Service
	Imports         importer.Service
	Promos          promo.Service
	Shipping        shipping.Service
	Orders          orders.Service
	Payments        controllers.CallbackVerifier
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			deps.MetricsRegistry,
			promhttp.HandlerOpts{},
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{slug}", controllers.GetProductBySlug(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))

		r.Post("/checkout/quote", controllers.QuoteCart(deps.Orders, logg))
		r.With(middleware.Idempotency(deps.Idempotency, logg)).
			Post("/checkout", controllers.Checkout(deps.Orders, logg))
		r.Post("/payments/callback", controllers.PaymentCallback(deps.Orders, deps.Payments, logg))
		r.Get("/orders/{reference}", controllers.GetOrderByReference(deps.Orders, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Put("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(deps.Catalog, logg))
			r.Put("/{categoryId}", controllers.AdminUpdateCategory(deps.Catalog, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.Catalog, logg))
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", controllers.AdminAnalyzeImport(deps.Imports, logg))
			r.Get("/{importId}", controllers.AdminGetImport(deps.Imports, logg))
			r.Put("/{importId}/mapping", controllers.AdminSetImportMapping(deps.Imports, logg))
			r.Post("/{importId}/commit", controllers.AdminCommitImport(deps.Imports, logg))
		})

		r.Route("/promos", func(r chi.Router) {
			r.Get("/", controllers.AdminListPromos(deps.Promos, logg))
			r.Post("/", controllers.AdminCreatePromo(deps.Promos, logg))
			r.Put("/{promoId}", controllers.AdminUpdatePromo(deps.Promos, logg))
			r.Delete("/{promoId}", controllers.AdminDeletePromo(deps.Promos, logg))
		})

		r.Route("/shipping/zones", func(r chi.Router) {
			r.Get("/", controllers.AdminListZones(deps.Shipping, logg))
			r.Post("/", controllers.AdminCreateZone(deps.Shipping, logg))
			r.Put("/{zoneId}", controllers.AdminUpdateZone(deps.Shipping, logg))
			r.Delete("/{zoneId}", controllers.AdminDeleteZone(deps.Shipping, logg))
			r.Put("/{zoneId}/rates", controllers.AdminSetZoneRate(deps.Shipping, logg))
			r.Delete("/{zoneId}/rates/{rateId}", controllers.AdminDeleteZoneRate(deps.Shipping, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})
	})

	return r
}
