package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printcraft-co/printcraft-backend/api/controllers"
	"github.com/printcraft-co/printcraft-backend/api/middleware"
	"github.com/printcraft-co/printcraft-backend/internal/cart"
	"github.com/printcraft-co/printcraft-backend/internal/catalog"
	"github.com/printcraft-co/printcraft-backend/internal/quotes"
	"github.com/printcraft-co/printcraft-backend/pkg/config"
	"github.com/printcraft-co/printcraft-backend/pkg/db"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
	"github.com/printcraft-co/printcraft-backend/pkg/redis"
	"github.com/printcraft-co/printcraft-backend/pkg/storage/gcs"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      db.Pinger
	Redis   *redis.Client
	GCS     gcs.Pinger
	Catalog catalog.Service
	Cart    cart.Service
	Quotes  quotes.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A typed nil *redis.Client must become a nil interface so the
	// idempotency middleware degrades to pass-through.
	var idemStore redis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.GCS))
	})

	// Public catalog reads need no token.
	r.Route("/api/public/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/{productId}", controllers.GetProductTree(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Route("/quote-requests", func(r chi.Router) {
			r.Get("/", controllers.QuoteList(deps.Quotes, logg))
			r.Post("/", controllers.QuoteSubmit(deps.Quotes, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.AdminOnly(logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
			r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Get("/{productId}", controllers.AdminGetProductTree(deps.Catalog, logg))
			r.Put("/{productId}/tree", controllers.AdminSaveProductTree(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
		})
	})

	return r
}
