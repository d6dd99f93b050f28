package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gosbiromania/storefront-backend/api/controllers"
	"github.com/gosbiromania/storefront-backend/api/middleware"
	"github.com/gosbiromania/storefront-backend/internal/auth"
	"github.com/gosbiromania/storefront-backend/internal/cart"
	"github.com/gosbiromania/storefront-backend/internal/catalog"
	"github.com/gosbiromania/storefront-backend/internal/checkout"
	"github.com/gosbiromania/storefront-backend/internal/customers"
	"github.com/gosbiromania/storefront-backend/internal/orders"
	"github.com/gosbiromania/storefront-backend/pkg/auth/session"
	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/db"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/logger"
	pkgredis "github.com/gosbiromania/storefront-backend/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP layer needs.
type redisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	sessions session.AccessSessionChecker,
	metricsHandler http.Handler,
	authService auth.Service,
	customerService customers.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkout.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.CORS(cfg.App.CORSAllowedOrigins),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.LoginRateLimit(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimit(cfg.AuthRateLimit)
	idempotent := middleware.Idempotent(redisClient, logg, middleware.IdempotencyTTL)
	orderIdempotent := middleware.Idempotent(redisClient, logg, middleware.OrderIdempotencyTTL)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg), idempotent).
			Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Get("/counties", controllers.ProfileCounties())

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(customerService, logg))
			r.Get("/contact", controllers.ProfileContact(customerService, logg))
			r.Put("/contact", controllers.ProfileSaveContact(customerService, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
			r.Get("/products", controllers.CatalogProducts(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, checkoutService, logg))
			r.Delete("/", controllers.CartClear(cartService, checkoutService, logg))
			r.Put("/items/{productId}", controllers.CartSetItem(cartService, checkoutService, logg))
			r.Post("/items/{productId}/increment", controllers.CartIncrementItem(cartService, checkoutService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(orderIdempotent).Post("/", controllers.OrderSubmit(checkoutService, logg))
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, enums.CustomerRoleAdmin))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.AdminListCustomers(customerService, logg))
			r.With(idempotent).Post("/{customerId}/approve", controllers.AdminApproveCustomer(customerService, logg))
			r.Post("/{customerId}/deactivate", controllers.AdminDeactivateCustomer(customerService, logg))
			r.Put("/{customerId}/markups/{categoryId}", controllers.AdminSetCategoryMarkup(customerService, logg))
			r.Delete("/{customerId}/markups/{categoryId}", controllers.AdminDeleteCategoryMarkup(customerService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderId}", controllers.AdminOrderDetail(ordersService, logg))
			r.With(idempotent).Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(ordersService, logg))
		})
	})

	return r
}
