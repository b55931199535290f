package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurelle-jewelry/storefront-backend/api/controllers"
	authcontrollers "github.com/aurelle-jewelry/storefront-backend/api/controllers/auth"
	cartcontrollers "github.com/aurelle-jewelry/storefront-backend/api/controllers/cart"
	wishlistcontrollers "github.com/aurelle-jewelry/storefront-backend/api/controllers/wishlist"
	"github.com/aurelle-jewelry/storefront-backend/api/middleware"
	cartsvc "github.com/aurelle-jewelry/storefront-backend/internal/cart"
	customersvc "github.com/aurelle-jewelry/storefront-backend/internal/customer"
	wishlistsvc "github.com/aurelle-jewelry/storefront-backend/internal/wishlist"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	redisclient "github.com/aurelle-jewelry/storefront-backend/pkg/redis"
)

const (
	loginRateLimit  = 20
	loginRateWindow = time.Minute
)

// RouterParams collects the wired services the HTTP surface exposes.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	Sessions        middleware.SessionIssuer
	Limiter         *redisclient.Client
	CartService     cartsvc.Service
	WishlistService wishlistsvc.Service
	CustomerService customersvc.Service
	MetricsHandler  http.Handler
	Checks          []controllers.Check
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Checks...))
	})

	if params.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", params.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, params.Sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Hydrate(params.CartService, logg))
			r.Post("/items", cartcontrollers.AddItem(params.CartService, logg))
			r.Patch("/items", cartcontrollers.UpdateItem(params.CartService, logg))
			r.Post("/refresh", cartcontrollers.Refresh(params.CartService, logg))
		})
		r.Get("/checkout", cartcontrollers.Checkout(params.CartService, logg))

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistcontrollers.List(params.WishlistService, logg))
			r.Post("/toggle", wishlistcontrollers.Toggle(params.WishlistService, logg))
			r.Post("/clear", wishlistcontrollers.Clear(params.WishlistService, logg))
			r.Delete("/{ref}", wishlistcontrollers.Remove(params.WishlistService, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			login := r
			if params.Limiter != nil {
				login = r.With(middleware.RateLimit("login", loginRateLimit, loginRateWindow, params.Limiter, logg))
			}
			login.Get("/login", authcontrollers.Login(params.CustomerService, logg))
			r.Get("/callback", authcontrollers.Callback(params.CustomerService, cfg.Session, logg))
			r.Post("/logout", authcontrollers.Logout(params.CustomerService, cfg.Session, logg))
		})
		r.Get("/customer/me", authcontrollers.Me(params.CustomerService, logg))
	})

	return r
}
