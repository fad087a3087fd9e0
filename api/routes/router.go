package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tavolo-app/tavolo-backend/api/controllers"
	"github.com/tavolo-app/tavolo-backend/api/middleware"
	"github.com/tavolo-app/tavolo-backend/internal/auth"
	"github.com/tavolo-app/tavolo-backend/internal/coupons"
	"github.com/tavolo-app/tavolo-backend/internal/meals"
	"github.com/tavolo-app/tavolo-backend/internal/orders"
	"github.com/tavolo-app/tavolo-backend/internal/restaurants"
	"github.com/tavolo-app/tavolo-backend/internal/users"
	"github.com/tavolo-app/tavolo-backend/pkg/auth/session"
	"github.com/tavolo-app/tavolo-backend/pkg/config"
	"github.com/tavolo-app/tavolo-backend/pkg/db"
	"github.com/tavolo-app/tavolo-backend/pkg/enums"
	"github.com/tavolo-app/tavolo-backend/pkg/logger"
	"github.com/tavolo-app/tavolo-backend/pkg/metrics"
	"github.com/tavolo-app/tavolo-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	MetricsPage http.Handler
	AuthService auth.Service
	Users       *users.Service
	Restaurants *restaurants.Service
	Meals       *meals.Service
	Coupons     *coupons.Service
	Orders      orders.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.MetricsPage != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsPage)
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(d.AuthService, logg))
		r.Post("/login", controllers.Login(d.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			r.Post("/refresh", controllers.Refresh(d.AuthService, logg))
			r.Post("/logout", controllers.Logout(d.AuthService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.Me(d.Users, logg))
			r.Patch("/me", controllers.UpdateMe(d.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
				r.Get("/", controllers.ListUsers(d.Users, logg))
				r.Post("/", controllers.CreateUser(d.Users, logg))
				r.Get("/{id}", controllers.GetUser(d.Users, logg))
				r.Patch("/{id}", controllers.AdminUpdateUser(d.Users, logg))
				r.Patch("/{id}/block", controllers.BlockUser(d.Users, logg))
				r.Delete("/{id}", controllers.DeleteUser(d.Users, logg))
			})
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.ListRestaurants(d.Restaurants, logg))
			r.Post("/", controllers.CreateRestaurant(d.Restaurants, logg))
			r.Get("/mine", controllers.MyRestaurants(d.Restaurants, logg))
			r.Get("/{id}", controllers.GetRestaurant(d.Restaurants, logg))
			r.Patch("/{id}", controllers.UpdateRestaurant(d.Restaurants, logg))
			r.Delete("/{id}", controllers.DeleteRestaurant(d.Restaurants, logg))
			r.Get("/{id}/meals", controllers.RestaurantMeals(d.Meals, logg))

			r.With(middleware.RequireRole(enums.UserRoleAdmin.String(), logg)).
				Patch("/{id}/block", controllers.BlockRestaurant(d.Restaurants, logg))
		})

		r.Route("/meals", func(r chi.Router) {
			r.Get("/", controllers.ListMeals(d.Meals, logg))
			r.Post("/", controllers.CreateMeal(d.Meals, logg))
			r.Get("/{id}", controllers.GetMeal(d.Meals, logg))
			r.Patch("/{id}", controllers.UpdateMeal(d.Meals, logg))
			r.Patch("/{id}/block", controllers.BlockMeal(d.Meals, logg))
			r.Delete("/{id}", controllers.DeleteMeal(d.Meals, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
			r.Post("/", controllers.CreateCoupon(d.Coupons, logg))
			r.Get("/", controllers.ListCoupons(d.Coupons, logg))
			r.Get("/{id}", controllers.GetCoupon(d.Coupons, logg))
			r.Patch("/{id}", controllers.UpdateCoupon(d.Coupons, logg))
			r.Delete("/{id}", controllers.DeleteCoupon(d.Coupons, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(d.Orders, logg))
			r.Get("/", controllers.ListOrders(d.Orders, logg))
			r.Get("/my-orders", controllers.MyOrders(d.Orders, logg))
			r.Get("/restaurant/{id}", controllers.RestaurantOrders(d.Orders, logg))
			r.Get("/{id}", controllers.GetOrder(d.Orders, logg))
			r.Patch("/{id}/status", controllers.TransitionOrder(d.Orders, logg))
			r.Delete("/{id}", controllers.DeleteOrder(d.Orders, logg))
		})
	})

	return r
}
