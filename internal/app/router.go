package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linemk/food-delivery/internal/app/handlers"
	"github.com/linemk/food-delivery/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/food-delivery/internal/lib/logger/handlers/urllog"
	"github.com/linemk/food-delivery/internal/lib/metrics"
	"github.com/linemk/food-delivery/internal/service"
)

const serviceName = "food-delivery"

// NewRouter собирает middleware и маршруты сервиса заказов
func NewRouter(log *slog.Logger, jwtSecret string, orderService service.OrderService, adminService service.AdminService) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware(serviceName))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/order", func(r chi.Router) {
		// колбэк после оплаты приходит без токена, подлинность проверяется подписью
		r.Post("/verify", handlers.VerifyHandler(log, orderService))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewJWTMiddleware(jwtSecret))
			r.Post("/place", handlers.PlaceOrderHandler(log, orderService))
			r.Post("/userorders", handlers.UserOrdersHandler(log, orderService))
			r.Get("/list", handlers.ListOrdersHandler(log, adminService))
			r.Post("/status", handlers.UpdateStatusHandler(log, adminService))
		})
	})

	return router
}
