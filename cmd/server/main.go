package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/linemk/food-delivery/internal/app"
	"github.com/linemk/food-delivery/internal/config"
	"github.com/linemk/food-delivery/internal/lib/logger"
	"github.com/linemk/food-delivery/internal/payment"
	"github.com/linemk/food-delivery/internal/service"
	"github.com/linemk/food-delivery/internal/storage"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	// слои по работе с БД
	userRepo := storage.NewUserRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	gateway := payment.NewRazorpay(log, cfg.Payment.KeyID, cfg.Payment.KeySecret)

	orderService := service.NewOrderService(
		log,
		application.DB,
		orderRepo,
		userRepo,
		gateway,
		cfg.Payment.Currency,
		decimal.NewFromFloat(cfg.Payment.DeliveryFee),
	)
	adminService := service.NewAdminService(log, userRepo, orderRepo)

	router := app.NewRouter(log, cfg.JWT.Secret, orderService, adminService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
