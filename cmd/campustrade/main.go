// Package main запускает HTTP-сервер кампусной торговой площадки.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/campus-trade/internal/config"
	"github.com/mmeshcher/campus-trade/internal/handler"
	"github.com/mmeshcher/campus-trade/internal/metrics"
	"github.com/mmeshcher/campus-trade/internal/middleware"
	"github.com/mmeshcher/campus-trade/internal/notifier"
	"github.com/mmeshcher/campus-trade/internal/repository"
	"github.com/mmeshcher/campus-trade/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	dispatcher := notifier.New(repo, logger, 0)

	svc := service.NewService(repo, dispatcher, logger)
	defer svc.Close()

	if cfg.AdminStudentID != "" && cfg.AdminPassword != "" {
		if err := svc.EnsureAdminUser(context.Background(), cfg.AdminStudentID, cfg.AdminPassword); err != nil {
			sugar.Fatalw("admin account initialization error", "error", err.Error())
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, cfg.TokenTTL)
	serverMetrics := metrics.NewServerMetrics()
	h := handler.NewHandler(svc, logger, authMiddleware, serverMetrics)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск фоновой доставки уведомлений
	g.Go(func() error {
		dispatcher.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting campus trade server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
