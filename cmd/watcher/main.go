package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liqwatch/internal/api"
	"liqwatch/internal/config"
	"liqwatch/internal/oracle"
	"liqwatch/internal/store"
	"liqwatch/internal/watcher"
	"liqwatch/pkg/utils"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация глобального логгера
	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	logger.Info("liquidation watcher starting",
		utils.Float64("poll_interval_seconds", cfg.Watcher.PollInterval.Seconds()),
		utils.Int("concurrency", cfg.Watcher.Concurrency),
	)

	// Клиенты внешних систем
	positions := store.NewGateway(cfg.Store, logger)
	priceClient := oracle.NewClient(cfg.Oracle, logger)
	resolver := oracle.NewResolver(priceClient, cfg.Watcher.Concurrency)

	// Движок ликвидаций
	engine := watcher.NewEngine(positions, resolver, cfg.Watcher, logger)
	go engine.Run()

	// Операционный HTTP сервер
	deps := &api.Dependencies{
		Status:        engine,
		DebugUsername: cfg.Debug.Username,
		DebugPassword: cfg.Debug.Password,
	}
	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("ops server listening", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Warn("shutdown signal received", utils.String("signal", sig.String()))

	// Останавливаем цикл: прерывается только сон между тиками,
	// начатый тик дорабатывает
	engine.Stop()
	<-engine.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("ops server forced to shutdown", utils.Err(err))
	}

	logger.Info("liquidation watcher exited")
}
