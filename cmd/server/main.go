package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/avkuzmin/backoffice/internal/config"
	"github.com/avkuzmin/backoffice/internal/db"
	httpHandlers "github.com/avkuzmin/backoffice/internal/http/handlers"
	httpRouter "github.com/avkuzmin/backoffice/internal/http/router"
	"github.com/avkuzmin/backoffice/internal/logger"
	"github.com/avkuzmin/backoffice/internal/repository"
	"github.com/avkuzmin/backoffice/internal/service"
	"github.com/avkuzmin/backoffice/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.StoreTimeout)
	dbConn, err := db.NewPostgres(connectCtx, cfg.DatabaseURL)
	cancelConnect()
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	customerRepo := repository.NewCustomerRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	stageRepo := repository.NewStageRepository(dbConn)
	taxonomyRepo := repository.NewTaxonomyRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	pricingService := service.NewPricingService(stageRepo, orderRepo, taxonomyRepo)
	stageService := service.NewStageService(stageRepo, orderRepo, taxonomyRepo, pricingService, hub)
	seedService := service.NewSeedService(authService, customerRepo, projectRepo, orderRepo, stageService, taxonomyRepo)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	customerHandler := httpHandlers.NewCustomerHandler(customerRepo, projectRepo)
	projectHandler := httpHandlers.NewProjectHandler(projectRepo, customerRepo, orderRepo)
	orderHandler := httpHandlers.NewOrderHandler(orderRepo, projectRepo, pricingService)
	stageHandler := httpHandlers.NewStageHandler(stageService, pricingService)
	taxonomyHandler := httpHandlers.NewTaxonomyHandler(taxonomyRepo)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	seedHandler := httpHandlers.NewSeedHandler(seedService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, customerHandler, projectHandler, orderHandler, stageHandler, taxonomyHandler, wsHandler, healthHandler, seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
