package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tkd-tournament/brackets"
	"github.com/Dosada05/tkd-tournament/config"
	"github.com/Dosada05/tkd-tournament/db"
	"github.com/Dosada05/tkd-tournament/handlers"
	"github.com/Dosada05/tkd-tournament/notify"
	"github.com/Dosada05/tkd-tournament/repositories"
	api "github.com/Dosada05/tkd-tournament/routes"
	"github.com/Dosada05/tkd-tournament/scheduler"
	"github.com/Dosada05/tkd-tournament/services"
	"github.com/Dosada05/tkd-tournament/sheets"
	"github.com/Dosada05/tkd-tournament/storage"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	// Хранилище: postgres, если задан DATABASE_URL, иначе память
	var store *repositories.Store
	var dbConn *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err = db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx, dbConn)
		cancel()
		if err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
		store = repositories.NewPostgresStore(dbConn)
		logger.Info("postgres store initialized")
	} else {
		store = repositories.NewMemoryStore()
		logger.Warn("DATABASE_URL is not set, using in-memory store")
	}

	// Архив снимков (Cloudflare R2), необязателен
	var archive storage.Archive
	r2Cfg := storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
		Endpoint:        cfg.R2Endpoint,
	}
	if r2Cfg.Enabled() {
		archive, err = storage.NewCloudflareR2Archive(context.Background(), r2Cfg)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 archive", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 archive initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("R2 is not configured, snapshot archiving disabled")
	}

	// Google Sheets, необязателен
	var rosterSource services.RosterSource
	var transferSink services.TransferSink
	if cfg.SheetsEnabled() {
		sheetsClient, err := sheets.New(context.Background(), sheets.Config{
			ServiceAccountJSONPath: cfg.SheetsCredentialsPath,
			SpreadsheetID:          cfg.SheetsSpreadsheetID,
			RosterSheet:            cfg.RosterSheet,
			TransferSheet:          cfg.TransferSheet,
		})
		if err != nil {
			logger.Error("failed to initialize Google Sheets client", slog.Any("error", err))
			os.Exit(1)
		}
		rosterSource, transferSink = sheetsClient, sheetsClient
		logger.Info("Google Sheets client initialized", slog.String("spreadsheet_id", sheetsClient.SpreadsheetID()))
	} else {
		logger.Info("Google Sheets is not configured, roster sync disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run()
	defer wsHub.Stop()
	logger.Info("WebSocket Hub started")

	// Уведомления в Telegram-чат судей, необязательны
	var notifier services.Notifier = wsHub
	tgCfg := notify.TelegramConfig{Token: cfg.TelegramBotToken, ChatID: cfg.TelegramChatID}
	if tgCfg.Enabled() {
		tg, err := notify.NewTelegram(tgCfg, logger)
		if err != nil {
			logger.Error("failed to initialize Telegram notifier", slog.Any("error", err))
			os.Exit(1)
		}
		defer tg.Stop()
		notifier = services.MultiNotifier{wsHub, tg}
		logger.Info("Telegram notifier initialized", slog.Int64("chat_id", cfg.TelegramChatID))
	}

	// Инициализация сервисов
	coord := services.NewCoordinator()
	athleteService := services.NewAthleteService(store, coord, notifier, logger)
	categoryService := services.NewCategoryService(store, coord, notifier, logger)
	bracketService := services.NewBracketService(store, coord, notifier, logger)
	matchService := services.NewMatchService(store, coord, notifier, logger)
	dashboardService := services.NewDashboardService(store, coord)
	rosterService := services.NewRosterService(athleteService, rosterSource, transferSink, cfg.SyncTimeout, notifier, logger)
	snapshotService := services.NewSnapshotService(store, coord, archive, logger)
	logger.Info("Services initialized")

	// Периодический импорт заявок
	if cfg.RosterSyncCron != "" {
		sched, err := scheduler.New(scheduler.Config{
			CronSpec:      cfg.RosterSyncCron,
			CompetitionID: cfg.RosterSyncCompetition,
			Timeout:       cfg.SyncTimeout * 3,
		}, rosterService, logger)
		if err != nil {
			logger.Error("failed to initialize roster scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.CORSOrigins, api.Handlers{
		Athlete:   handlers.NewAthleteHandler(athleteService),
		Category:  handlers.NewCategoryHandler(categoryService),
		Bracket:   handlers.NewBracketHandler(bracketService),
		Match:     handlers.NewMatchHandler(matchService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Sync:      handlers.NewSyncHandler(rosterService),
		Snapshot:  handlers.NewSnapshotHandler(snapshotService),
		WebSocket: handlers.NewWebSocketHandler(wsHub),
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
