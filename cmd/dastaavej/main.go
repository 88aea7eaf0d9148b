// Точка входа Dastaavej — backend подачи заявок на государственные документы.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует хранилище загрузок, SMTP-уведомления, сервисный слой,
// API handlers и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/Meetsu369/Dastaavej/internal/api/handlers"
	"github.com/Meetsu369/Dastaavej/internal/api/middleware"
	"github.com/Meetsu369/Dastaavej/internal/auth"
	"github.com/Meetsu369/Dastaavej/internal/config"
	"github.com/Meetsu369/Dastaavej/internal/database"
	"github.com/Meetsu369/Dastaavej/internal/notify"
	"github.com/Meetsu369/Dastaavej/internal/repository"
	"github.com/Meetsu369/Dastaavej/internal/server"
	"github.com/Meetsu369/Dastaavej/internal/service"
	"github.com/Meetsu369/Dastaavej/internal/storage/uploadstore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Dastaavej запускается",
		slog.String("version", config.Version),
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("DV_JWT_SECRET не задан, используется секрет по умолчанию")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Хранилище загруженных документов
	uploads, err := uploadstore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища загрузок", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище загрузок готово", slog.String("dir", uploads.DataDir()))

	// 6. SMTP-уведомления (NoopNotifier если учётные данные не заданы)
	notifier, err := notify.NewMailer(cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации SMTP-клиента", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	userRepo := repository.NewUserRepository(pool)
	appRepo := repository.NewApplicationRepository(pool)
	docRepo := repository.NewDocumentRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 8. Сервис токенов и services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	authSvc := service.NewAuthService(userRepo, tokens, logger)
	appSvc := service.NewApplicationService(
		appRepo, docRepo, userRepo,
		txRunner, uploads, notifier,
		logger,
	)

	// 9. Health handler + readiness checker PostgreSQL
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		authSvc,
		appSvc,
		cfg.MaxUploadSize,
		logger,
	)

	// 11. JWT middleware
	authMiddleware := middleware.NewAuth(tokens, userRepo, logger)

	// 12. Создание и запуск HTTP-сервера (блокирующий вызов)
	srv := server.New(cfg, logger, apiHandler, authMiddleware)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Dastaavej остановлен")
}
