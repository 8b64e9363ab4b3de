// Точка входа Plantstore — REST-сервис каталога растений.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// выбирает бэкенд хранения изображений (локальный диск или image host),
// создаёт сервисный слой и API handlers, запускает topologymetrics
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/arturkryukov/plantstore/internal/api/handlers"
	"github.com/arturkryukov/plantstore/internal/assetstore"
	"github.com/arturkryukov/plantstore/internal/config"
	"github.com/arturkryukov/plantstore/internal/database"
	"github.com/arturkryukov/plantstore/internal/repository"
	"github.com/arturkryukov/plantstore/internal/server"
	"github.com/arturkryukov/plantstore/internal/service"
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
	logger.Info("Plantstore запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("asset_backend", cfg.AssetBackend),
	)

	if os.Getenv("PS_DEPHEALTH_GROUP") == "" {
		logger.Warn("PS_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
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

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Бэкенд хранения изображений
	var assets assetstore.Store
	var assetChecker handlers.ReadinessChecker
	var imageHostURL string

	switch cfg.AssetBackend {
	case config.AssetBackendLocal:
		localStore, storeErr := assetstore.NewLocal(cfg.DataDir, cfg.PublicBaseURL, logger)
		if storeErr != nil {
			logger.Error("Ошибка инициализации локального хранилища изображений",
				slog.String("error", storeErr.Error()),
			)
			os.Exit(1)
		}
		assets = localStore
		assetChecker = localStore
		logger.Info("Локальное хранилище изображений готово",
			slog.String("data_dir", cfg.DataDir),
			slog.String("base_url", cfg.PublicBaseURL),
		)
	case config.AssetBackendImageHost:
		hostStore := assetstore.NewImageHost(cfg.ImageHostURL, cfg.ImageHostAPIKey, cfg.ImageHostCDNHosts, logger)
		assets = hostStore
		assetChecker = hostStore
		imageHostURL = cfg.ImageHostURL
		logger.Info("Клиент image host создан", slog.String("url", cfg.ImageHostURL))
	}

	// 6. Repository и сервисный слой
	plantRepo := repository.NewPlantRepository(pool)
	plantCache := service.NewPlantCache(cfg.CacheSize, cfg.CacheTTL)
	plantSvc := service.NewPlantService(plantRepo, assets, plantCache, cfg.MaxUploadSize, logger)

	// 7. topologymetrics — мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"plantstore",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		imageHostURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. API handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, assetChecker)
	plantHandler := handlers.NewPlantHandler(plantSvc, logger)

	// 9. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, plantHandler, healthHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
