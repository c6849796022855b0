// Точка входа Catalog Module — каталог медиафайлов с полнотекстовым поиском.
// Загружает конфигурацию, выбирает хранилище (PostgreSQL или in-memory),
// применяет миграции, создаёт сервисный слой и API handlers,
// запускает подписку NATS JetStream, topologymetrics
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/catalog-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/catalog-module/internal/config"
	"github.com/bigkaa/goartstore/catalog-module/internal/database"
	"github.com/bigkaa/goartstore/catalog-module/internal/ingest"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/server"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
	"github.com/bigkaa/goartstore/catalog-module/internal/storage/memstore"
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
	logger.Info("Catalog Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("store_backend", cfg.StoreBackend),
	)
	if len(cfg.Admins) == 0 {
		logger.Warn("CM_ADMINS не задан, административные операции недоступны")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Хранилище
	var (
		mediaRepo    repository.MediaRepository
		settingsRepo repository.SettingsRepository
		storeChecker handlers.ReadinessChecker
		dephealthSvc *service.DephealthService
	)

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics.
		// Проверка здоровья идёт через тот же пул соединений.
		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		mediaRepo = repository.NewMediaRepository(pool)
		settingsRepo = repository.NewSettingsRepository(pool)
		storeChecker = database.NewReadinessChecker(pool)

		dephealthSvc, err = service.NewDephealthService(
			"catalog-module",
			cfg.DephealthGroup,
			pgDB,
			cfg.DatabaseURL(),
			cfg.DephealthCheckInterval,
			cfg.DephealthIsEntry,
			logger,
		)
		if err != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", err.Error()),
			)
			dephealthSvc = nil
		} else if err := dephealthSvc.Start(ctx); err != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
			dephealthSvc = nil
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}

	case config.StoreBackendMemory:
		logger.Warn("Используется in-memory хранилище, данные не сохраняются между рестартами")
		store := memstore.NewMediaStore(logger)
		mediaRepo = store
		settingsRepo = memstore.NewSettingsStore()
		storeChecker = store
	}

	// Каждое обращение к хранилищу ограничено CM_DB_QUERY_TIMEOUT.
	mediaRepo = repository.WithQueryTimeout(mediaRepo, cfg.DBQueryTimeout)
	settingsRepo = repository.WithSettingsQueryTimeout(settingsRepo, cfg.DBQueryTimeout)

	// 4. Services
	cache := service.NewMetadataCache(cfg.CacheMaxSize, cfg.CacheTTL)
	catalogSvc := service.NewCatalogService(mediaRepo, cache, cfg.IngestWorkers, cfg.IngestMaxBatch, logger)
	settingsSvc := service.NewSettingsResolver(
		settingsRepo,
		cfg.DefaultPageSize, cfg.ExtendedPageSize,
		cfg.SettingsCacheTTL,
		logger,
	)
	searchSvc := service.NewSearchService(mediaRepo, settingsSvc, cfg.DefaultPageSize, cfg.UseCaptionFilter, logger)

	// 5. Подписка NATS JetStream (опционально, если задан CM_NATS_URL)
	var (
		consumer    *ingest.Consumer
		natsChecker handlers.ReadinessChecker
	)
	if cfg.NATSURL != "" {
		consumer, err = ingest.NewConsumer(cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к NATS", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := consumer.Subscribe(ctx, ingest.NewHandler(catalogSvc, logger)); err != nil {
			logger.Error("Ошибка подписки NATS", slog.String("error", err.Error()))
			_ = consumer.Close()
			os.Exit(1)
		}
		natsChecker = consumer
	} else {
		logger.Info("Подписка NATS отключена (CM_NATS_URL не задан)")
	}

	// 6. Health и API handlers
	healthHandler := handlers.NewHealthHandler(storeChecker, natsChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, catalogSvc, searchSvc, settingsSvc, cfg.IsAdmin, logger)

	// 7. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler,
		middleware.RequireAdmin(cfg.IsAdmin),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	cancel()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Warn("Ошибка закрытия NATS", slog.String("error", err.Error()))
		}
	}
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Catalog Module остановлен")
}
