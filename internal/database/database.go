// Пакет database — подключение к PostgreSQL каталога через pgxpool,
// применение миграций схемы media_files/chat_settings (golang-migrate)
// и проверка готовности хранилища.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/goartstore/catalog-module/internal/config"
)

// applicationName — имя подключения в pg_stat_activity.
const applicationName = "catalog-module"

// ErrDirtySchema — предыдущая миграция прервана, схема требует ручного исправления.
var ErrDirtySchema = errors.New("схема каталога в состоянии dirty")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect создаёт пул подключений к PostgreSQL.
// Таймаут запроса CM_DB_QUERY_TIMEOUT дублируется на стороне сервера через statement_timeout.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	params := poolCfg.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	if cfg.DBQueryTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.DBQueryTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к хранилищу каталога установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
		slog.Int("max_conns", int(poolCfg.MaxConns)),
		slog.Duration("statement_timeout", cfg.DBQueryTimeout),
	)

	return pool, nil
}

// Migrate приводит схему каталога к последней версии из embedded FS.
// Схема в состоянии dirty не мигрируется: возвращается ErrDirtySchema.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return fmt.Errorf("ошибка чтения версии схемы: %w", err)
	case dirty:
		return fmt.Errorf("%w: версия %d", ErrDirtySchema, from)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Схема каталога актуальна", slog.Uint64("version", uint64(from)))
			return nil
		}
		return fmt.Errorf("ошибка применения миграций с версии %d: %w", from, err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("ошибка чтения версии схемы: %w", err)
	}
	logger.Info("Схема каталога обновлена",
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("to_version", uint64(to)),
	)

	return nil
}

// ReadinessChecker — проверка готовности хранилища каталога для /health/ready.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady проверяет подключение через ping и загрузку пула.
// Возвращает "fail" при недоступности, "degraded" при исчерпанном пуле.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	stat := c.pool.Stat()
	return poolStatus(stat.AcquiredConns(), stat.MaxConns())
}

// poolStatus оценивает загрузку пула: все соединения заняты — "degraded".
func poolStatus(acquired, maxConns int32) (status, message string) {
	msg := fmt.Sprintf("подключение активно, занято соединений %d из %d", acquired, maxConns)
	if maxConns > 0 && acquired >= maxConns {
		return "degraded", msg
	}
	return "ok", msg
}
