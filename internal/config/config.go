// Пакет config — загрузка и валидация конфигурации Catalog Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды хранилища каталога.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config содержит все параметры конфигурации Catalog Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8040-8049)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Хранилище ---

	// Бэкенд хранилища: postgres, memory
	StoreBackend string
	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Таймаут одного запроса к хранилищу
	DBQueryTimeout time.Duration

	// --- Поиск ---

	// Размер страницы по умолчанию (и при max_buttons=false)
	DefaultPageSize int
	// Размер страницы при max_buttons=true
	ExtendedPageSize int
	// Искать также по подписи (caption)
	UseCaptionFilter bool

	// --- Кэши ---

	// Максимальное количество записей в кэше метаданных
	CacheMaxSize int
	// TTL записи кэша метаданных
	CacheTTL time.Duration
	// TTL записи кэша настроек чатов
	SettingsCacheTTL time.Duration

	// --- Индексация ---

	// Количество параллельных обработчиков пакетной индексации
	IngestWorkers int
	// Максимальный размер пакета индексации
	IngestMaxBatch int

	// --- NATS (опционально) ---

	// URL NATS; пустая строка — потребитель отключён
	NATSURL string
	// Имя JetStream-стрима
	NATSStream string
	// Subject с описаниями файлов
	NATSSubject string
	// Имя durable-потребителя
	NATSConsumer string

	// --- Администрирование ---

	// Идентификаторы администраторов (X-Requester-ID)
	Admins []int64

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Лейбл isentry=yes для всех зависимостей
	DephealthIsEntry bool

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
//
//nolint:cyclop,funlen // линейный разбор переменных окружения
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CM_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("CM_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("CM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CM_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// CM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOG_LEVEL: %w", err)
	}

	// CM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("CM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("CM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("CM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Хранилище ---

	// CM_STORE_BACKEND — бэкенд хранилища (по умолчанию postgres)
	cfg.StoreBackend = getEnvDefault("CM_STORE_BACKEND", StoreBackendPostgres)
	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	case StoreBackendMemory:
	default:
		return nil, fmt.Errorf("CM_STORE_BACKEND: недопустимое значение %q, допустимые: postgres, memory", cfg.StoreBackend)
	}

	// CM_DB_QUERY_TIMEOUT — таймаут запроса к хранилищу (по умолчанию 10s)
	cfg.DBQueryTimeout, err = getEnvDuration("CM_DB_QUERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DB_QUERY_TIMEOUT: %w", err)
	}

	// --- Поиск ---

	// CM_DEFAULT_PAGE_SIZE — размер страницы по умолчанию (5)
	cfg.DefaultPageSize, err = getEnvInt("CM_DEFAULT_PAGE_SIZE", 5)
	if err != nil {
		return nil, fmt.Errorf("CM_DEFAULT_PAGE_SIZE: %w", err)
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 100 {
		return nil, fmt.Errorf("CM_DEFAULT_PAGE_SIZE: значение %d вне допустимого диапазона 1-100", cfg.DefaultPageSize)
	}

	// CM_EXTENDED_PAGE_SIZE — размер страницы при max_buttons=true (8)
	cfg.ExtendedPageSize, err = getEnvInt("CM_EXTENDED_PAGE_SIZE", 8)
	if err != nil {
		return nil, fmt.Errorf("CM_EXTENDED_PAGE_SIZE: %w", err)
	}
	if cfg.ExtendedPageSize < 1 || cfg.ExtendedPageSize > 100 {
		return nil, fmt.Errorf("CM_EXTENDED_PAGE_SIZE: значение %d вне допустимого диапазона 1-100", cfg.ExtendedPageSize)
	}

	// CM_USE_CAPTION_FILTER — поиск также по подписи (по умолчанию false)
	cfg.UseCaptionFilter, err = getEnvBool("CM_USE_CAPTION_FILTER", false)
	if err != nil {
		return nil, fmt.Errorf("CM_USE_CAPTION_FILTER: %w", err)
	}

	// --- Кэши ---

	cfg.CacheMaxSize, err = getEnvInt("CM_CACHE_MAX_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("CM_CACHE_MAX_SIZE: %w", err)
	}
	if cfg.CacheMaxSize < 1 {
		return nil, fmt.Errorf("CM_CACHE_MAX_SIZE: значение должно быть > 0")
	}
	cfg.CacheTTL, err = getEnvDuration("CM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CM_CACHE_TTL: %w", err)
	}
	cfg.SettingsCacheTTL, err = getEnvDuration("CM_SETTINGS_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CM_SETTINGS_CACHE_TTL: %w", err)
	}

	// --- Индексация ---

	cfg.IngestWorkers, err = getEnvInt("CM_INGEST_WORKERS", 8)
	if err != nil {
		return nil, fmt.Errorf("CM_INGEST_WORKERS: %w", err)
	}
	if cfg.IngestWorkers < 1 || cfg.IngestWorkers > 256 {
		return nil, fmt.Errorf("CM_INGEST_WORKERS: значение %d вне допустимого диапазона 1-256", cfg.IngestWorkers)
	}
	cfg.IngestMaxBatch, err = getEnvInt("CM_INGEST_MAX_BATCH", 1000)
	if err != nil {
		return nil, fmt.Errorf("CM_INGEST_MAX_BATCH: %w", err)
	}
	if cfg.IngestMaxBatch < 1 || cfg.IngestMaxBatch > 100000 {
		return nil, fmt.Errorf("CM_INGEST_MAX_BATCH: значение %d вне допустимого диапазона 1-100000", cfg.IngestMaxBatch)
	}

	// --- NATS ---

	cfg.NATSURL = getEnvDefault("CM_NATS_URL", "")
	cfg.NATSStream = getEnvDefault("CM_NATS_STREAM", "MEDIA")
	cfg.NATSSubject = getEnvDefault("CM_NATS_SUBJECT", "media.ingest")
	cfg.NATSConsumer = getEnvDefault("CM_NATS_CONSUMER", "catalog-module")

	// --- Администрирование ---

	// CM_ADMINS — идентификаторы администраторов через запятую
	cfg.Admins, err = parseIDs(getEnvDefault("CM_ADMINS", ""))
	if err != nil {
		return nil, fmt.Errorf("CM_ADMINS: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("CM_DEPHEALTH_GROUP", "artstore")
	cfg.DephealthCheckInterval, err = getEnvDuration("CM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("CM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase читает параметры PostgreSQL (обязательны для бэкенда postgres).
func loadDatabase(cfg *Config) error {
	var err error

	if cfg.DBHost, err = getEnvRequired("CM_DB_HOST"); err != nil {
		return err
	}
	cfg.DBPort, err = getEnvInt("CM_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("CM_DB_PORT: %w", err)
	}
	if cfg.DBName, err = getEnvRequired("CM_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = getEnvRequired("CM_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = getEnvRequired("CM_DB_PASSWORD"); err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("CM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("CM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL для лейблов topologymetrics.
func (c *Config) DatabaseURL() string {
	return c.databaseURL("postgres")
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	return c.databaseURL("pgx5")
}

func (c *Config) databaseURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// IsAdmin сообщает, входит ли идентификатор в список администраторов.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseIDs разбирает список целочисленных идентификаторов через запятую.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный идентификатор: %q", p)
		}
		result = append(result, id)
	}
	return result, nil
}
