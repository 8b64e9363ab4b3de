// Пакет config — загрузка и валидация конфигурации Plantstore
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды хранения изображений.
const (
	// AssetBackendLocal — запись на локальный диск, раздача через /images/.
	AssetBackendLocal = "local"
	// AssetBackendImageHost — загрузка на внешний image host по HTTP.
	AssetBackendImageHost = "imagehost"
)

// Config содержит все параметры конфигурации Plantstore.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Параметры подключения к PostgreSQL
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	// Бэкенд хранения изображений (local, imagehost)
	AssetBackend string
	// Путь к директории изображений (обязательный для local)
	DataDir string
	// Базовый публичный URL сервиса для построения ссылок на изображения
	// (обязательный для local, например "https://plants.example.com")
	PublicBaseURL string
	// URL API внешнего image host (обязательный для imagehost)
	ImageHostURL string
	// API-ключ внешнего image host (обязательный для imagehost)
	ImageHostAPIKey string
	// ImageHostCDNHosts — дополнительные хосты, на которых image host
	// раздаёт изображения (CDN). Нужны, когда secure_url указывает
	// не на хост API.
	ImageHostCDNHosts []string
	// Максимальный размер загружаемого изображения в байтах
	MaxUploadSize int64
	// Максимальное количество записей в LRU-кэше
	CacheSize int
	// TTL записи в LRU-кэше
	CacheTTL time.Duration
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (PS_DEPHEALTH_GROUP)
	DephealthGroup string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// PS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("PS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// PS_DB_* — подключение к PostgreSQL
	cfg.DBHost = getEnvDefault("PS_DB_HOST", "localhost")
	cfg.DBPort, err = getEnvInt("PS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("PS_DB_PORT: %w", err)
	}
	cfg.DBName, err = getEnvRequired("PS_DB_NAME")
	if err != nil {
		return nil, err
	}
	cfg.DBUser, err = getEnvRequired("PS_DB_USER")
	if err != nil {
		return nil, err
	}
	cfg.DBPassword, err = getEnvRequired("PS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	cfg.DBSSLMode = getEnvDefault("PS_DB_SSL_MODE", "disable")

	// PS_ASSET_BACKEND — бэкенд изображений (по умолчанию local)
	cfg.AssetBackend = getEnvDefault("PS_ASSET_BACKEND", AssetBackendLocal)
	switch cfg.AssetBackend {
	case AssetBackendLocal:
		// PS_DATA_DIR и PS_PUBLIC_BASE_URL обязательны для локального бэкенда
		cfg.DataDir, err = getEnvRequired("PS_DATA_DIR")
		if err != nil {
			return nil, err
		}
		cfg.PublicBaseURL, err = getEnvRequired("PS_PUBLIC_BASE_URL")
		if err != nil {
			return nil, err
		}
		cfg.PublicBaseURL = strings.TrimSuffix(cfg.PublicBaseURL, "/")
	case AssetBackendImageHost:
		// PS_IMAGEHOST_URL и PS_IMAGEHOST_API_KEY обязательны для imagehost
		cfg.ImageHostURL, err = getEnvRequired("PS_IMAGEHOST_URL")
		if err != nil {
			return nil, err
		}
		cfg.ImageHostURL = strings.TrimSuffix(cfg.ImageHostURL, "/")
		cfg.ImageHostAPIKey, err = getEnvRequired("PS_IMAGEHOST_API_KEY")
		if err != nil {
			return nil, err
		}
		// PS_IMAGEHOST_CDN_HOSTS — необязательный список CDN-хостов через запятую
		cfg.ImageHostCDNHosts = splitHosts(os.Getenv("PS_IMAGEHOST_CDN_HOSTS"))
	default:
		return nil, fmt.Errorf("PS_ASSET_BACKEND: недопустимое значение %q, допустимые: local, imagehost", cfg.AssetBackend)
	}

	// PS_MAX_UPLOAD_SIZE — максимальный размер изображения (по умолчанию 5 MiB)
	cfg.MaxUploadSize, err = getEnvInt64("PS_MAX_UPLOAD_SIZE", 5*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("PS_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("PS_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}

	// PS_CACHE_SIZE — размер LRU-кэша (по умолчанию 512 записей)
	cfg.CacheSize, err = getEnvInt("PS_CACHE_SIZE", 512)
	if err != nil {
		return nil, fmt.Errorf("PS_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("PS_CACHE_SIZE: значение должно быть положительным")
	}

	// PS_CACHE_TTL — TTL записи кэша (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("PS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PS_CACHE_TTL: %w", err)
	}

	// PS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("PS_LOG_LEVEL: %w", err)
	}

	// PS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// PS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("PS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PS_SHUTDOWN_TIMEOUT: %w", err)
	}

	// PS_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("PS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// PS_DEPHEALTH_GROUP — имя группы в метриках topologymetrics (по умолчанию "plantstore")
	cfg.DephealthGroup = getEnvDefault("PS_DEPHEALTH_GROUP", "plantstore")

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для лейблов topologymetrics, не для подключения).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
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
// splitHosts разбирает список хостов через запятую,
// отбрасывая пустые элементы и пробелы.
func splitHosts(raw string) []string {
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

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

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
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
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 5m, 1h)", val)
	}
	return d, nil
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
