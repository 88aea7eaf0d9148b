// Пакет config — загрузка и валидация конфигурации сервиса Dastaavej
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

// DefaultJWTSecret — заглушка секрета для режима development.
// В режиме production запуск с этим значением запрещён.
const DefaultJWTSecret = "your-secret-key"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Режим работы (development, production)
	Env string
	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

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

	// --- Токены ---

	// Секрет подписи JWT (HS256)
	JWTSecret string
	// Время жизни токена
	TokenTTL time.Duration

	// --- Загрузка файлов ---

	// Директория хранения загруженных документов
	UploadDir string
	// Максимальный размер тела запроса при загрузке (байты)
	MaxUploadSize int64

	// --- SMTP ---

	// Хост SMTP-сервера
	SMTPHost string
	// Порт SMTP-сервера
	SMTPPort int
	// Имя пользователя SMTP
	SMTPUsername string
	// Пароль SMTP
	SMTPPassword string
	// Адрес отправителя (по умолчанию — SMTPUsername)
	SMTPFrom string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DV_ENV — режим работы (по умолчанию development)
	cfg.Env = getEnvDefault("DV_ENV", "development")
	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("DV_ENV: недопустимое значение %q, допустимые: development, production", cfg.Env)
	}

	// DV_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("DV_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("DV_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DV_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// DV_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DV_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DV_LOG_LEVEL: %w", err)
	}

	// DV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DV_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// DV_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("DV_DB_HOST")
	if err != nil {
		return nil, err
	}

	// DV_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("DV_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("DV_DB_PORT: %w", err)
	}

	// DV_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("DV_DB_NAME")
	if err != nil {
		return nil, err
	}

	// DV_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("DV_DB_USER")
	if err != nil {
		return nil, err
	}

	// DV_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("DV_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// DV_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("DV_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("DV_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Токены ---

	// DV_JWT_SECRET — секрет подписи.
	// Заглушка допустима только в development: запуск production-сервиса
	// с известным дефолтным секретом — прямой путь к подделке токенов.
	cfg.JWTSecret = getEnvDefault("DV_JWT_SECRET", DefaultJWTSecret)
	if cfg.Env == "production" {
		if cfg.JWTSecret == DefaultJWTSecret {
			return nil, fmt.Errorf("DV_JWT_SECRET: в режиме production запрещён дефолтный секрет")
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("DV_JWT_SECRET: в режиме production секрет должен быть не короче 32 байт")
		}
	}

	// DV_TOKEN_TTL — время жизни токена (по умолчанию 24h)
	cfg.TokenTTL, err = getEnvDuration("DV_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DV_TOKEN_TTL: %w", err)
	}

	// --- Загрузка файлов ---

	// DV_UPLOAD_DIR — директория загрузок (по умолчанию uploads)
	cfg.UploadDir = getEnvDefault("DV_UPLOAD_DIR", "uploads")

	// DV_MAX_UPLOAD_SIZE — максимальный размер тела запроса (по умолчанию 16 MiB)
	cfg.MaxUploadSize, err = getEnvInt64("DV_MAX_UPLOAD_SIZE", 16<<20)
	if err != nil {
		return nil, fmt.Errorf("DV_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize < 1 {
		return nil, fmt.Errorf("DV_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}

	// --- SMTP ---

	// DV_SMTP_HOST — хост SMTP (по умолчанию smtp.gmail.com)
	cfg.SMTPHost = getEnvDefault("DV_SMTP_HOST", "smtp.gmail.com")

	// DV_SMTP_PORT — порт SMTP (по умолчанию 587, STARTTLS)
	cfg.SMTPPort, err = getEnvInt("DV_SMTP_PORT", 587)
	if err != nil {
		return nil, fmt.Errorf("DV_SMTP_PORT: %w", err)
	}

	// DV_SMTP_USERNAME / DV_SMTP_PASSWORD — учётные данные SMTP.
	// В development допустимы пустые (уведомления отключаются),
	// в production — обязательны.
	cfg.SMTPUsername = getEnvDefault("DV_SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnvDefault("DV_SMTP_PASSWORD", "")
	if cfg.Env == "production" {
		if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
			return nil, fmt.Errorf("DV_SMTP_USERNAME/DV_SMTP_PASSWORD: обязательны в режиме production")
		}
	}

	// DV_SMTP_FROM — адрес отправителя (по умолчанию — SMTPUsername)
	cfg.SMTPFrom = getEnvDefault("DV_SMTP_FROM", cfg.SMTPUsername)

	// --- Graceful shutdown ---

	// DV_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("DV_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DV_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// MailEnabled возвращает true, если заданы учётные данные SMTP.
func (c *Config) MailEnabled() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
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

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
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
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
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
