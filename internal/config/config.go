package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	ElevenLabs ElevenLabsConfig
	TTS        TTSConfig
	Storage    StorageConfig
	Sync       SyncConfig
	Playback   PlaybackConfig
	Telegram   TelegramConfig
}

type AppConfig struct {
	Env       string
	LogLevel  string
	Port      int
	PublicURL string // базовый URL для временных аудио ресурсов
	PageSize  int
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// ElevenLabsConfig содержит настройки провайдера синтеза
type ElevenLabsConfig struct {
	APIKey          string
	BaseURL         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	Timeout         time.Duration
}

// TTSConfig содержит настройки генерации речи
type TTSConfig struct {
	Provider      string // elevenlabs, piper
	PiperURL      string
	MaxTextLength int
	PreviewText   string
}

// StorageConfig содержит настройки хранилища файлов превью
type StorageConfig struct {
	Backend string // s3, drive
	S3      S3Config
	Drive   DriveConfig
}

type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKeyID   string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
}

// SyncConfig содержит настройки синхронизации каталога с провайдером
type SyncConfig struct {
	Interval    time.Duration // 0 отключает периодическую синхронизацию
	Concurrency int
}

// PlaybackConfig содержит настройки локального аудиовыхода
type PlaybackConfig struct {
	Enabled  bool
	Command  string
	Args     []string
	Autoplay bool
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	BotToken string
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.PublicURL = strings.TrimRight(getEnvDefault("APP_PUBLIC_URL", fmt.Sprintf("http://localhost:%d", cfg.App.Port)), "/")
	cfg.App.PageSize = getEnvIntDefault("CATALOG_PAGE_SIZE", 12)

	// Database
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// ElevenLabs
	cfg.ElevenLabs.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	cfg.ElevenLabs.BaseURL = strings.TrimRight(getEnvDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"), "/")
	cfg.ElevenLabs.ModelID = getEnvDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2")
	cfg.ElevenLabs.Stability = getEnvFloatDefault("ELEVENLABS_STABILITY", 0.5)
	cfg.ElevenLabs.SimilarityBoost = getEnvFloatDefault("ELEVENLABS_SIMILARITY_BOOST", 0.5)
	cfg.ElevenLabs.Timeout = getEnvDurationDefault("ELEVENLABS_TIMEOUT", 60*time.Second)

	// TTS
	cfg.TTS.Provider = getEnvDefault("TTS_PROVIDER", "elevenlabs")
	cfg.TTS.PiperURL = getEnvDefault("PIPER_URL", "http://piper:5000")
	cfg.TTS.MaxTextLength = getEnvIntDefault("TTS_MAX_TEXT_LENGTH", 800)
	cfg.TTS.PreviewText = getEnvDefault("TTS_PREVIEW_TEXT", "Olá! Esta é uma prévia da minha voz.")

	// Storage
	cfg.Storage.Backend = getEnvDefault("STORAGE_BACKEND", "s3")
	cfg.Storage.S3.Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.Storage.S3.Region = os.Getenv("S3_REGION")
	cfg.Storage.S3.Bucket = os.Getenv("S3_BUCKET")
	cfg.Storage.S3.AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.Storage.S3.SecretKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.Storage.S3.UseSSL = getEnvBoolDefault("S3_USE_SSL", true)
	cfg.Storage.S3.PublicBaseURL = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")
	cfg.Storage.Drive.CredentialsFile = getEnvDefault("DRIVE_CREDENTIALS_FILE", "secrets/drive_service_account.json")
	cfg.Storage.Drive.FolderID = os.Getenv("DRIVE_FOLDER_ID")

	// Sync
	cfg.Sync.Interval = getEnvDurationDefault("SYNC_INTERVAL", 0)
	cfg.Sync.Concurrency = getEnvIntDefault("SYNC_CONCURRENCY", 4)

	// Playback
	cfg.Playback.Enabled = getEnvBoolDefault("PLAYBACK_ENABLED", false)
	cfg.Playback.Command = getEnvDefault("PLAYBACK_COMMAND", "mpv")
	cfg.Playback.Args = strings.Fields(getEnvDefault("PLAYBACK_ARGS", "--no-video --really-quiet"))
	cfg.Playback.Autoplay = getEnvBoolDefault("PLAYBACK_AUTOPLAY", true)

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("DB_HOST не установлен")
	}
	if config.Database.User == "" {
		return fmt.Errorf("DB_USER не установлен")
	}
	if config.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD не установлен")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("DB_NAME не установлен")
	}

	switch config.TTS.Provider {
	case "elevenlabs":
		if config.ElevenLabs.APIKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY не установлен")
		}
	case "piper":
		if config.TTS.PiperURL == "" {
			return fmt.Errorf("PIPER_URL не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только TTS_PROVIDER: elevenlabs, piper")
	}
	if config.TTS.MaxTextLength <= 0 {
		return fmt.Errorf("TTS_MAX_TEXT_LENGTH должен быть положительным")
	}
	if config.App.PageSize <= 0 {
		return fmt.Errorf("CATALOG_PAGE_SIZE должен быть положительным")
	}

	switch config.Storage.Backend {
	case "s3":
		if config.Storage.S3.Endpoint == "" || config.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT и S3_BUCKET должны быть установлены")
		}
		if config.Storage.S3.AccessKeyID == "" || config.Storage.S3.SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID и S3_SECRET_ACCESS_KEY должны быть установлены")
		}
	case "drive":
		if config.Storage.Drive.CredentialsFile == "" {
			return fmt.Errorf("DRIVE_CREDENTIALS_FILE не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только STORAGE_BACKEND: s3, drive")
	}

	if config.Sync.Concurrency <= 0 {
		return fmt.Errorf("SYNC_CONCURRENCY должен быть положительным")
	}
	if config.Playback.Enabled && config.Playback.Command == "" {
		return fmt.Errorf("PLAYBACK_COMMAND не установлен")
	}

	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetMigrationURL возвращает URL подключения для goose
func (c *DatabaseConfig) GetMigrationURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
