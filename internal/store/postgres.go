package store

import (
	"context"
	"fmt"
	"time"

	"voicefy/internal/config"
	"voicefy/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Voice() VoiceRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	voice  VoiceRepository
}

// VoiceRepository интерфейс для работы с каталогом голосов
type VoiceRepository interface {
	List(ctx context.Context) ([]models.Voice, error)
	GetByID(ctx context.Context, id int64) (*models.Voice, error)
	Update(ctx context.Context, id int64, patch models.VoicePatch) (*models.Voice, error)
	Delete(ctx context.Context, id int64) error
	BulkUpdateVisibility(ctx context.Context, ids []int64, visibility models.Visibility) error
	BulkDelete(ctx context.Context, ids []int64) error
	UpsertProviderVoice(ctx context.Context, pv models.ProviderVoice) (inserted bool, err error)
	Seed(ctx context.Context, voices []models.Voice) (int, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Создание пула подключений
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройка пула
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	// Создание пула
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка подключения
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	return &store{
		db:     db,
		logger: logger,
		voice:  NewVoiceRepository(db, logger),
	}, nil
}

// Voice возвращает репозиторий голосов
func (s *store) Voice() VoiceRepository {
	return s.voice
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
