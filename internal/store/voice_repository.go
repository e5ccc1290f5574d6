package store

import (
	"context"
	"errors"
	"fmt"

	"voicefy/internal/apperr"
	"voicefy/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const voiceColumns = `id, external_id, display_name, category, owner_id, visibility, preview_url, created_at, updated_at`

// voiceRepository реализует VoiceRepository
type voiceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewVoiceRepository создает новый репозиторий голосов
func NewVoiceRepository(db *pgxpool.Pool, logger *zap.Logger) VoiceRepository {
	return &voiceRepository{
		db:     db,
		logger: logger,
	}
}

// List возвращает все голоса без фильтра по видимости
func (r *voiceRepository) List(ctx context.Context) ([]models.Voice, error) {
	query := `SELECT ` + voiceColumns + ` FROM voices ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("ошибка получения голосов", zap.Error(err))
		return nil, fmt.Errorf("ошибка получения голосов: %w", err)
	}
	defer rows.Close()

	voices := make([]models.Voice, 0)
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, err
		}
		voices = append(voices, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения голосов: %w", err)
	}

	return voices, nil
}

// GetByID получает голос по ID
func (r *voiceRepository) GetByID(ctx context.Context, id int64) (*models.Voice, error) {
	query := `SELECT ` + voiceColumns + ` FROM voices WHERE id = $1`

	v, err := scanVoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения голоса по ID: %w", err)
	}
	return &v, nil
}

// Update частично обновляет голос и возвращает каноническую строку
func (r *voiceRepository) Update(ctx context.Context, id int64, patch models.VoicePatch) (*models.Voice, error) {
	query := `
		UPDATE voices
		SET display_name = COALESCE($2, display_name),
		    visibility = COALESCE($3, visibility),
		    preview_url = COALESCE($4, preview_url),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + voiceColumns

	var visibility *string
	if patch.Visibility != nil {
		s := string(*patch.Visibility)
		visibility = &s
	}

	v, err := scanVoice(r.db.QueryRow(ctx, query, id, patch.DisplayName, visibility, patch.PreviewURL))
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления голоса: %w", err)
	}

	r.logger.Info("голос обновлен", zap.Int64("voice_id", id))
	return &v, nil
}

// Delete удаляет голос
func (r *voiceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM voices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления голоса: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("голос с ID %d: %w", id, apperr.ErrNotFound)
	}

	r.logger.Info("голос удален", zap.Int64("voice_id", id))
	return nil
}

// BulkUpdateVisibility меняет видимость набора голосов
func (r *voiceRepository) BulkUpdateVisibility(ctx context.Context, ids []int64, visibility models.Visibility) error {
	query := `UPDATE voices SET visibility = $2, updated_at = now() WHERE id = ANY($1)`

	result, err := r.db.Exec(ctx, query, ids, string(visibility))
	if err != nil {
		return fmt.Errorf("ошибка массового обновления видимости: %w", err)
	}

	r.logger.Info("видимость голосов обновлена",
		zap.Int("requested", len(ids)),
		zap.Int64("rows_affected", result.RowsAffected()),
		zap.String("visibility", string(visibility)))
	return nil
}

// BulkDelete удаляет набор голосов
func (r *voiceRepository) BulkDelete(ctx context.Context, ids []int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM voices WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("ошибка массового удаления голосов: %w", err)
	}

	r.logger.Info("голоса удалены",
		zap.Int("requested", len(ids)),
		zap.Int64("rows_affected", result.RowsAffected()))
	return nil
}

// UpsertProviderVoice вставляет голос провайдера или обновляет только display_name.
// Видимость, владелец и превью существующей строки не меняются.
func (r *voiceRepository) UpsertProviderVoice(ctx context.Context, pv models.ProviderVoice) (bool, error) {
	query := `
		INSERT INTO voices (external_id, display_name, category, visibility)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    updated_at = now()
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRow(ctx, query,
		pv.ExternalID, pv.Name, string(models.CategoryProvider), string(models.VisibilityPublic),
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("ошибка upsert голоса %s: %w", pv.ExternalID, err)
	}

	r.logger.Debug("голос провайдера синхронизирован",
		zap.String("external_id", pv.ExternalID),
		zap.Bool("inserted", inserted))
	return inserted, nil
}

// Seed добавляет образцы голосов, пропуская уже существующие external_id
func (r *voiceRepository) Seed(ctx context.Context, voices []models.Voice) (int, error) {
	query := `
		INSERT INTO voices (external_id, display_name, category, owner_id, visibility, preview_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, v := range voices {
		batch.Queue(query, seedArgs(v)...)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	added := 0
	for _, v := range voices {
		tag, err := results.Exec()
		if err != nil {
			return added, fmt.Errorf("ошибка добавления голоса %s: %w", v.ExternalID, err)
		}
		added += int(tag.RowsAffected())
	}

	r.logger.Info("образцы голосов добавлены", zap.Int("added", added), zap.Int("total", len(voices)))
	return added, nil
}

func seedArgs(v models.Voice) []any {
	var owner *int64
	if id, ok := v.Origin.OwnerID(); ok {
		owner = &id
	}
	return []any{
		v.ExternalID,
		v.DisplayName,
		string(v.Origin.Category()),
		owner,
		string(v.Visibility),
		v.PreviewURL,
	}
}

// scanVoice читает строку voices и собирает вариант Origin
func scanVoice(row pgx.Row) (models.Voice, error) {
	var (
		v          models.Voice
		category   string
		ownerID    *int64
		visibility string
	)

	err := row.Scan(&v.ID, &v.ExternalID, &v.DisplayName, &category, &ownerID,
		&visibility, &v.PreviewURL, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Voice{}, apperr.ErrNotFound
		}
		return models.Voice{}, fmt.Errorf("ошибка сканирования голоса: %w", err)
	}

	origin, err := models.ParseOrigin(category, ownerID)
	if err != nil {
		return models.Voice{}, fmt.Errorf("голос %d: %w", v.ID, err)
	}
	v.Origin = origin
	v.Visibility = models.Visibility(visibility)

	return v, nil
}
