package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"voicefy/internal/apperr"
	"voicefy/pkg/models"

	"go.uber.org/zap"
)

// Backend - API чтения и записи каталога. Ответы содержат полные строки.
type Backend interface {
	List(ctx context.Context) ([]models.Voice, error)
	Update(ctx context.Context, id int64, patch models.VoicePatch) (*models.Voice, error)
	Delete(ctx context.Context, id int64) error
	BulkUpdateVisibility(ctx context.Context, ids []int64, visibility models.Visibility) error
	BulkDelete(ctx context.Context, ids []int64) error
}

// Synthesizer синтезирует образец голоса
type Synthesizer interface {
	SynthesizeText(ctx context.Context, voiceID, text string) ([]byte, error)
}

// PreviewStore сохраняет файл превью и возвращает его публичный URL
type PreviewStore interface {
	UploadPreview(ctx context.Context, externalID, filename, contentType string, data []byte) (string, error)
}

// Metrics интерфейс для метрик каталога
type Metrics interface {
	SetCatalogSize(n int)
}

// Catalog - единственный изменяемый источник истины о строках голосов.
// Остальные компоненты ссылаются на строки только по ID.
type Catalog struct {
	backend     Backend
	synth       Synthesizer
	previews    PreviewStore
	metrics     Metrics
	logger      *zap.Logger
	previewText string

	mu     sync.RWMutex
	voices []models.Voice
	index  map[int64]int
}

// New создает пустой каталог; строки появляются после Load
func New(backend Backend, synth Synthesizer, previews PreviewStore, metrics Metrics, logger *zap.Logger, previewText string) *Catalog {
	return &Catalog{
		backend:     backend,
		synth:       synth,
		previews:    previews,
		metrics:     metrics,
		logger:      logger,
		previewText: previewText,
		index:       make(map[int64]int),
	}
}

// Load загружает каталог целиком и заменяет локальное состояние.
// При ошибке прежнее состояние сохраняется.
func (c *Catalog) Load(ctx context.Context) ([]models.Voice, error) {
	voices, err := c.backend.List(ctx)
	if err != nil {
		c.logger.Error("ошибка загрузки каталога", zap.Error(err))
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}

	sorted := make([]models.Voice, len(voices))
	copy(sorted, voices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c.mu.Lock()
	c.replaceLocked(sorted)
	n := len(c.voices)
	c.mu.Unlock()

	c.reportSize(n)
	c.logger.Debug("каталог загружен", zap.Int("count", n))

	return c.Voices(), nil
}

// Voices возвращает копию всех строк в порядке ID
func (c *Catalog) Voices() []models.Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// PublicVoices возвращает только публичные голоса
func (c *Catalog) PublicVoices() []models.Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Voice, 0, len(c.voices))
	for _, v := range c.voices {
		if v.IsPublic() {
			out = append(out, v)
		}
	}
	return out
}

// Voice возвращает строку по ID
func (c *Catalog) Voice(id int64) (models.Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return models.Voice{}, false
	}
	return c.voices[i], true
}

// Len возвращает размер полного каталога
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// IDs возвращает ID всех строк полного каталога
func (c *Catalog) IDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, len(c.voices))
	for i, v := range c.voices {
		ids[i] = v.ID
	}
	return ids
}

// Update применяет частичное изменение. Каноническая строка из ответа заменяет локальную.
// Если строки больше нет на сервере, она удаляется локально и возвращается apperr.ErrNotFound.
func (c *Catalog) Update(ctx context.Context, id int64, patch models.VoicePatch) (models.Voice, error) {
	if patch.IsEmpty() {
		return models.Voice{}, apperr.Validation("patch", "Нет изменений для сохранения")
	}
	if patch.Visibility != nil && !patch.Visibility.IsValid() {
		return models.Voice{}, apperr.Validation("visibility", "Недопустимая видимость")
	}

	updated, err := c.backend.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.dropLocal(id)
		}
		c.logger.Error("ошибка обновления голоса", zap.Int64("voice_id", id), zap.Error(err))
		return models.Voice{}, fmt.Errorf("ошибка обновления голоса: %w", err)
	}

	c.mu.Lock()
	if i, ok := c.index[updated.ID]; ok {
		c.voices[i] = *updated
	} else {
		c.voices = append(c.voices, *updated)
		c.replaceLocked(c.voices)
	}
	c.mu.Unlock()

	c.logger.Info("голос обновлен", zap.Int64("voice_id", id))
	return *updated, nil
}

// Remove удаляет строку на сервере, затем локально. При ошибке локальное состояние не меняется,
// кроме случая apperr.ErrNotFound: такая строка тоже удаляется локально.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	if err := c.backend.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.dropLocal(id)
		}
		c.logger.Error("ошибка удаления голоса", zap.Int64("voice_id", id), zap.Error(err))
		return fmt.Errorf("ошибка удаления голоса: %w", err)
	}

	c.dropLocal(id)
	c.logger.Info("голос удален", zap.Int64("voice_id", id))
	return nil
}

// UploadPreview сохраняет файл превью и записывает его URL в строку
func (c *Catalog) UploadPreview(ctx context.Context, id int64, filename, contentType string, data []byte) (models.Voice, error) {
	voice, ok := c.Voice(id)
	if !ok {
		return models.Voice{}, apperr.ErrNotFound
	}
	if len(data) == 0 {
		return models.Voice{}, apperr.Validation("file", "Файл не загружен")
	}

	url, err := c.previews.UploadPreview(ctx, voice.ExternalID, filename, contentType, data)
	if err != nil {
		c.logger.Error("ошибка загрузки превью", zap.Int64("voice_id", id), zap.Error(err))
		return models.Voice{}, apperr.Network("загрузка превью", err)
	}

	return c.Update(ctx, id, models.VoicePatch{PreviewURL: &url})
}

// GeneratePreview синтезирует короткий образец для голоса без превью и сохраняет ссылку на него
func (c *Catalog) GeneratePreview(ctx context.Context, id int64) (models.Voice, error) {
	voice, ok := c.Voice(id)
	if !ok {
		return models.Voice{}, apperr.ErrNotFound
	}
	if voice.HasPreview() {
		return models.Voice{}, apperr.Validation("preview_url", "У голоса уже есть превью")
	}

	data, err := c.synth.SynthesizeText(ctx, voice.ExternalID, c.previewText)
	if err != nil {
		c.logger.Error("ошибка генерации превью", zap.Int64("voice_id", id), zap.Error(err))
		if apperr.IsNetwork(err) || errors.Is(err, apperr.ErrNotFound) {
			return models.Voice{}, err
		}
		return models.Voice{}, apperr.Network("генерация превью", err)
	}

	c.logger.Info("превью сгенерировано",
		zap.Int64("voice_id", id),
		zap.Int("audio_size", len(data)))

	return c.UploadPreview(ctx, id, "preview.mp3", "audio/mpeg", data)
}

// BulkSetVisibility меняет видимость набора строк и перезагружает каталог
func (c *Catalog) BulkSetVisibility(ctx context.Context, ids []int64, visibility models.Visibility) error {
	if len(ids) == 0 {
		return apperr.Validation("voiceIds", "Не выбрано ни одного голоса")
	}
	if !visibility.IsValid() {
		return apperr.Validation("visibility", "Недопустимая видимость")
	}

	if err := c.backend.BulkUpdateVisibility(ctx, ids, visibility); err != nil {
		c.logger.Error("ошибка массового изменения видимости", zap.Int("count", len(ids)), zap.Error(err))
		return fmt.Errorf("ошибка массового изменения видимости: %w", err)
	}

	c.logger.Info("видимость изменена",
		zap.Int("count", len(ids)),
		zap.String("visibility", string(visibility)))

	_, err := c.Load(ctx)
	return err
}

// BulkDelete удаляет набор строк и перезагружает каталог
func (c *Catalog) BulkDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return apperr.Validation("voiceIds", "Не выбрано ни одного голоса")
	}

	if err := c.backend.BulkDelete(ctx, ids); err != nil {
		c.logger.Error("ошибка массового удаления", zap.Int("count", len(ids)), zap.Error(err))
		return fmt.Errorf("ошибка массового удаления: %w", err)
	}

	c.logger.Info("голоса удалены", zap.Int("count", len(ids)))

	_, err := c.Load(ctx)
	return err
}

func (c *Catalog) dropLocal(id int64) {
	c.mu.Lock()
	i, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	voices := make([]models.Voice, 0, len(c.voices)-1)
	voices = append(voices, c.voices[:i]...)
	voices = append(voices, c.voices[i+1:]...)
	c.replaceLocked(voices)
	n := len(c.voices)
	c.mu.Unlock()

	c.reportSize(n)
}

func (c *Catalog) replaceLocked(voices []models.Voice) {
	sort.SliceStable(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })
	c.voices = voices
	c.index = make(map[int64]int, len(voices))
	for i, v := range voices {
		c.index[v.ID] = i
	}
}

func (c *Catalog) reportSize(n int) {
	if c.metrics != nil {
		c.metrics.SetCatalogSize(n)
	}
}
