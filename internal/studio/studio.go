package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voicefy/internal/apperr"
	"voicefy/internal/audio"
	"voicefy/internal/catalog"
	"voicefy/internal/generation"
	"voicefy/internal/playback"
	"voicefy/internal/selection"
	"voicefy/internal/voicesync"
	"voicefy/pkg/models"

	"go.uber.org/zap"
)

// DefaultPageSize - размер страницы каталога по умолчанию
const DefaultPageSize = 12

// Deps - компоненты, которыми владеет студия
type Deps struct {
	Catalog   *catalog.Catalog
	Selection *selection.Set
	Player    *playback.Controller
	Session   *generation.Session
	Sync      *voicesync.Coordinator
	Registry  *audio.Registry
	PageSize  int
}

// Page - все, что нужно для отрисовки экрана студии
type Page struct {
	catalog.PageView
	Selected    []int64             `json:"selected"`
	AllSelected bool                `json:"all_selected"`
	Playback    playback.State      `json:"playback"`
	Generation  generation.Snapshot `json:"generation"`
}

// Studio - единственный экземпляр экрана управления голосами на процесс.
// Все изменения состояния идут через операции владеемых компонентов.
type Studio struct {
	catalog   *catalog.Catalog
	selection *selection.Set
	player    *playback.Controller
	session   *generation.Session
	sync      *voicesync.Coordinator
	registry  *audio.Registry
	pageSize  int
	logger    *zap.Logger

	mu   sync.Mutex
	view catalog.View
}

// New создает студию на первой странице без поискового запроса
func New(deps Deps, logger *zap.Logger) *Studio {
	if deps.Selection == nil {
		deps.Selection = selection.New()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = DefaultPageSize
	}
	return &Studio{
		catalog:   deps.Catalog,
		selection: deps.Selection,
		player:    deps.Player,
		session:   deps.Session,
		sync:      deps.Sync,
		registry:  deps.Registry,
		pageSize:  deps.PageSize,
		logger:    logger,
		view:      catalog.View{Page: 1},
	}
}

// Catalog возвращает каталог студии
func (s *Studio) Catalog() *catalog.Catalog {
	return s.catalog
}

// Player возвращает контроллер воспроизведения студии
func (s *Studio) Player() *playback.Controller {
	return s.player
}

// Session возвращает сессию генерации студии
func (s *Studio) Session() *generation.Session {
	return s.session
}

// Load загружает каталог
func (s *Studio) Load(ctx context.Context) error {
	_, err := s.catalog.Load(ctx)
	return err
}

// Page возвращает текущую страницу
func (s *Studio) Page() Page {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()

	voices := s.catalog.Voices()
	return Page{
		PageView:    catalog.Project(view, s.pageSize, voices),
		Selected:    s.selection.IDs(),
		AllSelected: s.selection.AllSelected(len(voices)),
		Playback:    s.player.State(),
		Generation:  s.session.Snapshot(),
	}
}

// SetSearch меняет поисковый запрос. Номер страницы при этом не сбрасывается.
func (s *Studio) SetSearch(term string) Page {
	s.mu.Lock()
	s.view.SearchTerm = term
	s.mu.Unlock()
	return s.Page()
}

// GoToPage переходит на страницу n (с 1)
func (s *Studio) GoToPage(n int) (Page, error) {
	if n < 1 {
		return Page{}, apperr.Validation("page", "Номер страницы должен быть положительным")
	}
	s.mu.Lock()
	s.view.Page = n
	s.mu.Unlock()
	return s.Page(), nil
}

// ToggleSelected переключает выбор голоса
func (s *Studio) ToggleSelected(id int64) (bool, error) {
	if _, ok := s.catalog.Voice(id); !ok {
		return false, apperr.ErrNotFound
	}
	return s.selection.Toggle(id), nil
}

// SelectAll выбирает весь каталог или снимает выбор, если выбрано уже столько же
func (s *Studio) SelectAll() []int64 {
	s.selection.SelectAll(s.catalog.IDs())
	return s.selection.IDs()
}

// ClearSelection снимает весь выбор
func (s *Studio) ClearSelection() {
	s.selection.Clear()
}

// BulkSetVisibility меняет видимость выбранных голосов и снимает выбор при успехе
func (s *Studio) BulkSetVisibility(ctx context.Context, visibility models.Visibility) error {
	ids := s.selection.IDs()
	if err := s.catalog.BulkSetVisibility(ctx, ids, visibility); err != nil {
		return err
	}
	s.selection.Clear()
	return nil
}

// RemoveVoice удаляет один голос, останавливает его превью и снимает с него выбор.
// Строка, которой уже нет на сервере, тоже уходит из студии, а ErrNotFound возвращается вызывающему.
func (s *Studio) RemoveVoice(ctx context.Context, id int64) error {
	err := s.catalog.Remove(ctx, id)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	s.player.StopSource(playback.PreviewSource(id))
	if s.selection.IsSelected(id) {
		s.selection.Toggle(id)
	}
	return err
}

// BulkDelete удаляет выбранные голоса и снимает выбор при успехе
func (s *Studio) BulkDelete(ctx context.Context) error {
	ids := s.selection.IDs()
	if err := s.catalog.BulkDelete(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		s.player.StopSource(playback.PreviewSource(id))
	}
	s.selection.Clear()
	return nil
}

// TogglePreview запускает или останавливает превью голоса
func (s *Studio) TogglePreview(id int64) (playback.State, error) {
	voice, ok := s.catalog.Voice(id)
	if !ok {
		return playback.State{}, apperr.ErrNotFound
	}
	if !voice.HasPreview() {
		return playback.State{}, apperr.Validation("preview_url", "У голоса нет превью")
	}

	st, err := s.player.Play(playback.PreviewSource(id), s.registry.AcquireURL(*voice.PreviewURL))
	if err != nil {
		s.logger.Error("ошибка воспроизведения превью", zap.Int64("voice_id", id), zap.Error(err))
		return st, fmt.Errorf("ошибка воспроизведения превью: %w", err)
	}
	return st, nil
}

// Generate отправляет текст на синтез
func (s *Studio) Generate(ctx context.Context, text string, voiceID int64) (*generation.Ticket, error) {
	return s.session.Submit(ctx, text, voiceID)
}

// PlayGenerated переключает воспроизведение сгенерированного результата
func (s *Studio) PlayGenerated() (playback.State, error) {
	return s.session.Play()
}

// DiscardGenerated сбрасывает результат генерации
func (s *Studio) DiscardGenerated() error {
	return s.session.Discard()
}

// StopPlayback останавливает любое воспроизведение
func (s *Studio) StopPlayback() playback.State {
	return s.player.Stop()
}

// Sync синхронизирует каталог с провайдером
func (s *Studio) Sync(ctx context.Context) (voicesync.Result, error) {
	return s.sync.Sync(ctx)
}

// Close освобождает результат генерации и останавливает звук
func (s *Studio) Close() {
	s.session.Close()
	s.player.Stop()
	s.logger.Info("студия закрыта")
}
