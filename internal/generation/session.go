package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voicefy/internal/apperr"
	"voicefy/internal/audio"
	"voicefy/internal/playback"
	"voicefy/internal/tts"
	"voicefy/pkg/models"

	"go.uber.org/zap"
)

// Status - состояние сессии генерации
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Synthesizer синтезирует речь голосом провайдера
type Synthesizer interface {
	SynthesizeText(ctx context.Context, voiceID, text string) ([]byte, error)
}

// VoiceResolver находит голос в каталоге по ID
type VoiceResolver interface {
	Voice(id int64) (models.Voice, bool)
}

// Player - доступ к общему аудиовыходу
type Player interface {
	Play(source playback.SourceID, h *audio.Handle) (playback.State, error)
	StopSource(source playback.SourceID) bool
}

// Metrics интерфейс для метрик генерации
type Metrics interface {
	RecordSynthesis(kind, status string, duration time.Duration)
}

// Options настраивают сессию
type Options struct {
	MaxTextLength int
	Timeout       time.Duration
	Autoplay      bool
	// Source идентифицирует результат сессии в контроллере воспроизведения
	Source playback.SourceID
}

// Snapshot - наблюдаемое состояние сессии
type Snapshot struct {
	Status      Status `json:"status"`
	Text        string `json:"text,omitempty"`
	VoiceID     int64  `json:"voice_id,omitempty"`
	ResultURL   string `json:"result_url,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
	Token       uint64 `json:"token"`
}

// Ticket - отправленный запрос. Done закрывается, когда ответ применен или отброшен как устаревший.
type Ticket struct {
	Token uint64
	done  chan struct{}
}

// Done возвращает канал завершения запроса
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Session моделирует один запрос text->speech и владеет его результатом.
// В любой момент сессия держит не более одного временного аудио ресурса.
type Session struct {
	synth    Synthesizer
	voices   VoiceResolver
	registry *audio.Registry
	player   Player
	metrics  Metrics
	logger   *zap.Logger
	opts     Options

	mu          sync.Mutex
	status      Status
	text        string
	voiceID     int64
	result      *audio.Handle
	errorDetail string
	token       uint64
	closed      bool
}

// NewSession создает сессию в состоянии Idle. player может быть nil, если звук не воспроизводится локально.
func NewSession(synth Synthesizer, voices VoiceResolver, registry *audio.Registry, player Player, metrics Metrics, logger *zap.Logger, opts Options) *Session {
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = 800
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Source == "" {
		opts.Source = playback.GeneratedSource
	}
	return &Session{
		synth:    synth,
		voices:   voices,
		registry: registry,
		player:   player,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
		status:   StatusIdle,
	}
}

// Submit проверяет ввод и отправляет запрос синтеза.
// Разрешен из любого состояния: предыдущий результат освобождается, запрос в полете логически вытесняется.
// Ошибка валидации не меняет состояние сессии и не приводит к сетевому вызову.
func (s *Session) Submit(ctx context.Context, text string, voiceID int64) (*Ticket, error) {
	if err := tts.ValidateText(text, s.opts.MaxTextLength); err != nil {
		return nil, err
	}
	if voiceID == 0 {
		return nil, apperr.Validation("voice_id", "Выберите голос")
	}
	voice, ok := s.voices.Voice(voiceID)
	if !ok {
		return nil, apperr.Validation("voice_id", "Выбранный голос отсутствует в каталоге")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, apperr.ErrInvalidState
	}

	s.releaseLocked()
	s.token++
	token := s.token
	s.status = StatusPending
	s.text = text
	s.voiceID = voiceID
	s.errorDetail = ""
	s.mu.Unlock()

	ticket := &Ticket{Token: token, done: make(chan struct{})}

	// Запрос не отменяется последующими Submit; устаревший ответ просто игнорируется
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)

	s.logger.Debug("запрос синтеза отправлен",
		zap.Uint64("token", token),
		zap.Int64("voice_id", voiceID),
		zap.String("external_id", voice.ExternalID))

	go func() {
		defer cancel()
		defer close(ticket.done)
		s.run(reqCtx, token, voice.ExternalID, text)
	}()

	return ticket, nil
}

func (s *Session) run(ctx context.Context, token uint64, externalID, text string) {
	start := time.Now()
	data, err := s.synth.SynthesizeText(ctx, externalID, text)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token != s.token {
		s.record("stale", elapsed)
		s.logger.Warn("устаревший ответ синтеза отброшен",
			zap.Uint64("token", token),
			zap.Uint64("current_token", s.token),
			zap.NamedError("cause", apperr.ErrStale))
		return
	}

	if err != nil {
		if !apperr.IsNetwork(err) && !errors.Is(err, apperr.ErrNotFound) {
			err = apperr.Network("синтез речи", err)
		}
		s.status = StatusFailed
		s.errorDetail = apperr.Message(err)
		s.record("error", elapsed)
		s.logger.Error("ошибка синтеза речи", zap.Uint64("token", token), zap.Error(err))
		return
	}

	s.result = s.registry.AcquireBytes(data, audio.DefaultContentType)
	s.status = StatusReady
	s.record("success", elapsed)
	s.logger.Info("результат синтеза готов",
		zap.Uint64("token", token),
		zap.Int("audio_size", len(data)),
		zap.Duration("latency", elapsed))

	if s.opts.Autoplay && s.player != nil {
		if _, err := s.player.Play(s.opts.Source, s.result); err != nil {
			s.logger.Warn("не удалось запустить автовоспроизведение", zap.Error(err))
		}
	}
}

// Play переключает воспроизведение готового результата
func (s *Session) Play() (playback.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady || s.result == nil || s.player == nil {
		return playback.State{}, apperr.ErrInvalidState
	}
	return s.player.Play(s.opts.Source, s.result)
}

// Result возвращает ресурс готового результата
func (s *Session) Result() (*audio.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusReady || s.result == nil {
		return nil, false
	}
	return s.result, true
}

// Download возвращает байты готового результата и имя файла
func (s *Session) Download() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady || s.result == nil {
		return nil, "", apperr.ErrInvalidState
	}
	return s.result.Data(), fmt.Sprintf("audio_%d.mp3", s.token), nil
}

// Discard освобождает результат или ошибку и возвращает сессию в Idle
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady && s.status != StatusFailed {
		return apperr.ErrInvalidState
	}

	s.releaseLocked()
	s.status = StatusIdle
	s.errorDetail = ""
	s.logger.Debug("результат генерации сброшен", zap.Uint64("token", s.token))
	return nil
}

// Snapshot возвращает текущее состояние
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:      s.status,
		Text:        s.text,
		VoiceID:     s.voiceID,
		ErrorDetail: s.errorDetail,
		Token:       s.token,
	}
	if s.result != nil {
		snap.ResultURL = s.result.URL()
	}
	return snap
}

// Status возвращает текущее состояние сессии
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close освобождает результат и делает все запросы в полете устаревшими
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.token++
	s.releaseLocked()
	s.status = StatusIdle
}

// releaseLocked освобождает текущий результат ровно один раз
func (s *Session) releaseLocked() {
	if s.result == nil {
		return
	}
	if s.player != nil {
		s.player.StopSource(s.opts.Source)
	}
	s.result.Release()
	s.result = nil
}

func (s *Session) record(status string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordSynthesis("generation", status, d)
	}
}
