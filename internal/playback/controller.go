package playback

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"voicefy/internal/audio"

	"go.uber.org/zap"
)

// SourceID идентифицирует кандидата на воспроизведение: превью голоса или сгенерированный результат
type SourceID string

// GeneratedSource - источник сгенерированного аудио
const GeneratedSource SourceID = "generated"

// PreviewSource возвращает источник превью для голоса каталога
func PreviewSource(voiceID int64) SourceID {
	return SourceID(strconv.FormatInt(voiceID, 10))
}

// Kind возвращает тип источника для метрик
func (s SourceID) Kind() string {
	if s == GeneratedSource {
		return "generated"
	}
	return "preview"
}

// Output - единственный физический аудиовыход.
// Play загружает ресурс и запускает воспроизведение; канал закрывается по завершении звука.
type Output interface {
	Play(h *audio.Handle) (ended <-chan struct{}, err error)
	Stop()
}

// Metrics интерфейс для метрик воспроизведения
type Metrics interface {
	RecordPlaybackStart(sourceKind string)
}

// State - наблюдаемое состояние воспроизведения
type State struct {
	ActiveSource SourceID `json:"active_source,omitempty"`
	Playing      bool     `json:"playing"`
}

// EventType тип события воспроизведения
type EventType string

const (
	EventStarted   EventType = "started"
	EventStopped   EventType = "stopped"
	EventCompleted EventType = "completed"
)

// Event - событие воспроизведения
type Event struct {
	Type   EventType `json:"type"`
	Source SourceID  `json:"source"`
}

// Controller разграничивает доступ к единственному аудиовыходу:
// в любой момент играет не более одного источника.
type Controller struct {
	output  Output
	logger  *zap.Logger
	metrics Metrics

	mu      sync.Mutex
	active  SourceID
	playing bool
	epoch   uint64

	// emitMu сохраняет порядок событий между конкурентными вызовами
	emitMu  sync.Mutex
	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewController создает контроллер над единственным выходом
func NewController(output Output, logger *zap.Logger, metrics Metrics) *Controller {
	return &Controller{
		output:  output,
		logger:  logger,
		metrics: metrics,
		subs:    make(map[int]func(Event)),
	}
}

// Play запускает источник. Повторный Play того же играющего источника останавливает его.
// Любой другой источник всегда вытесняет текущий.
func (c *Controller) Play(source SourceID, h *audio.Handle) (State, error) {
	if source == "" {
		return State{}, errors.New("не указан источник воспроизведения")
	}
	if h == nil {
		return State{}, errors.New("не указан аудио ресурс")
	}

	c.mu.Lock()

	if c.playing && c.active == source {
		c.stopLocked()
		st := c.stateLocked()
		c.unlockAndEmit(Event{Type: EventStopped, Source: source})
		c.logger.Debug("воспроизведение приостановлено", zap.String("source", string(source)))
		return st, nil
	}

	var events []Event
	if c.playing {
		events = append(events, Event{Type: EventStopped, Source: c.active})
		c.stopLocked()
	}

	c.epoch++
	ended, err := c.output.Play(h)
	if err != nil {
		st := c.stateLocked()
		c.unlockAndEmit(events...)
		return st, fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	c.active = source
	c.playing = true
	epoch := c.epoch
	st := c.stateLocked()
	events = append(events, Event{Type: EventStarted, Source: source})
	c.unlockAndEmit(events...)

	if c.metrics != nil {
		c.metrics.RecordPlaybackStart(source.Kind())
	}
	c.logger.Debug("воспроизведение запущено",
		zap.String("source", string(source)),
		zap.Bool("transient", h.IsTransient()))

	if ended != nil {
		go c.watch(epoch, source, ended)
	}

	return st, nil
}

// Stop безусловно переводит контроллер в Stopped
func (c *Controller) Stop() State {
	c.mu.Lock()
	if !c.playing {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	source := c.active
	c.stopLocked()
	st := c.stateLocked()
	c.unlockAndEmit(Event{Type: EventStopped, Source: source})
	return st
}

// StopSource останавливает воспроизведение, только если играет указанный источник
func (c *Controller) StopSource(source SourceID) bool {
	c.mu.Lock()
	if !c.playing || c.active != source {
		c.mu.Unlock()
		return false
	}
	c.stopLocked()
	c.unlockAndEmit(Event{Type: EventStopped, Source: source})
	return true
}

// NotifyEnded фиксирует естественное завершение звука, о котором сообщил внешний плеер
func (c *Controller) NotifyEnded(source SourceID) bool {
	c.mu.Lock()
	if !c.playing || c.active != source {
		c.mu.Unlock()
		return false
	}
	c.completeLocked()
	c.unlockAndEmit(Event{Type: EventCompleted, Source: source})
	return true
}

// State возвращает текущее состояние
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// IsPlaying сообщает, играет ли указанный источник
func (c *Controller) IsPlaying(source SourceID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing && c.active == source
}

// Subscribe регистрирует обработчик событий и возвращает функцию отписки.
// Обработчики вызываются синхронно и не должны вызывать методы контроллера.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) watch(epoch uint64, source SourceID, ended <-chan struct{}) {
	<-ended

	c.mu.Lock()
	if c.epoch != epoch || !c.playing {
		c.mu.Unlock()
		return
	}
	c.completeLocked()
	c.unlockAndEmit(Event{Type: EventCompleted, Source: source})

	c.logger.Debug("воспроизведение завершено", zap.String("source", string(source)))
}

func (c *Controller) stopLocked() {
	c.output.Stop()
	c.epoch++
	c.playing = false
	c.active = ""
}

func (c *Controller) completeLocked() {
	c.epoch++
	c.playing = false
	c.active = ""
}

func (c *Controller) stateLocked() State {
	return State{ActiveSource: c.active, Playing: c.playing}
}

// unlockAndEmit отпускает c.mu и рассылает события в порядке изменений состояния
func (c *Controller) unlockAndEmit(events ...Event) {
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	if len(events) == 0 {
		return
	}

	c.subMu.Lock()
	handlers := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.subMu.Unlock()

	for _, ev := range events {
		for _, fn := range handlers {
			fn(ev)
		}
	}
}
