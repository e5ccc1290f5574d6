package audio

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultContentType используется, если тип аудио не указан
const DefaultContentType = "audio/mpeg"

// Handle владеет ровно одним воспроизводимым аудио ресурсом.
// Временный ресурс (из байтов в памяти) должен быть освобожден ровно один раз;
// стабильный удаленный URL освобождения не требует.
type Handle struct {
	token       string
	url         string
	contentType string
	data        []byte
	transient   bool
	registry    *Registry
	released    atomic.Bool
}

// URL возвращает адрес ресурса
func (h *Handle) URL() string {
	return h.url
}

// Token возвращает токен временного ресурса (пусто для стабильного URL)
func (h *Handle) Token() string {
	return h.token
}

// IsTransient сообщает, выделен ли ресурс локально и требует ли освобождения
func (h *Handle) IsTransient() bool {
	return h.transient
}

// ContentType возвращает MIME тип аудио
func (h *Handle) ContentType() string {
	return h.contentType
}

// Data возвращает байты временного ресурса; nil для стабильного URL
func (h *Handle) Data() []byte {
	return h.data
}

// Released сообщает, был ли временный ресурс уже освобожден
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Release отзывает временный URL. Повторный вызов ничего не делает.
func (h *Handle) Release() {
	if !h.transient {
		return
	}
	if !h.released.CompareAndSwap(false, true) {
		h.registry.logger.Warn("повторное освобождение аудио ресурса", zap.String("token", h.token))
		return
	}
	h.registry.revoke(h)
}

// Observer получает события жизненного цикла временных ресурсов
type Observer interface {
	ObserveTransientAudio(event string, live int)
}

// Stats содержит счетчики временных ресурсов
type Stats struct {
	Acquired int `json:"acquired"`
	Released int `json:"released"`
	Live     int `json:"live"`
}

// Registry выделяет временные URL для аудио в памяти и отзывает их при освобождении
type Registry struct {
	baseURL  string
	logger   *zap.Logger
	observer Observer

	mu       sync.Mutex
	live     map[string]*Handle
	acquired int
	released int
}

// NewRegistry создает реестр; временные URL имеют вид {baseURL}/audio/{token}
func NewRegistry(baseURL string, logger *zap.Logger) *Registry {
	return &Registry{
		baseURL: baseURL,
		logger:  logger,
		live:    make(map[string]*Handle),
	}
}

// SetObserver подключает наблюдателя (метрики)
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// AcquireBytes выделяет временный отзываемый URL для байтов аудио
func (r *Registry) AcquireBytes(data []byte, contentType string) *Handle {
	if contentType == "" {
		contentType = DefaultContentType
	}

	token := uuid.NewString()
	h := &Handle{
		token:       token,
		url:         r.baseURL + "/audio/" + token,
		contentType: contentType,
		data:        data,
		transient:   true,
		registry:    r,
	}

	r.mu.Lock()
	r.live[token] = h
	r.acquired++
	live := len(r.live)
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer.ObserveTransientAudio("acquired", live)
	}
	r.logger.Debug("выделен временный аудио ресурс",
		zap.String("token", token),
		zap.Int("size", len(data)),
		zap.Int("live", live))

	return h
}

// AcquireURL оборачивает стабильный удаленный URL
func (r *Registry) AcquireURL(url string) *Handle {
	return &Handle{
		url:         url,
		contentType: DefaultContentType,
		registry:    r,
	}
}

// Open возвращает живой временный ресурс по токену
func (r *Registry) Open(token string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.live[token]
	return h, ok
}

// Stats возвращает счетчики выделений и освобождений
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Acquired: r.acquired, Released: r.released, Live: len(r.live)}
}

// Close освобождает все еще живые ресурсы при завершении процесса
func (r *Registry) Close() {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.live))
	for _, h := range r.live {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.Release()
	}

	if len(handles) > 0 {
		r.logger.Info("освобождены оставшиеся аудио ресурсы", zap.Int("count", len(handles)))
	}
}

func (r *Registry) revoke(h *Handle) {
	r.mu.Lock()
	delete(r.live, h.token)
	r.released++
	live := len(r.live)
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer.ObserveTransientAudio("released", live)
	}
	r.logger.Debug("освобожден временный аудио ресурс",
		zap.String("token", h.token),
		zap.Int("live", live))
}
