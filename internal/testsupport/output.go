package testsupport

import (
	"errors"
	"sync"

	"voicefy/internal/audio"
)

// FakeOutput - аудиовыход, которым управляет тест.
// Stop закрывает канал текущего звука, как это делает убитый процесс плеера.
type FakeOutput struct {
	mu      sync.Mutex
	current chan struct{}
	playing *audio.Handle
	plays   []string
	stops   int
	playErr error
}

// NewFakeOutput создает выход
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// FailPlay заставляет следующий Play вернуть ошибку
func (o *FakeOutput) FailPlay(err error) {
	o.mu.Lock()
	o.playErr = err
	o.mu.Unlock()
}

func (o *FakeOutput) Play(h *audio.Handle) (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.playErr != nil {
		err := o.playErr
		o.playErr = nil
		return nil, err
	}
	if h.Released() {
		return nil, errors.New("ресурс уже освобожден")
	}

	o.closeLocked()
	ch := make(chan struct{})
	o.current = ch
	o.playing = h
	o.plays = append(o.plays, h.URL())
	return ch, nil
}

func (o *FakeOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops++
	o.closeLocked()
}

// Finish имитирует естественное завершение текущего звука
func (o *FakeOutput) Finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked()
}

// Plays возвращает URL всех запущенных ресурсов
func (o *FakeOutput) Plays() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.plays))
	copy(out, o.plays)
	return out
}

// Stops возвращает число вызовов Stop
func (o *FakeOutput) Stops() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stops
}

// Current возвращает ресурс, который играет сейчас
func (o *FakeOutput) Current() *audio.Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *FakeOutput) closeLocked() {
	if o.current != nil {
		close(o.current)
		o.current = nil
	}
	o.playing = nil
}
