package testsupport

import (
	"context"
	"sync"
	"time"
)

// SynthCall - один вызов синтеза
type SynthCall struct {
	VoiceID string
	Text    string
}

type synthResult struct {
	data []byte
	err  error
}

// Synth - управляемый синтезатор.
// В обычном режиме сразу отвечает байтами "audio:" + text; в режиме Gated
// каждый вызов ждет Release, что позволяет завершать запросы в любом порядке.
type Synth struct {
	mu    sync.Mutex
	gated bool
	err   error
	calls []SynthCall
	gates []*gate
	seen  chan struct{}
}

type gate struct {
	text  string
	ch    chan synthResult
	taken bool
}

// NewSynth создает синтезатор с немедленным ответом
func NewSynth() *Synth {
	return &Synth{seen: make(chan struct{}, 64)}
}

// NewGatedSynth создает синтезатор, ответы которого выдает тест
func NewGatedSynth() *Synth {
	s := NewSynth()
	s.gated = true
	return s
}

// Fail заставляет последующие немедленные ответы возвращать ошибку
func (s *Synth) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Synth) SynthesizeText(ctx context.Context, voiceID, text string) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, SynthCall{VoiceID: voiceID, Text: text})
	g := &gate{text: text, ch: make(chan synthResult, 1)}
	s.gates = append(s.gates, g)
	gated, err := s.gated, s.err
	s.mu.Unlock()

	select {
	case s.seen <- struct{}{}:
	default:
	}

	if !gated {
		if err != nil {
			return nil, err
		}
		return []byte("audio:" + text), nil
	}

	select {
	case res := <-g.ch:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release завершает i-й по времени прихода вызов (с нуля) в режиме Gated.
// Порядок прихода конкурентных вызовов не определен; для них есть ReleaseText.
func (s *Synth) Release(i int, data []byte, err error) {
	s.mu.Lock()
	g := s.gates[i]
	g.taken = true
	s.mu.Unlock()
	g.ch <- synthResult{data: data, err: err}
}

// ReleaseText завершает самый ранний еще не завершенный вызов с указанным текстом
func (s *Synth) ReleaseText(text string, data []byte, err error) bool {
	s.mu.Lock()
	var g *gate
	for _, candidate := range s.gates {
		if candidate.text == text && !candidate.taken {
			g = candidate
			break
		}
	}
	if g != nil {
		g.taken = true
	}
	s.mu.Unlock()

	if g == nil {
		return false
	}
	g.ch <- synthResult{data: data, err: err}
	return true
}

// WaitCalls ждет, пока синтезатор получит n вызовов
func (s *Synth) WaitCalls(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if len(s.Calls()) >= n {
			return true
		}
		select {
		case <-s.seen:
		case <-deadline:
			return len(s.Calls()) >= n
		}
	}
}

// Calls возвращает копию журнала вызовов
func (s *Synth) Calls() []SynthCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SynthCall, len(s.calls))
	copy(out, s.calls)
	return out
}
