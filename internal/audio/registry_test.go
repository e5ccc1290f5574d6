package audio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	events []string
	live   []int
}

func (o *recordingObserver) ObserveTransientAudio(event string, live int) {
	o.events = append(o.events, event)
	o.live = append(o.live, live)
}

func TestAcquireBytes(t *testing.T) {
	r := NewRegistry("http://localhost:8080", zap.NewNop())

	h := r.AcquireBytes([]byte("mp3"), "")
	require.NotNil(t, h)

	assert.True(t, h.IsTransient())
	assert.True(t, strings.HasPrefix(h.URL(), "http://localhost:8080/audio/"))
	assert.Equal(t, DefaultContentType, h.ContentType())
	assert.Equal(t, []byte("mp3"), h.Data())

	got, ok := r.Open(h.Token())
	require.True(t, ok)
	assert.Same(t, h, got)
	assert.Equal(t, Stats{Acquired: 1, Released: 0, Live: 1}, r.Stats())
}

func TestReleaseRevokesExactlyOnce(t *testing.T) {
	r := NewRegistry("http://localhost:8080", zap.NewNop())
	obs := &recordingObserver{}
	r.SetObserver(obs)

	h := r.AcquireBytes([]byte("mp3"), "audio/mpeg")
	h.Release()
	h.Release()

	assert.True(t, h.Released())
	_, ok := r.Open(h.Token())
	assert.False(t, ok, "отозванный URL больше не должен открываться")
	assert.Equal(t, Stats{Acquired: 1, Released: 1, Live: 0}, r.Stats())
	assert.Equal(t, []string{"acquired", "released"}, obs.events)
	assert.Equal(t, []int{1, 0}, obs.live)
}

func TestAcquireURLIsStable(t *testing.T) {
	r := NewRegistry("http://localhost:8080", zap.NewNop())

	h := r.AcquireURL("https://example.com/adam_preview.mp3")
	assert.False(t, h.IsTransient())
	assert.Equal(t, "https://example.com/adam_preview.mp3", h.URL())
	assert.Nil(t, h.Data())

	h.Release()
	assert.False(t, h.Released())
	assert.Equal(t, Stats{}, r.Stats())
}

func TestCloseReleasesLiveHandles(t *testing.T) {
	r := NewRegistry("http://localhost:8080", zap.NewNop())

	a := r.AcquireBytes([]byte("a"), "")
	b := r.AcquireBytes([]byte("b"), "")
	a.Release()

	r.Close()

	assert.True(t, b.Released())
	assert.Equal(t, Stats{Acquired: 2, Released: 2, Live: 0}, r.Stats())
}
