// Package studiotest собирает студию на фейковых зависимостях для тестов
package studiotest

import (
	"context"
	"testing"
	"time"

	"voicefy/internal/audio"
	"voicefy/internal/catalog"
	"voicefy/internal/generation"
	"voicefy/internal/playback"
	"voicefy/internal/selection"
	"voicefy/internal/studio"
	"voicefy/internal/testsupport"
	"voicefy/internal/voicesync"
	"voicefy/pkg/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// BaseURL - базовый адрес временных аудио ресурсов в тестах
const BaseURL = "http://localhost:8080"

// Fixture содержит студию и ее фейковые зависимости
type Fixture struct {
	Studio   *studio.Studio
	Store    *testsupport.MemoryStore
	Synth    *testsupport.Synth
	Output   *testsupport.FakeOutput
	Previews *testsupport.PreviewStore
	Provider *testsupport.StaticProvider
	Registry *audio.Registry
	Catalog  *catalog.Catalog
}

// Options настраивают фикстуру
type Options struct {
	Voices   []models.Voice
	Synth    *testsupport.Synth
	Autoplay bool
	PageSize int
}

// New собирает студию и загружает каталог
func New(t *testing.T, opts Options) *Fixture {
	t.Helper()

	logger := zap.NewNop()
	if opts.Synth == nil {
		opts.Synth = testsupport.NewSynth()
	}

	store := testsupport.NewMemoryStore(opts.Voices...)
	previews := &testsupport.PreviewStore{}
	provider := &testsupport.StaticProvider{}
	registry := audio.NewRegistry(BaseURL, logger)
	output := testsupport.NewFakeOutput()

	cat := catalog.New(store, opts.Synth, previews, nil, logger, "preview sample")
	player := playback.NewController(output, logger, nil)
	session := generation.NewSession(opts.Synth, cat, registry, player, nil, logger, generation.Options{
		MaxTextLength: 800,
		Timeout:       time.Second,
		Autoplay:      opts.Autoplay,
	})
	coordinator := voicesync.NewCoordinator(provider, store, cat, nil, logger, 2)

	s := studio.New(studio.Deps{
		Catalog:   cat,
		Selection: selection.New(),
		Player:    player,
		Session:   session,
		Sync:      coordinator,
		Registry:  registry,
		PageSize:  opts.PageSize,
	}, logger)
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(s.Close)

	return &Fixture{
		Studio:   s,
		Store:    store,
		Synth:    opts.Synth,
		Output:   output,
		Previews: previews,
		Provider: provider,
		Registry: registry,
		Catalog:  cat,
	}
}

// Wait ждет завершения запроса синтеза
func Wait(t *testing.T, ticket *generation.Ticket) {
	t.Helper()
	select {
	case <-ticket.Done():
	case <-time.After(time.Second):
		t.Fatal("запрос синтеза не завершился")
	}
}
