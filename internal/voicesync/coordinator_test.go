package voicesync_test

import (
	"context"
	"errors"
	"testing"

	"voicefy/internal/apperr"
	"voicefy/internal/catalog"
	"voicefy/internal/scheduler"
	"voicefy/internal/testsupport"
	"voicefy/internal/voicesync"
	"voicefy/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store       *testsupport.MemoryStore
	provider    *testsupport.StaticProvider
	catalog     *catalog.Catalog
	coordinator *voicesync.Coordinator
}

func newFixture(t *testing.T, local []models.Voice, remote []models.ProviderVoice) *fixture {
	t.Helper()
	f := &fixture{
		store:    testsupport.NewMemoryStore(local...),
		provider: &testsupport.StaticProvider{Voices: remote},
	}
	f.catalog = catalog.New(f.store, nil, nil, nil, zap.NewNop(), "")
	_, err := f.catalog.Load(context.Background())
	require.NoError(t, err)
	f.coordinator = voicesync.NewCoordinator(f.provider, f.store, f.catalog, nil, zap.NewNop(), 4)
	return f
}

func curated() []models.Voice {
	private := testsupport.ProviderVoice("adam123", "Adam")
	private.Visibility = models.VisibilityPrivate
	private = testsupport.WithPreview(private, "https://example.com/adam_preview.mp3")

	cloned := models.Voice{
		ExternalID:  "custom789",
		DisplayName: "Voz Personalizada",
		Origin:      models.ClonedOrigin(1),
		Visibility:  models.VisibilityPrivate,
	}
	return []models.Voice{private, testsupport.ProviderVoice("eva456", "Eva"), cloned}
}

func TestSyncIsIdempotent(t *testing.T) {
	remote := []models.ProviderVoice{
		{ExternalID: "adam123", Name: "Adam"},
		{ExternalID: "eva456", Name: "Eva"},
		{ExternalID: "custom789", Name: "Voz Personalizada"},
	}
	f := newFixture(t, curated(), remote)
	before := f.catalog.Voices()

	for i := 0; i < 2; i++ {
		res, err := f.coordinator.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, voicesync.Result{Fetched: 3, Updated: 3}, res)
	}

	after := f.catalog.Voices()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Visibility, after[i].Visibility)
		assert.Equal(t, before[i].Origin, after[i].Origin)
		assert.Equal(t, before[i].PreviewURL, after[i].PreviewURL)
	}
}

func TestSyncOverwritesOnlyDisplayName(t *testing.T) {
	f := newFixture(t, curated(), []models.ProviderVoice{
		{ExternalID: "adam123", Name: "Adam v2", PreviewURL: "https://provider/adam.mp3"},
	})

	_, err := f.coordinator.Sync(context.Background())
	require.NoError(t, err)

	adam, ok := f.catalog.Voice(1)
	require.True(t, ok)
	assert.Equal(t, "Adam v2", adam.DisplayName)
	assert.Equal(t, models.VisibilityPrivate, adam.Visibility)
	assert.Equal(t, "https://example.com/adam_preview.mp3", *adam.PreviewURL)
}

func TestSyncInsertsNewVoice(t *testing.T) {
	remote := []models.ProviderVoice{
		{ExternalID: "adam123", Name: "Adam"},
		{ExternalID: "rachel21", Name: "Rachel", PreviewURL: "https://provider/rachel.mp3"},
	}
	f := newFixture(t, curated(), remote)
	before := f.catalog.Len()

	res, err := f.coordinator.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, before+1, f.catalog.Len())

	var added models.Voice
	for _, v := range f.catalog.Voices() {
		if v.ExternalID == "rachel21" {
			added = v
		}
	}
	assert.Equal(t, "Rachel", added.DisplayName)
	assert.Equal(t, models.VisibilityPublic, added.Visibility)
	assert.Equal(t, models.ProviderOrigin(), added.Origin)
	assert.False(t, added.HasPreview(), "превью провайдера не импортируется")
}

func TestSyncPartialFailure(t *testing.T) {
	remote := []models.ProviderVoice{
		{ExternalID: "a", Name: "A"},
		{ExternalID: "b", Name: "B"},
		{ExternalID: "c", Name: "C"},
	}
	f := newFixture(t, nil, remote)
	f.store.FailUpsert("b", errors.New("deadlock detected"))

	res, err := f.coordinator.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, voicesync.Result{Fetched: 3, Inserted: 2, Failed: 1}, res)
	assert.Len(t, voicesync.Errors(errors.Unwrap(err)), 1)

	assert.Equal(t, 2, f.catalog.Len(), "каталог перезагружается и после частичной ошибки")
}

func TestSyncProviderFailureSkipsReload(t *testing.T) {
	f := newFixture(t, curated(), nil)
	f.provider.Err = apperr.Network("получение голосов", errors.New("timeout"))
	calls := f.store.ListCalls()

	_, err := f.coordinator.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsNetwork(err))
	assert.Equal(t, calls, f.store.ListCalls())
}

func TestSyncDeduplicatesProviderList(t *testing.T) {
	f := newFixture(t, nil, []models.ProviderVoice{
		{ExternalID: "a", Name: "old"},
		{ExternalID: " ", Name: "blank"},
		{ExternalID: "a", Name: "new"},
	})

	res, err := f.coordinator.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, voicesync.Result{Fetched: 1, Inserted: 1}, res)
	assert.Equal(t, "new", f.catalog.Voices()[0].DisplayName)
}

func TestPlan(t *testing.T) {
	f := newFixture(t, curated(), []models.ProviderVoice{
		{ExternalID: "adam123", Name: "Adam"},
		{ExternalID: "new1", Name: "New"},
	})

	res, err := f.coordinator.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, voicesync.Result{Fetched: 2, Inserted: 1, Updated: 1}, res)
	assert.Equal(t, 3, f.store.Len())
}

func TestJobRunsThroughScheduler(t *testing.T) {
	f := newFixture(t, nil, []models.ProviderVoice{{ExternalID: "a", Name: "A"}})

	s := scheduler.NewScheduler(zap.NewNop())
	s.AddJob(voicesync.NewJob(f.coordinator))

	assert.Equal(t, 0, s.RunOnce(context.Background()))
	assert.Equal(t, 1, f.catalog.Len())
}
