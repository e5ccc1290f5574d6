package catalog_test

import (
	"context"
	"errors"
	"testing"

	"voicefy/internal/apperr"
	"voicefy/internal/catalog"
	"voicefy/internal/testsupport"
	"voicefy/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sizeRecorder struct{ sizes []int }

func (r *sizeRecorder) SetCatalogSize(n int) { r.sizes = append(r.sizes, n) }

type fixture struct {
	catalog  *catalog.Catalog
	store    *testsupport.MemoryStore
	synth    *testsupport.Synth
	previews *testsupport.PreviewStore
	metrics  *sizeRecorder
}

func newFixture(t *testing.T, voices ...models.Voice) *fixture {
	t.Helper()
	f := &fixture{
		store:    testsupport.NewMemoryStore(voices...),
		synth:    testsupport.NewSynth(),
		previews: &testsupport.PreviewStore{},
		metrics:  &sizeRecorder{},
	}
	f.catalog = catalog.New(f.store, f.synth, f.previews, f.metrics, zap.NewNop(), "Olá!")
	_, err := f.catalog.Load(context.Background())
	require.NoError(t, err)
	return f
}

func TestLoadReplacesWholesale(t *testing.T) {
	f := newFixture(t, testsupport.Voices(3)...)
	assert.Equal(t, 3, f.catalog.Len())

	f.store.Insert(testsupport.ProviderVoice("new", "New"))
	voices, err := f.catalog.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, voices, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, f.catalog.IDs())
	assert.Equal(t, []int{3, 4}, f.metrics.sizes)
}

func TestLoadFailureKeepsPriorState(t *testing.T) {
	f := newFixture(t, testsupport.Voices(3)...)
	f.store.FailList(errors.New("db down"))

	_, err := f.catalog.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, f.catalog.Len())
}

func TestUpdateUsesCanonicalRow(t *testing.T) {
	f := newFixture(t, testsupport.Voices(2)...)

	name := "Adam"
	private := models.VisibilityPrivate
	got, err := f.catalog.Update(context.Background(), 1, models.VoicePatch{DisplayName: &name, Visibility: &private})
	require.NoError(t, err)
	assert.Equal(t, "Adam", got.DisplayName)

	local, ok := f.catalog.Voice(1)
	require.True(t, ok)
	assert.Equal(t, models.VisibilityPrivate, local.Visibility)
	assert.Len(t, f.catalog.PublicVoices(), 1)
}

func TestUpdateFailureLeavesRow(t *testing.T) {
	f := newFixture(t, testsupport.Voices(2)...)
	f.store.FailUpdate(apperr.Network("update", errors.New("timeout")))

	name := "Adam"
	_, err := f.catalog.Update(context.Background(), 1, models.VoicePatch{DisplayName: &name})
	require.Error(t, err)
	assert.True(t, apperr.IsNetwork(err))

	local, _ := f.catalog.Voice(1)
	assert.Equal(t, "Voice 1", local.DisplayName)
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(t, testsupport.Voices(1)...)

	_, err := f.catalog.Update(context.Background(), 1, models.VoicePatch{})
	assert.True(t, apperr.IsValidation(err))

	bad := models.Visibility("secret")
	_, err = f.catalog.Update(context.Background(), 1, models.VoicePatch{Visibility: &bad})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateNotFoundDropsLocalRow(t *testing.T) {
	f := newFixture(t, testsupport.Voices(2)...)
	require.NoError(t, f.store.Delete(context.Background(), 2))

	name := "gone"
	_, err := f.catalog.Update(context.Background(), 2, models.VoicePatch{DisplayName: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, ok := f.catalog.Voice(2)
	assert.False(t, ok)
	assert.Equal(t, 1, f.catalog.Len())
}

func TestRemove(t *testing.T) {
	f := newFixture(t, testsupport.Voices(3)...)

	require.NoError(t, f.catalog.Remove(context.Background(), 2))
	assert.Equal(t, []int64{1, 3}, f.catalog.IDs())

	f.store.FailDelete(errors.New("db down"))
	require.Error(t, f.catalog.Remove(context.Background(), 1))
	assert.Equal(t, []int64{1, 3}, f.catalog.IDs())
}

func TestGeneratePreview(t *testing.T) {
	f := newFixture(t, testsupport.ProviderVoice("adam123", "Adam"))

	got, err := f.catalog.GeneratePreview(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, got.HasPreview())

	calls := f.synth.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, testsupport.SynthCall{VoiceID: "adam123", Text: "Olá!"}, calls[0])

	uploads := f.previews.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "preview.mp3", uploads[0].Filename)
	assert.Equal(t, "audio/mpeg", uploads[0].ContentType)

	stored, _ := f.store.Get(1)
	assert.Equal(t, *got.PreviewURL, *stored.PreviewURL)
}

func TestGeneratePreviewRejectsExistingPreview(t *testing.T) {
	f := newFixture(t, testsupport.WithPreview(testsupport.ProviderVoice("adam123", "Adam"), "https://example.com/adam_preview.mp3"))

	_, err := f.catalog.GeneratePreview(context.Background(), 1)
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, f.synth.Calls())
}

func TestGeneratePreviewSynthesisFailure(t *testing.T) {
	f := newFixture(t, testsupport.ProviderVoice("adam123", "Adam"))
	f.synth.Fail(errors.New("quota exceeded"))

	_, err := f.catalog.GeneratePreview(context.Background(), 1)
	assert.True(t, apperr.IsNetwork(err))
	assert.Empty(t, f.previews.Uploads())

	local, _ := f.catalog.Voice(1)
	assert.False(t, local.HasPreview())
}

func TestUploadPreviewFailure(t *testing.T) {
	f := newFixture(t, testsupport.ProviderVoice("adam123", "Adam"))
	f.previews.Err = errors.New("access denied")

	_, err := f.catalog.UploadPreview(context.Background(), 1, "a.mp3", "audio/mpeg", []byte("mp3"))
	assert.True(t, apperr.IsNetwork(err))

	_, err = f.catalog.UploadPreview(context.Background(), 42, "a.mp3", "audio/mpeg", []byte("mp3"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBulkOperationsReload(t *testing.T) {
	f := newFixture(t, testsupport.Voices(5)...)

	require.NoError(t, f.catalog.BulkSetVisibility(context.Background(), []int64{1, 2}, models.VisibilityPrivate))
	assert.Len(t, f.catalog.PublicVoices(), 3)

	require.NoError(t, f.catalog.BulkDelete(context.Background(), []int64{1, 3}))
	assert.Equal(t, []int64{2, 4, 5}, f.catalog.IDs())
	assert.Equal(t, 3, f.store.ListCalls())
}

func TestBulkValidationAndFailure(t *testing.T) {
	f := newFixture(t, testsupport.Voices(2)...)

	assert.True(t, apperr.IsValidation(f.catalog.BulkDelete(context.Background(), nil)))
	assert.True(t, apperr.IsValidation(f.catalog.BulkSetVisibility(context.Background(), []int64{1}, "hidden")))

	f.store.FailBulk(errors.New("db down"))
	require.Error(t, f.catalog.BulkDelete(context.Background(), []int64{1}))
	assert.Equal(t, 2, f.catalog.Len())
}
