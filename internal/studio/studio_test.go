package studio_test

import (
	"context"
	"errors"
	"testing"

	"voicefy/internal/apperr"
	"voicefy/internal/generation"
	"voicefy/internal/playback"
	"voicefy/internal/studio/studiotest"
	"voicefy/internal/testsupport"
	"voicefy/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogVoices() []models.Voice {
	voices := testsupport.Voices(13)
	voices[0] = testsupport.WithPreview(testsupport.ProviderVoice("adam123", "Adam"), "https://example.com/adam_preview.mp3")
	voices[1] = testsupport.WithPreview(testsupport.ProviderVoice("eva456", "Eva"), "https://example.com/eva_preview.mp3")
	return voices
}

func TestPagingAndSearch(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})

	page := f.Studio.Page()
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Voices, 12)

	page, err := f.Studio.GoToPage(2)
	require.NoError(t, err)
	require.Len(t, page.Voices, 1)
	assert.Equal(t, int64(13), page.Voices[0].ID)

	// страница сохраняется при смене запроса, даже если оказывается пустой
	page = f.Studio.SetSearch("adam")
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 1, page.TotalCount)
	assert.Empty(t, page.Voices)

	page, err = f.Studio.GoToPage(1)
	require.NoError(t, err)
	require.Len(t, page.Voices, 1)
	assert.Equal(t, "Adam", page.Voices[0].DisplayName)

	_, err = f.Studio.GoToPage(0)
	assert.True(t, apperr.IsValidation(err))
}

func TestSelectAllUsesFullCatalog(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: testsupport.Voices(5)})

	f.Studio.SetSearch("Voice 1")
	ids := f.Studio.SelectAll()
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
	assert.True(t, f.Studio.Page().AllSelected)

	assert.Empty(t, f.Studio.SelectAll())
	assert.False(t, f.Studio.Page().AllSelected)
}

func TestToggleSelected(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: testsupport.Voices(3)})

	selected, err := f.Studio.ToggleSelected(2)
	require.NoError(t, err)
	assert.True(t, selected)
	assert.Equal(t, []int64{2}, f.Studio.Page().Selected)

	selected, err = f.Studio.ToggleSelected(2)
	require.NoError(t, err)
	assert.False(t, selected)

	_, err = f.Studio.ToggleSelected(99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBulkSetVisibilityClearsSelection(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: testsupport.Voices(3)})
	ctx := context.Background()

	err := f.Studio.BulkSetVisibility(ctx, models.VisibilityPrivate)
	assert.True(t, apperr.IsValidation(err), "пустой выбор отклоняется")

	_, _ = f.Studio.ToggleSelected(1)
	_, _ = f.Studio.ToggleSelected(3)
	require.NoError(t, f.Studio.BulkSetVisibility(ctx, models.VisibilityPrivate))

	assert.Empty(t, f.Studio.Page().Selected)
	v, ok := f.Catalog.Voice(3)
	require.True(t, ok)
	assert.Equal(t, models.VisibilityPrivate, v.Visibility)
	v, _ = f.Catalog.Voice(2)
	assert.Equal(t, models.VisibilityPublic, v.Visibility)
}

func TestBulkDeleteFailureKeepsSelection(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: testsupport.Voices(3)})
	ctx := context.Background()

	_, _ = f.Studio.ToggleSelected(1)
	f.Store.FailBulk(errors.New("db down"))
	assert.Error(t, f.Studio.BulkDelete(ctx))
	assert.Equal(t, []int64{1}, f.Studio.Page().Selected)
	assert.Equal(t, 3, f.Catalog.Len())

	f.Store.FailBulk(nil)
	require.NoError(t, f.Studio.BulkDelete(ctx))
	assert.Empty(t, f.Studio.Page().Selected)
	assert.Equal(t, 2, f.Catalog.Len())
}

func TestTogglePreview(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})

	st, err := f.Studio.TogglePreview(1)
	require.NoError(t, err)
	assert.Equal(t, playback.State{ActiveSource: playback.PreviewSource(1), Playing: true}, st)
	assert.Equal(t, []string{"https://example.com/adam_preview.mp3"}, f.Output.Plays())

	st, err = f.Studio.TogglePreview(2)
	require.NoError(t, err)
	assert.Equal(t, playback.PreviewSource(2), st.ActiveSource)

	st, err = f.Studio.TogglePreview(2)
	require.NoError(t, err)
	assert.False(t, st.Playing)

	_, err = f.Studio.TogglePreview(3)
	assert.True(t, apperr.IsValidation(err), "голос без превью")

	_, err = f.Studio.TogglePreview(99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveVoiceStopsItsPreview(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})

	_, err := f.Studio.TogglePreview(1)
	require.NoError(t, err)
	_, err = f.Studio.ToggleSelected(1)
	require.NoError(t, err)

	require.NoError(t, f.Studio.RemoveVoice(context.Background(), 1))

	assert.False(t, f.Studio.Player().State().Playing)
	assert.Empty(t, f.Studio.Page().Selected)
	_, ok := f.Catalog.Voice(1)
	assert.False(t, ok)

	err = f.Studio.RemoveVoice(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveVoiceKeepsOtherPreviewPlaying(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})

	_, err := f.Studio.TogglePreview(2)
	require.NoError(t, err)

	require.NoError(t, f.Studio.RemoveVoice(context.Background(), 3))
	assert.True(t, f.Studio.Player().IsPlaying(playback.PreviewSource(2)))
}

func TestPreviewPreemptsGenerated(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})
	ctx := context.Background()

	ticket, err := f.Studio.Generate(ctx, "Olá", 1)
	require.NoError(t, err)
	studiotest.Wait(t, ticket)
	require.Equal(t, generation.StatusReady, f.Studio.Page().Generation.Status)

	st, err := f.Studio.PlayGenerated()
	require.NoError(t, err)
	assert.Equal(t, playback.GeneratedSource, st.ActiveSource)

	st, err = f.Studio.TogglePreview(1)
	require.NoError(t, err)
	assert.Equal(t, playback.PreviewSource(1), st.ActiveSource)
	assert.False(t, f.Studio.Player().IsPlaying(playback.GeneratedSource))

	assert.False(t, f.Studio.StopPlayback().Playing)
}

func TestDiscardGenerated(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices(), Autoplay: true})
	ctx := context.Background()

	assert.ErrorIs(t, f.Studio.DiscardGenerated(), apperr.ErrInvalidState)

	ticket, err := f.Studio.Generate(ctx, "Olá", 2)
	require.NoError(t, err)
	studiotest.Wait(t, ticket)
	assert.True(t, f.Studio.Player().IsPlaying(playback.GeneratedSource))

	require.NoError(t, f.Studio.DiscardGenerated())
	assert.False(t, f.Studio.Player().State().Playing)
	assert.Equal(t, 0, f.Registry.Stats().Live)
	assert.Equal(t, generation.StatusIdle, f.Studio.Page().Generation.Status)
}

func TestSyncReloadsPage(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})
	f.Provider.Voices = []models.ProviderVoice{
		{ExternalID: "adam123", Name: "Adam v2"},
		{ExternalID: "rachel21", Name: "Rachel"},
	}

	res, err := f.Studio.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)

	f.Studio.SetSearch("rachel")
	page, err := f.Studio.GoToPage(1)
	require.NoError(t, err)
	require.Len(t, page.Voices, 1)
	assert.Equal(t, models.VisibilityPublic, page.Voices[0].Visibility)

	v, _ := f.Catalog.Voice(1)
	assert.Equal(t, "Adam v2", v.DisplayName)
	require.NotNil(t, v.PreviewURL)
}

func TestCloseReleasesResult(t *testing.T) {
	f := studiotest.New(t, studiotest.Options{Voices: catalogVoices()})

	ticket, err := f.Studio.Generate(context.Background(), "Olá", 1)
	require.NoError(t, err)
	studiotest.Wait(t, ticket)
	require.Equal(t, 1, f.Registry.Stats().Live)

	f.Studio.Close()
	assert.Equal(t, 0, f.Registry.Stats().Live)

	_, err = f.Studio.Generate(context.Background(), "Olá", 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}
