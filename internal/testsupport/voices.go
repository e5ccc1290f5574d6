package testsupport

import (
	"context"
	"fmt"

	"voicefy/pkg/models"
)

// ProviderVoice создает голос провайдера для каталога
func ProviderVoice(externalID, name string) models.Voice {
	return models.Voice{
		ExternalID:  externalID,
		DisplayName: name,
		Origin:      models.ProviderOrigin(),
		Visibility:  models.VisibilityPublic,
	}
}

// WithPreview возвращает копию голоса с превью
func WithPreview(v models.Voice, url string) models.Voice {
	v.PreviewURL = &url
	return v
}

// Voices создает n голосов провайдера voice-1..voice-n
func Voices(n int) []models.Voice {
	out := make([]models.Voice, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ProviderVoice(fmt.Sprintf("voice-%d", i), fmt.Sprintf("Voice %d", i)))
	}
	return out
}

// StaticProvider отдает фиксированный список голосов провайдера
type StaticProvider struct {
	Voices []models.ProviderVoice
	Err    error
}

func (p *StaticProvider) ListVoices(ctx context.Context) ([]models.ProviderVoice, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	out := make([]models.ProviderVoice, len(p.Voices))
	copy(out, p.Voices)
	return out, nil
}
