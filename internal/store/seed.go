package store

import "voicefy/pkg/models"

// SampleVoices возвращает образцы голосов для пустой базы
func SampleVoices() []models.Voice {
	adamPreview := "https://example.com/adam_preview.mp3"
	evaPreview := "https://example.com/eva_preview.mp3"

	return []models.Voice{
		{
			ExternalID:  "adam123",
			DisplayName: "Adam",
			Origin:      models.ProviderOrigin(),
			Visibility:  models.VisibilityPublic,
			PreviewURL:  &adamPreview,
		},
		{
			ExternalID:  "eva456",
			DisplayName: "Eva",
			Origin:      models.ProviderOrigin(),
			Visibility:  models.VisibilityPublic,
			PreviewURL:  &evaPreview,
		},
		{
			ExternalID:  "custom789",
			DisplayName: "Voz Personalizada",
			Origin:      models.ClonedOrigin(1),
			Visibility:  models.VisibilityPrivate,
		},
	}
}
