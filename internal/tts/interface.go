package tts

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"voicefy/internal/apperr"
	"voicefy/internal/config"
	"voicefy/pkg/models"

	"go.uber.org/zap"
)

// TTSService представляет интерфейс для Text-to-Speech сервиса
type TTSService interface {
	// SynthesizeText преобразует текст в аудио голосом voiceID (external_id голоса)
	SynthesizeText(ctx context.Context, voiceID, text string) ([]byte, error)
}

// VoiceLister возвращает каталог голосов провайдера
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]models.ProviderVoice, error)
}

// NewService создает сервис синтеза по TTS_PROVIDER
func NewService(cfg *config.Config, logger *zap.Logger) (TTSService, error) {
	switch cfg.TTS.Provider {
	case "elevenlabs":
		return NewElevenLabsService(logger, cfg.ElevenLabs), nil
	case "piper":
		return NewPiperService(logger, cfg.TTS.PiperURL), nil
	default:
		return nil, fmt.Errorf("неизвестный TTS провайдер: %s", cfg.TTS.Provider)
	}
}

// ValidateText проверяет текст до сетевого запроса: не пустой и не длиннее max символов
func ValidateText(text string, max int) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation("text", "Введите текст для озвучивания")
	}
	if n := utf8.RuneCountInString(text); n > max {
		return apperr.Validation("text",
			fmt.Sprintf("Текст превышает лимит в %d символов. Удалите %d символов.", max, n-max))
	}
	return nil
}
