package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"voicefy/internal/config"
	"voicefy/pkg/models"

	"go.uber.org/zap"
)

const providerElevenLabs = "elevenlabs"

// ElevenLabsService предоставляет синтез речи, каталог голосов и историю ElevenLabs
type ElevenLabsService struct {
	logger *zap.Logger
	cfg    config.ElevenLabsConfig
	client *http.Client
}

// NewElevenLabsService создает клиент ElevenLabs
func NewElevenLabsService(logger *zap.Logger, cfg config.ElevenLabsConfig) *ElevenLabsService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ElevenLabsService{
		logger: logger,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// SynthesizeText преобразует текст в аудио (audio/mpeg)
func (s *ElevenLabsService) SynthesizeText(ctx context.Context, voiceID, text string) ([]byte, error) {
	if voiceID == "" {
		return nil, fmt.Errorf("не указан голос")
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: s.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       s.cfg.Stability,
			SimilarityBoost: s.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", s.cfg.BaseURL, url.PathEscape(voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	audio, err := s.do(req)
	if err != nil {
		return nil, classify("синтез речи", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.String("voice_id", voiceID),
		zap.Int("text_length", len([]rune(text))),
		zap.Int("audio_size", len(audio)),
		zap.Duration("latency", time.Since(start)))

	return audio, nil
}

// ListVoices возвращает каталог голосов провайдера
func (s *ElevenLabsService) ListVoices(ctx context.Context) ([]models.ProviderVoice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := s.do(req)
	if err != nil {
		return nil, classify("получение голосов провайдера", err)
	}

	var resp struct {
		Voices []models.ProviderVoice `json:"voices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, classify("получение голосов провайдера", fmt.Errorf("ошибка разбора ответа: %w", err))
	}

	s.logger.Debug("получен каталог провайдера", zap.Int("count", len(resp.Voices)))
	return resp.Voices, nil
}

// HistoryAudio возвращает аудио элемента истории синтеза
func (s *ElevenLabsService) HistoryAudio(ctx context.Context, historyID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/history/%s/audio", s.cfg.BaseURL, url.PathEscape(historyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")

	audio, err := s.do(req)
	if err != nil {
		return nil, classify("получение аудио из истории", err)
	}
	return audio, nil
}

// DeleteHistoryItem удаляет элемент истории синтеза
func (s *ElevenLabsService) DeleteHistoryItem(ctx context.Context, historyID string) error {
	endpoint := fmt.Sprintf("%s/history/%s", s.cfg.BaseURL, url.PathEscape(historyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	if _, err := s.do(req); err != nil {
		return classify("удаление аудио из истории", err)
	}

	s.logger.Info("элемент истории удален", zap.String("history_id", historyID))
	return nil
}

// do выполняет запрос с ключом API и возвращает тело успешного ответа
func (s *ElevenLabsService) do(req *http.Request) ([]byte, error) {
	req.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := parseError(providerElevenLabs, resp)
		s.logger.Error("неуспешный ответ ElevenLabs",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return data, nil
}
