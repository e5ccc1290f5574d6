package api

import (
	"voicefy/internal/playback"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// handleAudio отдает живой временный аудио ресурс; отозванный токен дает 404
func (s *Server) handleAudio(c *fiber.Ctx) error {
	h, ok := s.deps.Registry.Open(c.Params("token"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Аудио не найдено")
	}
	c.Set(fiber.HeaderContentType, h.ContentType())
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(h.Data())
}

// handlePlaybackWS пересылает клиенту события воспроизведения до закрытия соединения
func (s *Server) handlePlaybackWS(c *websocket.Conn) {
	player := s.deps.Studio.Player()

	events := make(chan playback.Event, 32)
	unsubscribe := player.Subscribe(func(ev playback.Event) {
		select {
		case events <- ev:
		default:
			s.logger.Warn("событие воспроизведения пропущено: клиент не успевает читать",
				zap.String("type", string(ev.Type)))
		}
	})
	defer unsubscribe()

	if err := c.WriteJSON(fiber.Map{"type": "state", "playback": player.State()}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if err := c.WriteJSON(ev); err != nil {
				s.logger.Debug("ошибка отправки события", zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}
