package api

import (
	"io"
	"mime/multipart"

	"voicefy/internal/apperr"
	"voicefy/internal/store"
	"voicefy/internal/tts"
	"voicefy/pkg/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) registerVoiceRoutes(api fiber.Router) {
	api.Get("/voices", s.handleListVoices)
	api.Put("/voices/bulk-update", s.handleBulkUpdate)
	api.Delete("/voices/bulk-delete", s.handleBulkDelete)
	api.Get("/voices/sync", s.handleSync)
	api.Post("/voices/sync", s.handleSync)
	api.Post("/voices/seed", s.handleSeed)
	api.Put("/voices/:id", s.handleUpdateVoice)
	api.Delete("/voices/:id", s.handleDeleteVoice)
	api.Post("/voices/:id/preview", s.handleVoicePreview)

	api.Post("/upload-preview", s.handleUploadPreview)

	api.Post("/tts", s.handleTTS)
	api.Get("/tts/play/:id", s.handleHistoryPlay)
	api.Get("/tts/download/:id", s.handleHistoryDownload)
	api.Delete("/tts/delete/:id", s.handleHistoryDelete)
}

type updateVoiceRequest struct {
	Name       *string `json:"name"`
	Visibility *string `json:"visibility"`
	PreviewURL *string `json:"preview_url"`
}

func (r updateVoiceRequest) patch() (models.VoicePatch, error) {
	patch := models.VoicePatch{DisplayName: r.Name, PreviewURL: r.PreviewURL}
	if r.Visibility != nil {
		v, err := models.ParseVisibility(*r.Visibility)
		if err != nil {
			return models.VoicePatch{}, apperr.Validation("visibility", "Недопустимая видимость")
		}
		patch.Visibility = &v
	}
	return patch, nil
}

type bulkRequest struct {
	VoiceIDs   []int64 `json:"voiceIds"`
	Visibility string  `json:"visibility"`
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// handleListVoices возвращает весь каталог без фильтра по видимости
func (s *Server) handleListVoices(c *fiber.Ctx) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Studio.Load(ctx); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"voices": s.deps.Studio.Catalog().Voices()})
}

func (s *Server) handleUpdateVoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateVoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}
	patch, err := req.patch()
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	voice, err := s.deps.Studio.Catalog().Update(ctx, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(voice)
}

func (s *Server) handleDeleteVoice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Studio.RemoveVoice(ctx, id); err != nil {
		return err
	}
	return c.JSON(message("Голос удален"))
}

func (s *Server) handleBulkUpdate(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}
	visibility, err := models.ParseVisibility(req.Visibility)
	if err != nil {
		return apperr.Validation("visibility", "Недопустимая видимость")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Studio.Catalog().BulkSetVisibility(ctx, req.VoiceIDs, visibility); err != nil {
		return err
	}
	return c.JSON(message("Голоса обновлены"))
}

func (s *Server) handleBulkDelete(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Studio.Catalog().BulkDelete(ctx, req.VoiceIDs); err != nil {
		return err
	}
	return c.JSON(message("Голоса удалены"))
}

func (s *Server) handleSync(c *fiber.Ctx) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.deps.Studio.Sync(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Голоса синхронизированы", "result": res})
}

func (s *Server) handleSeed(c *fiber.Ctx) error {
	if s.deps.Seeder == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "Seed недоступен")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	added, err := s.deps.Seeder.Seed(ctx, store.SampleVoices())
	if err != nil {
		return err
	}
	if err := s.deps.Studio.Load(ctx); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Образцы голосов добавлены", "added": added})
}

// handleVoicePreview загружает присланный файл превью, а без файла генерирует образец
func (s *Server) handleVoicePreview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if fh, ferr := c.FormFile("file"); ferr == nil {
		data, err := readFile(fh)
		if err != nil {
			return err
		}
		voice, err := s.deps.Studio.Catalog().UploadPreview(ctx, id, fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			return err
		}
		return c.JSON(voice)
	}

	voice, err := s.deps.Studio.Catalog().GeneratePreview(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(voice)
}

// handleUploadPreview сохраняет файл и возвращает его URL, не меняя строку каталога
func (s *Server) handleUploadPreview(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file", "Файл не загружен")
	}
	data, err := readFile(fh)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return apperr.Validation("file", "Файл не загружен")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	url, err := s.deps.Previews.UploadPreview(ctx, c.FormValue("voiceId"), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return apperr.Network("загрузка превью", err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (s *Server) handleTTS(c *fiber.Ctx) error {
	var req ttsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}
	if err := tts.ValidateText(req.Text, s.deps.MaxTextLength); err != nil {
		return err
	}
	if req.VoiceID == "" {
		return apperr.Validation("voice_id", "Выберите голос")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	data, err := s.deps.TTS.SynthesizeText(ctx, req.VoiceID, req.Text)
	if err != nil {
		s.logger.Error("ошибка синтеза речи", zap.String("voice_id", req.VoiceID), zap.Error(err))
		return err
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(data)
}

func (s *Server) handleHistoryPlay(c *fiber.Ctx) error {
	data, err := s.historyAudio(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(data)
}

func (s *Server) handleHistoryDownload(c *fiber.Ctx) error {
	data, err := s.historyAudio(c)
	if err != nil {
		return err
	}
	c.Attachment("audio_" + c.Params("id") + ".mp3")
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(data)
}

func (s *Server) handleHistoryDelete(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "История генераций недоступна")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.History.DeleteHistoryItem(ctx, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) historyAudio(c *fiber.Ctx) ([]byte, error) {
	if s.deps.History == nil {
		return nil, fiber.NewError(fiber.StatusNotImplemented, "История генераций недоступна")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	return s.deps.History.HistoryAudio(ctx, c.Params("id"))
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Validation("file", "Не удалось прочитать файл")
	}
	defer f.Close()
	return io.ReadAll(f)
}
