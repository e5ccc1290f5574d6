package api

import (
	"voicefy/internal/apperr"
	"voicefy/internal/playback"
	"voicefy/pkg/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) registerStudioRoutes(r fiber.Router) {
	r.Get("/page", s.handlePage)
	r.Put("/search", s.handleSearch)
	r.Put("/page/:n", s.handleGoToPage)

	r.Post("/selection/all", s.handleSelectAll)
	r.Post("/selection/:id", s.handleToggleSelected)
	r.Delete("/selection", s.handleClearSelection)
	r.Put("/selection/visibility", s.handleSelectionVisibility)
	r.Delete("/selection/voices", s.handleSelectionDelete)

	r.Post("/preview/:id", s.handleTogglePreview)

	r.Post("/generation", s.handleGenerate)
	r.Get("/generation", s.handleGeneration)
	r.Post("/generation/play", s.handlePlayGenerated)
	r.Get("/generation/download", s.handleDownloadGenerated)
	r.Delete("/generation", s.handleDiscardGenerated)

	r.Get("/playback", s.handlePlayback)
	r.Post("/playback/stop", s.handleStopPlayback)
	r.Post("/playback/ended", s.handlePlaybackEnded)

	r.Post("/sync", s.handleSync)
}

type searchRequest struct {
	Term string `json:"term"`
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

type generateRequest struct {
	Text    string `json:"text"`
	VoiceID int64  `json:"voice_id"`
}

type endedRequest struct {
	Source playback.SourceID `json:"source"`
}

func (s *Server) handlePage(c *fiber.Ctx) error {
	return c.JSON(s.deps.Studio.Page())
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}
	return c.JSON(s.deps.Studio.SetSearch(req.Term))
}

func (s *Server) handleGoToPage(c *fiber.Ctx) error {
	n, err := c.ParamsInt("n")
	if err != nil {
		return apperr.Validation("page", "Некорректный номер страницы")
	}
	page, err := s.deps.Studio.GoToPage(n)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (s *Server) handleSelectAll(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"selected": s.deps.Studio.SelectAll()})
}

func (s *Server) handleToggleSelected(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	selected, err := s.deps.Studio.ToggleSelected(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "selected": selected})
}

func (s *Server) handleClearSelection(c *fiber.Ctx) error {
	s.deps.Studio.ClearSelection()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSelectionVisibility(c *fiber.Ctx) error {
	var req visibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}
	visibility, err := models.ParseVisibility(req.Visibility)
	if err != nil {
		return apperr.Validation("visibility", "Недопустимая видимость")
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Studio.BulkSetVisibility(ctx, visibility); err != nil {
		return err
	}
	return c.JSON(s.deps.Studio.Page())
}

func (s *Server) handleSelectionDelete(c *fiber.Ctx) error {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Studio.BulkDelete(ctx); err != nil {
		return err
	}
	return c.JSON(s.deps.Studio.Page())
}

func (s *Server) handleTogglePreview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	st, err := s.deps.Studio.TogglePreview(id)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// handleGenerate принимает запрос синтеза; результат появляется в GET /studio/generation
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("body", "Некорректный JSON")
	}

	ticket, err := s.deps.Studio.Generate(c.UserContext(), req.Text, req.VoiceID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"token": ticket.Token})
}

func (s *Server) handleGeneration(c *fiber.Ctx) error {
	return c.JSON(s.deps.Studio.Session().Snapshot())
}

func (s *Server) handlePlayGenerated(c *fiber.Ctx) error {
	st, err := s.deps.Studio.PlayGenerated()
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) handleDownloadGenerated(c *fiber.Ctx) error {
	data, filename, err := s.deps.Studio.Session().Download()
	if err != nil {
		return err
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(data)
}

func (s *Server) handleDiscardGenerated(c *fiber.Ctx) error {
	if err := s.deps.Studio.DiscardGenerated(); err != nil {
		return err
	}
	return c.JSON(s.deps.Studio.Session().Snapshot())
}

func (s *Server) handlePlayback(c *fiber.Ctx) error {
	return c.JSON(s.deps.Studio.Player().State())
}

func (s *Server) handleStopPlayback(c *fiber.Ctx) error {
	return c.JSON(s.deps.Studio.StopPlayback())
}

// handlePlaybackEnded принимает от клиента сообщение о естественном завершении звука
func (s *Server) handlePlaybackEnded(c *fiber.Ctx) error {
	var req endedRequest
	if err := c.BodyParser(&req); err != nil || req.Source == "" {
		return apperr.Validation("source", "Не указан источник")
	}
	ended := s.deps.Studio.Player().NotifyEnded(req.Source)
	return c.JSON(fiber.Map{"ended": ended, "playback": s.deps.Studio.Player().State()})
}
