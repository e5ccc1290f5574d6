package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voicefy/internal/apperr"
	"voicefy/internal/audio"
	"voicefy/internal/catalog"
	"voicefy/internal/metrics"
	"voicefy/internal/studio"
	"voicefy/internal/tts"
	"voicefy/pkg/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// History - доступ к истории генераций провайдера
type History interface {
	HistoryAudio(ctx context.Context, historyID string) ([]byte, error)
	DeleteHistoryItem(ctx context.Context, historyID string) error
}

// Seeder добавляет образцы голосов
type Seeder interface {
	Seed(ctx context.Context, voices []models.Voice) (int, error)
}

// Deps - зависимости HTTP API
type Deps struct {
	Studio        *studio.Studio
	Registry      *audio.Registry
	TTS           tts.TTSService
	History       History // nil, если провайдер не хранит историю
	Previews      catalog.PreviewStore
	Seeder        Seeder
	Metrics       *metrics.Handler
	MaxTextLength int
	Timeout       time.Duration
}

// Server - HTTP API сервиса
type Server struct {
	app    *fiber.App
	deps   Deps
	logger *zap.Logger
}

// NewServer создает приложение Fiber и регистрирует маршруты
func NewServer(deps Deps, logger *zap.Logger) *Server {
	if deps.MaxTextLength <= 0 {
		deps.MaxTextLength = 800
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 60 * time.Second
	}

	s := &Server{deps: deps, logger: logger}

	app := fiber.New(fiber.Config{
		AppName:               "voicefy",
		DisableStartupMessage: true,
		BodyLimit:             20 * 1024 * 1024,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.logRequests)

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.MetricsHandler()))
		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(deps.Metrics.Health())
		})
	}

	s.registerVoiceRoutes(app.Group("/api"))
	s.registerStudioRoutes(app.Group("/studio"))

	app.Get("/audio/:token", s.handleAudio)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/playback", websocket.New(s.handlePlaybackWS))

	s.app = app
	return s
}

// App возвращает приложение Fiber
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen запускает HTTP сервер
func (s *Server) Listen(port int) error {
	s.logger.Info("HTTP сервер запущен", zap.Int("port", port))
	return s.app.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown останавливает HTTP сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorResponse - тело ответа с ошибкой
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorResponse{Error: fe.Message})
	}

	status := apperr.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("ошибка обработки запроса",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(status).JSON(errorResponse{Error: apperr.Message(err)})
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("HTTP запрос",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)))
	return err
}

// requestContext ограничивает время обработки запроса
func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.deps.Timeout)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "Некорректный ID")
	}
	return int64(id), nil
}

func message(text string) fiber.Map {
	return fiber.Map{"message": text}
}
