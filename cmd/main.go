package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicefy/internal/api"
	"voicefy/internal/audio"
	"voicefy/internal/bot"
	"voicefy/internal/catalog"
	"voicefy/internal/config"
	"voicefy/internal/generation"
	"voicefy/internal/metrics"
	"voicefy/internal/migrations"
	"voicefy/internal/playback"
	"voicefy/internal/scheduler"
	"voicefy/internal/selection"
	"voicefy/internal/storage"
	"voicefy/internal/store"
	"voicefy/internal/studio"
	"voicefy/internal/tts"
	"voicefy/internal/voicesync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger, err := initLogger(&cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск voicefy",
		zap.String("env", cfg.App.Env),
		zap.String("tts_provider", cfg.TTS.Provider),
		zap.String("storage", cfg.Storage.Backend))

	// Подключение к базе данных
	db, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("ошибка подключения к базе данных", zap.Error(err))
	}
	defer db.Close()

	// Запуск миграций
	if err := migrations.RunMigrations(cfg, logger); err != nil {
		logger.Fatal("ошибка выполнения миграций", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Сервисы синтеза
	ttsService, err := tts.NewService(cfg, logger)
	if err != nil {
		logger.Fatal("ошибка создания TTS сервиса", zap.Error(err))
	}
	var history api.History
	if el, ok := ttsService.(*tts.ElevenLabsService); ok {
		history = el
	}
	voiceLister := tts.NewElevenLabsService(logger, cfg.ElevenLabs)

	previews, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("ошибка создания хранилища превью", zap.Error(err))
	}

	appMetrics := metrics.New(logger, nil)
	registry := audio.NewRegistry(cfg.App.PublicURL, logger)
	registry.SetObserver(appMetrics)

	voiceCatalog := catalog.New(db.Voice(), ttsService, previews, appMetrics, logger, cfg.TTS.PreviewText)

	var output playback.Output = playback.SilentOutput{}
	if cfg.Playback.Enabled {
		output = playback.NewCommandOutput(cfg.Playback.Command, cfg.Playback.Args, logger)
	}
	player := playback.NewController(output, logger, appMetrics)

	sessionOpts := generation.Options{
		MaxTextLength: cfg.TTS.MaxTextLength,
		Timeout:       cfg.ElevenLabs.Timeout,
		Autoplay:      cfg.Playback.Autoplay,
	}
	session := generation.NewSession(ttsService, voiceCatalog, registry, player, appMetrics, logger, sessionOpts)

	coordinator := voicesync.NewCoordinator(voiceLister, db.Voice(), voiceCatalog, appMetrics, logger, cfg.Sync.Concurrency)

	voiceStudio := studio.New(studio.Deps{
		Catalog:   voiceCatalog,
		Selection: selection.New(),
		Player:    player,
		Session:   session,
		Sync:      coordinator,
		Registry:  registry,
		PageSize:  cfg.App.PageSize,
	}, logger)
	if err := voiceStudio.Load(ctx); err != nil {
		logger.Error("ошибка загрузки каталога голосов", zap.Error(err))
	}

	// HTTP API
	server := api.NewServer(api.Deps{
		Studio:        voiceStudio,
		Registry:      registry,
		TTS:           ttsService,
		History:       history,
		Previews:      previews,
		Seeder:        db.Voice(),
		Metrics:       metrics.NewHandler(appMetrics, logger),
		MaxTextLength: cfg.TTS.MaxTextLength,
		Timeout:       cfg.ElevenLabs.Timeout,
	}, logger)

	go func() {
		if err := server.Listen(cfg.App.Port); err != nil {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
		}
	}()

	// Telegram бот (опционально)
	var botHandler *bot.Handler
	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.BotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal("ошибка создания бота", zap.Error(err))
		}
		botAPI.Debug = cfg.App.IsDevelopment()

		me, err := botAPI.GetMe()
		if err != nil {
			logger.Fatal("ошибка получения информации о боте", zap.Error(err))
		}
		logger.Info("бот успешно подключен", zap.String("username", me.UserName))

		// У чатов бота нет локального аудиовыхода: результат отправляется файлом
		newSession := func() *generation.Session {
			return generation.NewSession(ttsService, voiceCatalog, registry, nil, appMetrics, logger, generation.Options{
				MaxTextLength: cfg.TTS.MaxTextLength,
				Timeout:       cfg.ElevenLabs.Timeout,
			})
		}
		botHandler = bot.NewHandler(botAPI, voiceCatalog, newSession, cfg.TTS.MaxTextLength, logger)

		updateConfig := tgbotapi.NewUpdate(0)
		updateConfig.Timeout = 60
		go botHandler.Run(ctx, botAPI.GetUpdatesChan(updateConfig))
	}

	// Планировщик синхронизации каталога
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(voicesync.NewJob(coordinator))
	go taskScheduler.Start(ctx, cfg.Sync.Interval)

	logger.Info("сервис запущен", zap.Int("port", cfg.App.Port))

	// Ожидание сигнала для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("получен сигнал завершения, останавливаем сервис...")
	cancel()

	if botAPI != nil {
		botAPI.StopReceivingUpdates()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки HTTP сервера", zap.Error(err))
	}

	voiceStudio.Close()
	if botHandler != nil {
		botHandler.Close()
	}
	registry.Close()

	logger.Info("сервис остановлен")
}

// initLogger инициализирует логгер
func initLogger(app *config.AppConfig) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if app.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = app.GetLogLevel()
	zcfg.OutputPaths = []string{"stdout", "logs/app.log"}
	zcfg.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return zcfg.Build()
}
