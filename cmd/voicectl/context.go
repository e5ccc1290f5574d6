package main

import (
	"fmt"
	"sync"

	"voicefy/internal/catalog"
	"voicefy/internal/config"
	"voicefy/internal/store"

	"go.uber.org/zap"
)

// commandContext лениво создает конфигурацию, логгер и подключение к базе
type commandContext struct {
	verbose *bool

	once   sync.Once
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
	err    error
}

func newCommandContext(verbose *bool) *commandContext {
	return &commandContext{verbose: verbose}
}

func (c *commandContext) ensure() error {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = fmt.Errorf("ошибка загрузки конфигурации: %w", err)
			return
		}
		c.cfg = cfg

		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		if c.verbose != nil && *c.verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err := zcfg.Build()
		if err != nil {
			c.err = fmt.Errorf("ошибка инициализации логгера: %w", err)
			return
		}
		c.logger = logger
	})
	return c.err
}

func (c *commandContext) openStore() (store.Store, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	if c.store != nil {
		return c.store, nil
	}
	s, err := store.NewStore(c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	c.store = s
	return s, nil
}

// catalog создает каталог только для чтения и перезагрузки
func (c *commandContext) catalog(s store.Store) *catalog.Catalog {
	return catalog.New(s.Voice(), nil, nil, nil, c.logger, c.cfg.TTS.PreviewText)
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
