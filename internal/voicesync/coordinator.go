package voicesync

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"voicefy/internal/apperr"
	"voicefy/pkg/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Provider возвращает текущий каталог голосов внешнего провайдера
type Provider interface {
	ListVoices(ctx context.Context) ([]models.ProviderVoice, error)
}

// Upserter вставляет голос провайдера или обновляет только его имя
type Upserter interface {
	UpsertProviderVoice(ctx context.Context, pv models.ProviderVoice) (inserted bool, err error)
}

// Reloader перезагружает каталог после синхронизации
type Reloader interface {
	Load(ctx context.Context) ([]models.Voice, error)
}

// Metrics интерфейс для метрик синхронизации
type Metrics interface {
	RecordSync(status string, inserted, updated, failed int)
}

// Result - итог синхронизации
type Result struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// Coordinator сверяет локальный каталог с каталогом провайдера через upsert по external_id.
// Видимость, владелец и превью - локально курируемые поля, синхронизация их не трогает.
type Coordinator struct {
	provider    Provider
	upserter    Upserter
	catalog     Reloader
	metrics     Metrics
	logger      *zap.Logger
	concurrency int

	running sync.Mutex
}

// NewCoordinator создает координатор синхронизации
func NewCoordinator(provider Provider, upserter Upserter, catalog Reloader, metrics Metrics, logger *zap.Logger, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Coordinator{
		provider:    provider,
		upserter:    upserter,
		catalog:     catalog,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Sync выполняет upsert каждого голоса провайдера и перезагружает каталог.
// Ошибка одного upsert не прерывает остальные; уже примененные изменения не откатываются.
func (c *Coordinator) Sync(ctx context.Context) (Result, error) {
	if !c.running.TryLock() {
		return Result{}, fmt.Errorf("синхронизация уже выполняется: %w", apperr.ErrInvalidState)
	}
	defer c.running.Unlock()

	c.logger.Info("начало синхронизации голосов")

	remote, err := c.provider.ListVoices(ctx)
	if err != nil {
		c.record("error", Result{})
		c.logger.Error("ошибка получения голосов провайдера", zap.Error(err))
		return Result{}, fmt.Errorf("ошибка получения голосов провайдера: %w", err)
	}
	entries := dedupe(remote)

	var (
		mu     sync.Mutex
		res    = Result{Fetched: len(entries)}
		errAll error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, pv := range entries {
		g.Go(func() error {
			inserted, err := c.upserter.UpsertProviderVoice(gctx, pv)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				errAll = multierr.Append(errAll, fmt.Errorf("голос %s: %w", pv.ExternalID, err))
				c.logger.Warn("ошибка upsert голоса",
					zap.String("external_id", pv.ExternalID),
					zap.Error(err))
			case inserted:
				res.Inserted++
			default:
				res.Updated++
			}
			// ошибки собираются в errAll, чтобы не отменять gctx для остальных
			return nil
		})
	}
	_ = g.Wait()

	if _, err := c.catalog.Load(ctx); err != nil {
		errAll = multierr.Append(errAll, err)
	}

	if errAll != nil {
		c.record("partial", res)
		c.logger.Error("синхронизация завершена с ошибками",
			zap.Int("fetched", res.Fetched),
			zap.Int("failed", res.Failed),
			zap.Error(errAll))
		return res, fmt.Errorf("ошибка синхронизации голосов: %w", errAll)
	}

	c.record("success", res)
	c.logger.Info("синхронизация голосов завершена",
		zap.Int("fetched", res.Fetched),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated))

	return res, nil
}

// Plan считает, что изменит синхронизация, ничего не записывая
func (c *Coordinator) Plan(ctx context.Context) (Result, error) {
	remote, err := c.provider.ListVoices(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ошибка получения голосов провайдера: %w", err)
	}
	local, err := c.catalog.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	known := make(map[string]struct{}, len(local))
	for _, v := range local {
		known[v.ExternalID] = struct{}{}
	}

	entries := dedupe(remote)
	res := Result{Fetched: len(entries)}
	for _, pv := range entries {
		if _, ok := known[pv.ExternalID]; ok {
			res.Updated++
		} else {
			res.Inserted++
		}
	}
	return res, nil
}

// Errors раскрывает агрегированную ошибку синхронизации
func Errors(err error) []error {
	return multierr.Errors(err)
}

// dedupe убирает пустые и повторяющиеся external_id, последнее имя побеждает
func dedupe(voices []models.ProviderVoice) []models.ProviderVoice {
	pos := make(map[string]int, len(voices))
	out := make([]models.ProviderVoice, 0, len(voices))
	for _, pv := range voices {
		pv.ExternalID = strings.TrimSpace(pv.ExternalID)
		if pv.ExternalID == "" {
			continue
		}
		if i, ok := pos[pv.ExternalID]; ok {
			out[i] = pv
			continue
		}
		pos[pv.ExternalID] = len(out)
		out = append(out, pv)
	}
	return out
}

func (c *Coordinator) record(status string, res Result) {
	if c.metrics != nil {
		c.metrics.RecordSync(status, res.Inserted, res.Updated, res.Failed)
	}
}
