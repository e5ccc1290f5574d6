package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler управляет запуском периодических задач
type Scheduler struct {
	logger *zap.Logger

	mu   sync.Mutex
	jobs []Job
}

// Job интерфейс для периодических задач
type Job interface {
	Run(ctx context.Context) error
}

// Named - задача с именем для логов
type Named interface {
	Name() string
}

// NewScheduler создает новый планировщик задач
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		jobs:   make([]Job, 0),
	}
}

// AddJob добавляет задачу в планировщик
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start запускает планировщик с указанным интервалом и блокируется до отмены ctx.
// Нулевой или отрицательный интервал отключает периодический запуск.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("периодические задачи отключены")
		return
	}

	s.logger.Info("запуск планировщика задач",
		zap.Duration("interval", interval),
		zap.Int("jobs_count", s.count()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Запускаем задачи сразу при старте
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("остановка планировщика задач")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce последовательно запускает все зарегистрированные задачи и возвращает число ошибок
func (s *Scheduler) RunOnce(ctx context.Context) int {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	failed := 0
	for i, job := range jobs {
		if ctx.Err() != nil {
			return failed
		}

		name := jobName(job)
		start := time.Now()
		s.logger.Debug("запуск задачи", zap.Int("job_index", i), zap.String("job", name))

		if err := job.Run(ctx); err != nil {
			failed++
			s.logger.Error("ошибка выполнения задачи",
				zap.Error(err),
				zap.Int("job_index", i),
				zap.String("job", name))
			continue
		}

		s.logger.Debug("задача выполнена",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)))
	}
	return failed
}

func (s *Scheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func jobName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", job)
}
