package bot

import (
	"sync"
	"time"
)

const (
	// MaxRequestsPerMinute - максимум запросов в минуту на чат
	MaxRequestsPerMinute = 30
	RateLimitWindow      = time.Minute
)

// RateLimiter простой rate limiter для чатов
type RateLimiter struct {
	limit    int
	window   time.Duration
	requests map[int64][]time.Time
	mutex    sync.Mutex
	now      func() time.Time
}

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		requests: make(map[int64][]time.Time),
		now:      time.Now,
	}
}

// IsAllowed проверяет, разрешен ли запрос для чата
func (rl *RateLimiter) IsAllowed(chatID int64) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()

	// Удаляем старые запросы
	valid := rl.requests[chatID][:0]
	for _, t := range rl.requests[chatID] {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[chatID] = valid
		return false
	}

	rl.requests[chatID] = append(valid, now)
	return true
}
