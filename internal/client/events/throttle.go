package events

import (
	"sync"
	"time"
)

// Throttle ограничитель частоты триггеров на основе токен-бакета (token bucket).
// Ключ бакета - тип сигнала.
type Throttle struct {
	buckets map[Kind]*bucket
	now     func() time.Time
	rate    int
	window  time.Duration
	mu      sync.Mutex
}

// bucket представляет bucket для конкретного типа сигнала
type bucket struct {
	lastRefill time.Time
	tokens     int
}

// NewThrottle создает новый ограничитель.
// rate - максимальное количество триггеров за window.
// Неположительный rate отключает ограничение.
func NewThrottle(rate int, window time.Duration) *Throttle {
	return &Throttle{
		buckets: make(map[Kind]*bucket),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow проверяет, разрешен ли триггер. При отказе возвращает время до пополнения бакета.
func (t *Throttle) Allow(kind Kind) (bool, time.Duration) {
	if t == nil || t.rate <= 0 || t.window <= 0 {
		return true, 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, exists := t.buckets[kind]
	if !exists {
		b = &bucket{tokens: t.rate, lastRefill: now}
		t.buckets[kind] = b
	}

	// Пополняем токены на основе прошедшего времени
	if now.Sub(b.lastRefill) >= t.window {
		b.tokens = t.rate
		b.lastRefill = now
	}

	// Проверяем, есть ли доступные токены
	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}

	return false, b.lastRefill.Add(t.window).Sub(now)
}
