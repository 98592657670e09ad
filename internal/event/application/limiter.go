package application

import (
	"sync"
	"time"
)

const sweepThreshold = 1000

// windowLimiter 进程内固定窗口去重器：同一主体对同一商品的同类事件，
// 窗口期内只记一次。条目超过阈值时顺带清扫过期键，避免无界增长。
type windowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newWindowLimiter(window time.Duration) *windowLimiter {
	return &windowLimiter{
		window:  window,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Allow 窗口内首次出现返回 true 并记录，重复返回 false
func (l *windowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.entries[key]; ok && now.Sub(last) < l.window {
		return false
	}

	if len(l.entries) > sweepThreshold {
		for k, t := range l.entries {
			if now.Sub(t) >= l.window {
				delete(l.entries, k)
			}
		}
	}

	l.entries[key] = now
	return true
}
