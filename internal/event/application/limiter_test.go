package application

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowLimiterDedupsWithinWindow(t *testing.T) {
	now := time.Now()
	l := newWindowLimiter(10 * time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("u1_p1_view"))
	assert.False(t, l.Allow("u1_p1_view"))

	// 不同的键互不影响
	assert.True(t, l.Allow("u1_p2_view"))
	assert.True(t, l.Allow("u2_p1_view"))
}

func TestWindowLimiterAllowsAfterWindow(t *testing.T) {
	now := time.Now()
	l := newWindowLimiter(10 * time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k"))

	now = now.Add(9 * time.Second)
	assert.False(t, l.Allow("k"))

	now = now.Add(2 * time.Second)
	assert.True(t, l.Allow("k"))
}

func TestWindowLimiterSweepsExpiredEntries(t *testing.T) {
	now := time.Now()
	l := newWindowLimiter(10 * time.Second)
	l.now = func() time.Time { return now }

	for i := 0; i <= sweepThreshold; i++ {
		l.Allow(fmt.Sprintf("key-%d", i))
	}

	// 窗口过后的下一次写入触发清扫
	now = now.Add(11 * time.Second)
	l.Allow("fresh")
	assert.LessOrEqual(t, len(l.entries), 2)
}
