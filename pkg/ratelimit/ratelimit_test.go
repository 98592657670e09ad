package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerSecond(t *testing.T) {
	limit := PerSecond(100, 200)
	assert.Equal(t, Limit{Rate: 100, Period: time.Second, Burst: 200}, limit)

	// burst 未配置时退化为 qps
	assert.Equal(t, 100, PerSecond(100, 0).Burst)
}
