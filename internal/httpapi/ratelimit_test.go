package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(rate.Every(time.Hour), 1)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.Equal(t, 2, l.size())

	// 10.0.0.2 stays active while 10.0.0.1 goes quiet
	now = now.Add(limiterIdleTTL / 2)
	assert.False(t, l.allow("10.0.0.2"))

	now = now.Add(limiterIdleTTL / 2)
	assert.True(t, l.allow("10.0.0.3"))
	assert.Equal(t, 2, l.size())

	// a fresh bucket after eviction
	assert.True(t, l.allow("10.0.0.1"))
	assert.Equal(t, 3, l.size())
}
