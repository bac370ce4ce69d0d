package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edusphere/backend/core"
)

func newTestLimiter(now *time.Time) *Limiter {
	l := New(core.RateLimitConfig{
		PerMinute:        3,
		AuthPerMinute:    2,
		AITutorPerMinute: 2,
		AITutorPerHour:   3,
		AITutorPerDay:    4,
	})
	l.now = func() time.Time { return *now }
	return l
}

func TestLimiter_GeneralWindow(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 3; i++ {
		res := l.Admit("10.0.0.1", ClassGeneral)
		assert.True(t, res.Allowed, "request %d within budget", i)
	}

	res := l.Admit("10.0.0.1", ClassGeneral)
	assert.False(t, res.Allowed)
	assert.True(t, res.RetryAfter > 0)

	// a different client is unaffected
	assert.True(t, l.Admit("10.0.0.2", ClassGeneral).Allowed)

	// the window slides: after a minute the budget is back
	now = now.Add(61 * time.Second)
	assert.True(t, l.Admit("10.0.0.1", ClassGeneral).Allowed)
}

func TestLimiter_ClassesIndependent(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	assert.True(t, l.Admit("c", ClassAuth).Allowed)
	assert.True(t, l.Admit("c", ClassAuth).Allowed)
	assert.False(t, l.Admit("c", ClassAuth).Allowed)

	// auth exhaustion does not consume the general budget
	assert.True(t, l.Admit("c", ClassGeneral).Allowed)
}

func TestLimiter_AITutorStackedWindows(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	assert.True(t, l.Admit("c", ClassAITutor).Allowed)
	assert.True(t, l.Admit("c", ClassAITutor).Allowed)
	// minute budget (2) exhausted
	assert.False(t, l.Admit("c", ClassAITutor).Allowed)

	// minute window slides but the hour budget (3) only has one left
	now = now.Add(2 * time.Minute)
	assert.True(t, l.Admit("c", ClassAITutor).Allowed)
	res := l.Admit("c", ClassAITutor)
	assert.False(t, res.Allowed)
	// hour-window rejection reports the longer retry delay
	assert.True(t, res.RetryAfter > time.Minute)

	// rejected requests were not recorded: after the hour slides, the day
	// budget (4) has exactly one admission left
	now = now.Add(time.Hour)
	assert.True(t, l.Admit("c", ClassAITutor).Allowed)
	assert.False(t, l.Admit("c", ClassAITutor).Allowed)
}

func TestLimiter_ZeroBudgetRejectsEverything(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(core.RateLimitConfig{
		PerMinute:        0,
		AuthPerMinute:    2,
		AITutorPerMinute: 2,
		AITutorPerHour:   3,
		AITutorPerDay:    4,
	})
	l.now = func() time.Time { return now }

	// a disabled class rejects the very first request
	res := l.Admit("c", ClassGeneral)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	// and keeps rejecting; other classes are unaffected
	assert.False(t, l.Admit("c", ClassGeneral).Allowed)
	assert.True(t, l.Admit("c", ClassAuth).Allowed)
}

func TestLimiter_UnknownClassAdmitted(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(&now)
	assert.True(t, l.Admit("c", "no-such-class").Allowed)
}

func TestLimiter_Reset(t *testing.T) {
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	l.Admit("c", ClassAuth)
	l.Admit("c", ClassAuth)
	assert.False(t, l.Admit("c", ClassAuth).Allowed)

	l.Reset("c", ClassAuth)
	assert.True(t, l.Admit("c", ClassAuth).Allowed)
}
