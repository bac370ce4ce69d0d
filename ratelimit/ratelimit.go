// Package ratelimit caps request volume per client address within rolling
// windows. Route classes carry independent window/limit pairs; the AI-tutor
// class stacks minute, hour and day windows.
package ratelimit

import (
	"sync"
	"time"

	"github.com/edusphere/backend/core"
)

// Route classes.
const (
	ClassGeneral = "general"
	ClassAuth    = "auth"
	ClassAITutor = "aitutor"
)

type (
	// WindowLimit pairs a rolling window with its request budget.
	WindowLimit struct {
		Window time.Duration
		Limit  int
	}

	// Result is the admission decision. RetryAfter is only meaningful when
	// Allowed is false.
	Result struct {
		Allowed    bool
		RetryAfter time.Duration
	}

	window struct {
		mu       sync.Mutex
		requests []time.Time
	}

	// Limiter tracks request timestamps per (client key, route class,
	// window). Rejection never partially processes a request: Admit either
	// records the hit in every window of the class or in none.
	Limiter struct {
		mu      sync.Mutex
		classes map[string][]WindowLimit
		windows map[string]*window
		now     func() time.Time
	}
)

// New builds a limiter with the configured class budgets.
func New(conf core.RateLimitConfig) *Limiter {
	l := &Limiter{
		classes: make(map[string][]WindowLimit),
		windows: make(map[string]*window),
		now:     time.Now,
	}
	l.classes[ClassGeneral] = []WindowLimit{{Window: time.Minute, Limit: conf.PerMinute}}
	l.classes[ClassAuth] = []WindowLimit{{Window: time.Minute, Limit: conf.AuthPerMinute}}
	l.classes[ClassAITutor] = []WindowLimit{
		{Window: time.Minute, Limit: conf.AITutorPerMinute},
		{Window: time.Hour, Limit: conf.AITutorPerHour},
		{Window: 24 * time.Hour, Limit: conf.AITutorPerDay},
	}
	return l
}

func (l *Limiter) getWindow(key string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	return w
}

// Admit records a request for clientKey under routeClass and reports whether
// it fits every window budget. An unknown class is admitted.
func (l *Limiter) Admit(clientKey, routeClass string) Result {
	limits, ok := l.classes[routeClass]
	if !ok {
		return Result{Allowed: true}
	}

	now := l.now()

	// check every window before recording in any
	type checked struct {
		w     *window
		limit WindowLimit
	}
	wins := make([]checked, 0, len(limits))
	for _, wl := range limits {
		wins = append(wins, checked{
			w:     l.getWindow(clientKey + ":" + routeClass + ":" + wl.Window.String()),
			limit: wl,
		})
	}

	for _, c := range wins {
		c.w.mu.Lock()
	}
	defer func() {
		for _, c := range wins {
			c.w.mu.Unlock()
		}
	}()

	var worstRetry time.Duration
	for _, c := range wins {
		start := now.Add(-c.limit.Window)
		valid := c.w.requests[:0]
		for _, ts := range c.w.requests {
			if ts.After(start) {
				valid = append(valid, ts)
			}
		}
		c.w.requests = valid

		if len(c.w.requests) >= c.limit.Limit {
			// a zero budget rejects before anything is recorded
			retry := c.limit.Window
			if len(c.w.requests) > 0 {
				retry = c.w.requests[0].Add(c.limit.Window).Sub(now)
			}
			if retry > worstRetry {
				worstRetry = retry
			}
		}
	}
	if worstRetry > 0 {
		return Result{Allowed: false, RetryAfter: worstRetry}
	}

	for _, c := range wins {
		c.w.requests = append(c.w.requests, now)
	}
	return Result{Allowed: true}
}

// Reset forgets every window tracked for clientKey under routeClass.
func (l *Limiter) Reset(clientKey, routeClass string) {
	limits := l.classes[routeClass]
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, wl := range limits {
		delete(l.windows, clientKey+":"+routeClass+":"+wl.Window.String())
	}
}
