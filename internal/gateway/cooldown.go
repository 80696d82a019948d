// ABOUTME: Thread-safe cooldown scheduler for rate-limited providers.
// ABOUTME: Owns one timer per provider and fires a callback when the cooldown expires.

package gateway

import (
	"sync"
	"time"
)

// rateLimitCooldown is how long a rate-limited provider stays out of the
// candidate rotation before being re-enabled without a probe.
const rateLimitCooldown = time.Hour

// cooldownScheduler tracks one pending timer per provider name. Scheduling a
// provider that already has a timer replaces it, restarting the cooldown.
type cooldownScheduler struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	onExpire func(name string)
	closed   bool
}

// newCooldownScheduler creates a scheduler that calls onExpire with the
// provider name when its cooldown elapses.
func newCooldownScheduler(onExpire func(name string)) *cooldownScheduler {
	return &cooldownScheduler{
		timers:   make(map[string]*time.Timer),
		onExpire: onExpire,
	}
}

// Schedule arms a cooldown for the named provider, replacing any pending one.
func (s *cooldownScheduler) Schedule(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if timer, ok := s.timers[name]; ok {
		timer.Stop()
	}
	s.timers[name] = time.AfterFunc(d, func() {
		s.expire(name)
	})
}

// expire removes the timer entry and notifies the owner.
func (s *cooldownScheduler) expire(name string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, name)
	s.mu.Unlock()

	s.onExpire(name)
}

// Cancel stops any pending cooldown for the named provider.
func (s *cooldownScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[name]; ok {
		timer.Stop()
		delete(s.timers, name)
	}
}

// Close stops all pending timers. It is safe to call multiple times.
func (s *cooldownScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for name, timer := range s.timers {
		timer.Stop()
		delete(s.timers, name)
	}
}
