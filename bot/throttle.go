package bot

import (
	"sync"
	"time"
)

const (
	throttleCooldownCapSeconds = 30
	// A chat quiet for this long starts a new refusal streak.
	throttleStreakWindow = 10 * time.Minute
)

// replyThrottle limits how often the bot answers a chat that is not allowed
// to use it. Each refused command doubles the chat's cooldown up to 30s;
// commands inside the cooldown get no reply at all.
type replyThrottle struct {
	mu    sync.Mutex
	now   func() time.Time
	chats map[int64]*throttleEntry
}

type throttleEntry struct {
	failCount     int
	lastRefusal   time.Time
	cooldownUntil time.Time
}

func newReplyThrottle(now func() time.Time) *replyThrottle {
	if now == nil {
		now = time.Now
	}
	return &replyThrottle{now: now, chats: make(map[int64]*throttleEntry)}
}

// waitSeconds returns how many seconds chatID must wait before the next
// reply (0 if no cooldown).
func (t *replyThrottle) waitSeconds(chatID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.chats[chatID]
	if !ok {
		return 0
	}
	now := t.now()
	if now.Before(e.cooldownUntil) {
		return int(e.cooldownUntil.Sub(now).Seconds()) + 1 // round up
	}
	return 0
}

// recordRefused bumps the fail count and sets cooldown_until = now +
// min(30, 2^failCount) seconds. Chats whose streak has gone stale are
// forgotten here too, so the map only holds recently refused chats.
func (t *replyThrottle) recordRefused(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for id, e := range t.chats {
		if now.Sub(e.lastRefusal) > throttleStreakWindow {
			delete(t.chats, id)
		}
	}
	e, ok := t.chats[chatID]
	if !ok {
		e = &throttleEntry{}
		t.chats[chatID] = e
	}
	e.failCount++
	e.lastRefusal = now
	e.cooldownUntil = now.Add(time.Duration(cooldownSecondsForFailCount(e.failCount)) * time.Second)
}

// cooldownSecondsForFailCount returns min(30, 2^failCount).
func cooldownSecondsForFailCount(failCount int) int {
	if failCount < 0 {
		failCount = 0
	}
	// 2^5 is already past the cap; larger shifts would overflow.
	if failCount >= 5 {
		return throttleCooldownCapSeconds
	}
	return 1 << failCount
}
