// Package guard enforces single-flight request processing per chat and
// per-user rate limiting for incoming messages.
package guard

import (
	"sync"
	"time"
)

const (
	// cleanupInterval is how often idle rate entries are removed
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long before an idle user entry is dropped
	idleTimeout = 10 * time.Minute
)

// Guard tracks in-flight requests per chat and message rates per user.
// A chat with an in-flight request silently drops further requests until
// the current one releases its slot.
type Guard struct {
	rateLimit  int
	rateWindow time.Duration

	inFlight map[string]bool       // Key: chatID
	rates    map[string]*userEntry // Key: "chatID:userID"
	mutex    sync.Mutex

	stopCleanup chan struct{}
}

// userEntry tracks message timestamps for a user in a chat
type userEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a Guard allowing rateLimit messages per user within window.
func New(rateLimit int, window time.Duration) *Guard {
	g := &Guard{
		rateLimit:   rateLimit,
		rateWindow:  window,
		inFlight:    make(map[string]bool),
		rates:       make(map[string]*userEntry),
		stopCleanup: make(chan struct{}),
	}

	go g.cleanup()

	return g
}

// Stop stops the background cleanup goroutine
func (g *Guard) Stop() {
	close(g.stopCleanup)
}

// TryAcquire claims the processing slot for a chat. It returns false when
// a request for that chat is already in flight.
func (g *Guard) TryAcquire(chatID string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.inFlight[chatID] {
		return false
	}

	g.inFlight[chatID] = true
	return true
}

// Release frees the processing slot for a chat. Safe to call multiple
// times for the same chat.
func (g *Guard) Release(chatID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	delete(g.inFlight, chatID)
}

// InFlight reports whether a request is currently being processed for chatID.
func (g *Guard) InFlight(chatID string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.inFlight[chatID]
}

// CheckRate records a message from the user and reports whether it falls
// within the allowed rate. Blocked messages are not recorded.
func (g *Guard) CheckRate(chatID, userID string) bool {
	key := chatID + ":" + userID
	now := time.Now()

	g.mutex.Lock()
	defer g.mutex.Unlock()

	entry, exists := g.rates[key]
	if !exists {
		entry = &userEntry{
			timestamps: make([]time.Time, 0, g.rateLimit+1),
		}
		g.rates[key] = entry
	}

	entry.lastSeen = now

	// Drop timestamps outside the window
	windowStart := now.Add(-g.rateWindow)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= g.rateLimit {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

// cleanup removes idle rate entries to prevent unbounded growth
func (g *Guard) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.performCleanup()
		case <-g.stopCleanup:
			return
		}
	}
}

func (g *Guard) performCleanup() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	cutoff := time.Now().Add(-idleTimeout)
	for key, entry := range g.rates {
		if entry.lastSeen.Before(cutoff) {
			delete(g.rates, key)
		}
	}
}
