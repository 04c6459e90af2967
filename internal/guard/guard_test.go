package guard

import (
	"testing"
	"time"
)

func TestGuard_TryAcquire_SingleFlight(t *testing.T) {
	g := New(5, time.Minute)
	defer g.Stop()

	if !g.TryAcquire("chat1") {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire("chat1") {
		t.Error("second acquire for the same chat should fail")
	}
	if !g.TryAcquire("chat2") {
		t.Error("acquire for a different chat should succeed")
	}

	g.Release("chat1")
	if !g.TryAcquire("chat1") {
		t.Error("acquire after release should succeed")
	}
}

func TestGuard_Release_Idempotent(t *testing.T) {
	g := New(5, time.Minute)
	defer g.Stop()

	g.TryAcquire("chat1")
	g.Release("chat1")
	g.Release("chat1")

	if g.InFlight("chat1") {
		t.Error("chat should not be in flight after release")
	}
}

func TestGuard_CheckRate(t *testing.T) {
	g := New(3, time.Minute)
	defer g.Stop()

	for i := 0; i < 3; i++ {
		if !g.CheckRate("chat1", "user1") {
			t.Errorf("message %d should be allowed", i+1)
		}
	}
	if g.CheckRate("chat1", "user1") {
		t.Error("4th message should be blocked")
	}

	// Other users are unaffected
	if !g.CheckRate("chat1", "user2") {
		t.Error("different user should be allowed")
	}
}

func TestGuard_CheckRate_WindowExpiry(t *testing.T) {
	g := New(2, time.Minute)
	defer g.Stop()

	g.CheckRate("chat1", "user1")
	g.CheckRate("chat1", "user1")
	if g.CheckRate("chat1", "user1") {
		t.Error("third message should be blocked")
	}

	// Age the recorded timestamps past the window
	key := "chat1:user1"
	g.mutex.Lock()
	if entry, ok := g.rates[key]; ok {
		past := time.Now().Add(-61 * time.Second)
		for i := range entry.timestamps {
			entry.timestamps[i] = past
		}
	}
	g.mutex.Unlock()

	if !g.CheckRate("chat1", "user1") {
		t.Error("message after window expiry should be allowed")
	}
}
