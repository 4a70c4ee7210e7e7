package memory

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager()
	s := m.Create("operator")
	if s.ID == "" {
		t.Fatal("session id empty")
	}
	if s.UserID != "operator" {
		t.Fatalf("user=%q", s.UserID)
	}

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatal("created session not retrievable")
	}

	s.Set("cycle", 3)
	if v, ok := s.Get("cycle"); !ok || v != 3 {
		t.Fatalf("cycle=%v ok=%v", v, ok)
	}

	m.Delete(s.ID)
	if _, ok := m.Get(s.ID); ok {
		t.Fatal("deleted session still retrievable")
	}
}

func TestCleanupStaleDropsOnlyIdleSessions(t *testing.T) {
	m := NewSessionManager()
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	stale := m.Create("old")
	clock = clock.Add(2 * time.Hour)
	fresh := m.Create("new")

	removed := m.CleanupStale(time.Hour)
	if removed != 1 {
		t.Fatalf("removed=%d want=1", removed)
	}
	if _, ok := m.Get(stale.ID); ok {
		t.Fatal("stale session survived cleanup")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Fatal("fresh session dropped by cleanup")
	}
}
