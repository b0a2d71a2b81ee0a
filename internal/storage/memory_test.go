package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hammamikhairi/cookplan/internal/domain"
	"github.com/hammamikhairi/cookplan/internal/logger"
)

func testSnapshot(id string, status domain.SessionStatus, updated time.Time) *domain.Snapshot {
	p := domain.NewCookPlan("plan-1", nil, "Test plan", 2, nil, []domain.Stage{
		{Key: "A", Instruction: "Do A", Trigger: domain.TriggerManualAdvance},
	})
	s := domain.NewCookSession(id, p)
	s.Status = status
	s.UpdatedAt = updated
	return &domain.Snapshot{Plan: p, Session: s}
}

func TestMemoryStoreCRUD(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemoryStore(log)
	ctx := context.Background()
	now := time.Now()

	snap := testSnapshot("test-session-1", domain.SessionRunning, now)

	// Save.
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	snap.Session.StageStates["A"] = domain.StageRuntime{Status: domain.StageSkipped}

	// Load.
	loaded, err := store.Load(ctx, "test-session-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Session.ID != "test-session-1" || loaded.Plan.ID != "plan-1" {
		t.Fatalf("unexpected snapshot %+v", loaded.Session)
	}
	if loaded.Session.StageStates["A"].Status != domain.StagePending {
		t.Fatal("store shares session state with the caller")
	}

	// Load nonexistent.
	if _, err := store.Load(ctx, "nonexistent"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// ListActive.
	store.Save(ctx, testSnapshot("paused", domain.SessionPaused, now.Add(time.Minute)))
	store.Save(ctx, testSnapshot("done", domain.SessionCompleted, now.Add(2*time.Minute)))
	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(active))
	}
	if active[0].Session.ID != "paused" {
		t.Fatalf("expected most recent first, got %s", active[0].Session.ID)
	}

	// Delete.
	if err := store.Delete(ctx, "test-session-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "test-session-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryLog(t *testing.T) {
	log := NewMemoryLog(logger.New(logger.LevelOff, nil))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	for i, id := range []string{"s1", "s2", "s3"} {
		entry := &domain.CookLogEntry{SessionID: id, PlanTitle: "Ribs", CookedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := log.Append(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	if err := log.Append(ctx, &domain.CookLogEntry{SessionID: "s2"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := log.Get(ctx, "s2")
	if err != nil || got.PlanTitle != "Ribs" {
		t.Fatalf("get: %v %+v", err, got)
	}
	if _, err := log.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	tests := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"all", 0, 0, []string{"s3", "s2", "s1"}},
		{"limit", 2, 0, []string{"s3", "s2"}},
		{"offset", 0, 1, []string{"s2", "s1"}},
		{"past end", 5, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := log.List(ctx, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(list))
			}
			for i, e := range list {
				if e.SessionID != tt.want[i] {
					t.Fatalf("entry %d: expected %s, got %s", i, tt.want[i], e.SessionID)
				}
			}
		})
	}
}
