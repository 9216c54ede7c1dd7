package retention

import (
	"context"
	"testing"
	"time"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/usage"
	"meridian-hq/meridian/pkg/usage/storage"
)

func seedRecords(t *testing.T, s usage.Storage, ages ...time.Duration) {
	t.Helper()
	ctx := context.Background()
	for i, age := range ages {
		err := s.Save(ctx, &usage.Record{
			ID:        time.Now().Add(-age).Format(time.RFC3339Nano),
			RequestID: "req",
			UserID:    "alice",
			Timestamp: time.Now().Add(-age),
		})
		if err != nil {
			t.Fatalf("seeding record %d: %v", i, err)
		}
	}
}

func TestPrunerDeletesOldRecords(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedRecords(t, store,
		40*24*time.Hour, // past the window
		35*24*time.Hour, // past the window
		10*24*time.Hour,
		time.Hour,
	)

	p := NewPruner(store, config.UsageRetentionConfig{Days: 30})

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() returned error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 records pruned, got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("expected 2 records remaining, got %d", store.Size())
	}
}

func TestPrunerStartRejectsBadSchedule(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(), config.UsageRetentionConfig{
		Days:          30,
		PruneSchedule: "not a cron expression",
	})

	if err := p.Start(context.Background()); err == nil {
		t.Error("expected error for invalid cron schedule")
	}
}

func TestPrunerStartSkipsWhenDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.UsageRetentionConfig
	}{
		{"empty schedule", config.UsageRetentionConfig{Days: 30}},
		{"zero days", config.UsageRetentionConfig{PruneSchedule: "0 3 * * *"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPruner(storage.NewMemoryStorage(), tt.cfg)
			if err := p.Start(context.Background()); err != nil {
				t.Fatalf("Start() returned error: %v", err)
			}
			if !p.NextPruning().IsZero() {
				t.Error("expected no pruning scheduled")
			}
			p.Stop()
		})
	}
}

func TestPrunerSchedulesNextRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPruner(storage.NewMemoryStorage(), config.UsageRetentionConfig{
		Days:          30,
		PruneSchedule: "0 3 * * *",
	})
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	defer p.Stop()

	next := p.NextPruning()
	if next.IsZero() {
		t.Fatal("expected a next pruning time")
	}
	if next.Before(time.Now()) {
		t.Errorf("next pruning time %v is in the past", next)
	}
}
