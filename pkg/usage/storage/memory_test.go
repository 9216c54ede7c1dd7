package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meridian-hq/meridian/pkg/usage"
)

func sampleRecord(i int, ts time.Time) *usage.Record {
	return &usage.Record{
		ID:          fmt.Sprintf("rec-%03d", i),
		RequestID:   fmt.Sprintf("req-%03d", i),
		UserID:      "alice",
		Provider:    "openai",
		Model:       "gpt-4",
		MappedModel: "gpt-4-turbo",
		Streaming:   i%2 == 0,
		Transport:   "buffered",
		StatusCode:  200,
		LatencyMs:   int64(10 + i),
		Timestamp:   ts,
	}
}

func TestMemoryStorageSaveAndList(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		if err := s.Save(ctx, sampleRecord(i, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Save() returned error: %v", err)
		}
	}

	records, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	if records[0].ID != "rec-004" {
		t.Errorf("expected newest record first, got %s", records[0].ID)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2) returned error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(limited))
	}
}

func TestMemoryStorageCopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	rec := sampleRecord(0, time.Now())
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	rec.UserID = "mutated"

	records, _ := s.List(ctx, 0)
	if records[0].UserID != "alice" {
		t.Error("stored record was mutated through the caller's pointer")
	}

	records[0].UserID = "mutated-again"
	again, _ := s.List(ctx, 0)
	if again[0].UserID != "alice" {
		t.Error("listed record shares state with the store")
	}
}

func TestMemoryStorageCleanup(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 6; i++ {
		s.Save(ctx, sampleRecord(i, base.Add(time.Duration(i)*time.Hour)))
	}

	deleted, err := s.Cleanup(ctx, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Cleanup() returned error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 records deleted, got %d", deleted)
	}
	if s.Size() != 3 {
		t.Errorf("expected 3 records remaining, got %d", s.Size())
	}
}
