package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	store, err := NewSQLiteStore(path, time.Second)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	lastRequest := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if err := store.Put(ctx, &User{
		UserID:        "demo_user",
		APIKey:        "sk-user-demo-001",
		DailyLimit:    500,
		RequestsToday: 7,
		TotalRequests: 99,
		LastRequest:   lastRequest,
		Active:        true,
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	user, err := store.Get(ctx, "sk-user-demo-001")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user == nil {
		t.Fatal("Get() = nil, want user")
	}
	if user.UserID != "demo_user" {
		t.Errorf("UserID = %q, want demo_user", user.UserID)
	}
	if user.DailyLimit != 500 || user.RequestsToday != 7 || user.TotalRequests != 99 {
		t.Errorf("counters = %d/%d/%d, want 500/7/99",
			user.DailyLimit, user.RequestsToday, user.TotalRequests)
	}
	if !user.LastRequest.Equal(lastRequest) {
		t.Errorf("LastRequest = %v, want %v", user.LastRequest, lastRequest)
	}
	if !user.Active {
		t.Error("Active = false, want true")
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store, _ := newTestSQLiteStore(t)

	user, err := store.Get(context.Background(), "sk-nobody")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user != nil {
		t.Errorf("Get() = %+v, want nil", user)
	}
}

func TestSQLiteStore_UpsertPreservesCreatedAt(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Put(ctx, &User{
		UserID:    "demo_user",
		APIKey:    "sk-user-demo-001",
		Active:    true,
		CreatedAt: createdAt,
	})
	store.Put(ctx, &User{
		UserID:     "demo_user",
		APIKey:     "sk-user-demo-001",
		DailyLimit: 1000,
		Active:     true,
		CreatedAt:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	})

	user, err := store.Get(ctx, "sk-user-demo-001")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user.DailyLimit != 1000 {
		t.Errorf("DailyLimit = %d, want updated to 1000", user.DailyLimit)
	}
	if !user.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt = %v, want original %v", user.CreatedAt, createdAt)
	}
}

func TestSQLiteStore_ListOrdered(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	store.Put(ctx, &User{UserID: "zoe", APIKey: "sk-z", Active: true})
	store.Put(ctx, &User{UserID: "adam", APIKey: "sk-a", Active: true})

	users, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2", len(users))
	}
	if users[0].UserID != "adam" || users[1].UserID != "zoe" {
		t.Errorf("order = %q, %q; want adam, zoe", users[0].UserID, users[1].UserID)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, time.Second)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	store.Put(ctx, &User{
		UserID:        "demo_user",
		APIKey:        "sk-user-demo-001",
		RequestsToday: 42,
		Active:        true,
	})
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path, time.Second)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	user, err := reopened.Get(ctx, "sk-user-demo-001")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user == nil || user.RequestsToday != 42 {
		t.Fatalf("got %+v, want requests_today 42 after reopen", user)
	}
}

func TestSQLiteStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "users.db")

	store, err := NewSQLiteStore(path, time.Second)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	store.Close()
}
