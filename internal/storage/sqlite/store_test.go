package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/internal/storage/storagetest"
)

func setupTestSQLiteStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"), nil)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store, func() { store.Close() }
}

func TestProviderConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		store, cleanup := setupTestSQLiteStore(t)
		t.Cleanup(cleanup)
		return store
	})
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.db"), nil)
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail before init")
	}
}

func TestLoadAfterInit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "habits.db")

	first := NewStore(path, nil)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	h := storagetest.Habit("Drink water", 0)
	if err := first.AddHabit(ctx, h); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	first.Close()

	second := NewStore(path, nil)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer second.Close()

	got, err := second.GetHabit(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHabit after reopen failed: %v", err)
	}
	if got.Title != "Drink water" {
		t.Errorf("Title = %q", got.Title)
	}
	if second.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %s", second.GetConfigPath())
	}
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "habits.db")
	for i := 0; i < 2; i++ {
		s := NewStore(path, nil)
		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init #%d failed: %v", i+1, err)
		}
		s.Close()
	}
}
