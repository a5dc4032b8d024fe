package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"todoapp/internal/models"
)

// fakeClock hands out times that advance by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func setupTestDB(t *testing.T, opts ...Option) *SQLStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", opts...)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsert(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	todo, err := store.Insert(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if todo.ID == "" {
		t.Error("expected id to be set")
	}
	if todo.Title != "Buy milk" {
		t.Errorf("expected title %q, got %q", "Buy milk", todo.Title)
	}
	if todo.Completed {
		t.Error("expected completed to default to false")
	}
	if todo.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}
	if !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Errorf("expected createdAt == updatedAt, got %v and %v", todo.CreatedAt, todo.UpdatedAt)
	}
}

func TestInsert_EmptyTitle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"", "   "} {
		_, err := store.Insert(ctx, title)
		if !errors.Is(err, models.ErrTitleRequired) {
			t.Errorf("Insert(%q): expected ErrTitleRequired, got %v", title, err)
		}
	}

	todos, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected no todos, got %d", len(todos))
	}
}

func TestInsert_UniqueIDs(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		todo, err := store.Insert(ctx, fmt.Sprintf("Todo %d", i))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if seen[todo.ID] {
			t.Fatalf("duplicate id %q", todo.ID)
		}
		seen[todo.ID] = true
	}
}

func TestListAll_Empty(t *testing.T) {
	store := setupTestDB(t)

	todos, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if todos == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(todos) != 0 {
		t.Errorf("expected 0 todos, got %d", len(todos))
	}
}

func TestListAll_NewestFirst(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
	store := setupTestDB(t, WithClock(clock.Now))
	ctx := context.Background()

	for _, title := range []string{"t1", "t2", "t3"} {
		if _, err := store.Insert(ctx, title); err != nil {
			t.Fatalf("Insert(%s) failed: %v", title, err)
		}
	}

	got, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	expectedOrder := []string{"t3", "t2", "t1"}
	if len(got) != len(expectedOrder) {
		t.Fatalf("expected %d todos, got %d", len(expectedOrder), len(got))
	}
	for i, title := range expectedOrder {
		if got[i].Title != title {
			t.Errorf("position %d: expected %q, got %q", i, title, got[i].Title)
		}
	}
}

func TestListAll_SameTimestampUsesInsertionOrder(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := setupTestDB(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	store.Insert(ctx, "first")
	store.Insert(ctx, "second")

	got, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if got[0].Title != "second" || got[1].Title != "first" {
		t.Errorf("expected [second first], got [%s %s]", got[0].Title, got[1].Title)
	}
}

func TestListAll_RoundTripsTimestamps(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 15, 123456789, time.UTC)
	store := setupTestDB(t, WithClock(func() time.Time { return created }))
	ctx := context.Background()

	inserted, _ := store.Insert(ctx, "precise")

	got, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if !got[0].CreatedAt.Equal(inserted.CreatedAt) {
		t.Errorf("expected createdAt %v, got %v", inserted.CreatedAt, got[0].CreatedAt)
	}
	if !got[0].CreatedAt.Equal(created.Truncate(time.Microsecond)) {
		t.Errorf("expected microsecond precision, got %v", got[0].CreatedAt)
	}
}

func TestUpdateByID_PartialFields(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	todo, _ := store.Insert(ctx, "Original")

	updated, err := store.UpdateByID(ctx, todo.ID, models.TitlePatch("Renamed"))
	if err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("expected title %q, got %q", "Renamed", updated.Title)
	}
	if updated.Completed {
		t.Error("expected completed to stay false on title update")
	}

	updated, err = store.UpdateByID(ctx, todo.ID, models.CompletedPatch(true))
	if err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("expected title to stay %q, got %q", "Renamed", updated.Title)
	}
	if !updated.Completed {
		t.Error("expected completed to be true")
	}
	if !updated.CreatedAt.Equal(todo.CreatedAt) {
		t.Errorf("expected createdAt to be unchanged, got %v", updated.CreatedAt)
	}

	all, _ := store.ListAll(ctx)
	if len(all) != 1 || all[0].Title != "Renamed" || !all[0].Completed {
		t.Errorf("unexpected persisted state: %#v", all)
	}
}

func TestUpdateByID_DoesNotRevalidateTitle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	todo, _ := store.Insert(ctx, "Original")

	updated, err := store.UpdateByID(ctx, todo.ID, models.TitlePatch(""))
	if err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	if updated.Title != "" {
		t.Errorf("expected empty title to be stored, got %q", updated.Title)
	}
}

func TestUpdateByID_ToggleTwiceAdvancesUpdatedAt(t *testing.T) {
	// A frozen clock forces the store to bump updated_at itself.
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := setupTestDB(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	todo, _ := store.Insert(ctx, "Toggle me")

	first, err := store.UpdateByID(ctx, todo.ID, models.CompletedPatch(!todo.Completed))
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	second, err := store.UpdateByID(ctx, todo.ID, models.CompletedPatch(!first.Completed))
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}

	if second.Completed != todo.Completed {
		t.Errorf("expected completed to return to %v, got %v", todo.Completed, second.Completed)
	}
	if !first.UpdatedAt.After(todo.UpdatedAt) {
		t.Errorf("expected updatedAt to increase: %v -> %v", todo.UpdatedAt, first.UpdatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("expected updatedAt to increase: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.CreatedAt.After(second.UpdatedAt) {
		t.Errorf("createdAt %v is after updatedAt %v", second.CreatedAt, second.UpdatedAt)
	}
}

func TestUpdateByID_NotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.UpdateByID(context.Background(), "missing", models.CompletedPatch(true))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	keep, _ := store.Insert(ctx, "keep")
	drop, _ := store.Insert(ctx, "drop")

	if err := store.DeleteByID(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}

	all, _ := store.ListAll(ctx)
	if len(all) != 1 || all[0].ID != keep.ID {
		t.Errorf("expected only %q to remain, got %#v", keep.ID, all)
	}

	if err := store.DeleteByID(ctx, drop.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := store.UpdateByID(ctx, drop.ID, models.TitlePatch("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted id to be unresolvable, got %v", err)
	}
}

func TestWithIDGenerator(t *testing.T) {
	n := 0
	store := setupTestDB(t, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("todo-%d", n)
	}))

	todo, err := store.Insert(context.Background(), "custom id")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if todo.ID != "todo-1" {
		t.Errorf("expected id todo-1, got %q", todo.ID)
	}
}

func TestNewSQLiteStore_ReopenKeepsDataAndMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "todos.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	todo, err := first.Insert(ctx, "persisted")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	all, err := second.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != todo.ID {
		t.Fatalf("expected persisted todo, got %#v", all)
	}

	var migrationCount int
	if err := second.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("failed to count schema migrations: %v", err)
	}
	if migrationCount != 1 {
		t.Fatalf("expected 1 applied migration, got %d", migrationCount)
	}
}

func TestPing(t *testing.T) {
	store := setupTestDB(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
