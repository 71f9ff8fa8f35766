package progress

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_CRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	rec := NewRecord("u1", "ane@example.com", "Ane", time.Now())
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != "ane@example.com" {
		t.Fatalf("email = %q", got.Email)
	}

	// Returned records are copies; mutating them must not leak back.
	got.CategoryXP["ordering_easy"] = 999
	again, _ := store.Get(ctx, "u1")
	if again.CategoryXPFor("ordering_easy") != 0 {
		t.Fatal("store state aliased by a returned record")
	}

	got.XP = 75
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, _ = store.Get(ctx, "u1")
	if again.XP != 75 {
		t.Fatalf("xp after update = %d, want 75", again.XP)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	if err := store.Create(ctx, NewRecord("u1", "ane@example.com", "Ane", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := store.Create(ctx, NewRecord("u2", "ane@example.com", "Beste Ane", time.Now()))
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Create() duplicate error = %v, want ErrEmailTaken", err)
	}
}

func TestMemoryStore_GetByEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	if err := store.Create(ctx, NewRecord("u1", "ane@example.com", "Ane", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := store.GetByEmail(ctx, "ane@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != "u1" {
		t.Fatalf("id = %q, want u1", got.ID)
	}
	if _, err := store.GetByEmail(ctx, "inor@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByEmail() missing error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Ordering(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, tc := range []struct {
		id string
		xp int
	}{
		{"u1", 300},
		{"u2", 700},
		{"u3", 100},
	} {
		rec := NewRecord(tc.id, tc.id+"@example.com", tc.id, base.Add(time.Duration(i)*time.Hour))
		rec.XP = tc.xp
		if err := store.Create(ctx, rec); err != nil {
			t.Fatalf("Create(%s) error = %v", tc.id, err)
		}
	}

	top, err := store.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(top) != 2 || top[0].ID != "u2" || top[1].ID != "u1" {
		t.Fatalf("Top() = %v, want u2 then u1", top)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "u3" {
		t.Fatalf("List() first = %v, want the latest login first", all)
	}
}
