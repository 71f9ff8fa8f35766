package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/zoa-eus/osoak/internal/progress"
)

const testBcryptCost = 4 // minimum cost keeps the suite fast

func newTestService() (*Service, *progress.MemoryStore) {
	store := progress.NewMemoryStore()
	ledger := progress.NewService(store, nil)
	svc := NewService(store, ledger, NewMemorySessionStore(), testBcryptCost, time.Hour, "admin@zoa.eus")
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := t.Context()

	rec, sess, err := svc.Register(ctx, "Ane@Example.com", "sekretua1", "ane garmendia")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if rec.Email != "ane@example.com" {
		t.Errorf("email = %q, want lowercased", rec.Email)
	}
	if rec.DisplayName != "Ane Garmendia" {
		t.Errorf("display name = %q, want title case", rec.DisplayName)
	}
	if rec.IsAdmin {
		t.Error("ordinary account flagged admin")
	}
	if sess.Token == "" {
		t.Fatal("no session token issued")
	}

	got, _, _, err := svc.Login(ctx, "ane@example.com", "sekretua1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("login resolved %q, want %q", got.ID, rec.ID)
	}

	if _, _, _, err := svc.Login(ctx, "ane@example.com", "okerra123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, _, err := svc.Login(ctx, "inor@example.com", "sekretua1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_SurfacesStreakAchievements(t *testing.T) {
	svc, store := newTestService()
	ctx := t.Context()

	rec, _, err := svc.Register(ctx, "ane@example.com", "sekretua1", "Ane")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// One day short of the 5-day streak achievement; the next login
	// crosses the line.
	rec.LoginStreak = 4
	rec.LastLogin = time.Now().UTC().Add(-24 * time.Hour)
	if err := store.Update(ctx, rec); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _, unlocked, err := svc.Login(ctx, "ane@example.com", "sekretua1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.LoginStreak != 5 {
		t.Fatalf("streak = %d, want 5", got.LoginStreak)
	}
	if len(unlocked) != 1 || unlocked[0].ID != "streak_5" {
		t.Fatalf("unlocked = %v, want streak_5", unlocked)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := t.Context()

	if _, _, err := svc.Register(ctx, "ane@example.com", "sekretua1", "Ane"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, _, err := svc.Register(ctx, "ane@example.com", "bestea12", "Beste Ane")
	if !errors.Is(err, progress.ErrEmailTaken) {
		t.Fatalf("Register() duplicate error = %v, want ErrEmailTaken", err)
	}
}

func TestRegister_AdminEmail(t *testing.T) {
	svc, _ := newTestService()

	rec, _, err := svc.Register(t.Context(), "Admin@zoa.eus", "sekretua1", "Admin")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !rec.IsAdmin {
		t.Error("admin email not flagged admin")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc, _ := newTestService()
	if _, _, err := svc.Register(t.Context(), "ane@example.com", "abc", "Ane"); err == nil {
		t.Fatal("Register() accepted a short password")
	}
}

func TestAuthenticate(t *testing.T) {
	svc, store := newTestService()
	ctx := t.Context()

	rec, sess, err := svc.Register(ctx, "ane@example.com", "sekretua1", "Ane")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	gotSess, gotRec, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if gotSess.UserID != rec.ID || gotRec.ID != rec.ID {
		t.Fatalf("Authenticate() resolved %q/%q, want %q", gotSess.UserID, gotRec.ID, rec.ID)
	}

	if _, _, err := svc.Authenticate(ctx, "ezezaguna"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Authenticate() unknown token error = %v, want ErrNoSession", err)
	}

	// A deleted account invalidates its sessions on the next request.
	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Authenticate() after delete error = %v, want ErrNoSession", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService()
	ctx := t.Context()

	_, sess, err := svc.Register(ctx, "ane@example.com", "sekretua1", "Ane")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Authenticate() after logout error = %v, want ErrNoSession", err)
	}
}

func TestGuest(t *testing.T) {
	svc, store := newTestService()
	ctx := t.Context()

	rec, sess, err := svc.Guest(ctx)
	if err != nil {
		t.Fatalf("Guest() error = %v", err)
	}
	if !progress.IsGuestID(rec.ID) {
		t.Fatalf("guest id = %q, want guest_ prefix", rec.ID)
	}
	if rec.DisplayName != "Gonbidatua" {
		t.Errorf("display name = %q", rec.DisplayName)
	}
	if !rec.HasLesson("theory_intro") {
		t.Error("guest record missing pre-passed lessons")
	}

	gotSess, gotRec, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !gotSess.Guest || !gotRec.Guest {
		t.Fatal("guest session lost its guest flag")
	}

	// Nothing is persisted for guests.
	if recs, _ := store.List(ctx); len(recs) != 0 {
		t.Fatalf("guest record persisted: %v", recs)
	}
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore()
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	sess := Session{Token: "tok", UserID: "u1", ExpiresAt: current.Add(time.Hour)}
	if err := store.Put(t.Context(), sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := store.Get(t.Context(), "tok"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := store.Get(t.Context(), "tok"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get() expired error = %v, want ErrNoSession", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("sekretua1", testBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "sekretua1") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "okerra123") {
		t.Error("wrong password accepted")
	}
}
