// Package auth handles registration, login and bearer-token sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zoa-eus/osoak/internal/progress"
)

// ErrInvalidCredentials is returned on a failed login. It deliberately
// does not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

var titleCaser = cases.Title(language.Und)

// Service owns the account lifecycle: register, login, guest access and
// session resolution.
type Service struct {
	store      progress.Store
	ledger     *progress.Service
	sessions   SessionStore
	bcryptCost int
	sessionTTL time.Duration
	adminEmail string
	now        func() time.Time
}

// NewService creates the auth service.
func NewService(store progress.Store, ledger *progress.Service, sessions SessionStore, bcryptCost int, sessionTTL time.Duration, adminEmail string) *Service {
	return &Service{
		store:      store,
		ledger:     ledger,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
		adminEmail: strings.ToLower(adminEmail),
		now:        time.Now,
	}
}

// Register creates an account and an initial session.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*progress.Record, Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, Session{}, fmt.Errorf("invalid email address")
	}
	displayName = titleCaser.String(strings.TrimSpace(displayName))
	if displayName == "" {
		displayName = titleCaser.String(strings.SplitN(email, "@", 2)[0])
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, Session{}, err
	}

	rec := progress.NewRecord(newID("u"), email, displayName, s.now())
	rec.PasswordHash = hash
	rec.IsAdmin = email == s.adminEmail

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, Session{}, err
	}

	sess, err := s.newSession(ctx, rec)
	if err != nil {
		return nil, Session{}, err
	}
	return rec, sess, nil
}

// Login verifies credentials, maintains the login streak and opens a
// session. Achievements the streak touch unlocked are returned so the
// caller can surface them.
func (s *Service) Login(ctx context.Context, email, password string) (*progress.Record, Session, []progress.Achievement, error) {
	rec, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			return nil, Session{}, nil, ErrInvalidCredentials
		}
		return nil, Session{}, nil, fmt.Errorf("lookup account: %w", err)
	}
	if !CheckPassword(rec.PasswordHash, password) {
		return nil, Session{}, nil, ErrInvalidCredentials
	}

	var unlocked []progress.Achievement
	if updated, ach, err := s.ledger.TouchLogin(ctx, rec.ID); err == nil && updated != nil {
		rec = updated
		unlocked = ach
	}

	sess, err := s.newSession(ctx, rec)
	if err != nil {
		return nil, Session{}, nil, err
	}
	return rec, sess, unlocked, nil
}

// Guest opens an ephemeral session with no stored record. Guest progress
// lives only inside the session's game state and is discarded on logout.
func (s *Service) Guest(ctx context.Context) (*progress.Record, Session, error) {
	rec := GuestRecord(newID("guest"), s.now())

	token, err := newToken()
	if err != nil {
		return nil, Session{}, err
	}
	sess := Session{
		Token:     token,
		UserID:    rec.ID,
		Guest:     true,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, Session{}, fmt.Errorf("store session: %w", err)
	}
	return rec, sess, nil
}

// GuestRecord builds the fixed in-memory record guests play with. All
// theory lessons are pre-passed; the XP gates still limit them to the
// entry modes since a guest never accumulates stored XP.
func GuestRecord(id string, now time.Time) *progress.Record {
	rec := progress.NewRecord(id, "", "Gonbidatua", now)
	rec.Guest = true
	for _, key := range []string{
		"theory_intro", "theory_operations", "theory_multiplication",
		"theory_powers", "theory_advanced",
	} {
		rec.Lessons = append(rec.Lessons, key)
	}
	return rec
}

// Logout drops a session. Unknown tokens are fine.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Remove(ctx, token)
}

// Authenticate resolves a bearer token to its session and progress
// record. A session whose account was deleted is dropped and treated as
// logged out.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, *progress.Record, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return Session{}, nil, err
	}
	if sess.Guest {
		return sess, GuestRecord(sess.UserID, s.now()), nil
	}

	rec, err := s.store.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			_ = s.sessions.Remove(ctx, token)
			return Session{}, nil, ErrNoSession
		}
		return Session{}, nil, fmt.Errorf("load account: %w", err)
	}
	return sess, rec, nil
}

func (s *Service) newSession(ctx context.Context, rec *progress.Record) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		Token:     token,
		UserID:    rec.ID,
		IsAdmin:   rec.IsAdmin,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newID(prefix string) string {
	return prefix + "_" + randomHex(8)
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
