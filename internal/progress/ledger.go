package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ApplyResult reports what an XP change actually did. Applied can be less
// than requested (or zero) near a category cap.
type ApplyResult struct {
	Applied  int
	Unlocked []Achievement
}

// applyXP mutates rec according to the ledger rules and reports the actual
// change. Positive amounts clamp to the category cap; negative amounts
// clamp to the XP present in the category, so neither the category nor the
// total ever goes below zero.
func applyXP(rec *Record, amount int, category string) ApplyResult {
	if rec.CategoryXP == nil {
		rec.CategoryXP = map[string]int{}
	}

	var res ApplyResult
	current := rec.CategoryXP[category]

	if amount >= 0 {
		available := CapFor(category) - current
		if available < 0 {
			available = 0
		}
		res.Applied = min(amount, available)
		if res.Applied > 0 {
			rec.XP += res.Applied
			rec.CategoryXP[category] = current + res.Applied
			if IsTheoryKey(category) && !rec.HasLesson(category) {
				rec.Lessons = append(rec.Lessons, category)
			}
		}
	} else {
		reduction := min(-amount, current)
		if reduction > 0 {
			rec.CategoryXP[category] = current - reduction
			rec.XP = max(0, rec.XP-reduction)
		}
		res.Applied = -reduction
		return res
	}

	// Level and achievements are only re-evaluated on non-negative changes,
	// including zero-applied ones at the cap.
	rec.Level = LevelFor(rec.XP)
	for _, ach := range Achievements {
		if rec.HasAchievement(ach.ID) || !ach.Condition(rec) {
			continue
		}
		rec.Achievements = append(rec.Achievements, ach.ID)
		rec.XP += ach.XPReward // reward ignores category caps
		rec.Level = LevelFor(rec.XP)
		res.Unlocked = append(res.Unlocked, ach)
	}
	return res
}

// touchStreak updates the calendar-day login streak: +1 after exactly one
// day, reset to 1 after a gap, untouched within the same day. Reports
// whether anything changed.
func touchStreak(rec *Record, now time.Time) bool {
	today := dateOf(now)
	lastDay := dateOf(rec.LastLogin)

	if !today.After(lastDay) {
		return false
	}
	if today.Sub(lastDay) == 24*time.Hour {
		rec.LoginStreak++
	} else {
		rec.LoginStreak = 1
	}
	rec.LastLogin = now
	return true
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Service is the single writer for progress records. All screens go
// through it; nothing else mutates a stored record.
type Service struct {
	store  Store
	events EventLogger
	now    func() time.Time
}

// NewService creates the ledger service.
func NewService(store Store, events EventLogger) *Service {
	if events == nil {
		events = NopEventLogger{}
	}
	return &Service{store: store, events: events, now: time.Now}
}

// Get loads a user's record.
func (s *Service) Get(ctx context.Context, userID string) (*Record, error) {
	return s.store.Get(ctx, userID)
}

// ApplyXP runs one read-modify-write XP change against a user's record.
// Guests are a no-op returning zero applied.
func (s *Service) ApplyXP(ctx context.Context, userID string, amount int, category string) (*Record, ApplyResult, error) {
	if IsGuestID(userID) {
		return nil, ApplyResult{}, nil
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, ApplyResult{}, fmt.Errorf("load record: %w", err)
	}

	res := applyXP(rec, amount, category)
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, ApplyResult{}, fmt.Errorf("save record: %w", err)
	}

	if res.Applied != 0 {
		s.logEvent(Event{
			UserID:    userID,
			EventType: "xp_change",
			Data: map[string]any{
				"category": category,
				"amount":   res.Applied,
				"total_xp": rec.XP,
			},
		})
	}
	for _, ach := range res.Unlocked {
		s.logEvent(Event{
			UserID:    userID,
			EventType: "achievement_unlocked",
			Data: map[string]any{
				"achievement": ach.ID,
				"xp_reward":   ach.XPReward,
			},
		})
	}

	return rec, res, nil
}

// TouchLogin maintains the calendar-day login streak and may unlock the
// streak achievements. Called once per successful login.
func (s *Service) TouchLogin(ctx context.Context, userID string) (*Record, []Achievement, error) {
	if IsGuestID(userID) {
		return nil, nil, nil
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load record: %w", err)
	}

	if !touchStreak(rec, s.now()) {
		return rec, nil, nil
	}

	// A streak change can satisfy streak achievements without any XP grant.
	res := applyXP(rec, 0, "")
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("save record: %w", err)
	}

	s.logEvent(Event{
		UserID:    userID,
		EventType: "login",
		Data:      map[string]any{"streak": rec.LoginStreak},
	})
	return rec, res.Unlocked, nil
}

// SetDisplayName updates the profile name.
func (s *Service) SetDisplayName(ctx context.Context, userID, name string) (*Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	rec.DisplayName = name
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	return rec, nil
}

// Leaderboard returns the top users by total XP.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*Record, error) {
	return s.store.Top(ctx, limit)
}

// All returns every record ordered by last login, newest first. Admin only.
func (s *Service) All(ctx context.Context) ([]*Record, error) {
	return s.store.List(ctx)
}

// Remove deletes a user's record. The next authenticated request from that
// user finds no profile and is logged out.
func (s *Service) Remove(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}

func (s *Service) logEvent(ev Event) {
	if err := s.events.LogEvent(ev); err != nil {
		slog.Warn("failed to log progress event", "type", ev.EventType, "error", err)
	}
}
