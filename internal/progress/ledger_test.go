package progress

import (
	"testing"
	"time"
)

func testRecord() *Record {
	return NewRecord("u1", "ane@example.com", "Ane", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func TestApplyXP_ClampsAtCategoryCap(t *testing.T) {
	rec := testRecord()
	rec.CategoryXP["ordering_easy"] = 95

	res := applyXP(rec, 20, "ordering_easy")
	if res.Applied != 5 {
		t.Fatalf("applied = %d, want 5", res.Applied)
	}
	if got := rec.CategoryXPFor("ordering_easy"); got != 100 {
		t.Fatalf("category xp = %d, want 100", got)
	}

	res = applyXP(rec, 1000, "ordering_easy")
	if res.Applied != 0 {
		t.Fatalf("applied at cap = %d, want 0", res.Applied)
	}
	if got := rec.CategoryXPFor("ordering_easy"); got != 100 {
		t.Fatalf("category xp after capped grant = %d, want 100", got)
	}
}

func TestApplyXP_PenaltyClampsToCategory(t *testing.T) {
	rec := testRecord()
	rec.XP = 30
	rec.CategoryXP["addition_easy"] = 10

	res := applyXP(rec, -25, "addition_easy")
	if res.Applied != -10 {
		t.Fatalf("applied = %d, want -10", res.Applied)
	}
	if rec.XP != 20 {
		t.Fatalf("total xp = %d, want 20", rec.XP)
	}
	if got := rec.CategoryXPFor("addition_easy"); got != 0 {
		t.Fatalf("category xp = %d, want 0", got)
	}

	// Nothing left in the category: a further penalty is a no-op.
	res = applyXP(rec, -25, "addition_easy")
	if res.Applied != 0 || rec.XP != 20 {
		t.Fatalf("applied = %d, xp = %d, want 0 and 20", res.Applied, rec.XP)
	}
}

func TestApplyXP_TotalNeverNegative(t *testing.T) {
	rec := testRecord()
	rec.XP = 5
	rec.CategoryXP["ordering_easy"] = 50

	applyXP(rec, -30, "ordering_easy")
	if rec.XP != 0 {
		t.Fatalf("total xp = %d, want 0", rec.XP)
	}
}

func TestApplyXP_TheoryLessonRecordedOnce(t *testing.T) {
	rec := testRecord()

	res := applyXP(rec, 50, "theory_intro")
	if res.Applied != 50 {
		t.Fatalf("applied = %d, want 50", res.Applied)
	}
	if !rec.HasLesson("theory_intro") {
		t.Fatal("lesson not recorded")
	}

	// A repeat pass is at the cap: no XP, no duplicate lesson entry.
	res = applyXP(rec, 50, "theory_intro")
	if res.Applied != 0 {
		t.Fatalf("repeat applied = %d, want 0", res.Applied)
	}
	if len(rec.Lessons) != 1 {
		t.Fatalf("lessons = %v, want one entry", rec.Lessons)
	}
}

func TestApplyXP_AchievementsUnlockOnce(t *testing.T) {
	rec := testRecord()

	res := applyXP(rec, 100, "mixed_easy")
	if len(res.Unlocked) != 1 || res.Unlocked[0].ID != "first_steps" {
		t.Fatalf("unlocked = %v, want first_steps", res.Unlocked)
	}
	// 100 earned + 50 reward.
	if rec.XP != 150 {
		t.Fatalf("xp = %d, want 150", rec.XP)
	}

	res = applyXP(rec, 50, "mixed_easy")
	if len(res.Unlocked) != 0 {
		t.Fatalf("unlocked again = %v, want none", res.Unlocked)
	}
}

func TestApplyXP_RewardIgnoresCaps(t *testing.T) {
	rec := testRecord()
	rec.CategoryXP["ordering_hard"] = 190
	rec.XP = 190

	res := applyXP(rec, 50, "ordering_hard")
	if res.Applied != 10 {
		t.Fatalf("applied = %d, want 10", res.Applied)
	}
	// master_ordering fires at the cap and its 400 XP lands on the total
	// even though every category pool is bounded. 200 + 400 also crosses
	// the first_steps threshold, so both unlock.
	if len(res.Unlocked) != 2 {
		t.Fatalf("unlocked = %v, want master_ordering and first_steps", res.Unlocked)
	}
	if rec.XP != 650 {
		t.Fatalf("xp = %d, want 650", rec.XP)
	}
	if rec.Level != LevelFor(650) {
		t.Fatalf("level = %d, want %d", rec.Level, LevelFor(650))
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		xp, want int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{2000, 5},
		{4999, 10},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.xp); got != tc.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestTouchStreak(t *testing.T) {
	base := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	t.Run("same day is a no-op", func(t *testing.T) {
		rec := testRecord()
		rec.LastLogin = base
		rec.LoginStreak = 3
		if touchStreak(rec, base.Add(90*time.Minute)) {
			t.Fatal("streak changed within the same day")
		}
		if rec.LoginStreak != 3 {
			t.Fatalf("streak = %d, want 3", rec.LoginStreak)
		}
	})

	t.Run("next day extends", func(t *testing.T) {
		rec := testRecord()
		rec.LastLogin = base
		rec.LoginStreak = 3
		if !touchStreak(rec, base.Add(26*time.Hour)) {
			t.Fatal("streak not updated")
		}
		if rec.LoginStreak != 4 {
			t.Fatalf("streak = %d, want 4", rec.LoginStreak)
		}
	})

	t.Run("gap resets", func(t *testing.T) {
		rec := testRecord()
		rec.LastLogin = base
		rec.LoginStreak = 9
		if !touchStreak(rec, base.Add(72*time.Hour)) {
			t.Fatal("streak not updated")
		}
		if rec.LoginStreak != 1 {
			t.Fatalf("streak = %d, want 1", rec.LoginStreak)
		}
	})
}

func TestService_ApplyXP_GuestNoop(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)

	rec, res, err := svc.ApplyXP(t.Context(), "guest_ab12", 50, "ordering_easy")
	if err != nil {
		t.Fatalf("ApplyXP() error = %v", err)
	}
	if rec != nil || res.Applied != 0 {
		t.Fatalf("guest change applied: rec=%v applied=%d", rec, res.Applied)
	}
}

func TestService_ApplyXP_PersistsAndLogs(t *testing.T) {
	store := NewMemoryStore()
	events := NewMemoryEventLogger()
	svc := NewService(store, events)

	if err := store.Create(t.Context(), testRecord()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec, res, err := svc.ApplyXP(t.Context(), "u1", 25, "ordering_easy")
	if err != nil {
		t.Fatalf("ApplyXP() error = %v", err)
	}
	if res.Applied != 25 || rec.XP != 25 {
		t.Fatalf("applied = %d, xp = %d, want 25 and 25", res.Applied, rec.XP)
	}

	stored, err := store.Get(t.Context(), "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.XP != 25 {
		t.Fatalf("stored xp = %d, want 25", stored.XP)
	}

	evs := events.Events()
	if len(evs) != 1 || evs[0].EventType != "xp_change" {
		t.Fatalf("events = %v, want one xp_change", evs)
	}
}

func TestService_TouchLogin_StreakAchievement(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)

	rec := testRecord()
	rec.LoginStreak = 4
	rec.LastLogin = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Create(t.Context(), rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	got, unlocked, err := svc.TouchLogin(t.Context(), "u1")
	if err != nil {
		t.Fatalf("TouchLogin() error = %v", err)
	}
	if got.LoginStreak != 5 {
		t.Fatalf("streak = %d, want 5", got.LoginStreak)
	}
	if len(unlocked) != 1 || unlocked[0].ID != "streak_5" {
		t.Fatalf("unlocked = %v, want streak_5", unlocked)
	}
	if got.XP != 100 {
		t.Fatalf("xp = %d, want the streak_5 reward", got.XP)
	}
}
