package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/zoa-eus/osoak/internal/game"
	"github.com/zoa-eus/osoak/internal/platform/cache"
	"github.com/zoa-eus/osoak/internal/progress"
)

const (
	leaderboardSize     = 10
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = 30 * time.Second
)

type difficultyStatus struct {
	Difficulty game.Difficulty `json:"difficulty"`
	Locked     bool            `json:"locked"`
	XP         int             `json:"xp"`
	Cap        int             `json:"cap"`
}

type modeStatus struct {
	Mode         game.Mode          `json:"mode"`
	Unlocked     bool               `json:"unlocked"`
	TheoryKey    string             `json:"theory_key,omitempty"`
	TheoryDone   bool               `json:"theory_done"`
	Difficulties []difficultyStatus `json:"difficulties"`
}

func modeStatuses(rec *progress.Record) []modeStatus {
	out := make([]modeStatus, 0, len(game.Modes))
	for _, mode := range game.Modes {
		ms := modeStatus{
			Mode:     mode,
			Unlocked: progress.GameUnlocked(rec, mode),
		}
		if key := progress.RequiredTheory(mode); key != "" {
			ms.TheoryKey = key
			ms.TheoryDone = rec.HasLesson(key)
		} else {
			ms.TheoryDone = true
		}
		for _, diff := range game.Difficulties {
			key := game.CategoryKey(mode, diff)
			ms.Difficulties = append(ms.Difficulties, difficultyStatus{
				Difficulty: diff,
				Locked:     progress.DifficultyLocked(rec, mode, diff),
				XP:         rec.CategoryXPFor(key),
				Cap:        progress.CapFor(key),
			})
		}
		out = append(out, ms)
	}
	return out
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	rec := recordFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  rec,
		"modes": modeStatuses(rec),
	})
}

type leaderboardEntry struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"display_name"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		var cached []leaderboardEntry
		err := s.cache.GetJSON(r.Context(), leaderboardCacheKey, &cached)
		if err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("leaderboard cache read failed", "error", err)
		}
	}

	records, err := s.ledger.Leaderboard(r.Context(), leaderboardSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}

	entries := make([]leaderboardEntry, 0, len(records))
	for i, rec := range records {
		entries = append(entries, leaderboardEntry{
			Rank:        i + 1,
			DisplayName: rec.DisplayName,
			XP:          rec.XP,
			Level:       rec.Level,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(r.Context(), leaderboardCacheKey, entries, leaderboardCacheTTL); err != nil {
			slog.Warn("leaderboard cache write failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, entries)
}
