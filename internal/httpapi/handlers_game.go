package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/zoa-eus/osoak/internal/game"
	"github.com/zoa-eus/osoak/internal/progress"
)

func (s *Server) handleGameStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode       string `json:"mode"`
		Difficulty string `json:"difficulty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	mode, ok := game.ParseMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	diff, ok := game.ParseDifficulty(req.Difficulty)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown difficulty")
		return
	}

	rec := recordFrom(r.Context())
	mode, diff, err := progress.ResolvePlay(rec, mode, diff)
	if err != nil {
		if errors.Is(err, progress.ErrTheoryRequired) {
			writeError(w, http.StatusForbidden, "complete the theory unit first")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not start game")
		return
	}

	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusCreated, s.games.Start(sess.UserID, mode, diff))
}

func (s *Server) handleGameGet(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	gs, err := s.games.Get(r.PathValue("id"), sess.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (s *Server) handleGameAnswer(w http.ResponseWriter, r *http.Request) {
	var ans game.Answer
	if !decodeJSON(w, r, &ans) {
		return
	}

	sess := sessionFrom(r.Context())
	id := r.PathValue("id")

	gs, err := s.games.Get(id, sess.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	category := gs.CategoryKey()

	res, err := s.games.Submit(id, sess.UserID, ans)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := map[string]any{"result": res}

	// The answer's XP change and the completion bonus hit the ledger as
	// separate changes: a penalty clamps against the category's current
	// XP, the bonus against whatever room is left afterwards.
	applied := 0
	var rec *progress.Record
	var unlocked []progress.Achievement
	for _, amount := range []int{res.XPDelta, res.Bonus} {
		if amount == 0 {
			continue
		}
		updated, ar, err := s.ledger.ApplyXP(r.Context(), sess.UserID, amount, category)
		if err != nil {
			// The game already advanced; report the result but flag the
			// ledger failure.
			slog.Error("failed to apply game xp", "user_id", sess.UserID, "error", err)
			resp["xp_error"] = true
			continue
		}
		if updated != nil {
			rec = updated
			applied += ar.Applied
			unlocked = append(unlocked, ar.Unlocked...)
		}
	}
	s.games.AddXP(id, applied)
	if rec != nil {
		resp["xp_applied"] = applied
		resp["user"] = rec
		if len(unlocked) > 0 {
			resp["achievements"] = unlocked
		}
	}

	if res.Done {
		if summary, err := s.games.Finish(id, sess.UserID); err == nil {
			resp["summary"] = summary
		}
	} else if snap, err := s.games.Get(id, sess.UserID); err == nil {
		resp["session"] = snap
	}
	writeJSON(w, http.StatusOK, resp)
}
