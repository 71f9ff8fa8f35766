package httpapi

import (
	"net/http"

	"github.com/zoa-eus/osoak/internal/curriculum"
	"github.com/zoa-eus/osoak/internal/progress"
)

const theoryPassXP = 50

type theoryListEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Order     int    `json:"order"`
	Unlocked  bool   `json:"unlocked"`
	Completed bool   `json:"completed"`
}

func (s *Server) handleTheoryList(w http.ResponseWriter, r *http.Request) {
	rec := recordFrom(r.Context())

	units := s.curriculum.Units()
	out := make([]theoryListEntry, 0, len(units))
	for i, u := range units {
		out = append(out, theoryListEntry{
			ID:        u.ID,
			Title:     u.Title,
			Summary:   u.Summary,
			Order:     u.Order,
			Unlocked:  progress.TheoryUnlocked(rec, i+1),
			Completed: rec.HasLesson(u.TheoryKey()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// unitPosition returns the 1-based curriculum position of a unit ID.
func (s *Server) unitPosition(id string) int {
	for i, u := range s.curriculum.Units() {
		if u.ID == id {
			return i + 1
		}
	}
	return 0
}

func (s *Server) lookupUnit(w http.ResponseWriter, r *http.Request) (curriculum.Unit, bool) {
	unit, ok := s.curriculum.GetUnit(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown unit")
		return curriculum.Unit{}, false
	}
	rec := recordFrom(r.Context())
	if !progress.TheoryUnlocked(rec, s.unitPosition(unit.ID)) {
		writeError(w, http.StatusForbidden, "unit is locked")
		return curriculum.Unit{}, false
	}
	return unit, true
}

func (s *Server) handleTheoryUnit(w http.ResponseWriter, r *http.Request) {
	unit, ok := s.lookupUnit(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (s *Server) handleTheoryQuiz(w http.ResponseWriter, r *http.Request) {
	unit, ok := s.lookupUnit(w, r)
	if !ok {
		return
	}

	var req struct {
		Answers []int `json:"answers"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	passed := curriculum.Grade(unit, req.Answers)
	resp := map[string]any{"passed": passed}

	if passed {
		sess := sessionFrom(r.Context())
		rec, res, err := s.ledger.ApplyXP(r.Context(), sess.UserID, theoryPassXP, unit.TheoryKey())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to record progress")
			return
		}
		resp["xp_awarded"] = res.Applied
		if rec != nil {
			resp["user"] = rec
		}
		if len(res.Unlocked) > 0 {
			resp["achievements"] = res.Unlocked
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
