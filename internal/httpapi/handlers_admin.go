package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zoa-eus/osoak/internal/progress"
)

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == sessionFrom(r.Context()).UserID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := s.ledger.Remove(r.Context(), id); err != nil {
		if errors.Is(err, progress.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no such user")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAdminExport streams every user as an xlsx workbook.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list users")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Erabiltzaileak"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Email", "Izena", "XP", "Maila", "Bolada", "Azken saioa", "Lezioak", "Lorpenak"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, rec := range records {
		values := []any{
			rec.ID,
			rec.Email,
			rec.DisplayName,
			rec.XP,
			rec.Level,
			rec.LoginStreak,
			rec.LastLogin.Format("2006-01-02 15:04"),
			strings.Join(rec.Lessons, ", "),
			strings.Join(rec.Achievements, ", "),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "erabiltzaileak.xlsx"))
	if err := f.Write(w); err != nil {
		// Headers are already out, so the response cannot be changed.
		slog.Error("xlsx export failed", "error", err)
	}
}
