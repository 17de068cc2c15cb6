package adapthttp

import (
	"net/http"

	"focuslock/internal/domain"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	st, err := s.stats.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStatsSession(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var body struct {
		Duration       int `json:"duration"`
		CompletedTasks int `json:"completedTasks"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.stats.RecordSession(r.Context(), currentUser(r).ID, body.Duration, body.CompletedTasks)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStatsWeekly(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}
	var weekly domain.WeeklyStats
	if err := parseJSON(r, &weekly); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.stats.ReplaceWeekly(r.Context(), currentUser(r).ID, weekly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStatsMonthly(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}
	var monthly domain.MonthlyStats
	if err := parseJSON(r, &monthly); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.stats.ReplaceMonthly(r.Context(), currentUser(r).ID, monthly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStatsDailyReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	st, err := s.stats.ResetDaily(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
